package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	// 整理有失败项：报告已经输出过，这里只设置退出码。
	if !errors.Is(err, errCompletedWithErrors) {
		fmt.Fprintf(os.Stderr, "错误：%v\n", err)
	}
	os.Exit(1)
}

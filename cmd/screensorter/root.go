package main

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/screensorter/internal/config"
	"github.com/John-Robertt/screensorter/internal/logging"
)

// errCompletedWithErrors 表示整理完成但有失败项（非零退出码，不重复打印）。
var errCompletedWithErrors = errors.New("整理完成，但有失败项")

// commandContext 承载全部子命令共享的状态（替代全局变量）。
type commandContext struct {
	fsys afero.Fs

	logLevel  string
	logFormat string
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{fsys: afero.NewOsFs()}

	rootCmd := &cobra.Command{
		Use:           "screensorter",
		Short:         "按日期整理截图文件夹",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "日志级别：debug|info|warn|error（默认读 settings.toml，最终默认 info）")
	rootCmd.PersistentFlags().StringVar(&ctx.logFormat, "log-format", "", "日志格式：console|json（日志只写 stderr）")

	rootCmd.AddCommand(newSortCommand(ctx))
	rootCmd.AddCommand(newSelectCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}

// bootstrapLogger 在读取 settings.toml 之前使用：只看 CLI 参数，参数无效时退回默认值。
func (c *commandContext) bootstrapLogger(w io.Writer) *slog.Logger {
	log, err := logging.New(logging.Options{Level: c.logLevel, Format: c.logFormat, Writer: w})
	if err != nil {
		log, _ = logging.New(logging.Options{Writer: w})
	}
	return log
}

// loadState 定位配置目录并读取 config.json（永不失败，除非无法定位目录）。
func (c *commandContext) loadState(w io.Writer) (string, config.State, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", config.State{}, err
	}
	return dir, config.LoadState(c.fsys, dir, c.bootstrapLogger(w)), nil
}

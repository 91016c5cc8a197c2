package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/John-Robertt/screensorter/internal/app/run"
	"github.com/John-Robertt/screensorter/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的进度输出：阶段行 + 一根进度条，失败项单独成行。
//
// 所有输出写到 stderr，不污染 stdout 的报告。
type progressUI struct {
	w io.Writer

	mu        sync.Mutex
	startedAt time.Time
	bar       *progressbar.ProgressBar
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(path, strategy string, dryRun bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startedAt = time.Now()
	mode := "apply"
	modeHint := ""
	if dryRun {
		mode = "dry-run"
		modeHint = " (不重命名/不创建目录/不移动)"
	}

	fmt.Fprintf(p.w, "[%s] screensorter sort (%s)\n", p.startedAt.Format("15:04:05"), mode)
	fmt.Fprintf(p.w, "  path: %s\n", path)
	fmt.Fprintf(p.w, "  strategy: %s\n", strategy)
	fmt.Fprintf(p.w, "  mode: %s%s\n\n", mode, modeHint)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "scan":
		fmt.Fprintf(p.w, "扫描: files=%d folders=%d (%s)\n",
			intField(fields, "files"), intField(fields, "folders"), formatShortDuration(dur),
		)
	case "group":
		fmt.Fprintf(p.w, "分组: dated=%d undated=%d (%s)\n",
			intField(fields, "dated"), intField(fields, "undated"), formatShortDuration(dur),
		)
	case "exec":
		if p.bar != nil {
			_ = p.bar.Finish()
			p.bar = nil
		}
		fmt.Fprintf(p.w, "执行: moved=%d planned=%d failed=%d (%s)\n",
			intField(fields, "moved"), intField(fields, "planned"), intField(fields, "failed"), formatShortDuration(dur),
		)
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		p.bar = newBar(p.w, total)
	}

	if res.Status == domain.StatusFailed {
		_ = p.bar.Clear()
		fmt.Fprintf(p.w, "[%d/%d] %s FAIL %s: %s\n", idx, total, res.Src, res.ErrorCode, truncate(res.ErrorMsg, 160))
	}
	_ = p.bar.Add(1)
}

func newBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("整理"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}

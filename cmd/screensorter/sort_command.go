package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/screensorter/internal/app/run"
	"github.com/John-Robertt/screensorter/internal/config"
	"github.com/John-Robertt/screensorter/internal/domain"
	"github.com/John-Robertt/screensorter/internal/infra/journal"
	"github.com/John-Robertt/screensorter/internal/infra/lock"
	"github.com/John-Robertt/screensorter/internal/logging"
	"github.com/John-Robertt/screensorter/internal/strategy"
)

type sortFlags struct {
	dryRun   bool
	strategy string
	format   string
}

func newSortCommand(ctx *commandContext) *cobra.Command {
	var flags sortFlags

	cmd := &cobra.Command{
		Use:   "sort [folder]",
		Short: "整理文件夹中的截图（不传 folder 时使用 select 选定的文件夹）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := ""
			if len(args) == 1 {
				folder = args[0]
			}
			return runSort(cmd, ctx, folder, flags)
		},
	}

	names := strings.Join(strategy.Builtin().Names(), "|")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "只规划不改动：不重命名、不创建目录、不复制、不删除")
	cmd.Flags().StringVar(&flags.strategy, "strategy", "", "整理策略："+names+"（默认读 settings.toml，最终默认 canonical）")
	cmd.Flags().StringVar(&flags.format, "format", formatAuto, "报告格式：auto|text|json|yaml（auto：终端为 text，否则 json）")
	return cmd
}

func runSort(cmd *cobra.Command, ctx *commandContext, folder string, flags sortFlags) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	format, err := resolveFormat(flags.format, stdout)
	if err != nil {
		return err
	}

	dir, st, err := ctx.loadState(stderr)
	if err != nil {
		return fmt.Errorf("定位配置目录失败：%w", err)
	}

	eff, err := config.LoadEffective(ctx.fsys, dir, st, config.CLIArgs{
		Folder:      folder,
		Strategy:    flags.strategy,
		StrategySet: cmd.Flags().Changed("strategy"),
		DryRun:      flags.dryRun,
		LogLevel:    ctx.logLevel,
		LogFormat:   ctx.logFormat,
	})
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Options{Level: eff.LogLevel, Format: eff.LogFormat, Writer: stderr})
	if err != nil {
		return &config.Error{Code: config.ErrCodeInvalid, Path: filepath.Join(dir, config.SettingsFileName), Err: err}
	}

	reg := strategy.Builtin()
	strat, ok := reg.Get(eff.Strategy)
	if !ok {
		return &config.Error{
			Code: config.ErrCodeInvalid,
			Path: filepath.Join(dir, config.SettingsFileName),
			Err:  fmt.Errorf("未知策略 %q（可选：%s）", eff.Strategy, strings.Join(reg.Names(), ", ")),
		}
	}

	lk, err := lock.Acquire(dir)
	if err != nil {
		return err
	}
	defer func() { _ = lk.Release() }()

	var obs run.Observer
	if w, ok := progressWriter(stderr); ok {
		obs = newProgressUI(w)
	}

	sorter := run.New(ctx.fsys, run.Options{
		Strategy:    strat,
		StrictDates: eff.StrictDates,
		UseExif:     eff.UseExif,
		Exclude:     eff.Exclude,
		DryRun:      eff.DryRun,
		Logger:      log,
		Observer:    obs,
	})

	rr, err := sorter.Sort(cmd.Context(), eff.Folder)
	if err != nil {
		return err
	}

	if !rr.DryRun {
		recordRun(cmd.Context(), dir, rr, log)
	}

	if err := emitReport(stdout, stderr, format, rr); err != nil {
		return err
	}
	if rr.Outcome == domain.OutcomeCompletedWithErrors {
		return errCompletedWithErrors
	}
	return nil
}

// recordRun 把报告写入 history.db；失败只记日志，不影响整理结果。
func recordRun(ctx context.Context, dir string, rr domain.RunReport, log *slog.Logger) {
	store, err := journal.Open(ctx, dir)
	if err != nil {
		log.Warn("打开 history.db 失败，跳过记录", "dir", dir, "error", err)
		return
	}
	defer store.Close()

	if err := store.Record(ctx, rr); err != nil {
		log.Warn("写入整理记录失败", "run_id", rr.RunID, "error", err)
		return
	}
	log.Debug("已写入整理记录", "run_id", rr.RunID, "db", store.Path())
}

func progressWriter(stderr io.Writer) (io.Writer, bool) {
	// 进度只在交互终端启用，且只写 stderr（不污染 stdout 的报告）。
	if isTTY(stderr) {
		return stderr, true
	}
	return nil, false
}

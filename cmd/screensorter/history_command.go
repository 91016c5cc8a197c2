package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/screensorter/internal/config"
	"github.com/John-Robertt/screensorter/internal/infra/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		runID  string
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "查看最近的整理记录（dry-run 不记录）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			f, err := resolveFormat(format, out)
			if err != nil {
				return err
			}
			dir, err := config.Dir()
			if err != nil {
				return fmt.Errorf("定位配置目录失败：%w", err)
			}

			store, err := journal.Open(cmd.Context(), dir)
			if err != nil {
				return err
			}
			defer store.Close()

			if runID != "" {
				items, err := store.Items(cmd.Context(), runID)
				if err != nil {
					return err
				}
				switch f {
				case formatJSON:
					return encodeJSON(out, items)
				case formatYAML:
					return encodeYAML(out, items)
				}
				if len(items) == 0 {
					fmt.Fprintf(out, "没有找到 run_id=%s 的条目。\n", runID)
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, it := range items {
					rows = append(rows, []string{statusLabel(it.Status), kindLabel(it.Kind), it.Src, it.Dst, itemNote(it)})
				}
				fmt.Fprintln(out, renderTable([]string{"状态", "类型", "源", "目标", "说明"}, rows, nil))
				return nil
			}

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			switch f {
			case formatJSON:
				return encodeJSON(out, runs)
			case formatYAML:
				return encodeYAML(out, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "暂无整理记录。")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					humanize.Time(r.StartedAt),
					r.RunID,
					r.Strategy,
					r.Outcome,
					strconv.Itoa(r.Summary.Moved),
					strconv.Itoa(r.Summary.Failed),
					humanize.Bytes(uint64(r.Summary.Bytes)),
					r.Path,
				})
			}
			headers := []string{"时间", "run_id", "策略", "结果", "移动", "失败", "大小", "路径"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "最多显示多少次运行")
	cmd.Flags().StringVar(&runID, "run", "", "显示指定 run_id 的条目明细")
	cmd.Flags().StringVar(&format, "format", formatAuto, "输出格式：auto|text|json|yaml")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/screensorter/internal/domain"
)

const (
	formatAuto = "auto"
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// resolveFormat 把 auto 解析为具体格式：stdout 是终端 => text；否则 => json（机器可读契约）。
func resolveFormat(raw string, stdout io.Writer) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case "", formatAuto:
		if isTTY(stdout) {
			return formatText, nil
		}
		return formatJSON, nil
	case formatText, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("--format 只能是 auto|text|json|yaml，实际是 %q", raw)
	}
}

// emitReport 输出报告。json/yaml：stdout 只有报告本身，摘要走 stderr。
func emitReport(stdout, stderr io.Writer, format string, rr domain.RunReport) error {
	switch format {
	case formatJSON:
		if err := encodeJSON(stdout, rr); err != nil {
			return err
		}
		fmt.Fprintln(stderr, summaryLine(rr))
	case formatYAML:
		if err := encodeYAML(stdout, rr); err != nil {
			return err
		}
		fmt.Fprintln(stderr, summaryLine(rr))
	default:
		renderTextReport(stdout, rr)
	}
	return nil
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func renderTextReport(w io.Writer, rr domain.RunReport) {
	if len(rr.Items) > 0 {
		rows := make([][]string, 0, len(rr.Items))
		for _, it := range rr.Items {
			rows = append(rows, []string{statusLabel(it.Status), kindLabel(it.Kind), it.Src, it.Dst, itemNote(it)})
		}
		fmt.Fprintln(w, renderTable([]string{"状态", "类型", "源", "目标", "说明"}, rows, nil))
		fmt.Fprintln(w, summaryLine(rr))
	}
	fmt.Fprintln(w, rr.Message())
}

func summaryLine(rr domain.RunReport) string {
	s := rr.Summary
	line := fmt.Sprintf("完成：files=%d folders=%d moved=%d renamed=%d failed=%d",
		s.Files, s.Folders, s.Moved, s.Renamed, s.Failed,
	)
	if rr.DryRun {
		line += fmt.Sprintf(" planned=%d (dry-run)", s.Planned)
	} else if s.Bytes > 0 {
		line += " size=" + humanize.Bytes(uint64(s.Bytes))
	}
	return line
}

func statusLabel(status string) string {
	switch status {
	case domain.StatusMoved:
		return "OK"
	case domain.StatusRenamedMoved:
		return "OK*"
	case domain.StatusPlanned:
		return "PLAN"
	case domain.StatusFailed:
		return "FAIL"
	default:
		return strings.ToUpper(status)
	}
}

func kindLabel(kind string) string {
	if kind == domain.KindFolder {
		return "文件夹"
	}
	return "文件"
}

func itemNote(it domain.ItemResult) string {
	if it.Status == domain.StatusFailed {
		return it.ErrorCode + ": " + truncate(it.ErrorMsg, 100)
	}
	parts := make([]string, 0, 2)
	if it.Renamed != "" {
		parts = append(parts, "重命名为 "+it.Renamed)
	}
	switch it.DateSource {
	case domain.DateSourceCreated:
		parts = append(parts, "日期取自创建时间")
	case domain.DateSourceExif:
		parts = append(parts, "日期取自 EXIF")
	}
	return strings.Join(parts, "；")
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	KindFile   = "file"
	KindFolder = "folder"
)

const (
	StatusPlanned      = "planned"
	StatusMoved        = "moved"
	StatusRenamedMoved = "renamed_moved"
	StatusFailed       = "failed"
)

const (
	OutcomeNothingToSort       = "nothing_to_sort"
	OutcomeSuccess             = "success"
	OutcomeCompletedWithErrors = "completed_with_errors"
)

const (
	ErrCodeParseFailed    = "parse_failed"
	ErrCodeIOFailed       = "io_failed"
	ErrCodeMoveFailed     = "move_failed"
	ErrCodeTargetConflict = "target_conflict"
	ErrCodeInterrupted    = "interrupted"
)

// RunReport 是一次整理的对外稳定输出（stdout JSON/YAML、history.db）。
type RunReport struct {
	RunID    string `json:"run_id" yaml:"run_id"`
	Path     string `json:"path" yaml:"path"`
	Strategy string `json:"strategy" yaml:"strategy"`
	DryRun   bool   `json:"dry_run" yaml:"dry_run"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	Outcome string        `json:"outcome" yaml:"outcome"`
	Summary ReportSummary `json:"summary" yaml:"summary"`
	Items   []ItemResult  `json:"items" yaml:"items"`
}

type ReportSummary struct {
	Files   int   `json:"files" yaml:"files"`
	Folders int   `json:"folders" yaml:"folders"`
	Moved   int   `json:"moved" yaml:"moved"`
	Renamed int   `json:"renamed" yaml:"renamed"`
	Planned int   `json:"planned" yaml:"planned"`
	Failed  int   `json:"failed" yaml:"failed"`
	Bytes   int64 `json:"bytes" yaml:"bytes"`
}

// ItemResult 是单个文件/文件夹的结果。Src/Dst/Renamed 均为相对根目录的路径。
type ItemResult struct {
	Kind    string `json:"kind" yaml:"kind"`
	Src     string `json:"src" yaml:"src"`
	Renamed string `json:"renamed,omitempty" yaml:"renamed,omitempty"`
	Dst     string `json:"dst" yaml:"dst"`

	Date       string `json:"date,omitempty" yaml:"date,omitempty"`
	DateSource string `json:"date_source,omitempty" yaml:"date_source,omitempty"`

	Status    string `json:"status" yaml:"status"`
	ErrorCode string `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty" yaml:"error_msg,omitempty"`

	Bytes int64 `json:"bytes,omitempty" yaml:"bytes,omitempty"`
}

// Finalize 做四件事：
// 1) 时间统一为 UTC
// 2) items 稳定排序：文件在前、文件夹在后，各自按 src 字典序
// 3) summary 由 items 计算得出
// 4) outcome：无条目 => nothing_to_sort；有失败 => completed_with_errors；否则 success
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a, b := r.Items[i], r.Items[j]
		if a.Kind != b.Kind {
			return a.Kind == KindFile
		}
		return a.Src < b.Src
	})

	var s ReportSummary
	for _, it := range r.Items {
		switch it.Kind {
		case KindFile:
			s.Files++
		case KindFolder:
			s.Folders++
		}
		switch it.Status {
		case StatusMoved:
			s.Moved++
			s.Bytes += it.Bytes
		case StatusRenamedMoved:
			s.Moved++
			s.Renamed++
			s.Bytes += it.Bytes
		case StatusPlanned:
			s.Planned++
		case StatusFailed:
			s.Failed++
		}
	}
	r.Summary = s

	switch {
	case len(r.Items) == 0:
		r.Outcome = OutcomeNothingToSort
	case s.Failed > 0:
		r.Outcome = OutcomeCompletedWithErrors
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Failures 返回失败条目（保持 Items 顺序）。
func (r RunReport) Failures() []ItemResult {
	out := make([]ItemResult, 0, r.Summary.Failed)
	for _, it := range r.Items {
		if it.Status == StatusFailed {
			out = append(out, it)
		}
	}
	return out
}

// Message 生成面向用户的一条通知文本（三种结果各不相同；失败时逐条列出）。
func (r RunReport) Message() string {
	switch r.Outcome {
	case OutcomeNothingToSort:
		return "未找到需要整理的 PNG 文件或日期文件夹。"
	case OutcomeCompletedWithErrors:
		fails := r.Failures()
		lines := make([]string, 0, len(fails)+1)
		lines = append(lines, fmt.Sprintf("整理完成，但有 %d 项失败：", len(fails)))
		for _, it := range fails {
			what := "文件"
			if it.Kind == KindFolder {
				what = "文件夹"
			}
			lines = append(lines, fmt.Sprintf("移动%s '%s' 失败：%s", what, it.Src, it.ErrorMsg))
		}
		return strings.Join(lines, "\n")
	default:
		if r.DryRun {
			return fmt.Sprintf("预演完成：共规划 %d 项（未做任何改动）。", r.Summary.Planned)
		}
		return "所有文件和文件夹均已整理完成。"
	}
}

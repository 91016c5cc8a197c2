package run

import (
	"time"

	"github.com/John-Robertt/screensorter/internal/domain"
)

// Observer 用于把“运行进度/阶段/条目结果”从整理流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON/YAML 契约）。
// - 事件在调用 Sort 的 goroutine 上同步发出；实现应尽快返回。
type Observer interface {
	// OnStart 在扫描前调用（根目录已确认可用）。
	OnStart(path, strategy string, dryRun bool)
	// OnPhaseDone 在阶段结束时调用：scan / group / exec。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnItemDone 在每个文件/文件夹处理完成时调用，idx 从 1 开始。
	OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration)
}

package strategy

import (
	"path/filepath"

	"github.com/John-Robertt/screensorter/internal/datename"
	"github.com/John-Robertt/screensorter/internal/domain"
)

const (
	NameCanonical   = "canonical"
	NameLegacyRegex = "legacy-regex"
	NameLegacyDash  = "legacy-dash"
)

// Layout 决定目标目录的命名方式。
type Layout int

const (
	// LayoutNested: <root>/<YYYY>-<MM>/<YYYY>-<MM>-<DD>
	LayoutNested Layout = iota
	// LayoutFlat: <root>/<YYYY>-<M>-<D>（不补零）
	LayoutFlat
)

// Relocation 决定文件如何落到目标位置。
type Relocation int

const (
	// RelocateCopyVerify: 复制（保留权限与修改时间）→ 校验 → 删除原文件。
	RelocateCopyVerify Relocation = iota
	// RelocateMove: 直接 rename。
	RelocateMove
)

// Strategy 把“文件名约定 + 目录布局 + 落盘方式”打包为一个可按名字选择的整体。
//
// 约束：
// - Parse 必须是纯函数：相同输入 => 相同输出
// - Fallback=true 时，Parse 失败的文件改用创建时间，并先在原地加日期前缀重命名
type Strategy struct {
	Name           string
	Parse          func(name string) (domain.InferredDate, error)
	Fallback       bool
	Layout         Layout
	Relocation     Relocation
	PromoteFolders bool
}

// DestDir 计算日期对应的目标目录（绝对路径）。
func (s Strategy) DestDir(root string, d domain.InferredDate) string {
	if s.Layout == LayoutFlat {
		return filepath.Join(root, d.FlatFolder())
	}
	return filepath.Join(root, d.MonthFolder(), d.DayFolder())
}

// Canonical 是默认行为：宽松正则 + 创建时间兜底 + 嵌套目录 + 复制校验删除 + 日期文件夹归位。
func Canonical() Strategy {
	return Strategy{
		Name:           NameCanonical,
		Parse:          datename.Extract,
		Fallback:       true,
		Layout:         LayoutNested,
		Relocation:     RelocateCopyVerify,
		PromoteFolders: true,
	}
}

// LegacyRegex 是第二版行为：文件名里必须带日期（无兜底），嵌套目录，直接移动。
func LegacyRegex() Strategy {
	return Strategy{
		Name:       NameLegacyRegex,
		Parse:      datename.Extract,
		Layout:     LayoutNested,
		Relocation: RelocateMove,
	}
}

// LegacyDash 是第一版行为：严格 5 段式文件名，单层 YYYY-M-D 目录，直接移动。
func LegacyDash() Strategy {
	return Strategy{
		Name:       NameLegacyDash,
		Parse:      datename.ExtractDash5,
		Layout:     LayoutFlat,
		Relocation: RelocateMove,
	}
}

// Builtin 返回包含全部内置策略的注册表。
func Builtin() Registry {
	reg, err := NewRegistry(Canonical(), LegacyRegex(), LegacyDash())
	if err != nil {
		// 内置策略名固定且互不重复。
		panic(err)
	}
	return reg
}

package domain

import "time"

// ShotFile 描述根目录下一张待整理的截图（只做 stat，不读内容）。
//
// 不变量：
// - AbsPath 必须是 clean + absolute
// - Name 含扩展名（保留原始大小写）
type ShotFile struct {
	AbsPath string
	Name    string
	Base    string // filename without ext
	Ext     string // ".png"（已小写）
	Size    int64
	ModTime time.Time
}

// DateFolder 是根目录下以日期开头命名的子目录（例如旧版本生成的 2024-3-7）。
type DateFolder struct {
	AbsPath string
	Name    string
	Date    InferredDate
}

// DatedShot 是已从文件名解析出日期的截图。
type DatedShot struct {
	File ShotFile
	Date InferredDate
}

// Undated 是文件名中没有（可用）日期的截图；Err 记录解析失败的原因。
type Undated struct {
	File ShotFile
	Err  error
}

package fsx

import (
	"os"
	"time"

	"github.com/djherbis/times"
	"github.com/spf13/afero"
)

// CreationTime 返回文件的“创建时间”（本地时区）。
//
// 优先级：birth time > change time > modification time。
// 只有真实磁盘（*afero.OsFs）才能读到 birth/change time；其他 Fs 退化为 fi.ModTime()。
func CreationTime(fsys afero.Fs, path string, fi os.FileInfo) time.Time {
	if _, ok := fsys.(*afero.OsFs); ok {
		if ts, err := times.Stat(path); err == nil {
			switch {
			case ts.HasBirthTime():
				return ts.BirthTime().Local()
			case ts.HasChangeTime():
				return ts.ChangeTime().Local()
			default:
				return ts.ModTime().Local()
			}
		}
	}
	return fi.ModTime().Local()
}

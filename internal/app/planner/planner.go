package planner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/John-Robertt/screensorter/internal/domain"
)

// Reserved 记录本次运行中已“占用”但尚未落盘的目标路径（dry-run 依赖它模拟冲突）。
type Reserved map[string]struct{}

func (r Reserved) Add(path string) {
	if r != nil {
		r[filepath.Clean(path)] = struct{}{}
	}
}

func (r Reserved) Has(path string) bool {
	if r == nil {
		return false
	}
	_, ok := r[filepath.Clean(path)]
	return ok
}

// MonthDir 返回日期文件夹归位时的父目录 <root>/<YYYY>-<MM>。
func MonthDir(root string, d domain.InferredDate) string {
	return filepath.Join(root, d.MonthFolder())
}

// AllocName 在 dir 下为 name 分配一个不冲突的文件名。
//
// 规则：原名可用则用原名；否则依次尝试 <stem>_1<ext>、<stem>_2<ext>…，
// 每次都重新检查磁盘与 reserved。绝不返回已存在的名字。
func AllocName(fsys afero.Fs, dir, name string, reserved Reserved) (string, error) {
	free, err := isFree(fsys, filepath.Join(dir, name), reserved)
	if err != nil {
		return "", err
	}
	if free {
		return name, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 1; ; n++ {
		cand := fmt.Sprintf("%s_%d%s", stem, n, ext)
		free, err := isFree(fsys, filepath.Join(dir, cand), reserved)
		if err != nil {
			return "", err
		}
		if free {
			return cand, nil
		}
	}
}

func isFree(fsys afero.Fs, path string, reserved Reserved) (bool, error) {
	if reserved.Has(path) {
		return false, nil
	}
	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

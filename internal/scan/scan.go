package scan

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/John-Robertt/screensorter/internal/datename"
	"github.com/John-Robertt/screensorter/internal/domain"
)

// ErrInvalidPattern 表示 exclude 中有无法解析的 doublestar 模式。
var ErrInvalidPattern = errors.New("exclude 模式无效")

// Result 是对根目录的一次扫描（只看直接子项，不递归）。
type Result struct {
	Files   []domain.ShotFile
	Folders []domain.DateFolder
}

// Empty 表示既没有待整理的 PNG，也没有日期文件夹。
func (r Result) Empty() bool {
	return len(r.Files) == 0 && len(r.Folders) == 0
}

// ScanRoot 扫描 root 的直接子项。
//
// 规则（硬约束）：
// - 文件：扩展名为 .png（大小写不敏感），且不以 '.' 开头
// - 目录：名字以日期开头（例如 2024-3-7），月份目录 2024-03 不算
// - exclude：doublestar 模式，匹配文件/目录的名字；命中即跳过
//
// 注意：扫描阶段只做 stat，不读文件内容。
func ScanRoot(fsys afero.Fs, root string, exclude []string) (Result, error) {
	root = filepath.Clean(root)

	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return Result{}, fmt.Errorf("%w：%q", ErrInvalidPattern, p)
		}
	}

	// afero.ReadDir 已按名字排序；这里仍显式排序，避免依赖实现细节。
	entries, err := afero.ReadDir(fsys, root)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, fi := range entries {
		name := fi.Name()
		if isExcluded(name, exclude) {
			continue
		}

		if fi.IsDir() {
			if d, ok := datename.ExtractLeading(name); ok {
				res.Folders = append(res.Folders, domain.DateFolder{
					AbsPath: filepath.Join(root, name),
					Name:    name,
					Date:    d,
				})
			}
			continue
		}

		if !fi.Mode().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		ext := filepath.Ext(name)
		if strings.ToLower(ext) != ".png" {
			continue
		}

		res.Files = append(res.Files, domain.ShotFile{
			AbsPath: filepath.Join(root, name),
			Name:    name,
			Base:    strings.TrimSuffix(name, ext),
			Ext:     strings.ToLower(ext),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}

	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].Name < res.Files[j].Name })
	sort.Slice(res.Folders, func(i, j int) bool { return res.Folders[i].Name < res.Folders[j].Name })
	return res, nil
}

func isExcluded(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/John-Robertt/screensorter/internal/infra/fsx"
)

const StateFileName = "config.json"

// State 是持久化的用户选择（config.json）。目前只认一个键：folder_path。
type State struct {
	FolderPath *string `json:"folder_path"`
}

// Folder 返回已选文件夹；未选择时为空串。
func (s State) Folder() string {
	if s.FolderPath == nil {
		return ""
	}
	return strings.TrimSpace(*s.FolderPath)
}

// WithFolder 返回设置了 folder_path 的新 State。
func (s State) WithFolder(folder string) State {
	f := folder
	s.FolderPath = &f
	return s
}

// LoadState 读取 <dir>/config.json。
//
// 约束：永不失败。
// - 文件不存在：写入默认值（folder_path=null）后返回默认值
// - 内容损坏：记录告警，用默认值覆盖后返回默认值
// - 其他读取错误：记录告警，返回默认值（不覆盖，避免误删用户文件）
func LoadState(fsys afero.Fs, dir string, log *slog.Logger) State {
	path := filepath.Join(dir, StateFileName)

	b, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("config.json 不存在，写入默认值", "path", path)
			resetState(fsys, dir, log)
			return State{}
		}
		log.Warn("读取 config.json 失败，使用默认值", "path", path, "error", err)
		return State{}
	}

	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		log.Warn("config.json 无法解析，重置为默认值", "path", path, "error", err)
		resetState(fsys, dir, log)
		return State{}
	}
	return st
}

// SaveState 原子写入 <dir>/config.json（4 空格缩进，与历史文件格式一致）。
func SaveState(fsys afero.Fs, dir string, st State) error {
	b, err := json.MarshalIndent(st, "", "    ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(fsys, dir, StateFileName, b)
}

func resetState(fsys afero.Fs, dir string, log *slog.Logger) {
	if err := SaveState(fsys, dir, State{}); err != nil {
		log.Warn("写入默认 config.json 失败", "dir", dir, "error", err)
	}
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

const (
	// ErrCodeMissingFolder 表示没有可用的文件夹（既没传参，config.json 里也没有 folder_path）。
	ErrCodeMissingFolder = "config_missing_folder"
	// ErrCodeFolderInvalid 表示文件夹不存在或不是目录。
	ErrCodeFolderInvalid = "config_folder_invalid"
	// ErrCodeInvalid 表示 settings.toml 无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	SettingsFileName = "settings.toml"

	DefaultStrategy  = "canonical"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息，保证覆盖优先级可实现。
type CLIArgs struct {
	Folder string

	Strategy    string
	StrategySet bool

	DryRun bool

	LogLevel  string
	LogFormat string
}

// Settings 对应 settings.toml 的解析结构（全部可选）。
type Settings struct {
	Strategy    string      `toml:"strategy"`
	StrictDates bool        `toml:"strict_dates"`
	UseExif     bool        `toml:"use_exif"`
	Exclude     []string    `toml:"exclude"`
	Log         LogSettings `toml:"log"`
}

type LogSettings struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// Dir 是配置目录（config.json / settings.toml / history.db / 锁文件所在处）。
	Dir string

	// Folder 可能为空：是否允许为空由整理流程自己判定（并报告 config_missing_folder）。
	Folder string

	Strategy    string
	StrictDates bool
	UseExif     bool
	DryRun      bool
	Exclude     []string

	LogLevel  string
	LogFormat string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeMissingFolder:
		return fmt.Sprintf("%s：未指定文件夹（请先运行 select 选择文件夹，或在 sort 后直接给出路径）", e.Code)
	case ErrCodeFolderInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：文件夹 %q 不可用：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：文件夹 %q 不可用", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Path == "" {
			return fmt.Sprintf("%s：配置无效：%v", e.Code, e.Err)
		}
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取 <dir>/settings.toml（可选），再与 config.json 状态、CLI 参数合并。
//
// 覆盖优先级（固定）：
// - folder：CLI 参数 > config.json 的 folder_path
// - strategy：CLI --strategy > settings.strategy > 默认 canonical
// - log.level / log.format：CLI > settings > 默认 info / console
// - 其他字段：仅由 settings 控制
func LoadEffective(fsys afero.Fs, dir string, st State, cli CLIArgs) (EffectiveConfig, error) {
	settingsPath := filepath.Join(dir, SettingsFileName)
	s, err := ReadSettings(fsys, settingsPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: settingsPath, Err: err}
	}

	folder := st.Folder()
	if strings.TrimSpace(cli.Folder) != "" {
		folder = cli.Folder
	}
	folder = absClean(folder)

	strategy := DefaultStrategy
	if cli.StrategySet {
		strategy = cli.Strategy
	} else if strings.TrimSpace(s.Strategy) != "" {
		strategy = s.Strategy
	}
	strategy = strings.ToLower(strings.TrimSpace(strategy))
	if strategy == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: settingsPath, Err: fmt.Errorf("strategy 不能为空")}
	}

	level := firstNonEmpty(cli.LogLevel, s.Log.Level, DefaultLogLevel)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: settingsPath, Err: fmt.Errorf("log.level 只能是 debug|info|warn|error，实际是 %q", level)}
	}
	format := firstNonEmpty(cli.LogFormat, s.Log.Format, DefaultLogFormat)
	switch format {
	case "console", "json":
	default:
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: settingsPath, Err: fmt.Errorf("log.format 只能是 console|json，实际是 %q", format)}
	}

	exclude := make([]string, 0, len(s.Exclude))
	for _, p := range s.Exclude {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: settingsPath, Err: fmt.Errorf("exclude 模式无效：%q", p)}
		}
		exclude = append(exclude, p)
	}

	return EffectiveConfig{
		Dir:         dir,
		Folder:      folder,
		Strategy:    strategy,
		StrictDates: s.StrictDates,
		UseExif:     s.UseExif,
		DryRun:      cli.DryRun,
		Exclude:     exclude,
		LogLevel:    level,
		LogFormat:   format,
	}, nil
}

// ReadSettings 读取并解析 settings.toml；文件不存在返回零值且不报错。
// 未知字段视为错误（拼写错误不应被静默忽略）。
func ReadSettings(fsys afero.Fs, path string) (Settings, error) {
	b, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, err
	}

	var s Settings
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// absClean 把 p 变为 clean + absolute；空串保持为空。
func absClean(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			return v
		}
	}
	return ""
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// EnvDir 覆盖配置目录（便携安装/测试）。
	EnvDir = "SCREENSORTER_CONFIG_DIR"

	// appDirName 沿用历史目录名，老用户的 config.json 可以直接继续使用。
	appDirName = "GTAW_ScreenSorter"
)

// Dir 返回配置目录（不创建）。
//
// - $SCREENSORTER_CONFIG_DIR（若设置）
// - Windows：%LOCALAPPDATA%\GTAW_ScreenSorter
// - 其他：~/.config/GTAW_ScreenSorter
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvDir)); v != "" {
		return filepath.Abs(v)
	}

	if runtime.GOOS == "windows" {
		local := strings.TrimSpace(os.Getenv("LOCALAPPDATA"))
		if local == "" {
			return "", errors.New("LOCALAPPDATA 未设置")
		}
		return filepath.Join(local, appDirName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appDirName), nil
}

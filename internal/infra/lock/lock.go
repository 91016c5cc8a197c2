package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const FileName = "screensorter.lock"

// ErrHeld 表示另一个进程正在整理（锁被占用）。
var ErrHeld = errors.New("另一个 screensorter 进程正在整理，请稍后再试")

// Lock 是跨进程的单实例锁（文件锁，位于配置目录而非被整理的目录，避免改动用户文件夹）。
type Lock struct {
	path string
	fl   *flock.Flock
}

// Acquire 非阻塞地获取 <dir>/screensorter.lock；被占用时返回 ErrHeld。
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建锁目录失败：%w", err)
	}

	path := filepath.Join(dir, FileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("获取锁失败：%w", err)
	}
	if !ok {
		return nil, ErrHeld
	}
	return &Lock{path: path, fl: fl}, nil
}

func (l *Lock) Path() string { return l.path }

// Release 释放锁；重复调用安全。
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}

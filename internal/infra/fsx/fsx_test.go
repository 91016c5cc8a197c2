package fsx

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomicReplace_SuccessAndNoTempLeft(t *testing.T) {
	fsys := afero.NewOsFs()
	dir := t.TempDir()

	require.NoError(t, WriteFileAtomicReplace(fsys, dir, "a.txt", []byte("hello")))
	require.NoError(t, WriteFileAtomicReplace(fsys, dir, "a.txt", []byte("world")))

	b, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "world", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".a.txt.tmp-"), "临时文件未清理：%q", e.Name())
	}
}

func TestWriteFileAtomicReplace_RenameFail_CleanupTemp(t *testing.T) {
	fsys := afero.NewOsFs()
	dir := t.TempDir()

	old := renameFunc
	renameFunc = func(afero.Fs, string, string) error { return os.ErrPermission }
	defer func() { renameFunc = old }()

	require.Error(t, WriteFileAtomicReplace(fsys, dir, "a.txt", []byte("hello")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "不应留下临时文件或最终文件")
}

func TestEnsureDir_CreatesAndDetectsConflict(t *testing.T) {
	fsys := afero.NewOsFs()
	root := t.TempDir()

	nested := filepath.Join(root, "2024-01", "2024-01-05")
	require.NoError(t, EnsureDir(fsys, nested))
	require.NoError(t, EnsureDir(fsys, nested), "已存在的目录应视为成功")

	file := filepath.Join(root, "2024-02")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	err := EnsureDir(fsys, file)
	require.Error(t, err)
	assert.True(t, IsPathTypeConflict(err), "期望 PathTypeConflictError，实际：%T %v", err, err)
}

func TestCopyFileVerified_PreservesMetadata(t *testing.T) {
	fsys := afero.NewOsFs()
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	dst := filepath.Join(dir, "b.png")

	require.NoError(t, os.WriteFile(src, []byte("png-bytes"), 0o600))
	mt := time.Date(2024, 2, 10, 12, 0, 0, 0, time.Local)
	require.NoError(t, os.Chtimes(src, mt, mt))

	n, err := CopyFileVerified(fsys, src, dst)
	require.NoError(t, err)
	assert.Equal(t, int64(len("png-bytes")), n)

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))

	fi, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, fi.ModTime().Equal(mt), "修改时间未保留：%v", fi.ModTime())

	_, err = os.Stat(src)
	assert.NoError(t, err, "复制不应触碰源文件")
}

func TestCopyFileVerified_NeverOverwrites(t *testing.T) {
	fsys := afero.NewOsFs()
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	dst := filepath.Join(dir, "b.png")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o644))

	_, err := CopyFileVerified(fsys, src, dst)
	require.Error(t, err)

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "old", string(b), "已存在的目标不应被覆盖或删除")
}

func TestCopyFileVerified_DetectsDataNotOnDisk(t *testing.T) {
	for _, tc := range []struct {
		name  string
		write func(f afero.File, p []byte) (int, error)
	}{
		{"写入被丢弃", func(afero.File, []byte) (int, error) { return 0, nil }},
		{"写入被篡改", func(f afero.File, p []byte) (int, error) {
			bad := bytes.ToUpper(p)
			return f.Write(bad)
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "a.png")
			dst := filepath.Join(dir, "b.png")
			require.NoError(t, os.WriteFile(src, []byte("screenshot-bytes"), 0o644))

			fsys := lossyFs{Fs: afero.NewOsFs(), write: tc.write}
			_, err := CopyFileVerified(fsys, src, dst)

			var ve *VerifyError
			require.ErrorAs(t, err, &ve)
			_, statErr := os.Stat(dst)
			assert.True(t, os.IsNotExist(statErr), "校验失败后应删除 dst")
			b, err := os.ReadFile(src)
			require.NoError(t, err)
			assert.Equal(t, "screenshot-bytes", string(b))
		})
	}
}

// lossyFs 在新建文件的 Write 上做手脚，但仍按 len(p) 报告成功。
type lossyFs struct {
	afero.Fs
	write func(f afero.File, p []byte) (int, error)
}

func (l lossyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := l.Fs.OpenFile(name, flag, perm)
	if err != nil || flag&os.O_CREATE == 0 {
		return f, err
	}
	return lossyFile{File: f, write: l.write}, nil
}

type lossyFile struct {
	afero.File
	write func(f afero.File, p []byte) (int, error)
}

func (f lossyFile) Write(p []byte) (int, error) {
	if _, err := f.write(f.File, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func TestCreationTime_NonOsFsFallsBackToModTime(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/r/a.png", []byte("x"), 0o644))
	mt := time.Date(2024, 2, 10, 9, 30, 0, 0, time.Local)
	require.NoError(t, fsys.Chtimes("/r/a.png", mt, mt))

	fi, err := fsys.Stat("/r/a.png")
	require.NoError(t, err)
	got := CreationTime(fsys, "/r/a.png", fi)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.February, got.Month())
	assert.Equal(t, 10, got.Day())
}

func TestCreationTime_OsFsIsRecent(t *testing.T) {
	fsys := afero.NewOsFs()
	p := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	fi, err := os.Stat(p)
	require.NoError(t, err)
	got := CreationTime(fsys, p, fi)
	assert.WithinDuration(t, time.Now(), got, time.Hour)
}

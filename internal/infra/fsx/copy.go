package fsx

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

// VerifyError 表示复制完成后目标与源不一致（大小或哈希）。
type VerifyError struct {
	Dst    string
	Reason string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("复制校验失败：%q：%s", e.Dst, e.Reason)
}

// CopyFileVerified 把 src 复制为 dst，并保留权限位与修改时间。
//
// 约束：
// - dst 以 O_EXCL 创建：已存在则失败，绝不覆盖
// - 边写边算源的 SHA256，写完回读 dst 比对大小与哈希；不一致则删除 dst 并返回 *VerifyError
// - 任何失败都不会触碰 src
func CopyFileVerified(fsys afero.Fs, src, dst string) (int64, error) {
	srcInfo, err := fsys.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("读取源文件信息失败：%w", err)
	}

	in, err := fsys.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := fsys.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, srcInfo.Mode().Perm())
	if err != nil {
		return 0, err
	}
	keep := false
	defer func() {
		_ = out.Close()
		if !keep {
			_ = fsys.Remove(dst)
		}
	}()

	srcHasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHasher))
	if err != nil {
		return 0, err
	}
	if err := out.Sync(); err != nil {
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, err
	}
	if written != srcInfo.Size() {
		return 0, &VerifyError{Dst: dst, Reason: fmt.Sprintf("大小不一致：源 %d 字节，复制 %d 字节", srcInfo.Size(), written)}
	}

	// 校验以落盘内容为准：重新打开 dst 读取，而不是信任 Write 的返回值。
	onDisk, dstSum, err := hashFile(fsys, dst)
	if err != nil {
		return 0, fmt.Errorf("回读目标文件失败：%w", err)
	}
	if onDisk != srcInfo.Size() {
		return 0, &VerifyError{Dst: dst, Reason: fmt.Sprintf("大小不一致：源 %d 字节，目标 %d 字节", srcInfo.Size(), onDisk)}
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstSum) {
		return 0, &VerifyError{Dst: dst, Reason: "哈希不一致"}
	}

	// 元数据：权限位 + 修改时间（访问时间没有可靠来源，沿用修改时间）。
	if err := fsys.Chmod(dst, srcInfo.Mode().Perm()); err != nil {
		return 0, err
	}
	mt := srcInfo.ModTime()
	if err := fsys.Chtimes(dst, mt, mt); err != nil {
		return 0, err
	}

	keep = true
	return written, nil
}

func hashFile(fsys afero.Fs, path string) (int64, []byte, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, nil, err
	}
	return n, h.Sum(nil), nil
}

package pngmeta

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	pngstructure "github.com/dsoprea/go-png-image-structure/v2"
	"github.com/rwcarlsen/goexif/exif"
)

// ErrNoExif 表示 PNG 中没有 eXIf 块，或 eXIf 中没有拍摄/生成时间。
var ErrNoExif = errors.New("PNG 中没有可用的 EXIF 时间")

// ErrNotPNG 表示输入不是 PNG（签名不匹配）。
var ErrNotPNG = errors.New("不是 PNG 文件")

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// ReadExifDate 从 PNG 的 eXIf 块读取 DateTimeOriginal（缺失时回退 DateTime）。
//
// 约束：
// - 只拆分块结构，不解码图像
// - eXIf 块 CRC 不匹配视为文件损坏，返回错误
// - 找不到 eXIf 或其中无时间：ErrNoExif
func ReadExifDate(r io.Reader) (time.Time, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return time.Time{}, err
	}
	raw, err := findExifChunk(data)
	if err != nil {
		return time.Time{}, err
	}

	// 部分写入方会带上 JPEG APP1 的 "Exif\0\0" 前缀。
	raw = bytes.TrimPrefix(raw, []byte("Exif\x00\x00"))

	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w：%v", ErrNoExif, err)
	}
	t, err := x.DateTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w：%v", ErrNoExif, err)
	}
	return t, nil
}

func findExifChunk(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, ErrNotPNG
	}

	mc, err := pngstructure.NewPngMediaParser().ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("解析 PNG 块失败：%w", err)
	}
	cs, ok := mc.(*pngstructure.ChunkSlice)
	if !ok {
		return nil, fmt.Errorf("解析 PNG 块失败：意外的结果类型 %T", mc)
	}

	c, err := cs.FindExif()
	if err != nil {
		return nil, ErrNoExif
	}
	if !c.CheckCrc32() {
		return nil, errors.New("eXIf 块 CRC 校验失败")
	}
	return c.Data, nil
}

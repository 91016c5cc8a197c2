package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/John-Robertt/screensorter/internal/domain"
)

func TestProgressUI_PrintsPhasesAndFailures(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)

	p.OnStart("/shots", "canonical", true)
	p.OnPhaseDone("scan", map[string]any{"files": 2, "folders": 1}, 120*time.Millisecond)
	p.OnPhaseDone("group", map[string]any{"dated": 1, "undated": 1}, 0)
	p.OnItemDone(1, 3, domain.ItemResult{Kind: domain.KindFile, Src: "a.png", Status: domain.StatusPlanned}, 0)
	p.OnItemDone(2, 3, domain.ItemResult{Kind: domain.KindFile, Src: "b.png", Status: domain.StatusFailed, ErrorCode: domain.ErrCodeParseFailed, ErrorMsg: "无日期"}, 0)
	p.OnItemDone(3, 3, domain.ItemResult{Kind: domain.KindFolder, Src: "2024-1-2", Status: domain.StatusPlanned}, 0)
	p.OnPhaseDone("exec", map[string]any{"moved": 0, "planned": 2, "failed": 1}, time.Second)

	out := buf.String()
	assert.Contains(t, out, "screensorter sort (dry-run)")
	assert.Contains(t, out, "path: /shots")
	assert.Contains(t, out, "扫描: files=2 folders=1 (0.1s)")
	assert.Contains(t, out, "分组: dated=1 undated=1")
	assert.Contains(t, out, "[2/3] b.png FAIL parse_failed: 无日期")
	assert.Contains(t, out, "执行: moved=0 planned=2 failed=1 (1.0s)")
	assert.Nil(t, p.bar)
}

func TestIntField(t *testing.T) {
	assert.Equal(t, 3, intField(map[string]any{"n": 3}, "n"))
	assert.Equal(t, 4, intField(map[string]any{"n": int64(4)}, "n"))
	assert.Equal(t, 0, intField(map[string]any{"n": "x"}, "n"))
	assert.Equal(t, 0, intField(nil, "n"))
}

package run

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/screensorter/internal/domain"
)

type recordObserver struct {
	mu sync.Mutex

	startCalls int
	phases     []string
	idx        []int
	totals     []int
	items      []string
}

func (o *recordObserver) OnStart(path, strategy string, dryRun bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.startCalls++
}

func (o *recordObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phases = append(o.phases, name)
}

func (o *recordObserver) OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.idx = append(o.idx, idx)
	o.totals = append(o.totals, total)
	o.items = append(o.items, res.Src)
}

func TestSort_EmitsPhaseAndItemEvents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a2024-01-05.png"), "A")
	writeFile(t, filepath.Join(root, "random.png"), "B")
	writeFile(t, filepath.Join(root, "2024-1-2", "c.png"), "C")

	obs := &recordObserver{}
	_, err := New(afero.NewOsFs(), Options{
		DryRun:       true,
		Observer:     obs,
		CreationTime: fixedCreation(2024, time.February, 10),
	}).Sort(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, obs.startCalls)
	assert.Equal(t, []string{"scan", "group", "exec"}, obs.phases)
	assert.Equal(t, []int{1, 2, 3}, obs.idx)
	assert.Equal(t, []int{3, 3, 3}, obs.totals)
	// 处理顺序：无日期文件 → 有日期文件 → 日期文件夹。
	assert.Equal(t, []string{"random.png", "a2024-01-05.png", "2024-1-2"}, obs.items)
}

func TestSort_NilObserverSameResult(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a2024-01-05.png"), "A")

	now := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	a, err := New(afero.NewOsFs(), Options{DryRun: true, Now: now}).Sort(context.Background(), root)
	require.NoError(t, err)
	b, err := New(afero.NewOsFs(), Options{DryRun: true, Now: now, Observer: &recordObserver{}}).Sort(context.Background(), root)
	require.NoError(t, err)

	// run_id 每次不同；其余应一致。
	a.RunID, b.RunID = "", ""
	assert.Equal(t, a, b)
}

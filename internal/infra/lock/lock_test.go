package lock

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_ExclusiveUntilReleased(t *testing.T) {
	dir := t.TempDir()

	first, err := Acquire(dir)
	require.NoError(t, err)

	// flock 在同一进程内对不同 fd 同样互斥。
	_, err = Acquire(dir)
	assert.True(t, errors.Is(err, ErrHeld), "期望 ErrHeld，实际：%v", err)

	require.NoError(t, first.Release())
	require.NoError(t, first.Release(), "重复释放应安全")

	second, err := Acquire(dir)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

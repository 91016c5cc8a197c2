package datename

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/screensorter/internal/domain"
)

func TestExtract_SeparatorVariants(t *testing.T) {
	cases := []struct {
		name string
		want domain.InferredDate
	}{
		{"shot2024-01-05.png", domain.InferredDate{Year: 2024, Month: 1, Day: 5}},
		{"2024_1_5 screenshot.png", domain.InferredDate{Year: 2024, Month: 1, Day: 5}},
		{"gta 2023-12_31 night.png", domain.InferredDate{Year: 2023, Month: 12, Day: 31}},
		{"prefix_2024-3-7_21-30-00.png", domain.InferredDate{Year: 2024, Month: 3, Day: 7}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Extract(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtract_FirstMatchWins(t *testing.T) {
	got, err := Extract("2022-02-02 copy of 2024-01-05.png")
	require.NoError(t, err)
	assert.Equal(t, domain.InferredDate{Year: 2022, Month: 2, Day: 2}, got)
}

func TestExtract_PermissiveNoCalendarCheck(t *testing.T) {
	// 越界月/日照样接受：是否拒绝由上层的 strict 选项决定。
	got, err := Extract("bad-2024-13-40.png")
	require.NoError(t, err)
	assert.Equal(t, domain.InferredDate{Year: 2024, Month: 13, Day: 40}, got)
	assert.False(t, got.Valid())
}

func TestExtract_NoMatch(t *testing.T) {
	for _, name := range []string{"random.png", "20240105.png", "2024-01.png", "24-01-05.png"} {
		_, err := Extract(name)
		var ue *UnmatchedError
		require.True(t, errors.As(err, &ue), "name=%q err=%v", name, err)
		assert.Equal(t, KindNoMatch, ue.Kind)
	}
}

func TestExtractLeading(t *testing.T) {
	d, ok := ExtractLeading("2024-3-7")
	require.True(t, ok)
	assert.Equal(t, domain.InferredDate{Year: 2024, Month: 3, Day: 7}, d)

	_, ok = ExtractLeading("trip 2024-3-7")
	assert.False(t, ok)

	// 月份文件夹本身不是日期文件夹。
	_, ok = ExtractLeading("2024-03")
	assert.False(t, ok)
}

func TestExtractDash5(t *testing.T) {
	d, err := ExtractDash5("2024-01-05-21-30.png")
	require.NoError(t, err)
	assert.Equal(t, domain.InferredDate{Year: 2024, Month: 1, Day: 5}, d)

	for _, name := range []string{"2024-01-05.png", "2024-01-05-21-30-11.png", "shot-01-05-21-30.png", "shot-2024-01-05-x.png", "2024-001-05-21-30.png"} {
		_, err := ExtractDash5(name)
		var ue *UnmatchedError
		require.True(t, errors.As(err, &ue), "name=%q", name)
		assert.Equal(t, KindInvalidFormat, ue.Kind)
		assert.Contains(t, ue.Error(), "文件名格式无效")
	}
}

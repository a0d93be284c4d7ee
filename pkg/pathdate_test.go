package pkg_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/photo-sorter/pkg"
)

func TestPathDateInferrerInfer(t *testing.T) {
	p, err := pkg.NewPathDateInferrer(nil, time.UTC)
	require.NoError(t, err)

	utc := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		name   string
		path   string
		want   time.Time
		wantOK bool
	}{
		{"compact in file name", "IMG_20230615_101010.jpg", utc(2023, time.June, 15), true},
		{"dashed directory", "2021-03-04 party/a.jpg", utc(2021, time.March, 4), true},
		{"slashed directories", "2019/07/21/a.jpg", utc(2019, time.July, 21), true},
		{"nineteen hundreds", "scans/1998_12_25/tree.png", utc(1998, time.December, 25), true},
		{"twenty pattern wins over nineteen", "1999-01-01/2005-05-05.jpg", utc(2005, time.May, 5), true},
		{"invalid month skipped for a later match", "20231399/2022-02-02.jpg", utc(2022, time.February, 2), true},
		{"impossible day rejected", "2023-02-30.jpg", time.Time{}, false},
		{"no date", "holiday/beach.jpg", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Infer(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPathDateInferrerInferDirectory(t *testing.T) {
	p, err := pkg.NewPathDateInferrer(nil, time.UTC)
	require.NoError(t, err)

	tests := []struct {
		dir    string
		want   time.Time
		wantOK bool
	}{
		{"2019/07", time.Date(2019, time.July, 1, 0, 0, 0, 0, time.UTC), true},
		{"Trip 2018", time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC), true},
		{"2017-13 mystery", time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC), true},
		{"archive/1995", time.Date(1995, time.January, 1, 0, 0, 0, 0, time.UTC), true},
		{"camera uploads", time.Time{}, false},
		{"batch12019", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			got, ok := p.InferDirectory(tt.dir)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewPathDateInferrerRejectsBadPatterns(t *testing.T) {
	_, err := pkg.NewPathDateInferrer([]string{`(20\d{2`}, nil)
	assert.Error(t, err)

	_, err = pkg.NewPathDateInferrer([]string{`(20\d{2})-(\d{2})`}, nil)
	assert.ErrorContains(t, err, "must capture year, month and day")
}

func TestPathDateInferrerCustomPattern(t *testing.T) {
	p, err := pkg.NewPathDateInferrer([]string{`(\d{4})\.(\d{2})\.(\d{2})`}, time.UTC)
	require.NoError(t, err)

	got, ok := p.Infer("export/2012.08.09/a.jpg")
	require.True(t, ok)
	assert.Equal(t, 2012, got.Year())

	_, ok = p.Infer("IMG_20230615.jpg")
	assert.False(t, ok, "default patterns are replaced, not extended")
}

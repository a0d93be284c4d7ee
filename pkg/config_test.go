package pkg_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/photo-sorter/pkg"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := pkg.LoadConfig(path)
	require.NoError(t, err)

	assert.False(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, pkg.DefaultConfig(), *cfg)
	assert.True(t, cfg.Dates.DirectoryFallback)
	assert.Equal(t, "copy", cfg.Organize.Mode)
	assert.Equal(t, pkg.DefaultSimilarityThreshold, cfg.Similarity.Threshold)
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := createFile(t, dir, "config.toml", []byte(`
[extensions]
images = ["jpg", ".TIFF"]
videos = []

[dates]
directory_fallback = false
timezone = "UTC"

[organize]
mode = "Move"
unsorted_dir = "Undated"
preserve_timestamps = true
workers = 2

[similarity]
mode = "distance"
threshold = 8

[logging]
level = "DEBUG"
format = "json"
`))

	cfg, _, exists, err := pkg.LoadConfig(path)
	require.NoError(t, err)
	require.True(t, exists)

	assert.False(t, cfg.Dates.DirectoryFallback)
	assert.Equal(t, pkg.DefaultPathPatterns, cfg.Dates.PathPatterns, "omitted keys keep defaults")
	assert.Equal(t, "move", cfg.Organize.Mode)
	assert.Equal(t, pkg.DefaultReportName, cfg.Organize.ReportName)
	assert.Equal(t, "debug", cfg.Logging.Level)

	exts := cfg.MediaExtensions()
	assert.True(t, exts.IsImage("scan.TIFF"))
	assert.False(t, exts.Supported("clip.mov"))

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	opts, err := cfg.OrganizerOptions("in", "out", nil)
	require.NoError(t, err)
	assert.Equal(t, pkg.ModeMove, opts.Mode)
	assert.Equal(t, "Undated", opts.UnsortedDir)
	assert.True(t, opts.PreserveTimestamps)
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, time.UTC, opts.Location, "manual dates use the configured zone")
	require.NotNil(t, opts.Resolver)
	assert.Len(t, opts.Resolver.Strategies(), 3)

	sim, err := cfg.SimilarityOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, pkg.GroupDistance, sim.Mode)
	assert.Equal(t, 8, sim.Threshold)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "[organize]\ncolour = \"red\"\n"},
		{"bad toml", "[organize\n"},
		{"mode", "[organize]\nmode = \"link\"\n"},
		{"workers", "[organize]\nworkers = 0\n"},
		{"unsorted path", "[organize]\nunsorted_dir = \"a/b\"\n"},
		{"threshold", "[similarity]\nthreshold = 11\n"},
		{"similarity mode", "[similarity]\nmode = \"fuzzy\"\n"},
		{"pattern", "[dates]\npath_patterns = ['(\\d{4})']\n"},
		{"timezone", "[dates]\ntimezone = \"Mars/Olympus\"\n"},
		{"log level", "[logging]\nlevel = \"loud\"\n"},
		{"log format", "[logging]\nformat = \"xml\"\n"},
		{"no extensions", "[extensions]\nimages = []\nvideos = []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createFile(t, t.TempDir(), "config.toml", []byte(tt.body))
			_, _, _, err := pkg.LoadConfig(path)
			assert.ErrorIs(t, err, pkg.ErrInvalidConfig)
		})
	}
}

func TestWriteSampleConfigLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, pkg.WriteSampleConfig(path))

	cfg, _, exists, err := pkg.LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, pkg.DefaultConfig(), *cfg)

	assert.Error(t, pkg.WriteSampleConfig(path), "existing files are not overwritten")
}

func TestDefaultConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path, err := pkg.DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "photosort", "config.toml"), path)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

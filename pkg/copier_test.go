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

func TestTransferFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := []byte("This is the source file content.")

	tests := []struct {
		name       string
		mode       pkg.TransferMode
		missingSrc bool
		destExists bool
		expectErr  bool
		keepSource bool
	}{
		{name: "copy", mode: pkg.ModeCopy, keepSource: true},
		{name: "move", mode: pkg.ModeMove, keepSource: false},
		{name: "source vanished", mode: pkg.ModeCopy, missingSrc: true, expectErr: true},
		{name: "copy never overwrites", mode: pkg.ModeCopy, destExists: true, expectErr: true, keepSource: true},
		{name: "move never overwrites", mode: pkg.ModeMove, destExists: true, expectErr: true, keepSource: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(tmpDir, tt.name)
			src := filepath.Join(dir, "source.txt")
			if !tt.missingSrc {
				createFile(t, dir, "source.txt", content)
			}
			dest := filepath.Join(dir, "nested", "dest_sub", "destination.txt")
			if tt.destExists {
				createFile(t, dir, filepath.Join("nested", "dest_sub", "destination.txt"), []byte("keep me"))
			}

			err := pkg.TransferFile(src, dest, tt.mode)
			if tt.expectErr {
				require.Error(t, err)
				if tt.missingSrc {
					assert.ErrorIs(t, err, pkg.ErrSourceVanished)
				}
				if tt.destExists {
					got, readErr := os.ReadFile(dest)
					require.NoError(t, readErr)
					assert.Equal(t, "keep me", string(got))
				}
			} else {
				require.NoError(t, err)
				got, readErr := os.ReadFile(dest)
				require.NoError(t, readErr)
				assert.Equal(t, content, got)
			}

			if tt.missingSrc {
				return
			}
			if tt.keepSource {
				assert.FileExists(t, src)
			} else {
				assert.NoFileExists(t, src)
			}
		})
	}
}

func TestCopyFilePreservesModTime(t *testing.T) {
	dir := t.TempDir()
	src := createFile(t, dir, "a.jpg", []byte("data"))
	old := time.Date(2015, time.May, 5, 5, 5, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, old, old))

	dest := filepath.Join(dir, "b.jpg")
	require.NoError(t, pkg.CopyFile(src, dest))
	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.True(t, old.Equal(info.ModTime()))
}

func TestApplyTimestamps(t *testing.T) {
	path := createFile(t, t.TempDir(), "a.jpg", []byte("data"))
	when := time.Date(2020, time.February, 29, 13, 14, 0, 0, time.UTC)
	require.NoError(t, pkg.ApplyTimestamps(path, when))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, when.Equal(info.ModTime()))

	assert.Error(t, pkg.ApplyTimestamps(filepath.Join(t.TempDir(), "missing"), when))
}

func TestParseTransferMode(t *testing.T) {
	m, err := pkg.ParseTransferMode("MOVE")
	require.NoError(t, err)
	assert.Equal(t, pkg.ModeMove, m)

	m, err = pkg.ParseTransferMode("")
	require.NoError(t, err)
	assert.Equal(t, pkg.ModeCopy, m)

	_, err = pkg.ParseTransferMode("link")
	assert.Error(t, err)
}

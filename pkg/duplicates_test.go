package pkg_test

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/photo-sorter/pkg"
)

func TestCalculateFileHash(t *testing.T) {
	tmpDir := t.TempDir()
	file1 := createFile(t, tmpDir, "file1.txt", []byte("hello world"))
	file2 := createFile(t, tmpDir, "file2.txt", []byte("hello world"))
	file3 := createFile(t, tmpDir, "file3.txt", []byte("different content"))

	hash1, err := pkg.CalculateFileHash(file1)
	require.NoError(t, err)
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", hash1)

	hash2, err := pkg.CalculateFileHash(file2)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)

	hash3, err := pkg.CalculateFileHash(file3)
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash3)

	_, err = pkg.CalculateFileHash(filepath.Join(tmpDir, "non_existent_file.txt"))
	assert.Error(t, err)
}

func TestGetImageResolution(t *testing.T) {
	tmpDir := t.TempDir()
	pngPath := createPNG(t, tmpDir, "a.png", color.Black, false)
	jpgPath := createExifJPEG(t, tmpDir, "b.jpg", "2023:06:01 12:00:00")
	textPath := createFile(t, tmpDir, "c.png", []byte("not an image"))

	w, h, err := pkg.GetImageResolution(pngPath)
	require.NoError(t, err)
	assert.Equal(t, 32, w)
	assert.Equal(t, 32, h)

	w, h, err = pkg.GetImageResolution(jpgPath)
	require.NoError(t, err)
	assert.Equal(t, [2]int{32, 32}, [2]int{w, h})

	_, _, err = pkg.GetImageResolution(textPath)
	assert.Error(t, err)
}

func TestDeleteFiles(t *testing.T) {
	dir := t.TempDir()
	a := createFile(t, dir, "a.jpg", []byte("x"))
	sub := filepath.Join(dir, "sub")
	createFile(t, sub, "b.jpg", []byte("x"))
	missing := filepath.Join(dir, "missing.jpg")

	outcomes := pkg.DeleteFiles([]string{a, missing, sub}, nil)
	require.Len(t, outcomes, 3)

	assert.NoError(t, outcomes[0].Err)
	assert.NoFileExists(t, a)
	assert.ErrorIs(t, outcomes[1].Err, pkg.ErrSourceVanished)
	assert.ErrorContains(t, outcomes[2].Err, "refusing to delete directory")
	assert.DirExists(t, sub)
}

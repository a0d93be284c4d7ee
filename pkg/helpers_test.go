package pkg_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/user/photo-sorter/pkg"
)

// createFile writes content to dir/name, creating parent directories.
func createFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

// testImage is a 32x32 image in c; with split set the right half is white.
func testImage(c color.Color, split bool) image.Image {
	const w, h = 32, 32
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if split && x >= w/2 {
				img.Set(x, y, color.White)
				continue
			}
			img.Set(x, y, c)
		}
	}
	return img
}

// cornerImage is a black 32x32 image with a white top-left 4x4 block.
func cornerImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.Black)
			if x < 4 && y < 4 {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

// bandImage is a 32x32 image, black on top and white below.
func bandImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			c := color.Color(color.Black)
			if y >= 16 {
				c = color.White
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func createPNG(t *testing.T, dir, name string, c color.Color, split bool) string {
	t.Helper()
	return createPNGImage(t, dir, name, testImage(c, split))
}

func createPNGImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return createFile(t, dir, name, buf.Bytes())
}

// createExifJPEG writes a JPEG whose APP1 segment carries DateTimeOriginal
// set to date ("YYYY:MM:DD HH:MM:SS"). An empty date writes EXIF holding
// only an orientation tag.
func createExifJPEG(t *testing.T, dir, name, date string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(color.Gray{Y: 128}, false), &jpeg.Options{Quality: 90}))
	encoded := buf.Bytes()

	payload := append([]byte("Exif\x00\x00"), exifTIFF(date)...)
	segment := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(segment[2:], uint16(2+len(payload)))
	segment = append(segment, payload...)

	out := make([]byte, 0, len(encoded)+len(segment))
	out = append(out, encoded[:2]...) // SOI
	out = append(out, segment...)
	out = append(out, encoded[2:]...)
	return createFile(t, dir, name, out)
}

// createExifPNG writes a PNG with an eXIf chunk carrying DateTimeOriginal,
// placed right after IHDR.
func createExifPNG(t *testing.T, dir, name, date string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, bandImage()))
	encoded := buf.Bytes()

	data := exifTIFF(date)
	chunk := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
	chunk = append(chunk, "eXIf"...)
	chunk = append(chunk, data...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	const ihdrEnd = 8 + 4 + 4 + 13 + 4 // signature, length, type, data, CRC
	out := make([]byte, 0, len(encoded)+len(chunk))
	out = append(out, encoded[:ihdrEnd]...)
	out = append(out, chunk...)
	out = append(out, encoded[ihdrEnd:]...)
	return createFile(t, dir, name, out)
}

// exifTIFF builds a big-endian TIFF block: IFD0 at 8 pointing to an Exif
// sub-IFD at 26 whose DateTimeOriginal string lives at 44.
func exifTIFF(date string) []byte {
	be := binary.BigEndian
	b := []byte{'M', 'M', 0, 0x2A, 0, 0, 0, 8}
	entry := func(tag, typ uint16, count, value uint32) {
		e := make([]byte, 12)
		be.PutUint16(e[0:], tag)
		be.PutUint16(e[2:], typ)
		be.PutUint32(e[4:], count)
		be.PutUint32(e[8:], value)
		b = append(b, e...)
	}
	count := func(n uint16) { b = be.AppendUint16(b, n) }
	next := func() { b = be.AppendUint32(b, 0) }

	count(1)
	if date == "" {
		entry(0x0112, 3, 1, 1<<16) // Orientation = 1, left-justified SHORT
		next()
		return b
	}
	entry(0x8769, 4, 1, 26) // ExifIFDPointer
	next()
	count(1)
	entry(0x9003, 2, 20, 44) // DateTimeOriginal
	next()
	value := make([]byte, 20)
	copy(value, date)
	return append(b, value...)
}

// fakeReader serves embedded dates by file name.
type fakeReader map[string]time.Time

func (f fakeReader) ReadDate(path string) (time.Time, error) {
	if t, ok := f[filepath.Base(path)]; ok {
		return t, nil
	}
	return time.Time{}, errors.New("no date")
}

// mediaFiles builds MediaFile values for names inside dir (relative to a
// scan root of "/in").
func mediaFiles(dir string, names ...string) []pkg.MediaFile {
	exts := pkg.DefaultExtensions()
	files := make([]pkg.MediaFile, len(names))
	for i, name := range names {
		rel := filepath.Join(dir, name)
		files[i] = pkg.MediaFile{
			Path:    filepath.Join("/in", rel),
			RelPath: rel,
			Name:    name,
			Dir:     filepath.Join("/in", dir),
			Ext:     filepath.Ext(name),
			Kind:    exts.Kind(name),
		}
	}
	return files
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

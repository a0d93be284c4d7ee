package pkg

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ErrNoExifDate is returned when EXIF data is found but no DateTimeOriginal tag is present.
var ErrNoExifDate = errors.New("no EXIF date tag found")

// ErrSourceNotFound is returned when the scan root does not exist.
var ErrSourceNotFound = errors.New("source directory does not exist")

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("source path is not a directory")

// exifLayout is the fixed EXIF datetime format.
const exifLayout = "2006:01:02 15:04:05"

// ScanSourceDirectory recursively scans sourceDir for files whose extension
// is listed in exts. Unreadable entries are logged and skipped. The result is
// sorted by path.
func ScanSourceDirectory(sourceDir string, exts Extensions, logger *slog.Logger) ([]MediaFile, error) {
	logger = loggerOrDiscard(logger)

	root, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolve source directory '%s': %w", sourceDir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: '%s'", ErrSourceNotFound, sourceDir)
		}
		return nil, fmt.Errorf("error accessing source directory '%s': %w", sourceDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: '%s'", ErrNotDirectory, sourceDir)
	}

	files := []MediaFile{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		kind := exts.Kind(path)
		if kind == KindUnknown {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			logger.Warn("skipping file without stat info", "path", path, "error", err)
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		files = append(files, MediaFile{
			Path:    path,
			RelPath: rel,
			Name:    d.Name(),
			Dir:     filepath.Dir(path),
			Ext:     strings.ToLower(filepath.Ext(path)),
			Kind:    kind,
			Size:    fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking through source directory '%s': %w", sourceDir, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// DirectoryBatch is every scanned file sharing one parent directory, sorted by name.
type DirectoryBatch struct {
	Dir   string
	Files []MediaFile
}

// GroupByDirectory partitions files by parent directory. Batches are ordered
// by directory path and files within a batch by name.
func GroupByDirectory(files []MediaFile) []DirectoryBatch {
	index := make(map[string]int)
	var batches []DirectoryBatch
	for _, f := range files {
		i, ok := index[f.Dir]
		if !ok {
			i = len(batches)
			index[f.Dir] = i
			batches = append(batches, DirectoryBatch{Dir: f.Dir})
		}
		batches[i].Files = append(batches[i].Files, f)
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].Dir < batches[j].Dir })
	for i := range batches {
		sortByName(batches[i].Files)
	}
	return batches
}

func sortByName(files []MediaFile) {
	sort.SliceStable(files, func(i, j int) bool { return files[i].Name < files[j].Name })
}

// MetadataReader reads an embedded capture timestamp from a file.
type MetadataReader interface {
	ReadDate(path string) (time.Time, error)
}

// ExifDateReader reads DateTimeOriginal through goexif. Timestamps are
// interpreted in Location (time.Local when nil), since EXIF carries no zone.
type ExifDateReader struct {
	Location *time.Location
}

// ReadDate implements MetadataReader.
func (r ExifDateReader) ReadDate(path string) (time.Time, error) {
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	return getPhotoCreationDateIn(path, loc)
}

// GetPhotoCreationDate extracts the DateTimeOriginal tag from a photo's EXIF
// data, interpreted in the local time zone.
// Returns ErrNoExifDate if the tag is absent.
func GetPhotoCreationDate(photoPath string) (time.Time, error) {
	return getPhotoCreationDateIn(photoPath, time.Local)
}

func getPhotoCreationDateIn(photoPath string, loc *time.Location) (time.Time, error) {
	file, err := os.Open(photoPath)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to open file %s: %w", photoPath, err)
	}
	defer file.Close()

	src, err := exifSource(file)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read EXIF data from %s: %w", photoPath, err)
	}
	x, err := exif.Decode(src)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to decode EXIF data from %s: %w", photoPath, err)
	}

	dateTag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, ErrNoExifDate
	}
	return parseExifDateTime(dateTag, loc)
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// errNoPNGExif is returned for a PNG without an eXIf chunk.
var errNoPNGExif = errors.New("no eXIf chunk in PNG")

// exifSource returns a reader goexif can decode. JPEG and HEIF files are
// passed through; for PNG the eXIf chunk is extracted, since it holds a bare
// TIFF block that goexif reads directly.
func exifSource(f *os.File) (io.Reader, error) {
	head := make([]byte, len(pngSignature))
	n, err := io.ReadFull(f, head)
	if _, serr := f.Seek(0, io.SeekStart); serr != nil {
		return nil, serr
	}
	if err != nil || n < len(head) || !bytes.Equal(head, pngSignature) {
		return f, nil
	}
	return pngExifChunk(f)
}

// pngExifChunk walks the chunks of a PNG stream up to IEND.
func pngExifChunk(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	if _, err := br.Discard(len(pngSignature)); err != nil {
		return nil, err
	}
	var hdr [8]byte
	for {
		if _, err := io.ReadFull(br, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, errNoPNGExif
			}
			return nil, err
		}
		length := binary.BigEndian.Uint32(hdr[:4])
		switch string(hdr[4:]) {
		case "eXIf":
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return nil, fmt.Errorf("read eXIf chunk: %w", err)
			}
			return bytes.NewReader(data), nil
		case "IEND":
			return nil, errNoPNGExif
		}
		// Skip data and CRC.
		if _, err := br.Discard(int(length) + 4); err != nil {
			return nil, errNoPNGExif
		}
	}
}

// parseExifDateTime parses a "YYYY:MM:DD HH:MM:SS" tag value.
func parseExifDateTime(tag *tiff.Tag, loc *time.Location) (time.Time, error) {
	if tag == nil {
		return time.Time{}, fmt.Errorf("tag is nil")
	}
	dateStr, err := tag.StringVal()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get string value from EXIF date tag: %w", err)
	}
	dateStr = strings.TrimSpace(dateStr)

	t, err := time.ParseInLocation(exifLayout, dateStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse EXIF date string '%s' with layout '%s': %w", dateStr, exifLayout, err)
	}
	return t, nil
}

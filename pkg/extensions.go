package pkg

import (
	"path/filepath"
	"sort"
	"strings"
)

// MediaKind classifies a file by extension.
type MediaKind int

const (
	KindUnknown MediaKind = iota
	KindImage
	KindVideo
)

func (k MediaKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Extensions holds the supported extension sets. Keys are lowercase and
// include the leading dot.
type Extensions struct {
	Images map[string]bool
	Videos map[string]bool
}

// DefaultExtensions returns the extension sets used when no configuration
// overrides them.
func DefaultExtensions() Extensions {
	return NewExtensions(
		[]string{".jpg", ".jpeg", ".png", ".heic", ".heif"},
		[]string{".mp4", ".mov"},
	)
}

// NewExtensions builds extension sets from lists, normalising case and the
// leading dot.
func NewExtensions(images, videos []string) Extensions {
	return Extensions{Images: extensionSet(images), Videos: extensionSet(videos)}
}

func extensionSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, ext := range list {
		ext = normalizeExtension(ext)
		if ext == "" {
			continue
		}
		set[ext] = true
	}
	return set
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Kind reports the media kind of filePath by its lowercased extension.
func (e Extensions) Kind(filePath string) MediaKind {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch {
	case e.Images[ext]:
		return KindImage
	case e.Videos[ext]:
		return KindVideo
	default:
		return KindUnknown
	}
}

// IsImage reports whether filePath carries a supported image extension.
func (e Extensions) IsImage(filePath string) bool {
	return e.Kind(filePath) == KindImage
}

// Supported reports whether filePath is an image or a video.
func (e Extensions) Supported(filePath string) bool {
	return e.Kind(filePath) != KindUnknown
}

// ImageList returns the image extensions in sorted order.
func (e Extensions) ImageList() []string { return sortedKeys(e.Images) }

// VideoList returns the video extensions in sorted order.
func (e Extensions) VideoList() []string { return sortedKeys(e.Videos) }

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MediaFile is a discovered photo or video. It is never mutated after the
// scan that produced it.
type MediaFile struct {
	Path    string // absolute path
	RelPath string // path relative to the scan root
	Name    string
	Dir     string
	Ext     string // lowercase, with dot
	Kind    MediaKind
	Size    int64
}

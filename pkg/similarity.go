package pkg

import (
	"context"
	"errors"
	"fmt"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	_ "github.com/vegidio/heif-go" // Register HEIF/HEVC decoder
	"golang.org/x/sync/errgroup"
)

// Similarity thresholds accepted in distance mode.
const (
	DefaultSimilarityThreshold = 5
	MinSimilarityThreshold     = 1
	MaxSimilarityThreshold     = 10
)

// ErrInvalidThreshold is returned for a distance threshold outside 1–10.
var ErrInvalidThreshold = errors.New("similarity threshold out of range")

// Fingerprint is a 64-bit average hash of an image's 8x8 grayscale grid.
type Fingerprint uint64

func (f Fingerprint) String() string { return fmt.Sprintf("%016x", uint64(f)) }

// Distance is the Hamming distance between two fingerprints.
func Distance(a, b Fingerprint) int {
	d, err := goimagehash.NewImageHash(uint64(a), goimagehash.AHash).
		Distance(goimagehash.NewImageHash(uint64(b), goimagehash.AHash))
	if err != nil {
		// Both hashes share a kind, so Distance cannot fail.
		return 64
	}
	return d
}

// ComputeFingerprint decodes the image at path, honouring its EXIF
// orientation, and returns its average hash.
func ComputeFingerprint(path string) (Fingerprint, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return 0, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	h, err := goimagehash.AverageHash(img)
	if err != nil {
		return 0, fmt.Errorf("failed to hash image %s: %w", path, err)
	}
	return Fingerprint(h.GetHash()), nil
}

// GroupingMode selects how fingerprints are grouped.
type GroupingMode int

const (
	// GroupExact buckets files by equal fingerprints.
	GroupExact GroupingMode = iota
	// GroupDistance joins files transitively when fingerprints are within
	// the threshold.
	GroupDistance
)

func (m GroupingMode) String() string {
	if m == GroupDistance {
		return "distance"
	}
	return "exact"
}

// ParseGroupingMode accepts "exact" or "distance".
func ParseGroupingMode(s string) (GroupingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return GroupExact, nil
	case "distance":
		return GroupDistance, nil
	default:
		return GroupExact, fmt.Errorf("unknown grouping mode %q", s)
	}
}

// SimilarityOptions configures a SimilarityIndexer.
type SimilarityOptions struct {
	Mode       GroupingMode
	Threshold  int // distance mode only; 0 selects the default
	Workers    int // <1 means 1
	Extensions Extensions
	Progress   ProgressFunc
	Logger     *slog.Logger
}

// SimilarityMember is one file in a group, with the details a reviewer needs.
type SimilarityMember struct {
	Path    string
	Size    int64
	ModTime time.Time
	Width   int
	Height  int
	SHA256  string // empty when the file could not be hashed
}

// SimilarityGroup is a set of visually similar images.
type SimilarityGroup struct {
	Fingerprint Fingerprint
	Members     []SimilarityMember
}

// Paths returns member paths in order.
func (g SimilarityGroup) Paths() []string {
	paths := make([]string, len(g.Members))
	for i, m := range g.Members {
		paths[i] = m.Path
	}
	return paths
}

// Identical reports whether every member has the same content hash.
func (g SimilarityGroup) Identical() bool {
	if len(g.Members) < 2 {
		return false
	}
	first := g.Members[0].SHA256
	for _, m := range g.Members[1:] {
		if first == "" || m.SHA256 != first {
			return false
		}
	}
	return true
}

// SimilarityResult is the output of an index pass.
type SimilarityResult struct {
	Groups  []SimilarityGroup
	Scanned int // images found
	Failed  int // images that could not be fingerprinted
}

// SimilarityIndexer fingerprints images and reports near-duplicate groups.
// It never modifies files.
type SimilarityIndexer struct {
	opts   SimilarityOptions
	logger *slog.Logger
}

// NewSimilarityIndexer validates opts and returns an indexer.
func NewSimilarityIndexer(opts SimilarityOptions) (*SimilarityIndexer, error) {
	if opts.Threshold == 0 {
		opts.Threshold = DefaultSimilarityThreshold
	}
	if opts.Threshold < MinSimilarityThreshold || opts.Threshold > MaxSimilarityThreshold {
		return nil, fmt.Errorf("%w: %d not in %d-%d", ErrInvalidThreshold, opts.Threshold, MinSimilarityThreshold, MaxSimilarityThreshold)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Extensions.Images == nil {
		opts.Extensions = DefaultExtensions()
	}
	// Only images are fingerprinted.
	opts.Extensions = Extensions{Images: opts.Extensions.Images}
	opts.Progress = serializeProgress(opts.Progress)
	return &SimilarityIndexer{opts: opts, logger: loggerOrDiscard(opts.Logger)}, nil
}

type fingerprinted struct {
	file MediaFile
	fp   Fingerprint
	ok   bool
}

// Index scans root and returns groups with at least two members, ordered by
// their first path. Images that fail to decode are left out of every group.
func (s *SimilarityIndexer) Index(ctx context.Context, root string) (*SimilarityResult, error) {
	files, err := ScanSourceDirectory(root, s.opts.Extensions, s.logger)
	if err != nil {
		return nil, err
	}
	s.logger.Info("fingerprinting images", "root", root, "images", len(files), "mode", s.opts.Mode.String())

	items := make([]fingerprinted, len(files))
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fp, err := ComputeFingerprint(f.Path)
			if err != nil {
				s.logger.Debug("excluding image", "path", f.Path, "error", err)
			}
			items[i] = fingerprinted{file: f, fp: fp, ok: err == nil}
			n := done.Add(1)
			s.opts.Progress.report(float64(n)/float64(len(files)), fmt.Sprintf("Fingerprinted %d/%d: %s", n, len(files), f.Name))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	valid := make([]fingerprinted, 0, len(items))
	for _, it := range items {
		if it.ok {
			valid = append(valid, it)
		}
	}

	var buckets [][]fingerprinted
	if s.opts.Mode == GroupDistance {
		buckets = groupByDistance(valid, s.opts.Threshold)
	} else {
		buckets = groupExact(valid)
	}

	result := &SimilarityResult{Scanned: len(files), Failed: len(files) - len(valid)}
	for _, b := range buckets {
		if len(b) < 2 {
			continue
		}
		group := SimilarityGroup{Fingerprint: b[0].fp}
		for _, it := range b {
			group.Members = append(group.Members, describeMember(it.file))
		}
		result.Groups = append(result.Groups, group)
	}
	sort.Slice(result.Groups, func(i, j int) bool {
		return result.Groups[i].Members[0].Path < result.Groups[j].Members[0].Path
	})
	s.logger.Info("similarity scan complete", "groups", len(result.Groups), "failed", result.Failed)
	return result, nil
}

// groupExact buckets by equal fingerprint; items keep path order.
func groupExact(items []fingerprinted) [][]fingerprinted {
	index := make(map[Fingerprint]int)
	var buckets [][]fingerprinted
	for _, it := range items {
		i, ok := index[it.fp]
		if !ok {
			i = len(buckets)
			index[it.fp] = i
			buckets = append(buckets, nil)
		}
		buckets[i] = append(buckets[i], it)
	}
	return buckets
}

// groupByDistance compares every pair and joins those within threshold.
func groupByDistance(items []fingerprinted, threshold int) [][]fingerprinted {
	ds := newDisjointSet(len(items))
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			if Distance(items[i].fp, items[j].fp) <= threshold {
				ds.union(i, j)
			}
		}
	}
	var buckets [][]fingerprinted
	for _, set := range ds.sets() {
		bucket := make([]fingerprinted, len(set))
		for k, i := range set {
			bucket[k] = items[i]
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}

func describeMember(f MediaFile) SimilarityMember {
	m := SimilarityMember{Path: f.Path, Size: f.Size}
	if info, err := os.Stat(f.Path); err == nil {
		m.ModTime = info.ModTime()
		m.Size = info.Size()
	}
	if w, h, err := GetImageResolution(f.Path); err == nil {
		m.Width, m.Height = w, h
	}
	if sum, err := CalculateFileHash(f.Path); err == nil {
		m.SHA256 = sum
	}
	return m
}

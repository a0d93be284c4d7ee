package pkg

import (
	"log/slog"
	"path/filepath"
	"sort"
	"time"
)

// DateSource tags which evidence produced a resolved date.
type DateSource int

const (
	SourceNone DateSource = iota
	SourceEmbedded
	SourceRelated
	SourcePath
	SourceDirectory
	SourceManual
)

func (s DateSource) String() string {
	switch s {
	case SourceEmbedded:
		return "embedded-metadata"
	case SourceRelated:
		return "related-file-metadata"
	case SourcePath:
		return "path-inference"
	case SourceDirectory:
		return "directory-inference"
	case SourceManual:
		return "manual"
	default:
		return "none"
	}
}

// ResolvedDate is a capture moment and its provenance. The zero value is
// unresolved.
type ResolvedDate struct {
	Time   time.Time
	Source DateSource
}

// Resolved reports whether a date is present.
func (d ResolvedDate) Resolved() bool { return d.Source != SourceNone }

// ResolveRequest is the input handed to every strategy.
type ResolveRequest struct {
	Target   MediaFile
	Siblings []MediaFile // every file in Target's directory

	embedded func(MediaFile) (time.Time, bool)
}

// EmbeddedDate returns f's embedded capture date. Lookups are memoised for
// the lifetime of one Resolve or ResolveCluster call.
func (q ResolveRequest) EmbeddedDate(f MediaFile) (time.Time, bool) {
	if q.embedded == nil {
		return time.Time{}, false
	}
	return q.embedded(f)
}

// Strategy is one tier of the date cascade.
type Strategy struct {
	Name    string
	Source  DateSource
	Resolve func(ResolveRequest) (time.Time, bool)
}

// ResolverOptions configures NewDateResolver.
type ResolverOptions struct {
	Reader            MetadataReader // ExifDateReader{} when nil
	Extensions        Extensions
	Paths             *PathDateInferrer // default patterns when nil
	DirectoryFallback bool
	Logger            *slog.Logger
}

// DateResolver runs an ordered list of strategies until one yields a date.
type DateResolver struct {
	strategies []Strategy
	reader     MetadataReader
	exts       Extensions
	logger     *slog.Logger
}

// NewDateResolver builds the default cascade: embedded metadata, related-file
// metadata, path inference and, when enabled, directory inference.
func NewDateResolver(opts ResolverOptions) *DateResolver {
	paths := opts.Paths
	if paths == nil {
		// DefaultPathPatterns always compile.
		paths, _ = NewPathDateInferrer(nil, nil)
	}
	strategies := []Strategy{
		EmbeddedStrategy(),
		RelatedStrategy(),
		PathStrategy(paths),
	}
	if opts.DirectoryFallback {
		strategies = append(strategies, DirectoryStrategy(paths))
	}
	return NewDateResolverWithStrategies(opts.Reader, opts.Extensions, opts.Logger, strategies...)
}

// NewDateResolverWithStrategies builds a resolver with a custom cascade.
func NewDateResolverWithStrategies(reader MetadataReader, exts Extensions, logger *slog.Logger, strategies ...Strategy) *DateResolver {
	if reader == nil {
		reader = ExifDateReader{}
	}
	if exts.Images == nil && exts.Videos == nil {
		exts = DefaultExtensions()
	}
	return &DateResolver{
		strategies: append([]Strategy(nil), strategies...),
		reader:     reader,
		exts:       exts,
		logger:     loggerOrDiscard(logger),
	}
}

// Strategies returns the cascade in evaluation order.
func (r *DateResolver) Strategies() []Strategy {
	return append([]Strategy(nil), r.strategies...)
}

// Resolve runs the cascade for one file.
func (r *DateResolver) Resolve(target MediaFile, siblings []MediaFile) ResolvedDate {
	lookup := r.embeddedLookup()
	req := ResolveRequest{Target: target, Siblings: siblings, embedded: lookup}
	for _, s := range r.strategies {
		if t, ok := s.Resolve(req); ok {
			r.logger.Debug("date resolved", "path", target.Path, "strategy", s.Name, "date", t.Format(time.DateTime))
			return ResolvedDate{Time: t, Source: s.Source}
		}
	}
	r.logger.Debug("date unresolved", "path", target.Path)
	return ResolvedDate{}
}

// ClusterDate holds the dates resolved for the members of one related set.
type ClusterDate struct {
	dates map[string]ResolvedDate // by member path
	dated bool
}

// For returns the date resolved for member f.
func (c ClusterDate) For(f MediaFile) ResolvedDate {
	return c.dates[f.Path]
}

// Resolved reports whether the set has a date. Members of an unresolved set
// all go to Unsorted.
func (c ClusterDate) Resolved() bool { return c.dated }

// ResolveCluster dates every member of a related set. Members with their own
// embedded date keep it. When at least one member is dated, each undated
// member borrows from its nearest dated neighbour in name order, looking
// backward then forward, with source related. Only a set without any
// embedded date falls through to the remaining tiers, which are tried across
// members in name order; the first hit dates the whole set.
func (r *DateResolver) ResolveCluster(cluster []MediaFile, siblings []MediaFile) ClusterDate {
	members := make([]MediaFile, len(cluster))
	copy(members, cluster)
	sortByName(members)

	lookup := r.embeddedLookup()
	cd := ClusterDate{dates: make(map[string]ResolvedDate, len(members))}

	own := make([]ResolvedDate, len(members))
	var rest []Strategy
	for _, s := range r.strategies {
		switch s.Source {
		case SourceEmbedded:
			for i, m := range members {
				if own[i].Resolved() {
					continue
				}
				if t, ok := s.Resolve(ResolveRequest{Target: m, Siblings: siblings, embedded: lookup}); ok {
					own[i] = ResolvedDate{Time: t, Source: SourceEmbedded}
					cd.dated = true
				}
			}
		case SourceRelated:
			// Borrowing within the set replaces the per-file related tier.
		default:
			rest = append(rest, s)
		}
	}

	if cd.dated {
		for i, m := range members {
			d := own[i]
			if !d.Resolved() {
				d = nearestDated(own, i)
				d.Source = SourceRelated
			}
			cd.dates[m.Path] = d
		}
		r.logger.Debug("cluster dated from embedded metadata", "first", members[0].Path, "members", len(members))
		return cd
	}

	for _, s := range rest {
		for _, m := range members {
			t, ok := s.Resolve(ResolveRequest{Target: m, Siblings: siblings, embedded: lookup})
			if !ok {
				continue
			}
			r.logger.Debug("cluster date resolved",
				"anchor", m.Path,
				"members", len(members),
				"strategy", s.Name,
				"date", t.Format(time.DateTime),
			)
			for _, member := range members {
				cd.dates[member.Path] = ResolvedDate{Time: t, Source: s.Source}
			}
			cd.dated = true
			return cd
		}
	}
	return cd
}

// nearestDated returns the closest resolved entry to i, preferring the
// backward one at equal distance.
func nearestDated(dates []ResolvedDate, i int) ResolvedDate {
	for offset := 1; offset < len(dates); offset++ {
		if j := i - offset; j >= 0 && dates[j].Resolved() {
			return dates[j]
		}
		if j := i + offset; j < len(dates) && dates[j].Resolved() {
			return dates[j]
		}
	}
	return ResolvedDate{}
}

func (r *DateResolver) embeddedLookup() func(MediaFile) (time.Time, bool) {
	type result struct {
		t  time.Time
		ok bool
	}
	memo := make(map[string]result)
	return func(f MediaFile) (time.Time, bool) {
		if res, ok := memo[f.Path]; ok {
			return res.t, res.ok
		}
		var res result
		if r.exts.IsImage(f.Path) {
			t, err := r.reader.ReadDate(f.Path)
			if err != nil {
				r.logger.Debug("no embedded date", "path", f.Path, "error", err)
			} else {
				res = result{t: t, ok: true}
			}
		}
		memo[f.Path] = res
		return res.t, res.ok
	}
}

// EmbeddedStrategy reads the target's own EXIF capture date.
func EmbeddedStrategy() Strategy {
	return Strategy{
		Name:   "embedded",
		Source: SourceEmbedded,
		Resolve: func(q ResolveRequest) (time.Time, bool) {
			return q.EmbeddedDate(q.Target)
		},
	}
}

// RelatedStrategy borrows the embedded date of the nearest related sibling,
// scanning the filename-sorted related names backward then forward from the
// target's position by increasing offset.
func RelatedStrategy() Strategy {
	return Strategy{
		Name:   "related",
		Source: SourceRelated,
		Resolve: func(q ResolveRequest) (time.Time, bool) {
			byName := make(map[string]MediaFile, len(q.Siblings))
			names := make([]string, 0, len(q.Siblings))
			for _, s := range q.Siblings {
				byName[s.Name] = s
				names = append(names, s.Name)
			}
			related := RelatedNames(names, q.Target.Name)
			if len(related) == 0 {
				return time.Time{}, false
			}
			sort.Strings(related)
			pos := sort.SearchStrings(related, q.Target.Name)

			try := func(i int) (time.Time, bool) {
				if i < 0 || i >= len(related) || related[i] == q.Target.Name {
					return time.Time{}, false
				}
				return q.EmbeddedDate(byName[related[i]])
			}
			for offset := 0; offset <= len(related); offset++ {
				if t, ok := try(pos - offset); ok {
					return t, true
				}
				if t, ok := try(pos + offset); ok {
					return t, true
				}
			}
			return time.Time{}, false
		},
	}
}

// PathStrategy infers a date from the target's path relative to the scan root.
func PathStrategy(p *PathDateInferrer) Strategy {
	return Strategy{
		Name:   "path",
		Source: SourcePath,
		Resolve: func(q ResolveRequest) (time.Time, bool) {
			return p.Infer(relOrPath(q.Target))
		},
	}
}

// DirectoryStrategy is the coarse fallback on the target's directory path.
func DirectoryStrategy(p *PathDateInferrer) Strategy {
	return Strategy{
		Name:   "directory",
		Source: SourceDirectory,
		Resolve: func(q ResolveRequest) (time.Time, bool) {
			dir := filepath.Dir(relOrPath(q.Target))
			if dir == "." || dir == string(filepath.Separator) {
				return time.Time{}, false
			}
			return p.InferDirectory(dir)
		},
	}
}

func relOrPath(f MediaFile) string {
	if f.RelPath != "" {
		return f.RelPath
	}
	if f.Name != "" {
		return f.Name
	}
	return f.Path
}

package pkg

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// DefaultPathPatterns are tried in order against a file's path. Each must
// capture year, month and day.
var DefaultPathPatterns = []string{
	`(20\d{2})[/_-]?(\d{2})[/_-]?(\d{2})`,
	`(19\d{2})[/_-]?(\d{2})[/_-]?(\d{2})`,
}

// directoryPattern matches a standalone year, optionally followed by a month.
var directoryPattern = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})(?:[/_ .-]?(\d{2}))?(?:\D|$)`)

// PathDateInferrer extracts dates from naming conventions in paths.
type PathDateInferrer struct {
	patterns []*regexp.Regexp
	loc      *time.Location
}

// NewPathDateInferrer compiles patterns (DefaultPathPatterns when empty).
// Inferred dates are midnight in loc, time.Local when nil.
func NewPathDateInferrer(patterns []string, loc *time.Location) (*PathDateInferrer, error) {
	if len(patterns) == 0 {
		patterns = DefaultPathPatterns
	}
	if loc == nil {
		loc = time.Local
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile path pattern %q: %w", p, err)
		}
		if re.NumSubexp() < 3 {
			return nil, fmt.Errorf("path pattern %q must capture year, month and day", p)
		}
		compiled = append(compiled, re)
	}
	return &PathDateInferrer{patterns: compiled, loc: loc}, nil
}

// Infer returns the first valid calendar date found in path. Patterns are
// tried in order; within a pattern, matches are tried left to right.
func (p *PathDateInferrer) Infer(path string) (time.Time, bool) {
	s := filepath.ToSlash(path)
	for _, re := range p.patterns {
		for _, m := range re.FindAllStringSubmatch(s, -1) {
			if t, ok := p.date(m[1], m[2], m[3]); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// InferDirectory is the coarse directory-level fallback: the first
// standalone 19xx/20xx year in dir, with an optional following month.
// Missing or invalid months default to January, days to the first.
func (p *PathDateInferrer) InferDirectory(dir string) (time.Time, bool) {
	s := filepath.ToSlash(dir)
	m := directoryPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month := 1
	if m[2] != "" {
		if mm, _ := strconv.Atoi(m[2]); mm >= 1 && mm <= 12 {
			month = mm
		}
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, p.loc), true
}

func (p *PathDateInferrer) date(ys, ms, ds string) (time.Time, bool) {
	year, err1 := strconv.Atoi(ys)
	month, err2 := strconv.Atoi(ms)
	day, err3 := strconv.Atoi(ds)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if !validCalendarDate(year, month, day) {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, p.loc), true
}

// validCalendarDate reports whether year-month-day exists without normalisation.
func validCalendarDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

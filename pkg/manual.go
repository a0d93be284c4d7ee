package pkg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidManualDate is returned for a manual date that fails validation.
var ErrInvalidManualDate = errors.New("invalid manual date")

// ErrUnsupportedFile is returned for a file whose extension is not a
// supported image or video.
var ErrUnsupportedFile = errors.New("unsupported file type")

const (
	minManualYear = 1970
	maxManualYear = 2100
)

// ManualDate is a user-supplied capture moment.
type ManualDate struct {
	Year, Month, Day int
	Hour, Minute     int
}

// Validate checks every field, including that the day exists in the month.
func (d ManualDate) Validate() error {
	var problems []string
	if d.Year < minManualYear || d.Year > maxManualYear {
		problems = append(problems, fmt.Sprintf("year %d outside %d-%d", d.Year, minManualYear, maxManualYear))
	}
	if d.Month < 1 || d.Month > 12 {
		problems = append(problems, fmt.Sprintf("month %d outside 1-12", d.Month))
	} else if !validCalendarDate(d.Year, d.Month, d.Day) {
		problems = append(problems, fmt.Sprintf("day %d does not exist in %04d-%02d", d.Day, d.Year, d.Month))
	}
	if d.Hour < 0 || d.Hour > 23 {
		problems = append(problems, fmt.Sprintf("hour %d outside 0-23", d.Hour))
	}
	if d.Minute < 0 || d.Minute > 59 {
		problems = append(problems, fmt.Sprintf("minute %d outside 0-59", d.Minute))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidManualDate, strings.Join(problems, "; "))
	}
	return nil
}

// Time returns the date in loc, time.Local when nil. Call Validate first.
func (d ManualDate) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, 0, 0, loc)
}

var (
	manualDatePattern  = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	manualClockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// ParseManualDate parses "YYYY-MM-DD" and an optional "HH:MM". The whole of
// each value must match; anything left over is rejected.
func ParseManualDate(date, clock string) (ManualDate, error) {
	var d ManualDate
	m := manualDatePattern.FindStringSubmatch(strings.TrimSpace(date))
	if m == nil {
		return ManualDate{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidManualDate, date)
	}
	d.Year, _ = strconv.Atoi(m[1])
	d.Month, _ = strconv.Atoi(m[2])
	d.Day, _ = strconv.Atoi(m[3])

	if clock = strings.TrimSpace(clock); clock != "" {
		m := manualClockPattern.FindStringSubmatch(clock)
		if m == nil {
			return ManualDate{}, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidManualDate, clock)
		}
		d.Hour, _ = strconv.Atoi(m[1])
		d.Minute, _ = strconv.Atoi(m[2])
	}
	return d, d.Validate()
}

// ApplyManualDate places paths under the manual date, bypassing date
// resolution. The date is validated before any file is touched and is
// interpreted in Location. InputDir is not used.
func (o *Organizer) ApplyManualDate(ctx context.Context, paths []string, date ManualDate) (*RunResult, error) {
	if err := date.Validate(); err != nil {
		return nil, err
	}
	resolved := ResolvedDate{Time: date.Time(o.opts.Location), Source: SourceManual}

	outputRoot, err := filepath.Abs(o.opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory '%s': %w", o.opts.OutputDir, err)
	}
	release, err := o.prepareOutput(outputRoot)
	if err != nil {
		return nil, err
	}
	defer release()

	o.logger.Info("applying manual date", "date", resolved.Time.Format(time.DateTime), "files", len(paths), "output", outputRoot)

	result := &RunResult{Summary: RunSummary{
		RunID:   o.opts.RunID,
		Mode:    o.opts.Mode,
		DryRun:  o.opts.DryRun,
		Started: time.Now(),
	}}
	planner := NewPlanner(outputRoot, o.opts.UnsortedDir)
	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			result.Summary.Finished = time.Now()
			return result, err
		}
		file, err := o.describeFile(p)
		var outcome FileOutcome
		if err != nil {
			outcome = FileOutcome{Source: file, Status: StatusFailed, Err: err}
			o.logger.Warn("skipping file", "path", p, "error", err)
		} else {
			result.Summary.Input.Add(file)
			outcome = o.placeFile(planner, file, resolved)
			if outcome.Status != StatusFailed {
				result.Summary.Output.Add(file)
			}
		}
		o.record(result, outcome)
		o.progress.report(float64(i+1)/float64(len(paths)), fmt.Sprintf("Processed %d/%d: %s", i+1, len(paths), filepath.Base(p)))
	}
	result.Summary.Finished = time.Now()
	return result, nil
}

func (o *Organizer) describeFile(path string) (MediaFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	file := MediaFile{
		Path:    abs,
		RelPath: filepath.Base(abs),
		Name:    filepath.Base(abs),
		Dir:     filepath.Dir(abs),
		Ext:     strings.ToLower(filepath.Ext(abs)),
		Kind:    o.opts.Extensions.Kind(abs),
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return file, fmt.Errorf("%w: %s", ErrSourceVanished, abs)
		}
		return file, fmt.Errorf("stat %s: %w", abs, err)
	}
	if info.IsDir() {
		return file, fmt.Errorf("%s is a directory", abs)
	}
	if file.Kind == KindUnknown {
		return file, fmt.Errorf("%w: %s", ErrUnsupportedFile, abs)
	}
	file.Size = info.Size()
	return file, nil
}

package pkg

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// OutcomeStatus is the fate of one file in a run.
type OutcomeStatus int

const (
	StatusPlaced OutcomeStatus = iota
	StatusUnsorted
	StatusFailed
)

func (s OutcomeStatus) String() string {
	switch s {
	case StatusPlaced:
		return "placed"
	case StatusUnsorted:
		return "unsorted"
	default:
		return "failed"
	}
}

// FileOutcome records what happened to one source file.
type FileOutcome struct {
	Source    MediaFile
	Status    OutcomeStatus
	Date      ResolvedDate
	Placement Placement
	Err       error
}

// OrganizerOptions configures an Organizer.
type OrganizerOptions struct {
	InputDir           string
	OutputDir          string
	Mode               TransferMode
	DryRun             bool
	PreserveTimestamps bool // keep source times instead of stamping the resolved date
	Workers            int  // directories resolved in parallel; <1 means 1
	UnsortedDir        string
	ReportName         string
	Extensions         Extensions
	Resolver           *DateResolver  // default cascade with directory fallback when nil
	Location           *time.Location // manual dates; time.Local when nil
	Progress           ProgressFunc
	Logger             *slog.Logger
	RunID              string // generated when empty
}

// RunResult is the outcome of a batch.
type RunResult struct {
	Summary    RunSummary
	Outcomes   []FileOutcome
	ReportPath string
}

// Organizer drives a batch: scan, cluster, resolve, plan and transfer.
type Organizer struct {
	opts     OrganizerOptions
	resolver *DateResolver
	progress ProgressFunc
	logger   *slog.Logger
}

// NewOrganizer returns an Organizer for opts.
func NewOrganizer(opts OrganizerOptions) *Organizer {
	if opts.Extensions.Images == nil && opts.Extensions.Videos == nil {
		opts.Extensions = DefaultExtensions()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.UnsortedDir == "" {
		opts.UnsortedDir = DefaultUnsortedDir
	}
	if opts.ReportName == "" {
		opts.ReportName = DefaultReportName
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	logger := loggerOrDiscard(opts.Logger).With("run_id", opts.RunID)

	resolver := opts.Resolver
	if resolver == nil {
		resolver = NewDateResolver(ResolverOptions{
			Extensions:        opts.Extensions,
			DirectoryFallback: true,
			Logger:            logger,
		})
	}
	return &Organizer{
		opts:     opts,
		resolver: resolver,
		progress: serializeProgress(opts.Progress),
		logger:   logger,
	}
}

// directoryPlan is one directory's clusters and their shared dates.
type directoryPlan struct {
	batch    DirectoryBatch
	clusters [][]MediaFile
	dates    []ClusterDate
}

// Run organizes every supported file under InputDir. Only setup failures
// (missing input, uncreatable output, held lock, unwritable report) and
// cancellation return an error; per-file problems are reported in the
// outcomes. On cancellation the partial result is returned with the error.
func (o *Organizer) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()

	files, err := ScanSourceDirectory(o.opts.InputDir, o.opts.Extensions, o.logger)
	if err != nil {
		return nil, err
	}
	outputRoot, err := filepath.Abs(o.opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory '%s': %w", o.opts.OutputDir, err)
	}
	files = o.excludeOrganized(files, outputRoot)

	release, err := o.prepareOutput(outputRoot)
	if err != nil {
		return nil, err
	}
	defer release()

	o.logger.Info("organizing",
		"input", o.opts.InputDir,
		"output", outputRoot,
		"mode", o.opts.Mode.String(),
		"dry_run", o.opts.DryRun,
		"files", len(files),
	)

	result := &RunResult{Summary: RunSummary{
		RunID:   o.opts.RunID,
		Mode:    o.opts.Mode,
		DryRun:  o.opts.DryRun,
		Started: started,
		Input:   CollectStats(files),
	}}

	plans, err := o.resolveDirectories(ctx, GroupByDirectory(files))
	if err != nil {
		return result, err
	}

	planner := NewPlanner(outputRoot, o.opts.UnsortedDir)
	total := len(files)
	done := 0
	for _, plan := range plans {
		o.logger.Info("processing directory", "dir", plan.batch.Dir, "files", len(plan.batch.Files))
		processed := make(map[string]bool, len(plan.batch.Files))
		for i, cluster := range plan.clusters {
			for _, member := range cluster {
				if processed[member.Name] {
					continue
				}
				if err := ctx.Err(); err != nil {
					o.finish(result, outputRoot)
					return result, err
				}
				outcome := o.placeFile(planner, member, plan.dates[i].For(member))
				processed[member.Name] = true
				o.record(result, outcome)
				done++
				o.progress.report(float64(done)/float64(total), fmt.Sprintf("Processed %d/%d: %s", done, total, member.Name))
			}
		}
	}

	o.finish(result, outputRoot)
	if !o.opts.DryRun {
		reportPath := filepath.Join(outputRoot, o.opts.ReportName)
		if err := GenerateReport(reportPath, result.Summary); err != nil {
			return result, fmt.Errorf("failed to generate final report: %w", err)
		}
		result.ReportPath = reportPath
		o.logger.Info("report written", "path", reportPath)
	}
	o.logger.Info("organizing complete",
		"placed", result.Summary.Placed,
		"unsorted", result.Summary.Unsorted,
		"failed", result.Summary.Failed,
	)
	return result, nil
}

// resolveDirectories clusters and dates every directory. Directories are
// independent, so up to Workers of them are resolved concurrently; plans are
// returned in directory order.
func (o *Organizer) resolveDirectories(ctx context.Context, batches []DirectoryBatch) ([]directoryPlan, error) {
	plans := make([]directoryPlan, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)
	for i, batch := range batches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o.progress.note(fmt.Sprintf("Resolving dates in %s", batch.Dir))
			clusters := ClusterRelated(batch.Files)
			dates := make([]ClusterDate, len(clusters))
			for j, cluster := range clusters {
				dates[j] = o.resolver.ResolveCluster(cluster, batch.Files)
				if !dates[j].Resolved() {
					o.logger.Warn("no date for related set, routing to Unsorted",
						"dir", batch.Dir,
						"files", clusterNames(cluster),
					)
				}
			}
			plans[i] = directoryPlan{batch: batch, clusters: clusters, dates: dates}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}

// placeFile plans and, unless dry-running, transfers one file.
func (o *Organizer) placeFile(planner *Planner, file MediaFile, date ResolvedDate) FileOutcome {
	outcome := FileOutcome{Source: file, Date: date}
	pl, err := planner.Plan(file, date)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		o.logger.Warn("failed to plan destination", "path", file.Path, "error", err)
		return outcome
	}
	outcome.Placement = pl
	outcome.Status = StatusPlaced
	if pl.Unsorted {
		outcome.Status = StatusUnsorted
	}
	if o.opts.DryRun {
		o.logger.Debug("planned", "path", file.Path, "dest", pl.Path, "source", date.Source.String())
		return outcome
	}

	if err := TransferFile(file.Path, pl.Path, o.opts.Mode); err != nil {
		planner.Release(pl)
		outcome.Status = StatusFailed
		outcome.Err = err
		o.logger.Warn("failed to transfer file", "path", file.Path, "dest", pl.Path, "error", err)
		return outcome
	}
	if date.Resolved() && !o.opts.PreserveTimestamps {
		if err := ApplyTimestamps(pl.Path, date.Time); err != nil {
			o.logger.Warn("file transferred but timestamps not applied", "path", pl.Path, "error", err)
		}
	}
	o.logger.Debug("file transferred", "mode", o.opts.Mode.String(), "path", file.Path, "dest", pl.Path, "source", date.Source.String())
	return outcome
}

func (o *Organizer) record(result *RunResult, outcome FileOutcome) {
	result.Outcomes = append(result.Outcomes, outcome)
	switch outcome.Status {
	case StatusPlaced:
		result.Summary.Placed++
	case StatusUnsorted:
		result.Summary.Unsorted++
	default:
		result.Summary.Failed++
		result.Summary.Failures = append(result.Summary.Failures, outcome)
	}
}

func (o *Organizer) finish(result *RunResult, outputRoot string) {
	result.Summary.Finished = time.Now()
	if o.opts.DryRun {
		var planned MediaStats
		for _, out := range result.Outcomes {
			if out.Status != StatusFailed {
				planned.Add(out.Source)
			}
		}
		result.Summary.Output = planned
		return
	}
	outFiles, err := ScanSourceDirectory(outputRoot, o.opts.Extensions, o.logger)
	if err != nil {
		o.logger.Warn("failed to scan output directory for statistics", "output", outputRoot, "error", err)
		return
	}
	result.Summary.Output = CollectStats(outFiles)
}

// prepareOutput creates the output root and takes the run lock. Dry runs
// touch nothing.
func (o *Organizer) prepareOutput(outputRoot string) (func(), error) {
	if o.opts.DryRun {
		return func() {}, nil
	}
	if err := os.MkdirAll(outputRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory '%s': %w", outputRoot, err)
	}
	lock, err := AcquireRunLock(outputRoot)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Release(); err != nil {
			o.logger.Warn("failed to release run lock", "error", err)
		}
	}, nil
}

var (
	yearDirPattern  = regexp.MustCompile(`^\d{4}$`)
	monthDirPattern = regexp.MustCompile(`^\d{2}$`)
)

// excludeOrganized drops files already sitting in the managed layout of an
// output root nested inside the input tree.
func (o *Organizer) excludeOrganized(files []MediaFile, outputRoot string) []MediaFile {
	kept := files[:0:0]
	for _, f := range files {
		rel, err := filepath.Rel(outputRoot, f.Path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			kept = append(kept, f)
			continue
		}
		parts := strings.Split(rel, string(filepath.Separator))
		managed := len(parts) == 2 && parts[0] == o.opts.UnsortedDir ||
			len(parts) == 3 && yearDirPattern.MatchString(parts[0]) && monthDirPattern.MatchString(parts[1])
		if managed {
			o.logger.Debug("skipping already organized file", "path", f.Path)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func clusterNames(cluster []MediaFile) []string {
	names := make([]string, len(cluster))
	for i, f := range cluster {
		names[i] = f.Name
	}
	return names
}

// serializeProgress guards a sink against calls from concurrent workers.
func serializeProgress(f ProgressFunc) ProgressFunc {
	if f == nil {
		return nil
	}
	var mu sync.Mutex
	return func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		f(p)
	}
}

package pkg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultReportName is the report file written to the output root.
const DefaultReportName = "report.txt"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with 1024-based units and two decimals,
// e.g. 1536 → "1.50 KB".
func FormatSize(n int64) string {
	size := float64(n)
	for i, unit := range sizeUnits {
		if size < 1024 || i == len(sizeUnits)-1 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return "" // unreachable
}

// CategoryStats counts files and bytes in one media category.
type CategoryStats struct {
	Count int
	Bytes int64
}

// MediaStats splits counts by category.
type MediaStats struct {
	Images CategoryStats
	Videos CategoryStats
}

// Total sums both categories.
func (s MediaStats) Total() CategoryStats {
	return CategoryStats{
		Count: s.Images.Count + s.Videos.Count,
		Bytes: s.Images.Bytes + s.Videos.Bytes,
	}
}

// Add records one file.
func (s *MediaStats) Add(f MediaFile) {
	switch f.Kind {
	case KindImage:
		s.Images.Count++
		s.Images.Bytes += f.Size
	case KindVideo:
		s.Videos.Count++
		s.Videos.Bytes += f.Size
	}
}

// CollectStats tallies files by category.
func CollectStats(files []MediaFile) MediaStats {
	var s MediaStats
	for _, f := range files {
		s.Add(f)
	}
	return s
}

// RunSummary is everything the report needs from a run.
type RunSummary struct {
	RunID    string
	Mode     TransferMode
	DryRun   bool
	Started  time.Time
	Finished time.Time
	Input    MediaStats
	Output   MediaStats
	Placed   int
	Unsorted int
	Failed   int
	Failures []FileOutcome
}

// GenerateReport writes a plain-text summary of a run to reportPath.
func GenerateReport(reportPath string, summary RunSummary) error {
	reportDir := filepath.Dir(reportPath)
	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for report '%s': %w", reportDir, err)
	}
	if err := os.WriteFile(reportPath, []byte(RenderReport(summary)), 0644); err != nil {
		return fmt.Errorf("failed to write report file '%s': %w", reportPath, err)
	}
	return nil
}

// RenderReport formats summary as the report text.
func RenderReport(summary RunSummary) string {
	var b strings.Builder

	b.WriteString("Photo Organizing Report\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	if summary.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", summary.RunID)
	}
	mode := summary.Mode.String()
	if summary.DryRun {
		mode += " (dry run)"
	}
	fmt.Fprintf(&b, "Mode: %s\n", mode)
	if !summary.Started.IsZero() {
		fmt.Fprintf(&b, "Started: %s\n", summary.Started.Format(time.DateTime))
	}
	if !summary.Finished.IsZero() {
		fmt.Fprintf(&b, "Finished: %s\n", summary.Finished.Format(time.DateTime))
	}
	b.WriteString("\n")

	writeStats(&b, "Input directory", summary.Input)
	b.WriteString("\n")
	writeStats(&b, "Output directory", summary.Output)
	b.WriteString("\n")

	b.WriteString("Results:\n")
	fmt.Fprintf(&b, "  - Files placed by date: %d\n", summary.Placed)
	fmt.Fprintf(&b, "  - Files moved to Unsorted: %d\n", summary.Unsorted)
	fmt.Fprintf(&b, "  - Files failed: %d\n", summary.Failed)

	if len(summary.Failures) > 0 {
		b.WriteString("\nFailure Details:\n")
		for _, f := range summary.Failures {
			fmt.Fprintf(&b, "  - File: %s\n", f.Source.Path)
			fmt.Fprintf(&b, "    Reason: %v\n", f.Err)
		}
	}
	return b.String()
}

func writeStats(b *strings.Builder, title string, s MediaStats) {
	total := s.Total()
	fmt.Fprintf(b, "%s:\n", title)
	fmt.Fprintf(b, "  - Images: %d (%s)\n", s.Images.Count, FormatSize(s.Images.Bytes))
	fmt.Fprintf(b, "  - Videos: %d (%s)\n", s.Videos.Count, FormatSize(s.Videos.Bytes))
	fmt.Fprintf(b, "  - Total: %d (%s)\n", total.Count, FormatSize(total.Bytes))
}

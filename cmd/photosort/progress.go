package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/user/photo-sorter/pkg"
)

const progressSteps = 1000

// newProgressSink renders progress as a bar when w is a terminal and as debug
// log lines otherwise. The returned func finishes the bar.
func newProgressSink(w io.Writer, logger *slog.Logger) (pkg.ProgressFunc, func()) {
	if !isTerminal(w) {
		return func(p pkg.Progress) {
			if p.HasFraction {
				logger.Debug("progress", "percent", int(p.Fraction*100), "message", p.Message)
				return
			}
			logger.Debug("progress", "message", p.Message)
		}, func() {}
	}

	bar := progressbar.NewOptions(progressSteps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)
	sink := func(p pkg.Progress) {
		if p.HasFraction {
			_ = bar.Set(int(p.Fraction * progressSteps))
		}
		if p.Message != "" {
			bar.Describe(p.Message)
		}
	}
	return sink, func() { _ = bar.Finish() }
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

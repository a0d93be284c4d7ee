package pkg

// Progress is one progress event from a long-running batch.
type Progress struct {
	Fraction    float64 // 0.0–1.0, meaningful only when HasFraction
	HasFraction bool
	Message     string
}

// ProgressFunc receives progress events. A nil ProgressFunc is valid and
// drops every event.
type ProgressFunc func(Progress)

func (f ProgressFunc) report(fraction float64, message string) {
	if f == nil {
		return
	}
	f(Progress{Fraction: clampFraction(fraction), HasFraction: true, Message: message})
}

func (f ProgressFunc) note(message string) {
	if f == nil {
		return
	}
	f(Progress{Message: message})
}

// ChannelProgress adapts a channel into a ProgressFunc. Sends never block:
// events are dropped while the consumer is behind.
func ChannelProgress(ch chan<- Progress) ProgressFunc {
	return func(p Progress) {
		select {
		case ch <- p:
		default:
		}
	}
}

func clampFraction(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

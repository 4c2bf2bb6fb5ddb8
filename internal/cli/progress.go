package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
)

// ProgressBar renders a terminal progress bar for long operations. The zero
// value is unusable; construct with NewProgressBar. All methods are nil-safe
// on the underlying bar so callers can Increment before Start without
// crashing a run over cosmetics.
type ProgressBar struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
}

// NewProgressBar creates a progress reporter writing to w; a nil writer
// targets stdout.
func NewProgressBar(w io.Writer) *ProgressBar {
	if w == nil {
		w = os.Stdout
	}
	return &ProgressBar{writer: w}
}

// Start begins a new bar sized to total.
func (p *ProgressBar) Start(total int, description string) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

// Increment advances the bar by one.
func (p *ProgressBar) Increment() {
	if p.bar == nil {
		return
	}
	if err := p.bar.Add(1); err != nil {
		slog.Warn("failed to update progress bar", "error", err)
	}
}

// Finish completes the current bar.
func (p *ProgressBar) Finish() {
	if p.bar == nil {
		return
	}
	if err := p.bar.Finish(); err != nil {
		slog.Warn("failed to finish progress bar", "error", err)
	}
	p.bar = nil
}

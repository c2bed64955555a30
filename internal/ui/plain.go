package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/snapdiff/internal/stats"
)

const plainInterval = 5 * time.Second

// plainPresenter prints a progress line to stderr every few seconds when
// stderr is not a terminal.
type plainPresenter struct {
	w        io.Writer
	stats    *stats.Collector
	interval time.Duration
}

func (p *plainPresenter) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.stats.Tick()
			p.printProgress()
		}
	}
}

func (p *plainPresenter) printProgress() {
	rate := p.stats.RollingItemsPerSec(5)
	fmt.Fprintf(p.w, "progress: %s  %s items/s\n",
		progressLine(p.stats.Snapshot()),
		FormatCount(int64(rate)),
	)
}

func (p *plainPresenter) Summary() string {
	return completionSummary(p.stats.Snapshot())
}

package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/snapdiff/internal/stats"
)

const hudInterval = 100 * time.Millisecond

// clearLine returns the cursor to column 0 and erases the line.
const clearLine = "\r\x1b[K"

// hudPresenter redraws a single status line in place on a terminal.
type hudPresenter struct {
	w        io.Writer
	stats    *stats.Collector
	interval time.Duration
	width    int // terminal columns; 0 disables truncation
	frames   int
}

func (p *hudPresenter) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.render()
	for {
		select {
		case <-ctx.Done():
			_, err := io.WriteString(p.w, clearLine)
			return err
		case <-ticker.C:
			p.frames++
			// The rate ring expects one sample per second.
			if time.Duration(p.frames)*p.interval%time.Second == 0 {
				p.stats.Tick()
			}
			p.render()
		}
	}
}

func (p *hudPresenter) render() {
	line := progressLine(p.stats.Snapshot())
	if rate := p.stats.RollingItemsPerSec(3); rate > 0 {
		line += fmt.Sprintf(" | %s items/s", FormatCount(int64(rate)))
	}
	if p.width > 1 && len(line) >= p.width {
		line = line[:p.width-1]
	}
	fmt.Fprint(p.w, clearLine+line)
}

func (p *hudPresenter) Summary() string {
	return completionSummary(p.stats.Snapshot())
}

package ui

import (
	"context"

	"github.com/bamsammich/snapdiff/internal/stats"
)

// quietPresenter waits for the crawl but produces no output.
type quietPresenter struct {
	stats *stats.Collector
}

func (p *quietPresenter) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (p *quietPresenter) Summary() string {
	return ""
}

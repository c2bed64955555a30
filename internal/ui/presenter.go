package ui

import (
	"context"
	"io"

	"github.com/bamsammich/snapdiff/internal/stats"
)

// Presenter displays crawl progress while snapshots are being built.
type Presenter interface {
	// Run redraws progress until ctx is done. Blocks until then.
	Run(ctx context.Context) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	ErrWriter  io.Writer
	Stats      *stats.Collector
	IsTTY      bool
	Width      int
	Quiet      bool
	NoProgress bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet || cfg.NoProgress {
		return &quietPresenter{stats: cfg.Stats}
	}
	if !cfg.IsTTY {
		return &plainPresenter{w: cfg.ErrWriter, stats: cfg.Stats, interval: plainInterval}
	}
	return &hudPresenter{w: cfg.ErrWriter, stats: cfg.Stats, interval: hudInterval, width: cfg.Width}
}

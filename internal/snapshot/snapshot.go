// Package snapshot builds immutable inventories of crawled trees.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/bamsammich/snapdiff/internal/driver"
	"github.com/bamsammich/snapdiff/internal/filter"
)

// ErrDuplicateItem is returned when a driver reports the same path twice.
var ErrDuplicateItem = errors.New("duplicate item")

// Snapshot is the inventory of one root. Items are sorted by path and no two
// share a path.
type Snapshot struct {
	DriverID string
	Root     string
	Items    []driver.Item
}

// Len returns the number of items.
func (s *Snapshot) Len() int { return len(s.Items) }

// Index returns the items keyed by path.
func (s *Snapshot) Index() map[string]driver.Metadata {
	m := make(map[string]driver.Metadata, len(s.Items))
	for _, it := range s.Items {
		m[it.Path] = it.Metadata
	}
	return m
}

// Builder produces a single snapshot.
type Builder struct {
	Driver   driver.Driver
	Root     string
	Ignore   *filter.IgnoreSet
	Observer driver.Observer
	Logger   *slog.Logger
}

// Build crawls the root and returns its snapshot. On failure stop, when not
// nil, is called with a cause wrapping driver.ErrCancelled so that any
// sibling sharing the same context winds down.
func (b Builder) Build(ctx context.Context, stop context.CancelCauseFunc) (*Snapshot, error) {
	snap, err := b.build(ctx)
	if err != nil {
		if stop != nil {
			stop(fmt.Errorf("%w: snapshot of %s failed", driver.ErrCancelled, b.describe()))
		}
		return nil, err
	}
	return snap, nil
}

func (b Builder) build(ctx context.Context) (*Snapshot, error) {
	log := b.Logger
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()

	root, err := b.Driver.Canonicalize(ctx, b.Root)
	if err != nil {
		return nil, err
	}

	items, err := b.Driver.FindAll(ctx, root, b.Ignore, b.Observer)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.Path]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, it.Path)
		}
		seen[it.Path] = struct{}{}
	}
	slices.SortFunc(items, func(a, b driver.Item) int {
		return strings.Compare(a.Path, b.Path)
	})

	log.Debug("snapshot built",
		"driver", b.Driver.ID(),
		"root", root,
		"items", len(items),
		"elapsed", time.Since(start),
	)

	return &Snapshot{DriverID: b.Driver.ID(), Root: root, Items: items}, nil
}

func (b Builder) describe() string {
	return b.Driver.ID() + ":" + b.Root
}

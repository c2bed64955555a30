package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/bamsammich/snapdiff/internal/driver"
	"github.com/bamsammich/snapdiff/internal/filter"
)

// Source names one side of a comparison.
type Source struct {
	Driver   driver.Driver
	Root     string
	Ignore   *filter.IgnoreSet
	Observer driver.Observer
}

// PairOptions configures BuildPair.
type PairOptions struct {
	Logger *slog.Logger
}

// Pair holds the two snapshots of a successful session.
type Pair struct {
	Source *Snapshot
	Dest   *Snapshot
}

// PairError reports which sides of a session failed. A nil field means that
// side succeeded.
type PairError struct {
	Source error
	Dest   error
}

func (e *PairError) Error() string {
	var parts []string
	if e.Source != nil {
		parts = append(parts, fmt.Sprintf("source snapshot: %v", e.Source))
	}
	if e.Dest != nil {
		parts = append(parts, fmt.Sprintf("destination snapshot: %v", e.Dest))
	}
	return strings.Join(parts, "; ")
}

func (e *PairError) Unwrap() []error {
	var errs []error
	if e.Source != nil {
		errs = append(errs, e.Source)
	}
	if e.Dest != nil {
		errs = append(errs, e.Dest)
	}
	return errs
}

// BuildPair snapshots src and dst concurrently. Both builds share one
// cancellation context, so the first failure stops the other side. Either
// side failing yields a *PairError carrying both outcomes.
func BuildPair(ctx context.Context, src, dst Source, opts PairOptions) (*Pair, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("session", uuid.NewString())

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		wg   conc.WaitGroup
		pair Pair
		perr PairError
	)
	wg.Go(func() {
		pair.Source, perr.Source = builderFor(src, log.With("side", "source")).Build(ctx, cancel)
	})
	wg.Go(func() {
		pair.Dest, perr.Dest = builderFor(dst, log.With("side", "destination")).Build(ctx, cancel)
	})
	wg.Wait()

	if perr.Source != nil || perr.Dest != nil {
		log.Debug("snapshot session failed", "source_err", perr.Source, "dest_err", perr.Dest)
		return nil, &perr
	}
	return &pair, nil
}

func builderFor(s Source, log *slog.Logger) Builder {
	return Builder{
		Driver:   s.Driver,
		Root:     s.Root,
		Ignore:   s.Ignore,
		Observer: s.Observer,
		Logger:   log,
	}
}

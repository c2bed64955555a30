package driver

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bamsammich/snapdiff/internal/filter"
)

// Compile-time interface check.
var _ Driver = (*LocalDriver)(nil)

// LocalDriver crawls the local filesystem with a pool of walkers.
type LocalDriver struct {
	// Workers bounds the number of directories read concurrently.
	// Zero means min(NumCPU, 8).
	Workers int
	Logger  *slog.Logger
}

// NewLocalDriver creates a local driver with the given worker count.
func NewLocalDriver(workers int) *LocalDriver {
	return &LocalDriver{Workers: workers}
}

func (*LocalDriver) ID() string { return "fs" }

func (*LocalDriver) Canonicalize(_ context.Context, root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, root)
		}
		return "", fmt.Errorf("canonicalize %s: %w", root, err)
	}
	if !utf8.ValidString(resolved) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEncoding, resolved)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", resolved, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrNotFound, resolved)
	}
	return resolved, nil
}

func (d *LocalDriver) FindAll(
	ctx context.Context,
	root string,
	ignore *filter.IgnoreSet,
	observe Observer,
) ([]Item, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
	}

	workers := d.Workers
	if workers <= 0 {
		workers = min(runtime.NumCPU(), 8)
	}

	crawlCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	w := &localWalk{
		root:    root,
		ignore:  ignore,
		observe: observe,
		fail:    cancel,
		queue:   make(chan string, workers*4),
	}

	results := make([][]Item, workers)
	var workerWg sync.WaitGroup
	for i := range workers {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			results[i] = w.work(crawlCtx)
		}()
	}

	// Seed with root.
	w.outstanding.Add(1)
	w.queue <- root

	// Wait for all directory work to finish, then close the queue so
	// workers leave their range loop.
	w.outstanding.Wait()
	close(w.queue)
	workerWg.Wait()

	if err := crawlResult(ctx, crawlCtx); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	items := make([]Item, 0, total)
	for _, r := range results {
		items = append(items, r...)
	}

	d.logger().Debug("local crawl complete", "root", root, "items", len(items), "workers", workers)
	return items, nil
}

func (d *LocalDriver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// localWalk is the state shared by the walkers of one FindAll call. Only
// the queue and the outstanding counter are shared; each walker keeps its
// own items.
type localWalk struct {
	root        string
	ignore      *filter.IgnoreSet
	observe     Observer
	fail        context.CancelCauseFunc
	queue       chan string
	outstanding sync.WaitGroup // directories queued but not yet read
}

// work reads directories until the queue closes. Subdirectories that do
// not fit in the queue stay on the walker's own stack so a full queue can
// never block every walker at once.
func (w *localWalk) work(ctx context.Context) []Item {
	var items []Item
	var pending []string

	for dir := range w.queue {
		pending = append(pending, dir)
		for len(pending) > 0 {
			next := pending[len(pending)-1]
			pending = pending[:len(pending)-1]

			if ctx.Err() == nil {
				var err error
				items, pending, err = w.readDir(ctx, next, items, pending)
				if err != nil {
					w.fail(err)
				}
			}
			w.outstanding.Done()
		}
	}
	return items
}

func (w *localWalk) readDir(ctx context.Context, dir string, items []Item, pending []string) ([]Item, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return items, pending, fmt.Errorf("readdir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return items, pending, nil
		}
		if w.ignore.Match(entry.Name()) {
			continue
		}

		absPath := filepath.Join(dir, entry.Name())
		item, err := w.statItem(absPath)
		if err != nil {
			return items, pending, err
		}
		if w.observe != nil {
			w.observe(item)
		}
		items = append(items, item)

		if item.Metadata.IsDir() {
			w.outstanding.Add(1)
			select {
			case w.queue <- absPath:
			default:
				pending = append(pending, absPath)
			}
		}
	}
	return items, pending, nil
}

func (w *localWalk) statItem(absPath string) (Item, error) {
	relPath, err := w.relPath(absPath)
	if err != nil {
		return Item{}, err
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		return Item{}, fmt.Errorf("lstat %s: %w", absPath, err)
	}

	mode := info.Mode()
	switch {
	case mode&fs.ModeSymlink != 0:
		return Item{}, fmt.Errorf("%w: symbolic link at %s", ErrUnsupportedItemType, absPath)
	case mode.IsDir():
		return Item{Path: relPath, Metadata: Directory()}, nil
	case mode.IsRegular():
		meta := FileMetadata{
			ModTime: info.ModTime().Unix(),
			Size:    uint64(info.Size()), //nolint:gosec // G115: regular file sizes are non-negative
		}
		meta.Created = createdTime(absPath, info)
		return Item{Path: relPath, Metadata: File(meta)}, nil
	default:
		return Item{}, fmt.Errorf("%w: %s at %s", ErrUnsupportedItemType, mode.Type(), absPath)
	}
}

// relPath strips the canonical root from absPath. Every path handed to it
// was built by joining names onto the root, so the prefix is exact.
func (w *localWalk) relPath(absPath string) (string, error) {
	rel, ok := strings.CutPrefix(absPath, w.root)
	if !ok {
		return "", fmt.Errorf("internal error: %s is not under %s", absPath, w.root)
	}
	rel = strings.TrimPrefix(rel, string(filepath.Separator))
	if !utf8.ValidString(rel) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEncoding, absPath)
	}
	return filepath.ToSlash(rel), nil
}

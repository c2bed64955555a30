package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/bamsammich/snapdiff/internal/filter"
)

// Crawl failures. Every one of them is terminal for the crawl that raised it.
var (
	ErrNotFound            = errors.New("root directory not found")
	ErrInvalidEncoding     = errors.New("path is not valid UTF-8")
	ErrUnsupportedItemType = errors.New("unsupported item type")
	ErrMissingMetadata     = errors.New("missing metadata field")
	ErrCancelled           = errors.New("crawl cancelled")
)

// Kind distinguishes directories from regular files.
type Kind uint8

const (
	KindDirectory Kind = iota + 1
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// FileMetadata holds the attributes of a regular file.
type FileMetadata struct {
	ModTime int64  // unix seconds
	Size    uint64 // logical length in bytes
	Created int64  // unix seconds, 0 when the backend cannot report it
}

// Equal compares size and modification time. Created is deliberately
// excluded: backends disagree on it.
func (f FileMetadata) Equal(o FileMetadata) bool {
	return f.ModTime == o.ModTime && f.Size == o.Size
}

// Metadata describes one crawled item. File is only meaningful when
// Kind is KindFile.
type Metadata struct {
	Kind Kind
	File FileMetadata
}

// Directory returns directory metadata.
func Directory() Metadata { return Metadata{Kind: KindDirectory} }

// File returns file metadata.
func File(f FileMetadata) Metadata { return Metadata{Kind: KindFile, File: f} }

func (m Metadata) IsDir() bool  { return m.Kind == KindDirectory }
func (m Metadata) IsFile() bool { return m.Kind == KindFile }

// Size returns the file size, or 0 for directories.
func (m Metadata) Size() uint64 {
	if m.IsFile() {
		return m.File.Size
	}
	return 0
}

// Item is a single entry found under a crawled root.
type Item struct {
	Path     string // relative to the root, forward slashes
	Metadata Metadata
}

// Observer is notified of every discovered item. It may be called
// concurrently from several crawling goroutines.
type Observer func(Item)

// Driver crawls a tree on one backend.
type Driver interface {
	// ID identifies the backend instance, e.g. "fs" or "sftp://user@host:22".
	ID() string

	// Canonicalize resolves root to the absolute form FindAll expects.
	Canonicalize(ctx context.Context, root string) (string, error)

	// FindAll lists every item below root, skipping names in ignore and
	// their subtrees. It stops with an error wrapping ErrCancelled once ctx
	// is done.
	FindAll(ctx context.Context, root string, ignore *filter.IgnoreSet, observe Observer) ([]Item, error)
}

// Cancelled returns the error a crawl reports after ctx is done. The
// context's cause is preserved so callers can see why the crawl stopped.
func Cancelled(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = ctx.Err()
	}
	if errors.Is(cause, ErrCancelled) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// crawlResult resolves the outcome of a crawl that ran under crawlCtx, a
// child of parent that is cancelled with the first failure. A failure the
// crawl raised itself wins; otherwise a done parent means cancellation.
func crawlResult(parent, crawlCtx context.Context) error {
	cause := context.Cause(crawlCtx)
	if cause == nil {
		return nil
	}
	if parent.Err() != nil && cause == context.Cause(parent) {
		return Cancelled(parent)
	}
	return cause
}

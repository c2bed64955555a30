// Package diff compares two snapshots and classifies every path that differs.
package diff

import (
	"cmp"
	"slices"

	"github.com/bamsammich/snapdiff/internal/driver"
	"github.com/bamsammich/snapdiff/internal/snapshot"
)

// Status is the category of a change. The declaration order is the
// presentation order.
type Status uint8

const (
	StatusAdded Status = iota
	StatusModified
	StatusTypeChanged
	StatusDeleted
)

func (s Status) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusModified:
		return "modified"
	case StatusTypeChanged:
		return "type changed"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is one of Added, Modified, TypeChanged or Deleted.
type Change interface {
	Status() Status
	sealed()
}

// Added is a path present only in the source.
type Added struct {
	New driver.Metadata
}

// Modified is a file present on both sides whose size or mtime differ.
type Modified struct {
	Prev driver.FileMetadata
	New  driver.FileMetadata
}

// TypeChanged is a path that is a directory on one side and a file on the
// other.
type TypeChanged struct {
	Prev driver.Metadata
	New  driver.Metadata
}

// Deleted is a path present only in the destination.
type Deleted struct {
	Prev driver.Metadata
}

func (Added) Status() Status       { return StatusAdded }
func (Modified) Status() Status    { return StatusModified }
func (TypeChanged) Status() Status { return StatusTypeChanged }
func (Deleted) Status() Status     { return StatusDeleted }

func (Added) sealed()       {}
func (Modified) sealed()    {}
func (TypeChanged) sealed() {}
func (Deleted) sealed()     {}

// Item is the change recorded for one path.
type Item struct {
	Path   string
	Change Change
}

func (i Item) Status() Status { return i.Change.Status() }

// Diff is an unordered set of changes until Sort is called.
type Diff struct {
	Items []Item
}

func (d Diff) Len() int { return len(d.Items) }

// Sort orders items by status, then by path.
func (d *Diff) Sort() {
	slices.SortFunc(d.Items, compareItems)
}

func compareItems(a, b Item) int {
	if c := cmp.Compare(a.Status(), b.Status()); c != 0 {
		return c
	}
	return cmp.Compare(a.Path, b.Path)
}

// Build computes what it takes to turn dest into source. "prev" values come
// from dest and "new" values from source.
func Build(source, dest *snapshot.Snapshot) Diff {
	src := source.Index()
	dst := dest.Index()

	var items []Item
	for _, it := range source.Items {
		prev, ok := dst[it.Path]
		if !ok {
			items = append(items, Item{Path: it.Path, Change: Added{New: it.Metadata}})
			continue
		}
		if change := compare(prev, it.Metadata); change != nil {
			items = append(items, Item{Path: it.Path, Change: change})
		}
	}
	for _, it := range dest.Items {
		if _, ok := src[it.Path]; !ok {
			items = append(items, Item{Path: it.Path, Change: Deleted{Prev: it.Metadata}})
		}
	}
	return Diff{Items: items}
}

// compare classifies a path present on both sides; nil means unchanged.
func compare(prev, next driver.Metadata) Change {
	switch {
	case prev.IsDir() && next.IsDir():
		return nil
	case prev.Kind != next.Kind:
		return TypeChanged{Prev: prev, New: next}
	case prev.File.Equal(next.File):
		return nil
	default:
		return Modified{Prev: prev.File, New: next.File}
	}
}

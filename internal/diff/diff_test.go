package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/snapdiff/internal/diff"
	"github.com/bamsammich/snapdiff/internal/driver"
	"github.com/bamsammich/snapdiff/internal/snapshot"
)

func fileMeta(size uint64, mtime int64) driver.FileMetadata {
	return driver.FileMetadata{Size: size, ModTime: mtime}
}

func file(size uint64, mtime int64) driver.Metadata {
	return driver.File(fileMeta(size, mtime))
}

var dir = driver.Directory()

func snap(items ...driver.Item) *snapshot.Snapshot {
	return &snapshot.Snapshot{DriverID: "fs", Root: "/r", Items: items}
}

func item(path string, m driver.Metadata) driver.Item {
	return driver.Item{Path: path, Metadata: m}
}

func TestBuild_Scenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source *snapshot.Snapshot
		dest   *snapshot.Snapshot
		want   []diff.Item
	}{
		{
			name:   "new file",
			source: snap(item("a.txt", file(10, 100))),
			dest:   snap(),
			want:   []diff.Item{{Path: "a.txt", Change: diff.Added{New: file(10, 100)}}},
		},
		{
			name:   "size-only change",
			source: snap(item("a.txt", file(20, 100))),
			dest:   snap(item("a.txt", file(10, 100))),
			want: []diff.Item{{Path: "a.txt", Change: diff.Modified{
				Prev: fileMeta(10, 100),
				New:  fileMeta(20, 100),
			}}},
		},
		{
			name:   "mtime-only change",
			source: snap(item("a.txt", file(10, 200))),
			dest:   snap(item("a.txt", file(10, 100))),
			want: []diff.Item{{Path: "a.txt", Change: diff.Modified{
				Prev: fileMeta(10, 100),
				New:  fileMeta(10, 200),
			}}},
		},
		{
			name:   "type flip",
			source: snap(item("x", dir)),
			dest:   snap(item("x", file(5, 1))),
			want:   []diff.Item{{Path: "x", Change: diff.TypeChanged{Prev: file(5, 1), New: dir}}},
		},
		{
			name:   "deletion",
			source: snap(),
			dest:   snap(item("b.txt", file(1, 1))),
			want:   []diff.Item{{Path: "b.txt", Change: diff.Deleted{Prev: file(1, 1)}}},
		},
		{
			name:   "unchanged directory",
			source: snap(item("d", dir)),
			dest:   snap(item("d", dir)),
		},
		{
			name:   "both empty",
			source: snap(),
			dest:   snap(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := diff.Build(tt.source, tt.dest)
			got.Sort()
			assert.Equal(t, tt.want, got.Items)
		})
	}
}

func TestBuild_CreatedTimeIgnored(t *testing.T) {
	t.Parallel()
	src := snap(item("a", driver.File(driver.FileMetadata{Size: 1, ModTime: 1, Created: 10})))
	dst := snap(item("a", driver.File(driver.FileMetadata{Size: 1, ModTime: 1, Created: 99})))
	assert.Zero(t, diff.Build(src, dst).Len())
}

func TestBuild_Idempotent(t *testing.T) {
	t.Parallel()
	s := snap(
		item("a", dir),
		item("a/b.txt", file(3, 9)),
		item("c.txt", file(0, 1)),
	)
	assert.Zero(t, diff.Build(s, s).Len())
}

func TestBuild_Symmetry(t *testing.T) {
	t.Parallel()
	a := snap(item("f", file(1, 10)), item("only-a", dir))
	b := snap(item("f", file(2, 20)), item("only-b", file(7, 7)))

	forward := diff.Build(a, b)
	forward.Sort()
	backward := diff.Build(b, a)
	backward.Sort()

	require.Equal(t, []diff.Item{
		{Path: "only-a", Change: diff.Added{New: dir}},
		{Path: "f", Change: diff.Modified{Prev: fileMeta(2, 20), New: fileMeta(1, 10)}},
		{Path: "only-b", Change: diff.Deleted{Prev: file(7, 7)}},
	}, forward.Items)

	require.Equal(t, []diff.Item{
		{Path: "only-b", Change: diff.Added{New: file(7, 7)}},
		{Path: "f", Change: diff.Modified{Prev: fileMeta(1, 10), New: fileMeta(2, 20)}},
		{Path: "only-a", Change: diff.Deleted{Prev: dir}},
	}, backward.Items)
}

func TestBuild_Completeness(t *testing.T) {
	t.Parallel()
	src := snap(
		item("added", file(1, 1)),
		item("dir", dir),
		item("flip", file(4, 4)),
		item("mod", file(2, 2)),
		item("same", file(3, 3)),
	)
	dst := snap(
		item("deleted", dir),
		item("dir", dir),
		item("flip", dir),
		item("mod", file(2, 5)),
		item("same", file(3, 3)),
	)

	d := diff.Build(src, dst)
	byPath := make(map[string]diff.Status)
	for _, it := range d.Items {
		_, dup := byPath[it.Path]
		require.False(t, dup, "path %s reported twice", it.Path)
		byPath[it.Path] = it.Status()
	}

	assert.Equal(t, map[string]diff.Status{
		"added":   diff.StatusAdded,
		"deleted": diff.StatusDeleted,
		"flip":    diff.StatusTypeChanged,
		"mod":     diff.StatusModified,
	}, byPath)
}

func TestBuild_EmptySideDegenerates(t *testing.T) {
	t.Parallel()
	full := snap(item("a", dir), item("a/b", file(1, 1)), item("c", file(2, 2)))

	for _, it := range diff.Build(full, snap()).Items {
		assert.Equal(t, diff.StatusAdded, it.Status())
	}
	for _, it := range diff.Build(snap(), full).Items {
		assert.Equal(t, diff.StatusDeleted, it.Status())
	}
	assert.Equal(t, 3, diff.Build(full, snap()).Len())
}

func TestSort_StatusThenPath(t *testing.T) {
	t.Parallel()
	d := diff.Diff{Items: []diff.Item{
		{Path: "a", Change: diff.Deleted{Prev: dir}},
		{Path: "z", Change: diff.Added{New: dir}},
		{Path: "m", Change: diff.TypeChanged{Prev: dir, New: file(1, 1)}},
		{Path: "b", Change: diff.Added{New: dir}},
		{Path: "c", Change: diff.Modified{}},
	}}
	d.Sort()

	var got []string
	for _, it := range d.Items {
		got = append(got, it.Status().String()+":"+it.Path)
	}
	assert.Equal(t, []string{
		"added:b",
		"added:z",
		"modified:c",
		"type changed:m",
		"deleted:a",
	}, got)
}

func TestStatusString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "unknown", diff.Status(42).String())
}

package driver_test

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/snapdiff/internal/driver"
	"github.com/bamsammich/snapdiff/internal/filter"
)

type fakeInfo struct {
	name    string
	mode    fs.FileMode
	size    int64
	modTime time.Time
	sys     any
}

func (f fakeInfo) Name() string       { return f.name }
func (f fakeInfo) Size() int64        { return f.size }
func (f fakeInfo) Mode() fs.FileMode  { return f.mode }
func (f fakeInfo) ModTime() time.Time { return f.modTime }
func (f fakeInfo) IsDir() bool        { return f.mode.IsDir() }
func (f fakeInfo) Sys() any           { return f.sys }

func dirInfo(name string) os.FileInfo { return fakeInfo{name: name, mode: fs.ModeDir | 0o755} }

func fileInfo(name string, size int64) os.FileInfo {
	return fakeInfo{name: name, mode: 0o644, size: size, modTime: testMtime}
}

// fakeSFTP serves listings from memory. Directories are keyed by absolute
// path; the home directory is /home/test.
type fakeSFTP struct {
	dirs    map[string][]os.FileInfo
	failDir map[string]error
	delay   time.Duration

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	mu          sync.Mutex
	listed      []string
}

func newFakeSFTP() *fakeSFTP {
	return &fakeSFTP{
		dirs: map[string][]os.FileInfo{
			"/home/test": {
				dirInfo("."),
				dirInfo(".."),
				fileInfo("file.txt", 5),
				dirInfo("sub"),
			},
			"/home/test/sub": {
				fileInfo("nested.txt", 14),
				dirInfo("deep"),
			},
			"/home/test/sub/deep": {
				fileInfo("deep.txt", 4),
			},
		},
		failDir: map[string]error{},
	}
}

func (f *fakeSFTP) ReadDir(p string) ([]os.FileInfo, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.listed = append(f.listed, p)
	f.mu.Unlock()

	if err := f.failDir[p]; err != nil {
		return nil, err
	}
	infos, ok := f.dirs[p]
	if !ok {
		return nil, fmt.Errorf("readdir %s: %w", p, fs.ErrNotExist)
	}
	return infos, nil
}

func (f *fakeSFTP) RealPath(p string) (string, error) {
	if p == "/lost" {
		return "", &sftp.StatusError{Code: uint32(sftp.ErrSSHFxNoSuchFile)}
	}
	if !path.IsAbs(p) {
		p = path.Join("/home/test", p)
	}
	return path.Clean(p), nil
}

func (f *fakeSFTP) Stat(p string) (os.FileInfo, error) {
	if _, ok := f.dirs[p]; ok {
		return dirInfo(path.Base(p)), nil
	}
	for _, info := range f.dirs[path.Dir(p)] {
		if info.Name() == path.Base(p) {
			return info, nil
		}
	}
	return nil, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
}

func sortedPaths(items []driver.Item) []string {
	paths := make([]string, 0, len(items))
	for _, it := range items {
		paths = append(paths, it.Path)
	}
	sort.Strings(paths)
	return paths
}

func TestSFTPDriver_FindAll(t *testing.T) {
	t.Parallel()
	d := driver.NewSFTPDriver(newFakeSFTP(), "sftp://test@fake:22")
	root := canonical(t, d, ".")
	assert.Equal(t, "/home/test", root)

	items, err := d.FindAll(context.Background(), root, nil, nil)
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"file.txt", "sub", "sub/deep", "sub/deep/deep.txt", "sub/nested.txt"},
		sortedPaths(items))

	got := byPath(items)
	assert.True(t, got["sub/deep"].IsDir())
	assert.Equal(t, uint64(14), got["sub/nested.txt"].Size())
	assert.Equal(t, testMtime.Unix(), got["file.txt"].File.ModTime)
}

func TestSFTPDriver_FileStatAttributes(t *testing.T) {
	t.Parallel()
	fake := newFakeSFTP()
	fake.dirs["/home/test"] = []os.FileInfo{
		fakeInfo{name: "raw.bin", mode: 0o644, sys: &sftp.FileStat{Size: 42, Mtime: 1700000000}},
	}
	d := driver.NewSFTPDriver(fake, "fake")

	items, err := d.FindAll(context.Background(), "/home/test", nil, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, driver.File(driver.FileMetadata{ModTime: 1700000000, Size: 42}), items[0].Metadata)
}

func TestSFTPDriver_Ignore(t *testing.T) {
	t.Parallel()
	fake := newFakeSFTP()
	d := driver.NewSFTPDriver(fake, "fake")

	ignore, err := filter.NewIgnoreSet("sub")
	require.NoError(t, err)

	items, err := d.FindAll(context.Background(), "/home/test", ignore, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"file.txt"}, sortedPaths(items))
	assert.NotContains(t, fake.listed, "/home/test/sub")
}

func TestSFTPDriver_MaxConcurrency(t *testing.T) {
	t.Parallel()
	fake := &fakeSFTP{dirs: map[string][]os.FileInfo{}, failDir: map[string]error{}, delay: 5 * time.Millisecond}
	var top []os.FileInfo
	for i := range 20 {
		name := fmt.Sprintf("d%02d", i)
		top = append(top, dirInfo(name))
		fake.dirs["/r/"+name] = []os.FileInfo{fileInfo("f", 1)}
	}
	fake.dirs["/r"] = top

	d := driver.NewSFTPDriver(fake, "fake")
	d.MaxConcurrency = 3

	var seen atomic.Int64
	items, err := d.FindAll(context.Background(), "/r", nil, func(driver.Item) { seen.Add(1) })
	require.NoError(t, err)
	assert.Len(t, items, 40)
	assert.Equal(t, int64(40), seen.Load())
	assert.LessOrEqual(t, fake.maxInFlight.Load(), int64(3))
}

func TestSFTPDriver_ListingFailure(t *testing.T) {
	t.Parallel()
	fake := newFakeSFTP()
	fake.failDir["/home/test/sub/deep"] = fs.ErrPermission
	d := driver.NewSFTPDriver(fake, "fake")

	_, err := d.FindAll(context.Background(), "/home/test", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.NotErrorIs(t, err, driver.ErrCancelled)
}

func TestSFTPDriver_MissingMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		info os.FileInfo
	}{
		{"no mtime", fakeInfo{name: "f", mode: 0o644, size: 3}},
		{"zero mtime attribute", fakeInfo{name: "f", mode: 0o644, sys: &sftp.FileStat{Size: 3}}},
		{"negative size", fakeInfo{name: "f", mode: 0o644, size: -1, modTime: testMtime}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := &fakeSFTP{
				dirs:    map[string][]os.FileInfo{"/r": {tt.info}},
				failDir: map[string]error{},
			}
			_, err := driver.NewSFTPDriver(fake, "fake").FindAll(context.Background(), "/r", nil, nil)
			assert.ErrorIs(t, err, driver.ErrMissingMetadata)
		})
	}
}

func TestSFTPDriver_UnsupportedTypes(t *testing.T) {
	t.Parallel()

	for _, mode := range []fs.FileMode{fs.ModeSymlink | 0o777, fs.ModeNamedPipe | 0o644, fs.ModeSocket} {
		t.Run(mode.String(), func(t *testing.T) {
			t.Parallel()
			fake := &fakeSFTP{
				dirs:    map[string][]os.FileInfo{"/r": {fakeInfo{name: "x", mode: mode, modTime: testMtime}}},
				failDir: map[string]error{},
			}
			_, err := driver.NewSFTPDriver(fake, "fake").FindAll(context.Background(), "/r", nil, nil)
			assert.ErrorIs(t, err, driver.ErrUnsupportedItemType)
		})
	}
}

func TestSFTPDriver_InvalidEncoding(t *testing.T) {
	t.Parallel()
	fake := &fakeSFTP{
		dirs:    map[string][]os.FileInfo{"/r": {fileInfo("bad\xff", 1)}},
		failDir: map[string]error{},
	}
	_, err := driver.NewSFTPDriver(fake, "fake").FindAll(context.Background(), "/r", nil, nil)
	assert.ErrorIs(t, err, driver.ErrInvalidEncoding)
}

func TestSFTPDriver_Cancelled(t *testing.T) {
	t.Parallel()
	d := driver.NewSFTPDriver(newFakeSFTP(), "fake")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.FindAll(ctx, "/home/test", nil, nil)
	assert.ErrorIs(t, err, driver.ErrCancelled)
}

func TestSFTPDriver_CanonicalizeMissing(t *testing.T) {
	t.Parallel()
	d := driver.NewSFTPDriver(newFakeSFTP(), "fake")

	_, err := d.Canonicalize(context.Background(), "/nowhere")
	assert.ErrorIs(t, err, driver.ErrNotFound)

	_, err = d.Canonicalize(context.Background(), "file.txt")
	assert.ErrorIs(t, err, driver.ErrNotFound)

	_, err = d.Canonicalize(context.Background(), "/lost")
	assert.ErrorIs(t, err, driver.ErrNotFound)
}

func TestSFTPDriver_CloseWithoutOwnership(t *testing.T) {
	t.Parallel()
	d := driver.NewSFTPDriver(newFakeSFTP(), "fake")
	assert.NoError(t, d.Close())
	assert.Equal(t, "fake", d.ID())
}

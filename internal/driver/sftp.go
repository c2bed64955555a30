package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkg/sftp"
	"github.com/sourcegraph/conc"
	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/bamsammich/snapdiff/internal/filter"
)

// Compile-time interface checks.
var (
	_ Driver     = (*SFTPDriver)(nil)
	_ SFTPClient = (*sftp.Client)(nil)
)

// DefaultSFTPConcurrency is the default number of directory listings kept
// in flight against one SFTP session.
const DefaultSFTPConcurrency = 16

// SFTPClient is the part of an authenticated SFTP session the driver needs.
// *sftp.Client satisfies it.
type SFTPClient interface {
	ReadDir(p string) ([]os.FileInfo, error)
	RealPath(p string) (string, error)
	Stat(p string) (os.FileInfo, error)
}

// SFTPDriver crawls a remote tree over SFTP. The protocol only lists
// immediate children, so every directory becomes its own listing task.
type SFTPDriver struct {
	client SFTPClient
	id     string
	closer func() error

	// MaxConcurrency bounds concurrent directory listings. Zero means
	// DefaultSFTPConcurrency.
	MaxConcurrency int
	// Limiter, when set, paces listing requests. See NewListingLimiter.
	Limiter *rate.Limiter
	Logger  *slog.Logger
}

// NewSFTPDriver wraps an already-authenticated session. id names the remote
// endpoint in snapshots and logs; the caller keeps ownership of client.
func NewSFTPDriver(client SFTPClient, id string) *SFTPDriver {
	return &SFTPDriver{client: client, id: id}
}

// NewSFTPDriverFromSSH opens an SFTP session over sshClient. The returned
// driver owns both connections and releases them in Close.
func NewSFTPDriverFromSSH(sshClient *ssh.Client, id string) (*SFTPDriver, error) {
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return nil, fmt.Errorf("sftp client: %w", err)
	}
	d := NewSFTPDriver(client, id)
	d.closer = func() error {
		err := client.Close()
		if sshErr := sshClient.Close(); sshErr != nil && err == nil {
			err = sshErr
		}
		return err
	}
	return d, nil
}

func (d *SFTPDriver) ID() string { return d.id }

// Close releases the session if the driver owns it.
func (d *SFTPDriver) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer()
}

func (d *SFTPDriver) Canonicalize(ctx context.Context, root string) (string, error) {
	if ctx.Err() != nil {
		return "", Cancelled(ctx)
	}
	if root == "" {
		root = "."
	}
	resolved, err := d.client.RealPath(root)
	if err != nil {
		if isNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, root)
		}
		return "", fmt.Errorf("sftp realpath %s: %w", root, err)
	}
	if !utf8.ValidString(resolved) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEncoding, resolved)
	}
	if err := d.statRoot(resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

func (d *SFTPDriver) statRoot(root string) error {
	info, err := d.client.Stat(root)
	if err != nil {
		if isNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, root)
		}
		return fmt.Errorf("sftp stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrNotFound, root)
	}
	return nil
}

// isNotExist also recognizes raw status replies that the client did not
// translate to fs.ErrNotExist.
func isNotExist(err error) bool {
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}
	var status *sftp.StatusError
	return errors.As(err, &status) && status.Code == uint32(sftp.ErrSSHFxNoSuchFile)
}

func (d *SFTPDriver) FindAll(
	ctx context.Context,
	root string,
	ignore *filter.IgnoreSet,
	observe Observer,
) ([]Item, error) {
	if err := d.statRoot(root); err != nil {
		return nil, err
	}

	limit := d.MaxConcurrency
	if limit <= 0 {
		limit = DefaultSFTPConcurrency
	}

	crawlCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	c := &sftpCrawl{
		client:  d.client,
		root:    root,
		ignore:  ignore,
		observe: observe,
		fail:    cancel,
		sem:     semaphore.NewWeighted(int64(limit)),
		limiter: d.Limiter,
	}

	// Every listing task is registered with the wait group before its
	// parent finishes, so Wait returns only once the whole tree is done.
	c.wg.Go(func() { c.listDir(crawlCtx, root) })
	c.wg.Wait()

	if err := crawlResult(ctx, crawlCtx); err != nil {
		return nil, err
	}

	d.logger().Debug("sftp crawl complete", "id", d.id, "root", root, "items", len(c.items))
	return c.items, nil
}

func (d *SFTPDriver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// sftpCrawl is the state shared by the listing tasks of one FindAll call.
type sftpCrawl struct {
	client  SFTPClient
	root    string
	ignore  *filter.IgnoreSet
	observe Observer
	fail    context.CancelCauseFunc
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	wg      conc.WaitGroup

	mu    sync.Mutex
	items []Item
}

// listDir lists one directory and spawns a task for each subdirectory.
// Any failure cancels the crawl; the task itself always returns so the
// wait group drains on every path.
func (c *sftpCrawl) listDir(ctx context.Context, dir string) {
	if ctx.Err() != nil {
		return
	}
	infos, err := c.readDir(ctx, dir)
	if err != nil {
		c.fail(err)
		return
	}

	local := make([]Item, 0, len(infos))
	for _, info := range infos {
		if ctx.Err() != nil {
			return
		}
		name := info.Name()
		if name == "." || name == ".." || c.ignore.Match(name) {
			continue
		}

		absPath := path.Join(dir, name)
		item, err := c.toItem(absPath, info)
		if err != nil {
			c.fail(err)
			return
		}
		if c.observe != nil {
			c.observe(item)
		}
		local = append(local, item)

		if item.Metadata.IsDir() {
			c.wg.Go(func() { c.listDir(ctx, absPath) })
		}
	}

	c.mu.Lock()
	c.items = append(c.items, local...)
	c.mu.Unlock()
}

// readDir holds a semaphore slot only for the listing round trip. Waiting
// on the limiter happens before a slot is taken.
func (c *sftpCrawl) readDir(ctx context.Context, dir string) ([]os.FileInfo, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, Cancelled(ctx)
			}
			return nil, fmt.Errorf("sftp readdir %s: %w", dir, err)
		}
	}
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, Cancelled(ctx)
	}
	defer c.sem.Release(1)

	infos, err := c.client.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("sftp readdir %s: %w", dir, err)
	}
	return infos, nil
}

func (c *sftpCrawl) toItem(absPath string, info os.FileInfo) (Item, error) {
	if !utf8.ValidString(info.Name()) {
		return Item{}, fmt.Errorf("%w: %q", ErrInvalidEncoding, absPath)
	}
	relPath, err := c.relPath(absPath)
	if err != nil {
		return Item{}, err
	}

	mode := info.Mode()
	switch {
	case mode&fs.ModeSymlink != 0:
		return Item{}, fmt.Errorf("%w: symbolic link at %s", ErrUnsupportedItemType, absPath)
	case mode.IsDir():
		return Item{Path: relPath, Metadata: Directory()}, nil
	case mode.IsRegular():
		meta, err := sftpFileMetadata(info)
		if err != nil {
			return Item{}, fmt.Errorf("%w at %s", err, absPath)
		}
		return Item{Path: relPath, Metadata: File(meta)}, nil
	default:
		return Item{}, fmt.Errorf("%w: %s at %s", ErrUnsupportedItemType, mode.Type(), absPath)
	}
}

// relPath strips the remote root. Remote paths always use forward slashes.
func (c *sftpCrawl) relPath(absPath string) (string, error) {
	rel, ok := strings.CutPrefix(absPath, c.root)
	if !ok {
		return "", fmt.Errorf("internal error: %s is not under %s", absPath, c.root)
	}
	return strings.TrimPrefix(rel, "/"), nil
}

// sftpFileMetadata extracts size and mtime from a listing entry. SFTP
// attributes are optional on the wire; a server that omits them leaves
// zero values behind, which are reported rather than trusted.
func sftpFileMetadata(info os.FileInfo) (FileMetadata, error) {
	var (
		size  int64
		mtime int64
	)
	if stat, ok := info.Sys().(*sftp.FileStat); ok {
		size = int64(stat.Size) //nolint:gosec // G115: checked for overflow below
		mtime = int64(stat.Mtime)
	} else {
		size = info.Size()
		if !info.ModTime().IsZero() {
			mtime = info.ModTime().Unix()
		}
	}

	if size < 0 {
		return FileMetadata{}, fmt.Errorf("%w: size", ErrMissingMetadata)
	}
	if mtime <= 0 {
		return FileMetadata{}, fmt.Errorf("%w: modification time", ErrMissingMetadata)
	}
	return FileMetadata{ModTime: mtime, Size: uint64(size)}, nil
}

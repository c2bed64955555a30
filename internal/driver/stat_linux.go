//go:build linux

package driver

import (
	"os"

	"golang.org/x/sys/unix"
)

// createdTime reads the birth time through statx. Filesystems that do not
// record it report 0.
func createdTime(absPath string, _ os.FileInfo) int64 {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, absPath, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &stx)
	if err != nil || stx.Mask&unix.STATX_BTIME == 0 {
		return 0
	}
	return stx.Btime.Sec
}

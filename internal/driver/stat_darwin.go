//go:build darwin

package driver

import (
	"os"
	"syscall"
)

func createdTime(_ string, info os.FileInfo) int64 {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return stat.Birthtimespec.Sec
	}
	return 0
}

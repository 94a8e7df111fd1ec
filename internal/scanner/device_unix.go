//go:build unix

package scanner

import (
	"os"
	"syscall"
)

// deviceOf extracts the device id from syscall.Stat_t on Unix systems.
func deviceOf(info os.FileInfo) (uint64, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(st.Dev), true
}

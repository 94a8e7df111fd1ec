//go:build !unix

package scanner

import "os"

// deviceOf reports no device id on platforms without POSIX stat; the
// mount-boundary check is then skipped.
func deviceOf(info os.FileInfo) (uint64, bool) {
	_ = info
	return 0, false
}

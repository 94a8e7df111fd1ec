package analyzer

import (
	"path/filepath"
	"time"

	"github.com/vyusufb/dosya-temizleyici/internal/hasher"
	"github.com/vyusufb/dosya-temizleyici/internal/scanner"
)

// fakeHasher returns canned digests and records what it was asked to hash.
type fakeHasher struct {
	digests map[string]string // path -> digest; missing means failure
	calls   [][]string
}

func (f *fakeHasher) HashAll(paths []string) map[string]hasher.Result {
	f.calls = append(f.calls, append([]string(nil), paths...))
	out := make(map[string]hasher.Result, len(paths))
	for _, p := range paths {
		if d, ok := f.digests[p]; ok {
			out[p] = hasher.Result{Digest: d}
		} else {
			out[p] = hasher.Result{Err: errFakeHash}
		}
	}
	return out
}

func (f *fakeHasher) hashed() []string {
	var all []string
	for _, c := range f.calls {
		all = append(all, c...)
	}
	return all
}

type fakeError string

func (e fakeError) Error() string { return string(e) }

const errFakeHash = fakeError("unreadable")

var baseTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func rec(path string, size int64, age time.Duration) scanner.FileRecord {
	return scanner.FileRecord{
		Path:    filepath.FromSlash("/root/" + path),
		Size:    size,
		ModTime: baseTime.Add(-age),
	}
}

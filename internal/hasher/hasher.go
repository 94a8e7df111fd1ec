// Package hasher computes SHA-256 content digests over a bounded worker pool.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BlockSize is the read buffer used while streaming a file into the digest.
const BlockSize = 64 * 1024

// DigestLen is the length of a hex-encoded SHA-256 digest.
const DigestLen = 64

// Result is the outcome of hashing one path. Err is set when the file could
// not be read; Digest is then empty and must be treated as unknown.
type Result struct {
	Digest string
	Err    error
}

// OK reports whether the digest is usable.
func (r Result) OK() bool {
	return r.Err == nil && r.Digest != ""
}

// Hasher is the batch hashing contract used by duplicate detection and
// snapshotting.
type Hasher interface {
	HashAll(paths []string) map[string]Result
}

// Pool hashes files with at most Workers concurrent readers.
type Pool struct {
	workers int
}

// New creates a pool. workers <= 0 selects runtime.NumCPU().
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers: workers}
}

// Workers returns the concurrency bound.
func (p *Pool) Workers() int {
	return p.workers
}

// Hash streams a single file through SHA-256.
func (p *Pool) Hash(path string) (string, error) {
	return Sum(path)
}

// HashAll hashes every path and blocks until all are done. Results are keyed
// by the submitted path, so completion order is never observable. Duplicate
// paths are hashed once.
func (p *Pool) HashAll(paths []string) map[string]Result {
	results := make([]Result, len(paths))
	seen := make(map[string]int, len(paths))

	var g errgroup.Group
	g.SetLimit(p.workers)

	for i, path := range paths {
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = i

		g.Go(func() error {
			digest, err := p.Hash(path)
			results[i] = Result{Digest: digest, Err: err}
			return nil
		})
	}
	// Workers never return errors; failures are carried in Result.
	_ = g.Wait()

	out := make(map[string]Result, len(seen))
	for path, i := range seen {
		out[path] = results[i]
	}
	return out
}

// Sum returns the lowercase hex SHA-256 of the file at path.
func Sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, BlockSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsDigest reports whether s looks like a hex SHA-256 digest.
func IsDigest(s string) bool {
	if len(s) != DigestLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

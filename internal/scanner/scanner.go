// Package scanner enumerates candidate files under a session root.
//
// Hidden directories, vault directories and directories living on another
// device than the root are pruned before descent. Symbolic links are never
// followed and are not reported.
package scanner

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vyusufb/dosya-temizleyici/internal/logging"
	"github.com/vyusufb/dosya-temizleyici/internal/session"
)

// FileRecord describes one regular file found by the scanner.
type FileRecord struct {
	Path    string // absolute
	Size    int64
	ModTime time.Time
	Device  uint64
}

// Name returns the base name of the file.
func (r FileRecord) Name() string {
	return filepath.Base(r.Path)
}

// Scanner walks a session root.
type Scanner struct {
	sess *session.Session

	// device reports the filesystem device of an entry.
	device func(os.FileInfo) (uint64, bool)
}

// New creates a new Scanner for the given session.
func New(sess *session.Session) *Scanner {
	return &Scanner{sess: sess, device: deviceOf}
}

// Files returns a lazy sequence of the regular files under the root, in
// filesystem traversal order. Each call starts a fresh walk.
func (s *Scanner) Files() iter.Seq[FileRecord] {
	return func(yield func(FileRecord) bool) {
		root := s.sess.Root
		audit := s.sess.Audit

		rootInfo, err := os.Stat(root)
		if err != nil {
			audit.Error().Err(err).Str("event", logging.EventSkip).Str("path", root).Msg("root unreadable")
			return
		}
		rootDev, devKnown := s.device(rootInfo)

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				audit.Warn().Err(err).Str("event", logging.EventSkip).Str("path", path).Msg("unreadable entry skipped")
				if d != nil && d.IsDir() && path != root {
					return fs.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path == root {
					return nil
				}
				if s.pruned(d.Name()) {
					return fs.SkipDir
				}
				info, err := d.Info()
				if err != nil {
					audit.Warn().Err(err).Str("event", logging.EventSkip).Str("path", path).Msg("directory stat failed")
					return fs.SkipDir
				}
				if dev, ok := s.device(info); ok && devKnown && dev != rootDev {
					audit.Error().
						Str("event", logging.EventMountBoundary).
						Str("path", path).
						Uint64("device", dev).
						Uint64("root_device", rootDev).
						Msg("mount boundary blocked")
					return fs.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				audit.Warn().Err(err).Str("event", logging.EventSkip).Str("path", path).Msg("file stat failed")
				return nil
			}
			dev, _ := s.device(info)

			rec := FileRecord{
				Path:    path,
				Size:    info.Size(),
				ModTime: info.ModTime(),
				Device:  dev,
			}
			if !yield(rec) {
				return fs.SkipAll
			}
			return nil
		})
	}
}

// Collect runs a full walk and returns the records in traversal order.
func (s *Scanner) Collect() []FileRecord {
	var out []FileRecord
	for rec := range s.Files() {
		out = append(out, rec)
	}
	return out
}

// pruned reports whether a directory must not be descended into.
func (s *Scanner) pruned(name string) bool {
	return strings.HasPrefix(name, ".") ||
		name == s.sess.VaultName() ||
		session.IsVaultName(name)
}

package snapshots

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vyusufb/dosya-temizleyici/internal/logging"
	"github.com/vyusufb/dosya-temizleyici/internal/scanner"
)

// ErrNoHasher is returned when hashing is requested from a Manager built
// without a hasher.
var ErrNoHasher = errors.New("snapshot hashing requested without a hasher")

// ErrSnapshotExists is returned when the session already has a snapshot. A
// written snapshot is never replaced.
var ErrSnapshotExists = errors.New("snapshot already exists")

// Write records the files about to be relocated and returns the snapshot once
// it is durably on disk. Files that cannot be stat'ed, or that lie outside the
// root, are dropped and must not be relocated. A repeated relative path is
// recorded once.
//
// The document is written to a temporary file, fsynced and linked into
// place, so a partially written snapshot is never visible and an existing one
// is never overwritten.
func (m *Manager) Write(files []scanner.FileRecord, withHash bool) (*Snapshot, error) {
	if withHash && m.hasher == nil {
		return nil, ErrNoHasher
	}

	entries := make([]Entry, 0, len(files))
	abs := make([]string, 0, len(files))
	seen := make(map[string]bool, len(files))

	for _, f := range files {
		rel, ok := m.relPath(f.Path)
		if !ok {
			m.audit.Warn().Str("event", logging.EventSkip).Str("path", f.Path).Msg("outside root, not snapshotted")
			continue
		}
		if seen[rel] {
			continue
		}

		info, err := os.Lstat(f.Path)
		if err != nil || !info.Mode().IsRegular() {
			m.audit.Warn().Err(err).Str("event", logging.EventSkip).Str("path", rel).Msg("stat failed, not snapshotted")
			continue
		}

		seen[rel] = true
		entries = append(entries, Entry{
			Path:  rel,
			Size:  info.Size(),
			MTime: float64(info.ModTime().UnixNano()) / 1e9,
			Hash:  SkippedForSpeed,
		})
		abs = append(abs, f.Path)
	}

	if withHash && len(abs) > 0 {
		results := m.hasher.HashAll(abs)
		for i := range entries {
			if res := results[abs[i]]; res.OK() {
				entries[i].Hash = res.Digest
			} else {
				entries[i].Hash = Unreadable
				m.audit.Warn().Err(res.Err).Str("event", logging.EventSkip).Str("path", entries[i].Path).Msg("digest unavailable")
			}
		}
	}

	path := m.Path()
	if _, err := os.Lstat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotExists, path)
	}
	if err := writeAtomic(path, entries); err != nil {
		return nil, err
	}

	snap := &Snapshot{Path: path, Entries: entries}
	m.audit.Info().
		Str("event", logging.EventSnapshot).
		Str("path", path).
		Int("entries", len(entries)).
		Int("verifiable", snap.Verifiable()).
		Msg("snapshot written")
	return snap, nil
}

// AbsPath returns the absolute location of an entry under the session root.
func (m *Manager) AbsPath(e Entry) string {
	return filepath.Join(m.sess.Root, filepath.FromSlash(e.Path))
}

// Remove deletes the snapshot document. A missing document is not an error.
func (m *Manager) Remove() error {
	if err := os.Remove(m.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot %s: %w", m.Path(), err)
	}
	return nil
}

func (m *Manager) relPath(path string) (string, bool) {
	rel, err := filepath.Rel(m.sess.Root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func writeAtomic(path string, entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	// link fails when path exists, unlike rename.
	if err = os.Link(tmp.Name(), path); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrSnapshotExists, path)
		}
		return fmt.Errorf("failed to install snapshot: %w", err)
	}
	return nil
}

package snapshots

import (
	"github.com/rs/zerolog"

	"github.com/vyusufb/dosya-temizleyici/internal/hasher"
	"github.com/vyusufb/dosya-temizleyici/internal/session"
)

// Hash sentinels. Neither is a digest, so entries carrying them cannot be
// verified on restore.
const (
	SkippedForSpeed = "SKIPPED_FOR_SPEED"
	Unreadable      = "UNREADABLE"
)

// Entry represents one file in a snapshot document.
type Entry struct {
	Path  string  `json:"path"` // root-relative, forward slashes
	Size  int64   `json:"size"`
	MTime float64 `json:"mtime"` // seconds since the Unix epoch
	Hash  string  `json:"hash"`
}

// Verifiable reports whether Hash is a real digest.
func (e Entry) Verifiable() bool {
	return hasher.IsDigest(e.Hash)
}

// Snapshot is a durably written snapshot document.
type Snapshot struct {
	Path    string
	Entries []Entry
}

// Verifiable returns how many entries carry a real digest.
func (s *Snapshot) Verifiable() int {
	n := 0
	for _, e := range s.Entries {
		if e.Verifiable() {
			n++
		}
	}
	return n
}

// Manager writes and reads the snapshot of one session.
type Manager struct {
	sess   *session.Session
	hasher hasher.Hasher
	audit  zerolog.Logger
}

// New creates a new snapshot Manager. h may be nil when hashing is never
// requested.
func New(sess *session.Session, h hasher.Hasher) *Manager {
	return &Manager{
		sess:   sess,
		hasher: h,
		audit:  sess.Audit,
	}
}

// Path returns where the session's snapshot lives.
func (m *Manager) Path() string {
	return m.sess.SnapshotPath()
}

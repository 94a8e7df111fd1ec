// Package session defines the per-run context shared by the scanner, the
// vault and the snapshot manager. A session owns exactly one vault directory,
// one snapshot document and one audit log, all named after its ID.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// IDLayout is the time layout used to derive session IDs.
	IDLayout = "20060102_150405"

	// VaultPrefix prefixes every vault directory name.
	VaultPrefix = ".kale_quarantine_"

	// StateDirName is the hidden per-root directory holding snapshots and logs.
	StateDirName = ".kale"
)

// Session carries the identity of one triage run against one root.
type Session struct {
	ID        string
	Root      string
	StartedAt time.Time

	// Audit receives security, move and integrity events. Defaults to a
	// disabled logger so components never need a nil check.
	Audit zerolog.Logger
}

// New creates a session for root whose ID is derived from now.
// The root is cleaned and must already be absolute.
func New(root string, now time.Time) (*Session, error) {
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("session root must be absolute: %s", root)
	}
	return &Session{
		ID:        now.Format(IDLayout),
		Root:      filepath.Clean(root),
		StartedAt: now,
		Audit:     zerolog.Nop(),
	}, nil
}

// Resume rebuilds a session from an existing ID, e.g. for restore.
func Resume(root, id string) (*Session, error) {
	started, err := time.ParseInLocation(IDLayout, id, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", id, err)
	}
	s, err := New(root, started)
	if err != nil {
		return nil, err
	}
	s.ID = id
	return s, nil
}

// WithAudit returns a copy of the session logging audit events to l.
func (s *Session) WithAudit(l zerolog.Logger) *Session {
	cp := *s
	cp.Audit = l.With().Str("session", s.ID).Logger()
	return &cp
}

// VaultName returns the base name of the session's vault directory.
func (s *Session) VaultName() string {
	return VaultPrefix + s.ID
}

// VaultDir returns the absolute vault directory.
func (s *Session) VaultDir() string {
	return filepath.Join(s.Root, s.VaultName())
}

// StateDir returns <root>/.kale.
func (s *Session) StateDir() string {
	return filepath.Join(s.Root, StateDirName)
}

// SnapshotPath returns the snapshot document location.
func (s *Session) SnapshotPath() string {
	return filepath.Join(s.StateDir(), "snapshots", "snapshot_"+s.ID+".json")
}

// AuditLogPath returns the append-only audit log location.
func (s *Session) AuditLogPath() string {
	return filepath.Join(s.StateDir(), "logs", "kale_"+s.ID+".log")
}

// InUse reports whether an earlier run already left a vault, a snapshot or
// an audit log under this session's ID. IDs have one-second resolution, so two
// runs started within the same second collide.
func (s *Session) InUse() bool {
	for _, p := range []string{s.VaultDir(), s.SnapshotPath(), s.AuditLogPath()} {
		if _, err := os.Lstat(p); err == nil || !os.IsNotExist(err) {
			return true
		}
	}
	return false
}

// IsVaultName reports whether a directory name belongs to any session's vault.
func IsVaultName(name string) bool {
	return strings.HasPrefix(name, VaultPrefix)
}

// IDFromVaultName extracts the session ID from a vault directory name.
func IDFromVaultName(name string) (string, bool) {
	if !IsVaultName(name) {
		return "", false
	}
	id := strings.TrimPrefix(name, VaultPrefix)
	if _, err := time.Parse(IDLayout, id); err != nil {
		return "", false
	}
	return id, true
}

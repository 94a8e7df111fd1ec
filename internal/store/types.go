package store

import "time"

// Session statuses.
const (
	StatusStarted           = "started"
	StatusRelocated         = "relocated"
	StatusAborted           = "aborted"
	StatusRestored          = "restored"
	StatusPartiallyRestored = "partially_restored"
)

// Session is one recorded triage run.
type Session struct {
	Root         string
	ID           string
	StartedAt    time.Time
	Reason       string
	Hashed       bool
	SnapshotPath string
	VaultDir     string
	FileCount    int
	TotalBytes   int64
	Status       string

	RestoredAt *time.Time
	Restored   int
	Rejected   int
	Failed     int
}

// Move records one file relocated into a vault.
type Move struct {
	Root      string
	SessionID string
	RelPath   string // original root-relative path
	VaultPath string // vault-relative path; differs after a collision rename
	SizeBytes int64
	MovedAt   time.Time
}

// RestoreOutcome is written back to a session after a restore.
type RestoreOutcome struct {
	At       time.Time
	Restored int
	Rejected int
	Failed   int
}

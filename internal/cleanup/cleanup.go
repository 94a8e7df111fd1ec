// Package cleanup runs relocation and restore for one session: it writes the
// snapshot, moves the planned files into the vault, records every move in the
// ledger and seals the audit log.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/vyusufb/dosya-temizleyici/internal/analyzer"
	"github.com/vyusufb/dosya-temizleyici/internal/hasher"
	"github.com/vyusufb/dosya-temizleyici/internal/logging"
	"github.com/vyusufb/dosya-temizleyici/internal/session"
	"github.com/vyusufb/dosya-temizleyici/internal/snapshots"
	"github.com/vyusufb/dosya-temizleyici/internal/store"
	"github.com/vyusufb/dosya-temizleyici/internal/vault"
)

// ErrSnapshotFailed aborts a relocation before any file is moved.
var ErrSnapshotFailed = errors.New("snapshot could not be written, nothing was moved")

// ErrSessionExists aborts a relocation whose session ID already owns a vault
// or a snapshot.
var ErrSessionExists = errors.New("session already exists")

// Ledger is the subset of the session store used here.
type Ledger interface {
	InsertSession(sess *store.Session) error
	FinishRelocation(root, id string, files int, bytes int64, status string) error
	InsertMove(m *store.Move) error
	Renames(root, id string) (map[string]string, error)
	RecordRestore(root, id string, out store.RestoreOutcome) error
}

// Options configures a Cleaner. Every field is optional.
type Options struct {
	Hasher    hasher.Hasher
	Ledger    Ledger
	Audit     *logging.Audit // sealed after each run when set
	MoveDelay time.Duration
	Now       func() time.Time
	// OnMove is called after each relocation attempt with the number of
	// entries handled so far and the bytes moved so far.
	OnMove func(done, total int, moved int64)
}

// Cleaner relocates and restores the files of one session.
type Cleaner struct {
	sess   *session.Session
	opts   Options
	logger zerolog.Logger
}

// New creates a Cleaner for sess.
func New(sess *session.Session, opts Options) *Cleaner {
	if opts.Hasher == nil {
		opts.Hasher = hasher.New(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cleaner{
		sess:   sess,
		opts:   opts,
		logger: logging.GetLogger("cleanup"),
	}
}

// Result summarizes a relocation run.
type Result struct {
	Snapshot *snapshots.Snapshot
	Moves    []vault.Move
	Bytes    int64
	Dropped  int // planned files the snapshot could not cover
	Blocked  int // rejected by the containment check
	Failed   int
	Seal     string // audit log digest, empty without an audit log
}

// Moved returns the number of relocated files.
func (r *Result) Moved() int {
	return len(r.Moves)
}

// Apply relocates the files of plan. The snapshot is written first; if that
// fails nothing is moved and the error wraps ErrSnapshotFailed. Individual
// move failures are logged and counted; the batch continues. Cancelling ctx
// stops after the current move.
func (c *Cleaner) Apply(ctx context.Context, plan *analyzer.Plan, withHash bool) (*Result, error) {
	result := &Result{}
	if len(plan.Files) == 0 {
		return result, nil
	}

	if c.occupied() {
		c.sess.Audit.Error().Str("event", logging.EventSecurity).Msg("session ID already in use, relocation refused")
		return nil, fmt.Errorf("%w: %s under %s", ErrSessionExists, c.sess.ID, c.sess.Root)
	}

	snaps := snapshots.New(c.sess, c.opts.Hasher)
	snap, err := snaps.Write(plan.Files, withHash || plan.NeedsHash)
	if errors.Is(err, snapshots.ErrSnapshotExists) {
		return nil, fmt.Errorf("%w: %w", ErrSessionExists, err)
	}
	if err != nil {
		c.sess.Audit.Error().Err(err).Str("event", logging.EventSnapshot).Msg("snapshot failed, relocation aborted")
		return nil, fmt.Errorf("%w: %w", ErrSnapshotFailed, err)
	}
	result.Snapshot = snap
	result.Dropped = len(plan.Files) - len(snap.Entries)

	if err := c.recordSession(plan, snap); err != nil {
		return nil, err
	}

	v, err := vault.New(c.sess, c.opts.Hasher)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}

	total := len(snap.Entries)
	var runErr error
	for i, entry := range snap.Entries {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		move, err := v.Relocate(snaps.AbsPath(entry))
		switch {
		case errors.Is(err, vault.ErrEscapesRoot):
			result.Blocked++
		case err != nil:
			result.Failed++
			c.sess.Audit.Warn().Err(err).Str("event", logging.EventSkip).Str("path", entry.Path).Msg("move failed")
			c.logger.Debug().Err(err).Str("path", entry.Path).Msg("move failed")
		default:
			result.Moves = append(result.Moves, move)
			result.Bytes += move.Size
			c.recordMove(move)
		}

		if c.opts.OnMove != nil {
			c.opts.OnMove(i+1, total, result.Bytes)
		}
		if i < total-1 {
			if err := c.throttle(ctx); err != nil {
				runErr = err
				break
			}
		}
	}

	status := store.StatusRelocated
	if runErr != nil {
		status = store.StatusAborted
	}
	if c.opts.Ledger != nil {
		if err := c.opts.Ledger.FinishRelocation(c.sess.Root, c.sess.ID, result.Moved(), result.Bytes, status); err != nil {
			c.logger.Warn().Err(err).Msg("failed to update session ledger")
		}
	}

	c.sess.Audit.Info().
		Str("event", logging.EventMove).
		Str("reason", plan.Reason).
		Int("moved", result.Moved()).
		Int64("bytes", result.Bytes).
		Int("blocked", result.Blocked).
		Int("failed", result.Failed).
		Msg("relocation finished")
	result.Seal = c.seal()

	if runErr != nil {
		return result, fmt.Errorf("relocation interrupted: %w", runErr)
	}
	return result, nil
}

// RestoreResult summarizes a restore run.
type RestoreResult struct {
	SessionID string
	Report    vault.RestoreReport
	Degraded  bool // snapshot unusable, nothing was verified
	Seal      string
}

// Restore moves every file of the session's vault back. Collision renames are
// mapped back through the ledger when one is configured.
func (c *Cleaner) Restore() (*RestoreResult, error) {
	lookup, err := snapshots.New(c.sess, nil).Load()
	if err != nil {
		c.logger.Warn().Err(err).Msg("restoring without verification")
	}

	renames := map[string]string{}
	if c.opts.Ledger != nil {
		r, err := c.opts.Ledger.Renames(c.sess.Root, c.sess.ID)
		if err != nil {
			c.logger.Warn().Err(err).Msg("ledger unavailable, collision renames are not mapped back")
		} else {
			renames = r
		}
	}

	v, err := vault.New(c.sess, c.opts.Hasher)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	report := v.RestoreAll(lookup, renames)

	if c.opts.Ledger != nil {
		out := store.RestoreOutcome{
			At:       c.opts.Now(),
			Restored: report.Restored,
			Rejected: report.Rejected,
			Failed:   report.Failed,
		}
		if err := c.opts.Ledger.RecordRestore(c.sess.Root, c.sess.ID, out); err != nil && !errors.Is(err, store.ErrSessionNotFound) {
			c.logger.Warn().Err(err).Msg("failed to record restore")
		}
	}

	c.sess.Audit.Info().
		Str("event", logging.EventRestore).
		Int("restored", report.Restored).
		Int("verified", report.Verified).
		Int("unverified", report.Unverified).
		Int("rejected", report.Rejected).
		Int("failed", report.Failed).
		Bool("degraded", lookup.Degraded).
		Msg("restore finished")

	return &RestoreResult{
		SessionID: c.sess.ID,
		Report:    report,
		Degraded:  lookup.Degraded,
		Seal:      c.seal(),
	}, nil
}

// occupied reports whether the session's vault or snapshot is already on disk.
// The audit log is not checked, callers open it before Apply.
func (c *Cleaner) occupied() bool {
	for _, p := range []string{c.sess.VaultDir(), c.sess.SnapshotPath()} {
		if _, err := os.Lstat(p); err == nil {
			return true
		}
	}
	return false
}

func (c *Cleaner) recordSession(plan *analyzer.Plan, snap *snapshots.Snapshot) error {
	if c.opts.Ledger == nil {
		return nil
	}
	err := c.opts.Ledger.InsertSession(&store.Session{
		Root:         c.sess.Root,
		ID:           c.sess.ID,
		StartedAt:    c.sess.StartedAt,
		Reason:       plan.Reason,
		Hashed:       snap.Verifiable() > 0,
		SnapshotPath: snap.Path,
		VaultDir:     c.sess.VaultDir(),
		Status:       store.StatusStarted,
	})
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

func (c *Cleaner) recordMove(move vault.Move) {
	if c.opts.Ledger == nil {
		return
	}
	err := c.opts.Ledger.InsertMove(&store.Move{
		Root:      c.sess.Root,
		SessionID: c.sess.ID,
		RelPath:   move.Rel,
		VaultPath: move.VaultRel,
		SizeBytes: move.Size,
		MovedAt:   c.opts.Now(),
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("path", move.Rel).Msg("failed to record move")
	}
}

func (c *Cleaner) throttle(ctx context.Context) error {
	if c.opts.MoveDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.opts.MoveDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Cleaner) seal() string {
	if c.opts.Audit == nil {
		return ""
	}
	digest, err := c.opts.Audit.Seal(c.opts.Now())
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to seal audit log")
		return ""
	}
	return digest
}

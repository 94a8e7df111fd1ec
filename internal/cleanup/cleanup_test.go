package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyusufb/dosya-temizleyici/internal/analyzer"
	"github.com/vyusufb/dosya-temizleyici/internal/hasher"
	"github.com/vyusufb/dosya-temizleyici/internal/logging"
	"github.com/vyusufb/dosya-temizleyici/internal/scanner"
	"github.com/vyusufb/dosya-temizleyici/internal/session"
	"github.com/vyusufb/dosya-temizleyici/internal/store"
)

type env struct {
	root   string
	sess   *session.Session
	ledger *store.Store
	audit  *logging.Audit
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	sess, err := session.New(root, time.Date(2024, 6, 7, 8, 9, 10, 0, time.Local))
	require.NoError(t, err)

	audit, err := logging.OpenAudit(sess.AuditLogPath())
	require.NoError(t, err)
	t.Cleanup(func() { audit.Close() })

	ledger, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	return &env{root: root, sess: sess.WithAudit(audit.Logger), ledger: ledger, audit: audit}
}

func (e *env) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(e.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func (e *env) cleaner() *Cleaner {
	return New(e.sess, Options{
		Hasher: hasher.New(2),
		Ledger: e.ledger,
		Audit:  e.audit,
	})
}

func (e *env) plan(t *testing.T, c analyzer.Criterion) *analyzer.Plan {
	t.Helper()
	files := scanner.New(e.sess).Collect()
	plan, err := analyzer.New(nil, hasher.New(2)).Plan(c, files)
	require.NoError(t, err)
	return plan
}

func TestApplyAndRestore_RoundTrip(t *testing.T) {
	e := newEnv(t)
	e.write(t, "keep.txt", "keep")
	e.write(t, "logs/app.log", "log data")
	e.write(t, "tmp/build.tmp", "tmp data")

	plan := e.plan(t, analyzer.SystemJunk{})
	require.Len(t, plan.Files, 2)

	result, err := e.cleaner().Apply(context.Background(), plan, true)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Moved())
	assert.Equal(t, int64(16), result.Bytes)
	assert.Equal(t, 2, result.Snapshot.Verifiable())
	assert.NotEmpty(t, result.Seal)

	assert.NoFileExists(t, filepath.Join(e.root, "logs", "app.log"))
	assert.FileExists(t, filepath.Join(e.root, "keep.txt"))
	assert.DirExists(t, e.sess.VaultDir())

	sess, err := e.ledger.GetSession(e.root, e.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusRelocated, sess.Status)
	assert.Equal(t, 2, sess.FileCount)
	assert.Equal(t, "SYSTEM_JUNK", sess.Reason)
	assert.True(t, sess.Hashed)

	moves, err := e.ledger.GetMoves(e.root, e.sess.ID)
	require.NoError(t, err)
	assert.Len(t, moves, 2)

	ok, err := logging.VerifySeal(e.sess.AuditLogPath())
	require.NoError(t, err)
	assert.True(t, ok)

	restored, err := e.cleaner().Restore()
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Report.Restored)
	assert.Equal(t, 2, restored.Report.Verified)
	assert.True(t, restored.Report.Clean())
	assert.False(t, restored.Degraded)

	assert.FileExists(t, filepath.Join(e.root, "logs", "app.log"))
	assert.FileExists(t, filepath.Join(e.root, "tmp", "build.tmp"))
	assert.NoDirExists(t, e.sess.VaultDir())
	assert.NoFileExists(t, e.sess.SnapshotPath())

	sess, err = e.ledger.GetSession(e.root, e.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusRestored, sess.Status)
	assert.Equal(t, 2, sess.Restored)
}

func TestApply_DuplicatesKeepOldest(t *testing.T) {
	e := newEnv(t)
	e.write(t, "a/dup1.bin", "same bytes")
	e.write(t, "b/dup2.bin", "same bytes")
	e.write(t, "c/unique.bin", "other size!!")
	older := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(e.root, "a", "dup1.bin"), older, older))

	plan := e.plan(t, analyzer.Duplicates{})
	require.True(t, plan.NeedsHash)

	result, err := e.cleaner().Apply(context.Background(), plan, false)
	require.NoError(t, err)
	require.Equal(t, 1, result.Moved())
	assert.Equal(t, "b/dup2.bin", result.Moves[0].Rel)
	assert.Equal(t, 1, result.Snapshot.Verifiable())
	assert.FileExists(t, filepath.Join(e.root, "a", "dup1.bin"))
}

func TestApply_SnapshotFailureMovesNothing(t *testing.T) {
	e := newEnv(t)
	e.write(t, "x.tmp", "x")
	plan := e.plan(t, analyzer.SystemJunk{})
	require.Len(t, plan.Files, 1)

	// Block the snapshot directory with a regular file.
	require.NoError(t, os.WriteFile(filepath.Dir(e.sess.SnapshotPath()), []byte("blocker"), 0644))

	_, err := e.cleaner().Apply(context.Background(), plan, false)
	assert.ErrorIs(t, err, ErrSnapshotFailed)
	assert.FileExists(t, filepath.Join(e.root, "x.tmp"))
	assert.NoDirExists(t, e.sess.VaultDir())

	_, err = e.ledger.GetSession(e.root, e.sess.ID)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestApply_RefusesReusedSessionID(t *testing.T) {
	e := newEnv(t)
	e.write(t, "a.log", "alpha")
	first := e.plan(t, analyzer.SystemJunk{})

	_, err := New(e.sess, Options{}).Apply(context.Background(), first, true)
	require.NoError(t, err)
	before, err := os.ReadFile(e.sess.SnapshotPath())
	require.NoError(t, err)

	// A second run started in the same second gets the same ID.
	e.write(t, "b.tmp", "beta")
	second := e.plan(t, analyzer.SystemJunk{})
	require.Len(t, second.Files, 1)

	_, err = New(e.sess, Options{}).Apply(context.Background(), second, true)
	require.ErrorIs(t, err, ErrSessionExists)
	assert.FileExists(t, filepath.Join(e.root, "b.tmp"))
	assert.NoFileExists(t, filepath.Join(e.sess.VaultDir(), "b.tmp"))

	after, err := os.ReadFile(e.sess.SnapshotPath())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// The first run's digest still guards its vault.
	require.NoError(t, os.WriteFile(filepath.Join(e.sess.VaultDir(), "a.log"), []byte("evil"), 0644))
	restored, err := New(e.sess, Options{}).Restore()
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Report.Rejected)
	assert.NoFileExists(t, filepath.Join(e.root, "a.log"))
}

func TestApply_EmptyPlan(t *testing.T) {
	e := newEnv(t)
	result, err := e.cleaner().Apply(context.Background(), &analyzer.Plan{}, true)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Moved())
	assert.NoFileExists(t, e.sess.SnapshotPath())
}

func TestApply_VanishedFileDropped(t *testing.T) {
	e := newEnv(t)
	e.write(t, "a.tmp", "a")
	e.write(t, "b.tmp", "b")
	plan := e.plan(t, analyzer.SystemJunk{})
	require.NoError(t, os.Remove(filepath.Join(e.root, "b.tmp")))

	result, err := e.cleaner().Apply(context.Background(), plan, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Dropped)
	assert.Equal(t, 1, result.Moved())
}

func TestApply_OutsidePathNeverMoved(t *testing.T) {
	e := newEnv(t)
	outside := filepath.Join(t.TempDir(), "victim.tmp")
	require.NoError(t, os.WriteFile(outside, []byte("v"), 0644))

	plan := &analyzer.Plan{Reason: "TEST", Files: []scanner.FileRecord{{Path: outside, Size: 1}}}
	result, err := e.cleaner().Apply(context.Background(), plan, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Moved())
	assert.FileExists(t, outside)
}

func TestApply_CancelledContext(t *testing.T) {
	e := newEnv(t)
	e.write(t, "a.tmp", "a")
	e.write(t, "b.tmp", "b")
	plan := e.plan(t, analyzer.SystemJunk{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.cleaner().Apply(ctx, plan, false)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Moved())

	sess, err := e.ledger.GetSession(e.root, e.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusAborted, sess.Status)
}

func TestApply_ProgressCallback(t *testing.T) {
	e := newEnv(t)
	e.write(t, "a.tmp", "a")
	e.write(t, "b.tmp", "b")
	plan := e.plan(t, analyzer.SystemJunk{})

	var calls [][3]int64
	c := New(e.sess, Options{
		MoveDelay: time.Microsecond,
		OnMove: func(done, total int, moved int64) {
			calls = append(calls, [3]int64{int64(done), int64(total), moved})
		},
	})
	_, err := c.Apply(context.Background(), plan, false)
	require.NoError(t, err)
	assert.Equal(t, [][3]int64{{1, 2, 1}, {2, 2, 2}}, calls)
}

func TestRestore_TamperedFileKeepsVault(t *testing.T) {
	e := newEnv(t)
	e.write(t, "a.tmp", "alpha")
	e.write(t, "b.tmp", "beta")
	plan := e.plan(t, analyzer.SystemJunk{})

	_, err := e.cleaner().Apply(context.Background(), plan, true)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(e.sess.VaultDir(), "b.tmp"), []byte("evil"), 0644))

	restored, err := e.cleaner().Restore()
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Report.Restored)
	assert.Equal(t, 1, restored.Report.Rejected)
	assert.DirExists(t, e.sess.VaultDir())
	assert.FileExists(t, e.sess.SnapshotPath())

	sess, err := e.ledger.GetSession(e.root, e.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusPartiallyRestored, sess.Status)
}

func TestRestore_WithoutLedger(t *testing.T) {
	e := newEnv(t)
	e.write(t, "a.tmp", "alpha")
	plan := e.plan(t, analyzer.SystemJunk{})

	_, err := New(e.sess, Options{}).Apply(context.Background(), plan, false)
	require.NoError(t, err)

	restored, err := New(e.sess, Options{}).Restore()
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Report.Restored)
	assert.Equal(t, 1, restored.Report.Unverified)
	assert.Empty(t, restored.Seal)
}

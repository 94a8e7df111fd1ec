package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyusufb/dosya-temizleyici/internal/analyzer"
	"github.com/vyusufb/dosya-temizleyici/internal/pathguard"
	"github.com/vyusufb/dosya-temizleyici/internal/store"
	"github.com/vyusufb/dosya-temizleyici/internal/vault"
)

func junkTree(t *testing.T, e *testEnv) {
	t.Helper()
	e.write(t, "a.tmp", "temporary")
	e.write(t, "logs/b.log", "log line")
	e.write(t, "keep.txt", "keep me")
}

func TestScan_PrintsCategorySummary(t *testing.T) {
	e := newTestEnv(t)
	junkTree(t, e)

	out, err := e.run(t, "", "scan", e.root)
	require.NoError(t, err)

	assert.Contains(t, out, "Scanned "+e.root)
	assert.Contains(t, out, "Total")
}

func TestScan_RefusesUnsafeRoot(t *testing.T) {
	e := newTestEnv(t)
	rootGuard = pathguard.NewWith(e.root)

	_, err := e.run(t, "", "scan", e.root)
	assert.ErrorIs(t, err, pathguard.ErrUnsafeRoot)
}

func TestClean_InvalidRule(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.run(t, "", "clean", "bogus", e.root)
	assert.ErrorIs(t, err, analyzer.ErrInvalidCriterion)

	_, err = e.run(t, "", "clean", "keywords", e.root)
	assert.ErrorIs(t, err, analyzer.ErrInvalidCriterion)

	_, err = e.run(t, "", "clean", "quota", e.root, "--quota-mb", "-5")
	assert.ErrorIs(t, err, analyzer.ErrInvalidCriterion)
}

func TestClean_DryRunMovesNothing(t *testing.T) {
	e := newTestEnv(t)
	junkTree(t, e)

	out, err := e.run(t, "", "clean", "junk", e.root, "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "2 files")
	assert.Contains(t, out, "SYSTEM_JUNK")
	assert.Contains(t, out, "Dry run")
	assert.FileExists(t, filepath.Join(e.root, "a.tmp"))
	assert.FileExists(t, filepath.Join(e.root, "logs", "b.log"))
	assert.NoDirExists(t, filepath.Join(e.root, ".kale"))

	found, err := vault.Discover(e.root)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestClean_DeclinedPromptMovesNothing(t *testing.T) {
	e := newTestEnv(t)
	junkTree(t, e)

	out, err := e.run(t, "n\n", "clean", "junk", e.root)
	require.NoError(t, err)

	assert.Contains(t, out, "Cancelled.")
	assert.FileExists(t, filepath.Join(e.root, "a.tmp"))
}

func TestClean_NothingSelected(t *testing.T) {
	e := newTestEnv(t)
	e.write(t, "keep.txt", "keep me")

	out, err := e.run(t, "", "clean", "junk", e.root, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to move.")
}

func TestCleanAuditRestore_RoundTrip(t *testing.T) {
	e := newTestEnv(t)
	junkTree(t, e)

	out, err := e.run(t, "y\n", "clean", "junk", e.root, "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "Moved 2 files")
	assert.NoFileExists(t, filepath.Join(e.root, "a.tmp"))
	assert.NoFileExists(t, filepath.Join(e.root, "logs", "b.log"))
	assert.FileExists(t, filepath.Join(e.root, "keep.txt"))

	found, ok, err := vault.Latest(e.root)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, found.Files)
	assert.FileExists(t, filepath.Join(found.Dir, "logs", "b.log"))

	out, err = e.run(t, "", "audit", found.ID, "--root", e.root)
	require.NoError(t, err)
	assert.Contains(t, out, "matches its seal")

	out, err = e.run(t, "", "restore", "--list", "--root", e.root)
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded sessions")
	assert.Contains(t, out, found.ID)

	out, err = e.run(t, "", "restore", "latest", "--root", e.root, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "2 verified")
	assert.Contains(t, out, "Restored 2 files")

	data, err := os.ReadFile(filepath.Join(e.root, "a.tmp"))
	require.NoError(t, err)
	assert.Equal(t, "temporary", string(data))
	assert.FileExists(t, filepath.Join(e.root, "logs", "b.log"))
	assert.NoDirExists(t, found.Dir)

	st, err := store.Open(e.db)
	require.NoError(t, err)
	defer st.Close()
	sess, err := st.GetSession(e.root, found.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusRestored, sess.Status)
	assert.Equal(t, 2, sess.FileCount)
	assert.Equal(t, analyzer.SystemJunk{}.Reason(), sess.Reason)
}

func TestRestore_TamperedFileKeepsVault(t *testing.T) {
	e := newTestEnv(t)
	junkTree(t, e)

	_, err := e.run(t, "", "clean", "junk", e.root, "--yes", "--verify")
	require.NoError(t, err)

	found, ok, err := vault.Latest(e.root)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, os.WriteFile(filepath.Join(found.Dir, "a.tmp"), []byte("changed"), 0644))

	out, err := e.run(t, "", "restore", found.ID, "--root", e.root, "--yes")
	require.ErrorIs(t, err, errRestoreIncomplete)
	assert.Contains(t, out, "Rejected:   1")

	assert.FileExists(t, filepath.Join(e.root, "logs", "b.log"))
	assert.NoFileExists(t, filepath.Join(e.root, "a.tmp"))
	assert.FileExists(t, filepath.Join(found.Dir, "a.tmp"))
}

func TestRestore_Errors(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.run(t, "", "restore", "--root", e.root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")

	_, err = e.run(t, "", "restore", "not-an-id", "--root", e.root, "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session id")

	_, err = e.run(t, "", "restore", "20990101_000000", "--root", e.root, "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no vault for session")

	_, err = e.run(t, "", "restore", "latest", "--root", e.root, "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no vaults under")
}

func TestRestore_DeclinedPromptKeepsVault(t *testing.T) {
	e := newTestEnv(t)
	junkTree(t, e)

	_, err := e.run(t, "", "clean", "junk", e.root, "--yes")
	require.NoError(t, err)

	out, err := e.run(t, "no\n", "restore", "latest", "--root", e.root)
	require.NoError(t, err)
	assert.Contains(t, out, "Restoration cancelled.")

	_, ok, err := vault.Latest(e.root)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAudit_DetectsModifiedLog(t *testing.T) {
	e := newTestEnv(t)
	junkTree(t, e)

	_, err := e.run(t, "", "clean", "junk", e.root, "--yes")
	require.NoError(t, err)

	found, ok, err := vault.Latest(e.root)
	require.NoError(t, err)
	require.True(t, ok)

	logPath := filepath.Join(e.root, ".kale", "logs", "kale_"+found.ID+".log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{\"forged\":true}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out, err := e.run(t, "", "audit", "latest", "--root", e.root)
	require.Error(t, err)
	assert.Contains(t, out, "does not match its seal")
}

func TestReportPlan(t *testing.T) {
	e := newTestEnv(t)
	junkTree(t, e)

	var out bytes.Buffer
	require.NoError(t, reportPlan(&out, analyzer.New(nil, nil), analyzer.SystemJunk{}, e.root))

	assert.Contains(t, out.String(), "2 files")
	assert.Contains(t, out.String(), "SYSTEM_JUNK")
}

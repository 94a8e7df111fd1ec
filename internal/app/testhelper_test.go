package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vyusufb/dosya-temizleyici/internal/pathguard"
)

// testEnv is a root with a few files, an isolated config dir and ledger.
type testEnv struct {
	root string
	db   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	state := t.TempDir()

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(state, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(state, "state"))

	oldGuard := rootGuard
	rootGuard = pathguard.NewWith("")
	t.Cleanup(func() { rootGuard = oldGuard })

	return &testEnv{root: root, db: filepath.Join(state, "kale.db")}
}

func (e *testEnv) write(t *testing.T, rel, content string) string {
	t.Helper()
	p := filepath.Join(e.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

// run executes the root command with args, feeding stdin, and returns stdout.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetArgs(append(args, "--db", e.db))
	err := RootCmd.Execute()
	return out.String(), err
}

// resetFlags restores flag defaults; cobra keeps values between Execute calls.
func resetFlags() {
	dbPath, configPath, verbosity = "", "", 0

	cleanFlagDryRun, cleanFlagYes, cleanFlagVerify = false, false, false
	cleanFlagKeywords, cleanFlagQuotaMB = "", ""
	cleanFlagLimit = 20

	restoreFlagRoot, restoreFlagList, restoreFlagYes = "", false, false

	watchFlagKeywords, watchFlagQuotaMB, watchFlagDebounce = "", "", 0

	auditFlagRoot = ""
}

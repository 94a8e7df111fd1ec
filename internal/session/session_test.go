package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesNamesFromTimestamp(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)

	s, err := New(root, now)
	require.NoError(t, err)

	assert.Equal(t, "20240309_140507", s.ID)
	assert.Equal(t, filepath.Join(root, ".kale_quarantine_20240309_140507"), s.VaultDir())
	assert.Equal(t, filepath.Join(root, ".kale", "snapshots", "snapshot_20240309_140507.json"), s.SnapshotPath())
	assert.Equal(t, filepath.Join(root, ".kale", "logs", "kale_20240309_140507.log"), s.AuditLogPath())
}

func TestNew_RejectsRelativeRoot(t *testing.T) {
	_, err := New("relative/dir", time.Now())
	assert.Error(t, err)
}

func TestResume(t *testing.T) {
	root := t.TempDir()

	s, err := Resume(root, "20231201_000102")
	require.NoError(t, err)
	assert.Equal(t, "20231201_000102", s.ID)
	assert.Equal(t, 2023, s.StartedAt.Year())

	_, err = Resume(root, "not-a-session")
	assert.Error(t, err)
}

func TestIDFromVaultName(t *testing.T) {
	id, ok := IDFromVaultName(".kale_quarantine_20240101_101010")
	assert.True(t, ok)
	assert.Equal(t, "20240101_101010", id)

	_, ok = IDFromVaultName(".kale_quarantine_garbage")
	assert.False(t, ok)

	_, ok = IDFromVaultName("photos")
	assert.False(t, ok)
}

func TestInUse(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)

	tests := []struct {
		name   string
		create func(s *Session) string
	}{
		{"vault", func(s *Session) string { return s.VaultDir() }},
		{"snapshot", func(s *Session) string { return s.SnapshotPath() }},
		{"audit log", func(s *Session) string { return s.AuditLogPath() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(t.TempDir(), now)
			require.NoError(t, err)
			assert.False(t, s.InUse())

			p := tt.create(s)
			require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
			require.NoError(t, os.WriteFile(p, nil, 0644))
			assert.True(t, s.InUse())

			other, err := New(s.Root, now.Add(time.Second))
			require.NoError(t, err)
			assert.False(t, other.InUse())
		})
	}
}

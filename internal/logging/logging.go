// Package logging configures the console logger and the per-session audit
// trail. Both are zerolog loggers; the audit trail is a JSON-lines file that is
// only ever appended to and is sealed with a SHA-256 digest after a run.
package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Audit event names. Every audit line carries one of these in the "event" field.
const (
	EventMove          = "move"
	EventSkip          = "skip"
	EventSecurity      = "security"
	EventMountBoundary = "mount_boundary"
	EventIntegrity     = "integrity"
	EventRestore       = "restore"
	EventSnapshot      = "snapshot"
)

// SetupLogger configures the global console logger based on verbosity level.
func SetupLogger(verbosity int, out io.Writer) {
	switch verbosity {
	case 0:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case 1:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case 2:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
	}
	log.Logger = zerolog.New(consoleWriter).With().Timestamp().Logger()

	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}
}

// GetLogger returns a contextualized console logger with the given name.
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// Audit is an append-only audit trail backed by a file.
type Audit struct {
	zerolog.Logger
	path string
	file *os.File
}

// OpenAudit opens (creating parents) the audit log at path in append mode.
// Audit lines are written regardless of the console verbosity.
func OpenAudit(path string) (*Audit, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	logger := zerolog.New(file).Level(zerolog.TraceLevel).With().Timestamp().Logger()
	return &Audit{Logger: logger, path: path, file: file}, nil
}

// Path returns the audit log location.
func (a *Audit) Path() string {
	return a.path
}

// SealPath returns where Seal writes the digest artifact.
func (a *Audit) SealPath() string {
	return a.path + ".sha256"
}

// Seal flushes the log and writes "<time>|<sha256 of log>" next to it.
// It may be called more than once; each call overwrites the artifact.
func (a *Audit) Seal(now time.Time) (string, error) {
	if err := a.file.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync audit log: %w", err)
	}

	digest, err := fileDigest(a.path)
	if err != nil {
		return "", fmt.Errorf("failed to digest audit log: %w", err)
	}

	line := fmt.Sprintf("%s|%s", now.Format(time.RFC3339), digest)
	if err := os.WriteFile(a.SealPath(), []byte(line), 0644); err != nil {
		return "", fmt.Errorf("failed to write audit seal: %w", err)
	}
	return digest, nil
}

// Close closes the underlying file.
func (a *Audit) Close() error {
	return a.file.Close()
}

// VerifySeal recomputes the digest of the audit log at path and compares it
// against the sealed value.
func VerifySeal(path string) (bool, error) {
	data, err := os.ReadFile(path + ".sha256")
	if err != nil {
		return false, fmt.Errorf("failed to read audit seal: %w", err)
	}

	var stamp, want string
	for i := len(data) - 1; i >= 0; i-- {
		if data[i] == '|' {
			stamp, want = string(data[:i]), string(data[i+1:])
			break
		}
	}
	if stamp == "" || want == "" {
		return false, fmt.Errorf("malformed audit seal %q", string(data))
	}

	got, err := fileDigest(path)
	if err != nil {
		return false, err
	}
	return got == want, nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

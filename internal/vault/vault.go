// Package vault relocates files into a per-session quarantine directory under
// the root and restores them, verifying content digests where the snapshot
// recorded them.
//
// The vault mirrors root-relative paths. Nothing is ever deleted from it
// except by a restore that put every file back.
package vault

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/vyusufb/dosya-temizleyici/internal/hasher"
	"github.com/vyusufb/dosya-temizleyici/internal/session"
)

// State is the lifecycle position of a vault.
type State int

const (
	Empty State = iota
	Populated
	Draining
	PartiallyRestored
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Populated:
		return "populated"
	case Draining:
		return "draining"
	case PartiallyRestored:
		return "partially restored"
	default:
		return "unknown"
	}
}

// Vault is the quarantine directory of one session.
type Vault struct {
	sess     *session.Session
	realRoot string
	hasher   hasher.Hasher
	audit    zerolog.Logger
	state    State
}

// New opens the vault of sess. The vault directory itself is created lazily
// on the first relocation. A nil hasher selects a default pool.
func New(sess *session.Session, h hasher.Hasher) (*Vault, error) {
	realRoot, err := filepath.EvalSymlinks(sess.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", sess.Root, err)
	}
	if h == nil {
		h = hasher.New(0)
	}

	v := &Vault{
		sess:     sess,
		realRoot: realRoot,
		hasher:   h,
		audit:    sess.Audit,
	}
	if n, _ := countFiles(v.Dir()); n > 0 {
		v.state = Populated
	}
	return v, nil
}

// Dir returns the vault directory.
func (v *Vault) Dir() string {
	return filepath.Join(v.realRoot, v.sess.VaultName())
}

// State returns the current lifecycle state.
func (v *Vault) State() State {
	return v.state
}

// Exists reports whether the vault directory is present on disk.
func (v *Vault) Exists() bool {
	info, err := os.Stat(v.Dir())
	return err == nil && info.IsDir()
}

func countFiles(dir string) (int, int64) {
	var n int
	var size int64
	_ = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			n++
			if info, err := d.Info(); err == nil {
				size += info.Size()
			}
		}
		return nil
	})
	return n, size
}

package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/vyusufb/dosya-temizleyici/internal/logging"
	"github.com/vyusufb/dosya-temizleyici/internal/session"
)

var (
	// ErrEscapesRoot is returned for paths that resolve outside the root or
	// into a vault.
	ErrEscapesRoot = errors.New("path escapes the session root")

	// ErrCrossDevice is returned when a move would cross a filesystem
	// boundary. Files are never copied.
	ErrCrossDevice = errors.New("relocation would cross devices")

	// ErrNotRegular is returned for symlinks, directories and other
	// non-regular files.
	ErrNotRegular = errors.New("not a regular file")
)

// Move records one relocation.
type Move struct {
	Source   string // absolute original location
	Rel      string // root-relative original path, forward slashes
	VaultRel string // vault-relative path, differs from Rel after a collision
	Size     int64
}

// Renamed reports whether a collision forced a different name in the vault.
func (m Move) Renamed() bool {
	return m.Rel != m.VaultRel
}

// Relocate moves path into the vault, mirroring its root-relative location.
// Containment is checked before anything on disk is touched.
func (v *Vault) Relocate(path string) (Move, error) {
	resolved, rel, err := v.contain(path)
	if err != nil {
		if errors.Is(err, ErrEscapesRoot) {
			v.audit.Error().Str("event", logging.EventSecurity).Str("path", path).Msg("blocked path outside root")
		}
		return Move{}, err
	}

	info, err := os.Lstat(resolved)
	if err != nil {
		return Move{}, fmt.Errorf("failed to stat %s: %w", rel, err)
	}
	if !info.Mode().IsRegular() {
		return Move{}, fmt.Errorf("%w: %s", ErrNotRegular, rel)
	}

	vaultRel, err := v.freeName(rel)
	if err != nil {
		return Move{}, err
	}
	target := filepath.Join(v.Dir(), filepath.FromSlash(vaultRel))

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return Move{}, fmt.Errorf("failed to create vault directory: %w", err)
	}
	if err := rename(resolved, target); err != nil {
		if errors.Is(err, ErrCrossDevice) {
			v.audit.Error().Str("event", logging.EventSecurity).Str("path", rel).Msg("cross-device move refused")
		}
		return Move{}, fmt.Errorf("failed to move %s: %w", rel, err)
	}

	v.state = Populated
	move := Move{Source: resolved, Rel: rel, VaultRel: vaultRel, Size: info.Size()}
	ev := v.audit.Info().Str("event", logging.EventMove).Str("path", rel).Int64("size", move.Size)
	if move.Renamed() {
		ev = ev.Str("vault_path", vaultRel)
	}
	ev.Msg("moved to vault")
	return move, nil
}

// contain resolves path and returns its resolved location and root-relative
// path. The parent directory is resolved so symlinked directories cannot lead
// outside the root. The final element is kept as-is, but a symlink there must
// not point outside the root either.
func (v *Vault) contain(path string) (string, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	resolved := filepath.Join(dir, filepath.Base(abs))

	rel, err := filepath.Rel(v.realRoot, resolved)
	if err != nil || rel == "." || !filepath.IsLocal(rel) {
		return "", "", fmt.Errorf("%w: %s", ErrEscapesRoot, path)
	}
	if info, err := os.Lstat(resolved); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if target, err := filepath.EvalSymlinks(resolved); err == nil && !v.inside(target) {
			return "", "", fmt.Errorf("%w: %s links to %s", ErrEscapesRoot, path, target)
		}
	}

	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	if session.IsVaultName(first) || first == session.StateDirName {
		return "", "", fmt.Errorf("%w: %s is inside reserved directory %s", ErrEscapesRoot, path, first)
	}
	return resolved, filepath.ToSlash(rel), nil
}

func (v *Vault) inside(path string) bool {
	rel, err := filepath.Rel(v.realRoot, path)
	return err == nil && filepath.IsLocal(rel)
}

// freeName returns rel, or rel with the stem suffixed by the current Unix
// time (then a counter) when that name is taken in the vault.
func (v *Vault) freeName(rel string) (string, error) {
	taken := func(r string) bool {
		_, err := os.Lstat(filepath.Join(v.Dir(), filepath.FromSlash(r)))
		return err == nil
	}
	if !taken(rel) {
		return rel, nil
	}

	ext := filepath.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	stamp := strconv.FormatInt(time.Now().Unix(), 10)

	candidate := stem + "_" + stamp + ext
	for i := 1; taken(candidate); i++ {
		if i > 1000 {
			return "", fmt.Errorf("no free vault name for %s", rel)
		}
		candidate = fmt.Sprintf("%s_%s_%d%s", stem, stamp, i, ext)
	}
	return candidate, nil
}

// rename wraps os.Rename, retrying briefly on transient errors.
func rename(oldPath, newPath string) error {
	const maxRetries = 3
	backoff := 10 * time.Millisecond

	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = os.Rename(oldPath, newPath)
		if err == nil {
			return nil
		}
		if errors.Is(err, syscall.EXDEV) {
			return fmt.Errorf("%w: %w", ErrCrossDevice, err)
		}
		if !isTransient(err) {
			return err
		}
		time.Sleep(backoff << (attempt - 1))
	}
	return fmt.Errorf("rename failed after %d retries: %w", maxRetries, err)
}

func isTransient(err error) bool {
	return errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT)
}

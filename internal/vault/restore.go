package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vyusufb/dosya-temizleyici/internal/logging"
	"github.com/vyusufb/dosya-temizleyici/internal/snapshots"
)

// RestoreReport summarizes a restore run.
type RestoreReport struct {
	Restored   int // files moved back
	Verified   int // restored files whose digest matched the snapshot
	Unverified int // restored files without a recorded digest
	Rejected   int // digest mismatch or unreadable; left in the vault
	Failed     int // could not be moved back; left in the vault

	VaultRemoved    bool
	SnapshotRemoved bool
}

// Clean reports whether every file went back.
func (r RestoreReport) Clean() bool {
	return r.Rejected == 0 && r.Failed == 0
}

type vaultFile struct {
	abs      string
	vaultRel string
	rel      string
}

// RestoreAll moves every file in the vault back to its original location.
//
// renames maps vault-relative paths to original root-relative paths for files
// that were renamed on a collision; other files map to themselves. Files with
// a recorded digest are verified first and rejected on mismatch. An existing
// destination is never overwritten. The vault directory and the snapshot are
// deleted only when nothing was rejected or failed.
func (v *Vault) RestoreAll(lookup snapshots.Lookup, renames map[string]string) RestoreReport {
	var report RestoreReport
	if !v.Exists() {
		v.state = Empty
		return report
	}
	v.state = Draining

	files := v.collect(&report, renames)

	var toVerify []string
	for _, f := range files {
		if _, ok := lookup.Expected(f.rel); ok {
			toVerify = append(toVerify, f.abs)
		}
	}
	digests := v.hasher.HashAll(toVerify)

	for _, f := range files {
		expected, verifiable := lookup.Expected(f.rel)
		if verifiable {
			res := digests[f.abs]
			if !res.OK() {
				report.Rejected++
				v.audit.Error().Err(res.Err).Str("event", logging.EventIntegrity).Str("path", f.rel).Msg("vault file unreadable, kept in vault")
				continue
			}
			if res.Digest != expected {
				report.Rejected++
				v.audit.Error().
					Str("event", logging.EventIntegrity).
					Str("path", f.rel).
					Str("expected", expected).
					Str("actual", res.Digest).
					Msg("digest mismatch, kept in vault")
				continue
			}
		}

		if err := v.putBack(f); err != nil {
			report.Failed++
			v.audit.Error().Err(err).Str("event", logging.EventRestore).Str("path", f.rel).Msg("restore failed, kept in vault")
			continue
		}

		report.Restored++
		if verifiable {
			report.Verified++
		} else {
			report.Unverified++
		}
		v.audit.Info().Str("event", logging.EventRestore).Str("path", f.rel).Bool("verified", verifiable).Msg("restored")
	}

	if !report.Clean() {
		v.state = PartiallyRestored
		return report
	}

	if err := os.RemoveAll(v.Dir()); err != nil {
		v.audit.Error().Err(err).Str("event", logging.EventRestore).Str("path", v.Dir()).Msg("failed to remove empty vault")
		v.state = PartiallyRestored
		return report
	}
	report.VaultRemoved = true
	v.state = Empty

	if err := os.Remove(v.sess.SnapshotPath()); err == nil {
		report.SnapshotRemoved = true
	} else if !os.IsNotExist(err) {
		v.audit.Warn().Err(err).Str("event", logging.EventRestore).Msg("failed to remove snapshot")
	}
	return report
}

// collect lists regular files in the vault. Anything else is counted as
// failed so the vault is never removed while it still holds data.
func (v *Vault) collect(report *RestoreReport, renames map[string]string) []vaultFile {
	var files []vaultFile
	root := v.Dir()

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			report.Failed++
			v.audit.Error().Err(err).Str("event", logging.EventRestore).Str("path", path).Msg("vault entry unreadable")
			return nil
		}
		if d.IsDir() {
			return nil
		}

		vr, err := filepath.Rel(root, path)
		if err != nil {
			report.Failed++
			return nil
		}
		vaultRel := filepath.ToSlash(vr)

		if !d.Type().IsRegular() {
			report.Failed++
			v.audit.Warn().Str("event", logging.EventRestore).Str("path", vaultRel).Msg("non-regular vault entry left in place")
			return nil
		}

		rel := vaultRel
		if orig, ok := renames[vaultRel]; ok {
			rel = orig
		}
		files = append(files, vaultFile{abs: path, vaultRel: vaultRel, rel: rel})
		return nil
	})
	return files
}

func (v *Vault) putBack(f vaultFile) error {
	if !filepath.IsLocal(filepath.FromSlash(f.rel)) {
		v.audit.Error().Str("event", logging.EventSecurity).Str("path", f.rel).Msg("restore target outside root")
		return fmt.Errorf("%w: %s", ErrEscapesRoot, f.rel)
	}

	dest := filepath.Join(v.realRoot, filepath.FromSlash(f.rel))
	if _, err := os.Lstat(dest); err == nil {
		return fmt.Errorf("destination %s already exists", f.rel)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to recreate %s: %w", filepath.Dir(f.rel), err)
	}
	return rename(f.abs, dest)
}

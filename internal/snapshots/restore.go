package snapshots

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/vyusufb/dosya-temizleyici/internal/hasher"
	"github.com/vyusufb/dosya-temizleyici/internal/logging"
)

// Lookup maps root-relative paths to the digest recorded at relocation time.
// A Degraded lookup is empty because the document could not be used; restore
// then proceeds without verification.
type Lookup struct {
	digests  map[string]string
	Degraded bool
}

// Expected returns the recorded digest for rel. ok is false when rel is not
// in the snapshot or carries a sentinel instead of a digest.
func (l Lookup) Expected(rel string) (digest string, ok bool) {
	d, found := l.digests[rel]
	if !found || !hasher.IsDigest(d) {
		return "", false
	}
	return d, true
}

// Contains reports whether rel was recorded at all.
func (l Lookup) Contains(rel string) bool {
	_, ok := l.digests[rel]
	return ok
}

// Len returns the number of recorded paths.
func (l Lookup) Len() int {
	return len(l.digests)
}

// Load reads the session's snapshot.
func (m *Manager) Load() (Lookup, error) {
	return Load(m.Path(), m.audit)
}

// Load reads the snapshot document at path. When the document is missing or
// malformed the returned lookup is empty and Degraded, and the error explains
// why; the lookup is usable either way. Digests are never fabricated.
func Load(path string, audit zerolog.Logger) (Lookup, error) {
	degraded := Lookup{digests: map[string]string{}, Degraded: true}

	data, err := os.ReadFile(path)
	if err != nil {
		audit.Warn().Err(err).Str("event", logging.EventIntegrity).Str("path", path).Msg("snapshot unavailable, restore is unverified")
		return degraded, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		audit.Warn().Err(err).Str("event", logging.EventIntegrity).Str("path", path).Msg("snapshot malformed, restore is unverified")
		return degraded, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	lookup := Lookup{digests: make(map[string]string, len(entries))}
	for _, e := range entries {
		if e.Path == "" {
			continue
		}
		if _, dup := lookup.digests[e.Path]; dup {
			continue
		}
		lookup.digests[e.Path] = e.Hash
	}
	return lookup, nil
}

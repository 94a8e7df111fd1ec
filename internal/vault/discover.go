package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vyusufb/dosya-temizleyici/internal/session"
)

// Found describes a vault directory discovered on disk.
type Found struct {
	ID    string
	Dir   string
	Files int
	Bytes int64
}

// Discover lists the vault directories directly under root, newest first.
func Discover(root string) ([]Found, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}

	var found []Found
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, ok := session.IDFromVaultName(e.Name())
		if !ok {
			continue
		}
		dir := filepath.Join(root, e.Name())
		n, size := countFiles(dir)
		found = append(found, Found{ID: id, Dir: dir, Files: n, Bytes: size})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].ID > found[j].ID
	})
	return found, nil
}

// Latest returns the newest vault under root.
func Latest(root string) (Found, bool, error) {
	found, err := Discover(root)
	if err != nil || len(found) == 0 {
		return Found{}, false, err
	}
	return found[0], true, nil
}

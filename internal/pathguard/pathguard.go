// Package pathguard decides whether a directory may be used as a triage root.
package pathguard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ErrUnsafeRoot is returned for roots that must never be triaged.
var ErrUnsafeRoot = errors.New("unsafe root directory")

var unixSystemDirs = []string{
	"/bin", "/boot", "/dev", "/etc", "/lib", "/proc",
	"/root", "/run", "/sbin", "/sys", "/usr", "/var",
}

// Guard holds the home directory and the protected system directories.
type Guard struct {
	home      string
	protected []string
	appData   string
}

// New builds a guard for the current user and platform.
func New() *Guard {
	home, _ := os.UserHomeDir()
	home = resolve(home)

	g := &Guard{home: home}
	if runtime.GOOS == "windows" {
		for _, env := range []struct{ name, fallback string }{
			{"SystemRoot", `C:\Windows`},
			{"ProgramFiles", `C:\Program Files`},
			{"ProgramData", `C:\ProgramData`},
		} {
			dir := os.Getenv(env.name)
			if dir == "" {
				dir = env.fallback
			}
			g.protected = append(g.protected, resolve(dir))
		}
		if home != "" {
			g.appData = filepath.Join(home, "AppData")
		}
		return g
	}

	for _, dir := range unixSystemDirs {
		g.protected = append(g.protected, resolve(dir))
	}
	return g
}

// NewWith builds a guard from explicit directories.
func NewWith(home string, protected ...string) *Guard {
	g := &Guard{home: resolve(home)}
	for _, dir := range protected {
		g.protected = append(g.protected, resolve(dir))
	}
	return g
}

// Check resolves path and returns its absolute, symlink-free form if it may
// be used as a root. The home directory itself, the filesystem root and
// system directories are refused; anything below home is allowed.
func (g *Guard) Check(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	target, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", target, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", target)
	}

	if g.home != "" && target == g.home {
		return "", fmt.Errorf("%w: %s is the home directory", ErrUnsafeRoot, target)
	}
	if filepath.Dir(target) == target {
		return "", fmt.Errorf("%w: %s is a filesystem root", ErrUnsafeRoot, target)
	}
	if g.home != "" && within(target, g.home) {
		if g.appData != "" && within(target, g.appData) {
			return "", fmt.Errorf("%w: %s holds application data", ErrUnsafeRoot, target)
		}
		return target, nil
	}
	for _, dir := range g.protected {
		if within(target, dir) {
			return "", fmt.Errorf("%w: %s is a system directory (%s)", ErrUnsafeRoot, target, dir)
		}
	}
	return target, nil
}

// IsSafeRoot reports whether path may be used as a root with the default
// guard, and why not.
func IsSafeRoot(path string) (bool, string) {
	if _, err := New().Check(path); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// within reports whether path equals dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && (rel == "." || filepath.IsLocal(rel))
}

func resolve(dir string) string {
	if dir == "" {
		return ""
	}
	if r, err := filepath.EvalSymlinks(dir); err == nil {
		return r
	}
	return filepath.Clean(dir)
}

package analyzer

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vyusufb/dosya-temizleyici/internal/scanner"
)

// ErrInvalidCriterion reports unusable user input for a selection rule.
var ErrInvalidCriterion = errors.New("invalid selection criterion")

const (
	KiB = 1024
	MiB = 1024 * KiB
)

// Criterion is a closed set of selection rules. Every implementation lives in
// this package and is handled by Analyzer.Plan.
type Criterion interface {
	// Name is the CLI rule name.
	Name() string
	// Reason is the label written to reports and the audit log.
	Reason() string
	criterion()
}

type (
	// HashNamed selects files whose stem is 32 hex characters.
	HashNamed struct{}
	// JSONFiles selects *.json files.
	JSONFiles struct{}
	// Keywords selects files whose lowercased name contains any word.
	Keywords struct{ Words []string }
	// SmallFiles selects files of at most Limit bytes.
	SmallFiles struct{ Limit int64 }
	// SmallVideos selects video files smaller than Limit bytes.
	SmallVideos struct{ Limit int64 }
	// EmptyFiles selects zero-byte files.
	EmptyFiles struct{}
	// SystemJunk selects temporary, log and backup leftovers.
	SystemJunk struct{}
	// OSLeftovers selects Thumbs.db, desktop.ini and .DS_Store.
	OSLeftovers struct{}
	// Archives selects compressed archives.
	Archives struct{}
	// Installers selects installer packages.
	Installers struct{}
	// Duplicates selects every copy but the oldest of identical files.
	Duplicates struct{}
	// OldFiles selects files not modified within Age of Now.
	OldFiles struct {
		Age time.Duration
		Now time.Time
	}
	// OfficeLocks selects "~$" lock files.
	OfficeLocks struct{}
	// DevArtifacts selects compiler output.
	DevArtifacts struct{}
	// Quota selects files until the tree fits in TargetBytes.
	Quota struct{ TargetBytes int64 }
)

func (HashNamed) criterion() {}
func (JSONFiles) criterion() {}
func (Keywords) criterion() {}
func (SmallFiles) criterion() {}
func (SmallVideos) criterion() {}
func (EmptyFiles) criterion() {}
func (SystemJunk) criterion() {}
func (OSLeftovers) criterion() {}
func (Archives) criterion() {}
func (Installers) criterion() {}
func (Duplicates) criterion() {}
func (OldFiles) criterion() {}
func (OfficeLocks) criterion() {}
func (DevArtifacts) criterion() {}
func (Quota) criterion() {}

func (HashNamed) Name() string { return "hash-named" }
func (JSONFiles) Name() string { return "json" }
func (Keywords) Name() string { return "keywords" }
func (SmallVideos) Name() string { return "small-videos" }
func (EmptyFiles) Name() string { return "empty" }
func (SystemJunk) Name() string { return "junk" }
func (OSLeftovers) Name() string { return "os-leftovers" }
func (Archives) Name() string { return "archives" }
func (Installers) Name() string { return "installers" }
func (Duplicates) Name() string { return "duplicates" }
func (OldFiles) Name() string { return "old" }
func (OfficeLocks) Name() string { return "office-locks" }
func (DevArtifacts) Name() string { return "dev-artifacts" }
func (Quota) Name() string { return "quota" }

func (c SmallFiles) Name() string {
	if c.Limit%MiB == 0 {
		return fmt.Sprintf("under-%dmb", c.Limit/MiB)
	}
	return fmt.Sprintf("under-%dkb", c.Limit/KiB)
}

func (HashNamed) Reason() string { return "HASH_NAMED_FILES_(32HEX)" }
func (JSONFiles) Reason() string { return "JSON_FILES" }
func (Keywords) Reason() string { return "KEYWORD_SEARCH" }
func (SmallVideos) Reason() string { return "SMALL_VIDEOS" }
func (EmptyFiles) Reason() string { return "EMPTY_FILES_(0_BYTE)" }
func (SystemJunk) Reason() string { return "SYSTEM_JUNK" }
func (OSLeftovers) Reason() string { return "OS_LEFTOVERS" }
func (Archives) Reason() string { return "ARCHIVES" }
func (Installers) Reason() string { return "INSTALLERS" }
func (Duplicates) Reason() string { return "DUPLICATE_FILES" }
func (OldFiles) Reason() string { return "OLD_FILES" }
func (OfficeLocks) Reason() string { return "OFFICE_LOCK_FILES" }
func (DevArtifacts) Reason() string { return "DEVELOPER_ARTIFACTS" }
func (Quota) Reason() string { return "QUOTA_MANAGER" }

func (c SmallFiles) Reason() string {
	return strings.ToUpper(strings.ReplaceAll(c.Name(), "-", "_")) + "_FILES"
}

// Rules lists the accepted rule names in menu order; index+1 is the menu number.
var Rules = []string{
	"hash-named", "json", "keywords", "under-35kb", "under-1mb",
	"small-videos", "empty", "junk", "os-leftovers", "archives",
	"installers", "duplicates", "old", "office-locks", "dev-artifacts", "quota",
}

// OldFileAge is the default age for the "old" rule.
const OldFileAge = 180 * 24 * time.Hour

// ParseCriterion builds a criterion from a rule name (or its menu number)
// and an optional argument: a comma-separated keyword list for "keywords",
// a target size in MB for "quota".
func ParseCriterion(rule, arg string, now time.Time) (Criterion, error) {
	rule = strings.ToLower(strings.TrimSpace(rule))
	if n, err := strconv.Atoi(rule); err == nil {
		if n < 1 || n > len(Rules) {
			return nil, fmt.Errorf("%w: menu number %d out of range 1-%d", ErrInvalidCriterion, n, len(Rules))
		}
		rule = Rules[n-1]
	}

	switch rule {
	case "hash-named":
		return HashNamed{}, nil
	case "json":
		return JSONFiles{}, nil
	case "keywords":
		var words []string
		for _, w := range strings.Split(arg, ",") {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				words = append(words, w)
			}
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("%w: keyword list is empty", ErrInvalidCriterion)
		}
		return Keywords{Words: words}, nil
	case "under-35kb":
		return SmallFiles{Limit: 35 * KiB}, nil
	case "under-1mb":
		return SmallFiles{Limit: MiB}, nil
	case "small-videos":
		return SmallVideos{Limit: MiB}, nil
	case "empty":
		return EmptyFiles{}, nil
	case "junk":
		return SystemJunk{}, nil
	case "os-leftovers":
		return OSLeftovers{}, nil
	case "archives":
		return Archives{}, nil
	case "installers":
		return Installers{}, nil
	case "duplicates":
		return Duplicates{}, nil
	case "old":
		return OldFiles{Age: OldFileAge, Now: now}, nil
	case "office-locks":
		return OfficeLocks{}, nil
	case "dev-artifacts":
		return DevArtifacts{}, nil
	case "quota":
		mb, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || mb < 0 || mb > math.MaxInt64/MiB {
			return nil, fmt.Errorf("%w: invalid quota %q (want a non-negative number of MB)", ErrInvalidCriterion, arg)
		}
		return Quota{TargetBytes: mb * MiB}, nil
	default:
		return nil, fmt.Errorf("%w: unknown rule %q (want one of: %s)", ErrInvalidCriterion, rule, strings.Join(Rules, ", "))
	}
}

var (
	hashStem = regexp.MustCompile(`^[a-fA-F0-9]{32}$`)

	videoExts     = extSet(".mp4", ".avi", ".mkv", ".mov", ".flv", ".wmv")
	junkExts      = extSet(".tmp", ".log", ".bak", ".old", ".chk", ".dmp")
	archiveExts   = extSet(".zip", ".rar", ".7z", ".tar", ".gz")
	installerExts = extSet(".exe", ".msi", ".pkg", ".dmg")
	devExts       = extSet(".pyc", ".class", ".o", ".obj")
	osLeftovers   = extSet("thumbs.db", "desktop.ini", ".ds_store")
)

func extSet(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// Plan applies a criterion to scanned files.
func (a *Analyzer) Plan(c Criterion, files []scanner.FileRecord) (*Plan, error) {
	switch c := c.(type) {
	case HashNamed:
		return a.filter(c, files, func(f scanner.FileRecord) bool {
			name := f.Name()
			return hashStem.MatchString(strings.TrimSuffix(name, filepath.Ext(name)))
		}), nil
	case JSONFiles:
		return a.filter(c, files, func(f scanner.FileRecord) bool {
			return lowerExt(f) == ".json"
		}), nil
	case Keywords:
		if len(c.Words) == 0 {
			return nil, fmt.Errorf("%w: keyword list is empty", ErrInvalidCriterion)
		}
		return a.filter(c, files, func(f scanner.FileRecord) bool {
			name := strings.ToLower(f.Name())
			for _, w := range c.Words {
				if strings.Contains(name, w) {
					return true
				}
			}
			return false
		}), nil
	case SmallFiles:
		return a.filter(c, files, func(f scanner.FileRecord) bool {
			return f.Size <= c.Limit
		}), nil
	case SmallVideos:
		return a.filter(c, files, func(f scanner.FileRecord) bool {
			return videoExts[lowerExt(f)] && f.Size < c.Limit
		}), nil
	case EmptyFiles:
		return a.filter(c, files, func(f scanner.FileRecord) bool {
			return f.Size == 0
		}), nil
	case SystemJunk:
		return a.filter(c, files, func(f scanner.FileRecord) bool {
			return junkExts[lowerExt(f)]
		}), nil
	case OSLeftovers:
		return a.filter(c, files, func(f scanner.FileRecord) bool {
			return osLeftovers[strings.ToLower(f.Name())]
		}), nil
	case Archives:
		return a.filter(c, files, func(f scanner.FileRecord) bool {
			return archiveExts[lowerExt(f)]
		}), nil
	case Installers:
		return a.filter(c, files, func(f scanner.FileRecord) bool {
			return installerExts[lowerExt(f)]
		}), nil
	case Duplicates:
		if a.hasher == nil {
			return nil, fmt.Errorf("%w: duplicate search needs a hasher", ErrInvalidCriterion)
		}
		report := FindDuplicates(files, a.hasher)
		plan := newPlan(c.Reason(), report.Candidates())
		plan.NeedsHash = true
		plan.Duplicates = report
		return plan, nil
	case OldFiles:
		cutoff := c.Now.Add(-c.Age)
		return a.filter(c, files, func(f scanner.FileRecord) bool {
			return f.ModTime.Before(cutoff)
		}), nil
	case OfficeLocks:
		return a.filter(c, files, func(f scanner.FileRecord) bool {
			return strings.HasPrefix(f.Name(), "~$")
		}), nil
	case DevArtifacts:
		return a.filter(c, files, func(f scanner.FileRecord) bool {
			return devExts[lowerExt(f)]
		}), nil
	case Quota:
		if c.TargetBytes < 0 {
			return nil, fmt.Errorf("%w: negative quota", ErrInvalidCriterion)
		}
		result := a.SelectForQuota(files, c.TargetBytes)
		selected := make([]scanner.FileRecord, len(result.Selected))
		for i, cand := range result.Selected {
			selected[i] = cand.File
		}
		plan := newPlan(c.Reason(), selected)
		plan.Quota = result
		return plan, nil
	default:
		return nil, fmt.Errorf("%w: unsupported criterion %T", ErrInvalidCriterion, c)
	}
}

func (a *Analyzer) filter(c Criterion, files []scanner.FileRecord, keep func(scanner.FileRecord) bool) *Plan {
	var selected []scanner.FileRecord
	for _, f := range files {
		if keep(f) {
			selected = append(selected, f)
		}
	}
	return newPlan(c.Reason(), selected)
}

func lowerExt(f scanner.FileRecord) string {
	return strings.ToLower(filepath.Ext(f.Name()))
}

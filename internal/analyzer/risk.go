package analyzer

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Risk thresholds and scores.
const (
	// ProtectedScore is the lowest score that is never auto-selected.
	ProtectedScore = 80

	ScoreCritical   = 100
	ScoreDisposable = 10
	ScoreCache      = 20
	ScoreStandard   = 50
)

// Risk labels attached to each score.
const (
	LabelCritical   = "critical (protected keyword)"
	LabelDisposable = "low (disposable)"
	LabelCache      = "low (cache)"
	LabelStandard   = "medium (standard)"
)

// DefaultProtectedKeywords mark files that must never be moved automatically.
// Matched as whole words against the lowercased stem.
var DefaultProtectedKeywords = []string{
	"backup", "yedek", "wallet", "private", "key", "git", "pass",
	"sifre", "shadow", "config", "tez", "final", "proje",
}

var (
	disposableExts = map[string]bool{
		".tmp": true, ".log": true, ".chk": true, ".dmp": true,
		".bak": true, ".old": true, ".thumbs": true,
	}
	cacheExts = map[string]bool{
		".pyc": true, ".cache": true, ".ds_store": true,
	}
)

// RiskScore is the transient risk classification of one file.
type RiskScore struct {
	Score int    // 0-100
	Label string // human-readable category
}

// Protected reports whether the score excludes the file from automatic selection.
func (r RiskScore) Protected() bool {
	return r.Score >= ProtectedScore
}

// Classifier maps file names to risk scores. It performs no I/O.
type Classifier struct {
	protected *regexp.Regexp
}

// NewClassifier builds a classifier protecting the default keywords plus extra.
func NewClassifier(extra ...string) *Classifier {
	words := make([]string, 0, len(DefaultProtectedKeywords)+len(extra))
	for _, w := range append(append([]string{}, DefaultProtectedKeywords...), extra...) {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			words = append(words, regexp.QuoteMeta(w))
		}
	}
	return &Classifier{
		protected: regexp.MustCompile(`\b(` + strings.Join(words, "|") + `)\b`),
	}
}

var defaultClassifier = NewClassifier()

// Classify scores a file name with the default keyword set.
func Classify(name string) RiskScore {
	return defaultClassifier.Classify(name)
}

// Classify scores a file name. Only the base name is considered.
func (c *Classifier) Classify(name string) RiskScore {
	base := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))

	if c.protected.MatchString(stem) {
		return RiskScore{Score: ScoreCritical, Label: LabelCritical}
	}
	if disposableExts[ext] {
		return RiskScore{Score: ScoreDisposable, Label: LabelDisposable}
	}
	if cacheExts[ext] {
		return RiskScore{Score: ScoreCache, Label: LabelCache}
	}
	return RiskScore{Score: ScoreStandard, Label: LabelStandard}
}

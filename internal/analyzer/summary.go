package analyzer

import (
	"sort"

	"github.com/vyusufb/dosya-temizleyici/internal/scanner"
)

// CategorySummary aggregates scanned files sharing a risk label.
type CategorySummary struct {
	Label string
	Score int
	Count int
	Bytes int64
}

// Summarize groups files by risk category, lowest score first.
func (a *Analyzer) Summarize(files []scanner.FileRecord) []CategorySummary {
	byLabel := make(map[string]*CategorySummary)
	for _, f := range files {
		risk := a.classifier.Classify(f.Path)
		s, ok := byLabel[risk.Label]
		if !ok {
			s = &CategorySummary{Label: risk.Label, Score: risk.Score}
			byLabel[risk.Label] = s
		}
		s.Count++
		s.Bytes += f.Size
	}

	out := make([]CategorySummary, 0, len(byLabel))
	for _, s := range byLabel {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Label < out[j].Label
	})
	return out
}

package analyzer

import (
	"sort"

	"github.com/vyusufb/dosya-temizleyici/internal/scanner"
)

// SelectForQuota picks files to relocate until the tree fits in targetBytes.
//
// Protected files (score >= ProtectedScore) are never eligible. Eligible files
// are ordered by score ascending, then size descending, and accumulated until
// the required reduction is reached. This is greedy, not optimal bin-packing:
// the last file taken may overshoot the target, which is accepted.
func (a *Analyzer) SelectForQuota(files []scanner.FileRecord, targetBytes int64) *QuotaResult {
	result := &QuotaResult{Target: targetBytes}

	candidates := make([]Candidate, 0, len(files))
	for _, f := range files {
		result.Current += f.Size
		risk := a.classifier.Classify(f.Path)
		if risk.Protected() {
			continue
		}
		candidates = append(candidates, Candidate{File: f, Risk: risk})
	}

	if result.Current <= targetBytes {
		result.Status = QuotaNoActionNeeded
		return result
	}
	result.Required = result.Current - targetBytes

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Risk.Score != candidates[j].Risk.Score {
			return candidates[i].Risk.Score < candidates[j].Risk.Score
		}
		return candidates[i].File.Size > candidates[j].File.Size
	})

	for _, c := range candidates {
		result.Selected = append(result.Selected, c)
		result.Accumulated += c.File.Size
		if result.Accumulated >= result.Required {
			result.Status = QuotaSatisfied
			return result
		}
	}

	result.Status = QuotaUnreachable
	return result
}

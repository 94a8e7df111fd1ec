package analyzer

import (
	"github.com/vyusufb/dosya-temizleyici/internal/scanner"
)

// Candidate is a scanned file together with its risk classification.
type Candidate struct {
	File scanner.FileRecord
	Risk RiskScore
}

// DuplicateGroup is a set of files sharing size and content digest.
// Original is the earliest-modified member and is always kept.
type DuplicateGroup struct {
	Size       int64
	Digest     string
	Original   scanner.FileRecord
	Duplicates []scanner.FileRecord
}

// DuplicateReport is the outcome of a duplicate search.
type DuplicateReport struct {
	Groups []DuplicateGroup
	Hashed int // number of files submitted for hashing
	Failed int // files whose digest could not be computed
}

// Candidates returns every duplicate (never an original), group by group.
func (r *DuplicateReport) Candidates() []scanner.FileRecord {
	var out []scanner.FileRecord
	for _, g := range r.Groups {
		out = append(out, g.Duplicates...)
	}
	return out
}

// Reclaimable returns the bytes freed by relocating every duplicate.
func (r *DuplicateReport) Reclaimable() int64 {
	var total int64
	for _, g := range r.Groups {
		total += g.Size * int64(len(g.Duplicates))
	}
	return total
}

// QuotaStatus is the outcome category of a quota selection.
type QuotaStatus int

const (
	// QuotaNoActionNeeded means the tree is already within the target.
	QuotaNoActionNeeded QuotaStatus = iota
	// QuotaSatisfied means the selection frees at least the required bytes.
	QuotaSatisfied
	// QuotaUnreachable means every eligible file was selected and the
	// target still cannot be met without touching protected files.
	QuotaUnreachable
)

// String returns a display string for the status.
func (s QuotaStatus) String() string {
	switch s {
	case QuotaNoActionNeeded:
		return "no action needed"
	case QuotaSatisfied:
		return "satisfied"
	case QuotaUnreachable:
		return "quota unreachable without touching protected files"
	default:
		return "unknown"
	}
}

// QuotaResult describes a quota-driven selection.
type QuotaResult struct {
	Selected    []Candidate
	Current     int64 // total bytes before selection
	Target      int64
	Required    int64 // Current - Target, or 0
	Accumulated int64 // bytes covered by Selected
	Status      QuotaStatus
}

// Plan is the set of files a criterion selects for relocation.
type Plan struct {
	Reason     string
	Files      []scanner.FileRecord
	TotalBytes int64
	// NeedsHash requests content digests in the snapshot.
	NeedsHash bool

	Duplicates *DuplicateReport // set for duplicate criteria
	Quota      *QuotaResult     // set for quota criteria
}

func newPlan(reason string, files []scanner.FileRecord) *Plan {
	p := &Plan{Reason: reason, Files: files}
	for _, f := range files {
		p.TotalBytes += f.Size
	}
	return p
}

package analyzer

import (
	"sort"

	"github.com/vyusufb/dosya-temizleyici/internal/hasher"
	"github.com/vyusufb/dosya-temizleyici/internal/scanner"
)

// FindDuplicates groups files by size, hashes only the members of size groups
// with two or more files, and reports every digest group of two or more.
// Within a group the earliest-modified file is kept; ties keep scan order.
// Zero-byte files are ignored. A file whose hash failed is treated as unique.
func FindDuplicates(files []scanner.FileRecord, h hasher.Hasher) *DuplicateReport {
	report := &DuplicateReport{}

	// Size groups in order of first appearance.
	var sizes []int64
	bySize := make(map[int64][]scanner.FileRecord)
	for _, f := range files {
		if f.Size <= 0 {
			continue
		}
		if _, ok := bySize[f.Size]; !ok {
			sizes = append(sizes, f.Size)
		}
		bySize[f.Size] = append(bySize[f.Size], f)
	}

	var toHash []string
	for _, size := range sizes {
		if group := bySize[size]; len(group) > 1 {
			for _, f := range group {
				toHash = append(toHash, f.Path)
			}
		}
	}
	if len(toHash) == 0 {
		return report
	}

	report.Hashed = len(toHash)
	digests := h.HashAll(toHash)

	for _, size := range sizes {
		group := bySize[size]
		if len(group) < 2 {
			continue
		}

		var order []string
		byDigest := make(map[string][]scanner.FileRecord)
		for _, f := range group {
			res, ok := digests[f.Path]
			if !ok || !res.OK() {
				report.Failed++
				continue
			}
			if _, seen := byDigest[res.Digest]; !seen {
				order = append(order, res.Digest)
			}
			byDigest[res.Digest] = append(byDigest[res.Digest], f)
		}

		for _, digest := range order {
			members := byDigest[digest]
			if len(members) < 2 {
				continue
			}
			sort.SliceStable(members, func(i, j int) bool {
				return members[i].ModTime.Before(members[j].ModTime)
			})
			report.Groups = append(report.Groups, DuplicateGroup{
				Size:       size,
				Digest:     digest,
				Original:   members[0],
				Duplicates: members[1:],
			})
		}
	}

	return report
}

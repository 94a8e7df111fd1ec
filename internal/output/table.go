// Package output provides terminal output utilities for kale.
//
// This package includes:
//   - Table rendering for category summaries, plans, duplicate groups,
//     sessions and vaults
//   - Progress bars and spinners for long-running operations
//   - Human-readable formatting for sizes and relative times
//
// Colours are emitted only when stdout is a terminal and NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/vyusufb/dosya-temizleyici/internal/analyzer"
	"github.com/vyusufb/dosya-temizleyici/internal/scanner"
	"github.com/vyusufb/dosya-temizleyici/internal/store"
	"github.com/vyusufb/dosya-temizleyici/internal/vault"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// scoreColor returns the colour of a risk score.
func scoreColor(score int) string {
	switch {
	case score >= analyzer.ProtectedScore:
		return colorRed
	case score <= analyzer.ScoreCache:
		return colorGreen
	default:
		return colorYellow
	}
}

// RenderCategoryTable renders the per-category summary of a scan.
func RenderCategoryTable(summaries []analyzer.CategorySummary) string {
	if len(summaries) == 0 {
		return "No files found.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-30s %-6s %-8s %s\n", "Category", "Score", "Files", "Size"))
	sb.WriteString(strings.Repeat("─", 60))
	sb.WriteString("\n")

	var files int
	var bytes int64
	for _, s := range summaries {
		label := fmt.Sprintf("%-30s", s.Label)
		sb.WriteString(fmt.Sprintf("%s %-6d %-8d %s\n",
			colorize(scoreColor(s.Score), label), s.Score, s.Count, FormatSize(s.Bytes)))
		files += s.Count
		bytes += s.Bytes
	}

	sb.WriteString(strings.Repeat("─", 60))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-30s %-6s %-8d %s\n", "Total", "", files, FormatSize(bytes)))
	return sb.String()
}

// RenderPlanTable renders up to limit files of a plan relative to root,
// followed by the report line. limit <= 0 shows every file.
func RenderPlanTable(plan *analyzer.Plan, root string, limit int) string {
	var sb strings.Builder

	if len(plan.Files) == 0 {
		sb.WriteString("No files match.\n")
	} else {
		sb.WriteString(fmt.Sprintf("%-50s %-10s %s\n", "Path", "Size", "Modified"))
		sb.WriteString(strings.Repeat("─", 78))
		sb.WriteString("\n")
		writeFileRows(&sb, plan.Files, root, limit)
	}

	sb.WriteString(RenderPlanSummary(plan))
	return sb.String()
}

// RenderPlanSummary renders "N files, SIZE (REASON)" plus quota status.
func RenderPlanSummary(plan *analyzer.Plan) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d files, %s (%s)\n", len(plan.Files), FormatSize(plan.TotalBytes), plan.Reason))

	if q := plan.Quota; q != nil {
		sb.WriteString(fmt.Sprintf("Quota: current %s, target %s, required %s, selected %s: %s\n",
			FormatSize(q.Current), FormatSize(q.Target), FormatSize(q.Required),
			FormatSize(q.Accumulated), quotaStatus(q.Status)))
	}
	if d := plan.Duplicates; d != nil {
		sb.WriteString(fmt.Sprintf("Duplicates: %d groups, %d files hashed", len(d.Groups), d.Hashed))
		if d.Failed > 0 {
			sb.WriteString(fmt.Sprintf(", %d unreadable", d.Failed))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func quotaStatus(s analyzer.QuotaStatus) string {
	switch s {
	case analyzer.QuotaSatisfied:
		return colorize(colorGreen, s.String())
	case analyzer.QuotaUnreachable:
		return colorize(colorRed, s.String())
	default:
		return s.String()
	}
}

// RenderDuplicateGroups renders each duplicate group with its kept original.
func RenderDuplicateGroups(report *analyzer.DuplicateReport, root string, limit int) string {
	if report == nil || len(report.Groups) == 0 {
		return "No duplicates found.\n"
	}

	var sb strings.Builder
	for i, g := range report.Groups {
		if limit > 0 && i >= limit {
			sb.WriteString(fmt.Sprintf("... and %d more groups\n", len(report.Groups)-limit))
			break
		}
		digest := g.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		sb.WriteString(fmt.Sprintf("%s  %s\n", colorize(colorGray, digest), FormatSize(g.Size)))
		sb.WriteString(fmt.Sprintf("  keep  %s\n", relTo(root, g.Original.Path)))
		for _, d := range g.Duplicates {
			sb.WriteString(fmt.Sprintf("  move  %s\n", relTo(root, d.Path)))
		}
	}
	sb.WriteString(fmt.Sprintf("Reclaimable: %s\n", FormatSize(report.Reclaimable())))
	return sb.String()
}

// RenderSessionTable renders ledger sessions, newest first as given.
func RenderSessionTable(sessions []*store.Session) string {
	if len(sessions) == 0 {
		return "No sessions recorded.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-16s %-14s %-7s %-9s %-19s %s\n",
		"Session", "Started", "Files", "Size", "Status", "Reason"))
	sb.WriteString(strings.Repeat("─", 90))
	sb.WriteString("\n")

	for _, s := range sessions {
		sb.WriteString(fmt.Sprintf("%-16s %-14s %-7d %-9s %s %s\n",
			s.ID,
			truncate(formatRelativeTime(s.StartedAt), 14),
			s.FileCount,
			FormatSize(s.TotalBytes),
			colorize(statusColor(s.Status), fmt.Sprintf("%-19s", s.Status)),
			truncate(s.Reason, 28)))
	}
	return sb.String()
}

func statusColor(status string) string {
	switch status {
	case store.StatusRestored:
		return colorGreen
	case store.StatusPartiallyRestored, store.StatusAborted:
		return colorRed
	case store.StatusRelocated:
		return colorYellow
	default:
		return colorGray
	}
}

// RenderVaultTable renders vaults discovered on disk.
func RenderVaultTable(found []vault.Found) string {
	if len(found) == 0 {
		return "No vaults found.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-16s %-7s %-9s %s\n", "Session", "Files", "Size", "Directory"))
	sb.WriteString(strings.Repeat("─", 78))
	sb.WriteString("\n")
	for _, f := range found {
		sb.WriteString(fmt.Sprintf("%-16s %-7d %-9s %s\n", f.ID, f.Files, FormatSize(f.Bytes), filepath.Base(f.Dir)))
	}
	return sb.String()
}

// RenderRestoreReport renders the counts of a restore run.
func RenderRestoreReport(r vault.RestoreReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Restored:   %d (%d verified, %d unverified)\n", r.Restored, r.Verified, r.Unverified))
	if r.Rejected > 0 {
		sb.WriteString(colorize(colorRed, fmt.Sprintf("Rejected:   %d (integrity check failed, kept in vault)", r.Rejected)))
		sb.WriteString("\n")
	}
	if r.Failed > 0 {
		sb.WriteString(colorize(colorRed, fmt.Sprintf("Failed:     %d (kept in vault)", r.Failed)))
		sb.WriteString("\n")
	}
	if r.VaultRemoved {
		sb.WriteString("Vault removed.\n")
	} else if !r.Clean() {
		sb.WriteString("Vault kept for inspection.\n")
	}
	return sb.String()
}

func writeFileRows(sb *strings.Builder, files []scanner.FileRecord, root string, limit int) {
	for i, f := range files {
		if limit > 0 && i >= limit {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(files)-limit))
			return
		}
		sb.WriteString(fmt.Sprintf("%-50s %-10s %s\n",
			truncateLeft(relTo(root, f.Path), 50),
			FormatSize(f.Size),
			formatRelativeTime(f.ModTime)))
	}
}

func relTo(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// FormatSize converts bytes to human-readable size (GB, MB, KB).
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.0f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)
	plural := func(n int, unit string) string {
		if n == 1 {
			return "1 " + unit + " ago"
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24/7), "week")
	case diff < 365*24*time.Hour:
		return plural(int(diff.Hours()/24/30), "month")
	default:
		return plural(int(diff.Hours()/24/365), "year")
	}
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// truncateLeft keeps the end of long paths, where the file name is.
func truncateLeft(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[len(s)-maxLen:]
	}
	return "..." + s[len(s)-maxLen+3:]
}

package app

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vyusufb/dosya-temizleyici/internal/analyzer"
	"github.com/vyusufb/dosya-temizleyici/internal/config"
	"github.com/vyusufb/dosya-temizleyici/internal/hasher"
	"github.com/vyusufb/dosya-temizleyici/internal/logging"
	"github.com/vyusufb/dosya-temizleyici/internal/output"
	"github.com/vyusufb/dosya-temizleyici/internal/pathguard"
	"github.com/vyusufb/dosya-temizleyici/internal/scanner"
	"github.com/vyusufb/dosya-temizleyici/internal/session"
	"github.com/vyusufb/dosya-temizleyici/internal/store"
)

// rootGuard vets every root before a command touches it.
var rootGuard = pathguard.New()

// loadConfig reads the config file named by --config, or the default one.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// getDBPath returns the database path, using the flag value or the config.
func getDBPath(cfg *config.Config) string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.DBPath()
}

// openLedger opens the session ledger. A ledger that cannot be opened only
// costs the collision-rename mapping, so callers treat the error as a warning.
func openLedger(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(getDBPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	return st, nil
}

// resolveRoot returns the vetted, symlink-free root for dir ("." when empty).
func resolveRoot(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	root, err := rootGuard.Check(dir)
	if err != nil {
		return "", fmt.Errorf("refusing to use %s as root: %w", dir, err)
	}
	return root, nil
}

// newAnalyzer builds the analyzer and hasher pool from the config.
func newAnalyzer(cfg *config.Config) (*analyzer.Analyzer, *hasher.Pool) {
	pool := hasher.New(cfg.HashWorkers)
	log.Debug().Int("workers", pool.Workers()).Msg("hasher pool ready")
	return analyzer.New(analyzer.NewClassifier(cfg.ExtraProtectedKeywords...), pool), pool
}

// ruleArg picks the argument ParseCriterion needs for rule.
func ruleArg(rule, keywords, quotaMB string) string {
	switch strings.ToLower(strings.TrimSpace(rule)) {
	case "keywords", "3":
		return keywords
	case "quota", "16":
		return quotaMB
	default:
		return ""
	}
}

// collectFiles walks the session root, showing the running count on spinner.
func collectFiles(sess *session.Session, spinner *output.Spinner) []scanner.FileRecord {
	var files []scanner.FileRecord
	for f := range scanner.New(sess).Files() {
		files = append(files, f)
		spinner.SetCount(len(files))
	}
	return files
}

// openAudit attaches the session's audit log to sess.
func openAudit(sess *session.Session) (*session.Session, *logging.Audit, error) {
	audit, err := logging.OpenAudit(sess.AuditLogPath())
	if err != nil {
		return nil, nil, err
	}
	return sess.WithAudit(audit.Logger), audit, nil
}

// confirm prompts on out and reads a y/N answer from in.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)

	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

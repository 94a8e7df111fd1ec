package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vyusufb/dosya-temizleyici/internal/logging"
	"github.com/vyusufb/dosya-temizleyici/internal/session"
	"github.com/vyusufb/dosya-temizleyici/internal/vault"
)

var auditFlagRoot string

var auditCmd = &cobra.Command{
	Use:   "audit [session-id | latest]",
	Short: "Check that a session's audit log still matches its seal",
	Long: `Recompute the SHA-256 of a session's audit log and compare it with the
digest sealed after the last clean or restore run. A mismatch means the
log was modified afterwards.`,
	Example: `  kale audit latest --root ~/Downloads
  kale audit 20240102_030405 --root .`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditFlagRoot, "root", "", "Directory the session was cleaned in (default: current directory)")
}

func runAudit(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(auditFlagRoot)
	if err != nil {
		return err
	}

	id := args[0]
	if id == "latest" {
		found, ok, err := vault.Latest(root)
		if err != nil {
			return fmt.Errorf("failed to list vaults: %w", err)
		}
		if !ok {
			return fmt.Errorf("no vaults under %s", root)
		}
		id = found.ID
	}

	sess, err := session.Resume(root, id)
	if err != nil {
		return err
	}
	path := sess.AuditLogPath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no audit log for session %s: %w", id, err)
	}

	ok, err := logging.VerifySeal(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintf(out, "✗ %s does not match its seal\n", path)
		return fmt.Errorf("audit log %s was modified after sealing", path)
	}
	fmt.Fprintf(out, "✓ %s matches its seal\n", path)
	return nil
}

package app

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vyusufb/dosya-temizleyici/internal/cleanup"
	"github.com/vyusufb/dosya-temizleyici/internal/config"
	"github.com/vyusufb/dosya-temizleyici/internal/output"
	"github.com/vyusufb/dosya-temizleyici/internal/session"
	"github.com/vyusufb/dosya-temizleyici/internal/store"
	"github.com/vyusufb/dosya-temizleyici/internal/vault"
)

var (
	restoreFlagRoot string
	restoreFlagList bool
	restoreFlagYes  bool
)

// errRestoreIncomplete marks a restore that left files in the vault.
var errRestoreIncomplete = errors.New("restore incomplete")

var restoreCmd = &cobra.Command{
	Use:   "restore [session-id | latest]",
	Short: "Move quarantined files back to where they came from",
	Long: `Restore every file of a session's vault to its original location.

When the session was cleaned with content digests, each file is verified
before it is put back; a file whose content changed stays in the vault.
The vault and snapshot are removed only after every file was restored.

Sessions are found in the ledger and on disk, so a vault copied from
another machine can be restored too.

Arguments:
  session-id  The session ID (YYYYMMDD_HHMMSS) shown by 'kale clean'
  latest      Restore the newest vault under the root`,
	Example: `  kale restore --list --root ~/Downloads      # List sessions and vaults
  kale restore latest --root ~/Downloads      # Restore the newest vault
  kale restore 20240102_030405 --root . --yes # Restore without confirmation`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().StringVar(&restoreFlagRoot, "root", "", "Directory the session was cleaned in (default: current directory)")
	restoreCmd.Flags().BoolVar(&restoreFlagList, "list", false, "List sessions and vaults")
	restoreCmd.Flags().BoolVar(&restoreFlagYes, "yes", false, "Skip confirmation prompt")
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	root, err := resolveRoot(restoreFlagRoot)
	if err != nil {
		return err
	}

	st, err := openLedger(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("continuing without ledger")
	} else {
		defer st.Close()
	}

	out := cmd.OutOrStdout()
	if restoreFlagList {
		return listSessions(out, st, root)
	}

	if len(args) == 0 {
		return fmt.Errorf("session ID or 'latest' required\n\nUsage: kale restore [session-id | latest]\n\nUse 'kale restore --list' to see available sessions")
	}

	found, err := findVault(root, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nSession Details:\n")
	fmt.Fprintf(out, "  ID: %s\n", found.ID)
	if st != nil {
		if rec, err := st.GetSession(root, found.ID); err == nil {
			fmt.Fprintf(out, "  Reason: %s\n", rec.Reason)
			fmt.Fprintf(out, "  Status: %s\n", rec.Status)
		}
	}
	fmt.Fprintf(out, "  Vault: %s\n", found.Dir)
	fmt.Fprintf(out, "  Files: %d (%s)\n\n", found.Files, output.FormatSize(found.Bytes))

	if !restoreFlagYes {
		if !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Restore %d files?", found.Files)) {
			fmt.Fprintln(out, "Restoration cancelled.")
			return nil
		}
	}

	result, err := restoreSession(cfg, st, root, found.ID)
	if err != nil {
		return err
	}

	if result.Degraded {
		fmt.Fprintln(out, "⚠  Snapshot missing or unreadable: files were restored without verification.")
	}
	fmt.Fprint(out, output.RenderRestoreReport(result.Report))

	if !result.Report.Clean() {
		return fmt.Errorf("%w: %d rejected, %d failed; vault kept at %s",
			errRestoreIncomplete, result.Report.Rejected, result.Report.Failed, found.Dir)
	}
	fmt.Fprintf(out, "\n✓ Restored %d files from session %s\n", result.Report.Restored, found.ID)
	return nil
}

// findVault resolves a session argument to a vault on disk.
func findVault(root, arg string) (vault.Found, error) {
	if strings.EqualFold(arg, "latest") {
		found, ok, err := vault.Latest(root)
		if err != nil {
			return vault.Found{}, fmt.Errorf("failed to list vaults: %w", err)
		}
		if !ok {
			return vault.Found{}, fmt.Errorf("no vaults under %s\n\nVaults are created by 'kale clean'", root)
		}
		return found, nil
	}

	if _, err := session.Resume(root, arg); err != nil {
		return vault.Found{}, err
	}
	all, err := vault.Discover(root)
	if err != nil {
		return vault.Found{}, fmt.Errorf("failed to list vaults: %w", err)
	}
	for _, f := range all {
		if f.ID == arg {
			return f, nil
		}
	}
	return vault.Found{}, fmt.Errorf("no vault for session %s under %s\n\nRun 'kale restore --list' to see available sessions", arg, root)
}

// restoreSession runs the restore of one session with its audit log attached.
func restoreSession(cfg *config.Config, st *store.Store, root, id string) (*cleanup.RestoreResult, error) {
	sess, err := session.Resume(root, id)
	if err != nil {
		return nil, err
	}
	sess, audit, err := openAudit(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer audit.Close()

	_, pool := newAnalyzer(cfg)
	opts := cleanup.Options{Hasher: pool, Audit: audit}
	if st != nil {
		opts.Ledger = st
	}
	return cleanup.New(sess, opts).Restore()
}

// listSessions displays ledger sessions and the vaults present on disk.
func listSessions(out io.Writer, st *store.Store, root string) error {
	if st != nil {
		sessions, err := st.ListSessions(root)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		fmt.Fprintf(out, "\nRecorded sessions for %s:\n\n", root)
		fmt.Fprint(out, output.RenderSessionTable(sessions))
	}

	found, err := vault.Discover(root)
	if err != nil {
		return fmt.Errorf("failed to list vaults: %w", err)
	}
	fmt.Fprintf(out, "\nVaults on disk:\n\n")
	fmt.Fprint(out, output.RenderVaultTable(found))

	if len(found) > 0 {
		fmt.Fprintf(out, "\nRestore with: kale restore <session-id> --root %s\n", root)
	}
	return nil
}

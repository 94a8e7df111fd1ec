package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vyusufb/dosya-temizleyici/internal/logging"
)

var (
	dbPath     string
	configPath string
	verbosity  int

	// RootCmd is the root command for kale
	RootCmd = &cobra.Command{
		Use:   "kale",
		Short: "Triage a directory tree and quarantine files reversibly",
		Long: `kale classifies the files under a directory by risk and category and moves
the ones you select into a hidden quarantine directory (the vault) inside
the same tree. Nothing is ever deleted: every run writes a snapshot first,
and 'kale restore' moves the files back, verifying their content when the
snapshot carries digests.

Quick Start:
  1. kale scan ~/Downloads
  2. kale clean junk ~/Downloads --dry-run
  3. kale clean junk ~/Downloads
  4. kale restore latest --root ~/Downloads

Features:
  • Risk scoring that never selects protected files for quota cleanup
  • Duplicate detection keeping the oldest copy
  • Quota mode: free space until the tree fits a size target
  • Content-verified restore with an append-only, sealed audit log

Examples:
  # Per-category summary
  kale scan ~/Downloads

  # Quarantine duplicates, verifying content on restore
  kale clean duplicates ~/Downloads

  # Shrink a tree to 500 MB
  kale clean quota ~/Downloads --quota-mb 500

  # List sessions and vaults
  kale restore --list --root ~/Downloads`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity, os.Stderr)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "kale: triage and reversible quarantine for a directory tree")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run 'kale scan <dir>' to see what is there.")
			fmt.Fprintln(out, "Run 'kale --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "ledger database path (default: <state_dir>/kale.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.config/kale/config.yaml)")
	RootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v, -vv, -vvv)")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(cleanCmd)
	RootCmd.AddCommand(restoreCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(auditCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

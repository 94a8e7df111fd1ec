package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vyusufb/dosya-temizleyici/internal/analyzer"
	"github.com/vyusufb/dosya-temizleyici/internal/cleanup"
	"github.com/vyusufb/dosya-temizleyici/internal/logging"
	"github.com/vyusufb/dosya-temizleyici/internal/output"
	"github.com/vyusufb/dosya-temizleyici/internal/session"
)

var (
	cleanFlagDryRun   bool
	cleanFlagYes      bool
	cleanFlagVerify   bool
	cleanFlagKeywords string
	cleanFlagQuotaMB  string
	cleanFlagLimit    int
)

var cleanCmd = &cobra.Command{
	Use:   "clean <rule> [dir]",
	Short: "Move the files a rule selects into the quarantine vault",
	Long: `Select files under the directory (default: the current one) with a rule and
move them into a hidden vault directory inside the same tree.

Before anything is moved a snapshot of the selection is written; if that
fails nothing is moved. Files are never deleted. Use 'kale restore' to put
them back.

Rules (menu numbers are accepted too):
  1  hash-named     stem of 32 hex characters
  2  json           .json files
  3  keywords       name contains a keyword (--keywords a,b,c)
  4  under-35kb     files up to 35 KiB
  5  under-1mb      files up to 1 MiB
  6  small-videos   videos under 1 MiB
  7  empty          zero-byte files
  8  junk           .tmp .log .bak .old .chk .dmp
  9  os-leftovers   Thumbs.db desktop.ini .DS_Store
  10 archives       .zip .rar .7z .tar .gz
  11 installers     .exe .msi .pkg .dmg
  12 duplicates     identical content, the oldest copy is kept
  13 old            not modified for 180 days
  14 office-locks   ~$ lock files
  15 dev-artifacts  .pyc .class .o .obj
  16 quota          shrink the tree to --quota-mb, lowest risk first`,
	Example: `  kale clean junk ~/Downloads --dry-run
  kale clean duplicates ~/Downloads --yes
  kale clean keywords . --keywords invoice,draft
  kale clean quota ~/Downloads --quota-mb 500 --verify`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanFlagDryRun, "dry-run", false, "Show what would be moved without moving")
	cleanCmd.Flags().BoolVar(&cleanFlagYes, "yes", false, "Skip confirmation prompt")
	cleanCmd.Flags().BoolVar(&cleanFlagVerify, "verify", false, "Record content digests so restore can verify every file")
	cleanCmd.Flags().StringVar(&cleanFlagKeywords, "keywords", "", "Comma-separated keywords for the keywords rule")
	cleanCmd.Flags().StringVar(&cleanFlagQuotaMB, "quota-mb", "", "Target size in MB for the quota rule")
	cleanCmd.Flags().IntVar(&cleanFlagLimit, "limit", 20, "Maximum number of files listed (0 = all)")
}

func runClean(cmd *cobra.Command, args []string) error {
	rule := args[0]
	criterion, err := analyzer.ParseCriterion(rule, ruleArg(rule, cleanFlagKeywords, cleanFlagQuotaMB), time.Now())
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var dir string
	if len(args) > 1 {
		dir = args[1]
	}
	root, err := resolveRoot(dir)
	if err != nil {
		return err
	}

	sess, err := session.New(root, time.Now())
	if err != nil {
		return err
	}
	if sess.InUse() {
		return fmt.Errorf("%w: %s under %s, retry in a moment", cleanup.ErrSessionExists, sess.ID, root)
	}

	opts := cleanup.Options{MoveDelay: cfg.MoveDelay}
	if !cleanFlagDryRun {
		var audit *logging.Audit
		sess, audit, err = openAudit(sess)
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		defer audit.Close()
		opts.Audit = audit
	}

	anlzr, pool := newAnalyzer(cfg)
	opts.Hasher = pool

	spinner := output.NewSpinner("Scanning " + root)
	spinner.Start()
	files := collectFiles(sess, spinner)
	spinner.UpdateMessage("Selecting files (" + criterion.Reason() + ")")
	plan, err := anlzr.Plan(criterion, files)
	spinner.Stop()
	if err != nil {
		return fmt.Errorf("failed to select files: %w", err)
	}

	out := cmd.OutOrStdout()
	renderPlan(out, plan, root)

	if len(plan.Files) == 0 {
		fmt.Fprintln(out, "Nothing to move.")
		return nil
	}
	if cleanFlagDryRun {
		fmt.Fprintln(out, "\nDry run: nothing was moved.")
		return nil
	}

	if !cleanFlagYes {
		prompt := fmt.Sprintf("\nMove %d files (%s) into %s?", len(plan.Files), output.FormatSize(plan.TotalBytes), sess.VaultName())
		if !confirm(cmd.InOrStdin(), out, prompt) {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if st, err := openLedger(cfg); err != nil {
		log.Warn().Err(err).Msg("continuing without ledger")
	} else {
		defer st.Close()
		opts.Ledger = st
	}

	progress := output.NewProgress(len(plan.Files), "Moving files to vault")
	opts.OnMove = progress.Update

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := cleanup.New(sess, opts).Apply(ctx, plan, cleanFlagVerify)
	progress.Finish()
	if result == nil {
		return err
	}

	// An interrupted run still reports what was moved.
	renderResult(out, sess, result)
	return err
}

// renderPlan prints the selection the way the rule calls for.
func renderPlan(out io.Writer, plan *analyzer.Plan, root string) {
	if plan.Duplicates != nil {
		fmt.Fprint(out, output.RenderDuplicateGroups(plan.Duplicates, root, cleanFlagLimit))
		fmt.Fprint(out, output.RenderPlanSummary(plan))
		return
	}
	fmt.Fprint(out, output.RenderPlanTable(plan, root, cleanFlagLimit))
}

func renderResult(out io.Writer, sess *session.Session, r *cleanup.Result) {
	fmt.Fprintf(out, "\n✓ Moved %d files (%s) into %s\n", r.Moved(), output.FormatSize(r.Bytes), sess.VaultName())

	var notes []string
	if r.Dropped > 0 {
		notes = append(notes, fmt.Sprintf("%d vanished before the snapshot", r.Dropped))
	}
	if r.Blocked > 0 {
		notes = append(notes, fmt.Sprintf("%d blocked by the containment check", r.Blocked))
	}
	if r.Failed > 0 {
		notes = append(notes, fmt.Sprintf("%d could not be moved", r.Failed))
	}
	if len(notes) > 0 {
		fmt.Fprintf(out, "  Skipped: %s\n", strings.Join(notes, ", "))
	}
	if r.Snapshot != nil {
		fmt.Fprintf(out, "  Snapshot: %s (%d of %d entries verifiable)\n", r.Snapshot.Path, r.Snapshot.Verifiable(), len(r.Snapshot.Entries))
	}
	if r.Seal != "" {
		fmt.Fprintf(out, "  Audit log sealed: %s\n", r.Seal[:min(12, len(r.Seal))])
	}
	fmt.Fprintf(out, "\nUndo with: kale restore %s --root %s\n", sess.ID, sess.Root)
}

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vyusufb/dosya-temizleyici/internal/analyzer"
	"github.com/vyusufb/dosya-temizleyici/internal/output"
	"github.com/vyusufb/dosya-temizleyici/internal/scanner"
	"github.com/vyusufb/dosya-temizleyici/internal/session"
	"github.com/vyusufb/dosya-temizleyici/internal/watcher"
)

var (
	watchFlagKeywords string
	watchFlagQuotaMB  string
	watchFlagDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <rule> [dir]",
	Short: "Re-report what a rule would select whenever the tree changes",
	Long: `Watch the directory (default: the current one) and print the selection
summary of a rule each time filesystem activity settles.

Nothing is moved; run 'kale clean' to act on the report. Stop with Ctrl-C.`,
	Example: `  kale watch junk ~/Downloads
  kale watch quota ~/Downloads --quota-mb 500 --debounce 10s`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchFlagKeywords, "keywords", "", "Comma-separated keywords for the keywords rule")
	watchCmd.Flags().StringVar(&watchFlagQuotaMB, "quota-mb", "", "Target size in MB for the quota rule")
	watchCmd.Flags().DurationVar(&watchFlagDebounce, "debounce", 0, "Quiet period before reporting (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	rule := args[0]
	criterion, err := analyzer.ParseCriterion(rule, ruleArg(rule, watchFlagKeywords, watchFlagQuotaMB), time.Now())
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

	debounce := cfg.Watch.Debounce
	if watchFlagDebounce > 0 {
		debounce = watchFlagDebounce
	}

	anlzr, _ := newAnalyzer(cfg)
	out := cmd.OutOrStdout()
	report := func() {
		if err := reportPlan(out, anlzr, criterion, root); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "Watching %s for %s (debounce %s)\n", root, criterion.Reason(), debounce)
	report()

	return watcher.New(root, debounce, report).Run(ctx)
}

// reportPlan rescans root and prints the plan summary for criterion.
func reportPlan(out io.Writer, anlzr *analyzer.Analyzer, criterion analyzer.Criterion, root string) error {
	now := time.Now()
	sess, err := session.New(root, now)
	if err != nil {
		return err
	}

	plan, err := anlzr.Plan(criterion, scanner.New(sess).Collect())
	if err != nil {
		return fmt.Errorf("failed to select files: %w", err)
	}

	fmt.Fprintf(out, "[%s] %s", now.Format(time.TimeOnly), output.RenderPlanSummary(plan))
	return nil
}

package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vyusufb/dosya-temizleyici/internal/output"
	"github.com/vyusufb/dosya-temizleyici/internal/session"
)

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Summarize the files under a directory by category",
	Long: `Walk the directory (default: the current one) and print how many files and
bytes fall into each category, with the risk score the classifier assigns
to that category.

Hidden directories, existing vaults and directories on other filesystems
are skipped. Nothing is modified.`,
	Example: `  kale scan
  kale scan ~/Downloads`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var dir string
	if len(args) > 0 {
		dir = args[0]
	}
	root, err := resolveRoot(dir)
	if err != nil {
		return err
	}

	sess, err := session.New(root, time.Now())
	if err != nil {
		return err
	}
	anlzr, _ := newAnalyzer(cfg)

	spinner := output.NewSpinner("Scanning " + root)
	spinner.Start()
	files := collectFiles(sess, spinner)
	spinner.StopWithMessage(fmt.Sprintf("Found %d files", len(files)))

	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintf(out, "No files found under %s\n", root)
		return nil
	}

	fmt.Fprintf(out, "Scanned %s\n\n", root)
	fmt.Fprint(out, output.RenderCategoryTable(anlzr.Summarize(files)))
	return nil
}

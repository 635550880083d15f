package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagIndexRebuild bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rescan the repository and rewrite the index snapshot",
	Long: `Walk every category folder, parse each script header, and replace the
index snapshot with what is actually on disk. Files that fail to parse are
reported and left out of the index.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagIndexRebuild, "rebuild", false, "Rebuild even when the current snapshot is corrupt")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	if cerr := r.Corrupt(); cerr != nil && !flagIndexRebuild {
		return fmt.Errorf("index snapshot is corrupt: %v\nRe-run with --rebuild to regenerate it from the tree.", cerr)
	}

	rep, err := r.BuildIndex(cmd.Context())
	if err != nil {
		return err
	}

	printSection("pqhub index")
	for _, issue := range rep.Issues {
		printWarn("", fmt.Sprintf("%s: %v", issue.Path, issue.Err))
	}
	if len(rep.Issues) > 0 {
		fmt.Println()
	}
	printOK("", fmt.Sprintf("%d script(s) indexed, %d file(s) skipped", len(rep.Records), len(rep.Issues)))
	return nil
}

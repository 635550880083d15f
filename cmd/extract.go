package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pqhub/pqhub-cli/internal/workbook"
)

var (
	flagExtractFrom     string
	flagExtractCategory string
	flagExtractForce    bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Import queries from a directory of exported scripts",
	Long: `Read every query file (.pq, .m, .txt) in a directory and add it to the
repository. Files whose names collide with existing scripts are skipped
unless --force, which overwrites their bodies instead.

Dependencies between imported queries and existing scripts are detected
from each body and declared automatically.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&flagExtractFrom, "from", "", "Directory to import from (required)")
	extractCmd.Flags().StringVar(&flagExtractCategory, "category", "", "Category for imported scripts (default from pqhub.yaml)")
	extractCmd.Flags().BoolVar(&flagExtractForce, "force", false, "Overwrite bodies of scripts that already exist")
	_ = extractCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	rep, err := r.Extract(cmd.Context(), workbook.DirSource{Dir: flagExtractFrom}, flagExtractCategory, flagExtractForce)
	if err != nil {
		return err
	}

	printSection("pqhub extract")

	if len(rep.Imported) > 0 {
		printBullet("Imported:")
		for _, name := range rep.Imported {
			printOK(name, "added")
		}
	}
	if len(rep.Updated) > 0 {
		printBullet("Updated:")
		for _, name := range rep.Updated {
			printInfo(name, "body replaced")
		}
	}
	if len(rep.Skipped) > 0 {
		printBullet("Already in the repository:")
		for _, name := range rep.Skipped {
			printSkip(name, "skipped (use --force to overwrite)")
		}
	}
	if len(rep.Failed) > 0 {
		printBullet("Failed:")
		for _, f := range rep.Failed {
			printErr(f.Name, f.Err.Error())
		}
	}

	fmt.Printf("\n%d imported, %d updated, %d skipped, %d failed.\n",
		len(rep.Imported), len(rep.Updated), len(rep.Skipped), len(rep.Failed))
	if len(rep.Failed) > 0 {
		return fmt.Errorf("%d import(s) failed", len(rep.Failed))
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pqhub/pqhub-cli/internal/index"
)

var flagListCategory string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed scripts grouped by category",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&flagListCategory, "category", "", "Show a single category")
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	var categories []string
	if flagListCategory != "" {
		categories = []string{flagListCategory}
	} else {
		categories = r.Categories()
	}
	if len(categories) == 0 {
		fmt.Println("No scripts indexed. Run 'pqhub index' to scan the repository.")
		return nil
	}

	total := 0
	for _, cat := range categories {
		entries := r.ByCategory(cat)
		if len(entries) == 0 {
			printMiss("", fmt.Sprintf("no scripts in category %q", cat))
			continue
		}
		total += len(entries)
		printBullet(fmt.Sprintf("%s (%d)", entries[0].Category, len(entries)))
		listEntries(entries)
	}
	fmt.Printf("\n%d script(s) total.\n", total)
	return nil
}

// listEntries prints one aligned row per entry.
func listEntries(entries []index.Entry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		version := e.Version
		if version != "" {
			version = "v" + version
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", e.Name, version, truncate(e.Description, 60))
	}
	w.Flush()
}

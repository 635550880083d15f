package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pqhub/pqhub-cli/internal/index"
)

var flagSearchK int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search scripts by name, description, or tag",
	Long: `Case-insensitive substring search over the index. The query is matched
against script names, descriptions, and tags.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&flagSearchK, "k", 0, "Limit the number of results (0 = all)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(_ *cobra.Command, args []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	results := r.Search(query)
	if flagSearchK > 0 && len(results) > flagSearchK {
		results = results[:flagSearchK]
	}

	printSearchResults(query, results)
	return nil
}

func printSearchResults(query string, results []index.Entry) {
	fmt.Printf("\npqhub search %q\n\n", query)
	fmt.Printf("Results (%d found):\n", len(results))
	if len(results) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, e := range results {
		fmt.Fprintf(w, "  %d.\t%s\t[%s]\n", i+1, e.Name, e.Category)
		detail := strings.TrimSpace(e.Description)
		if len(e.Tags) > 0 {
			if detail != "" {
				detail += "  "
			}
			detail += "#" + strings.Join(e.Tags, " #")
		}
		if detail != "" {
			fmt.Fprintf(w, "  - %s\n", truncate(detail, 80))
		}
	}
	_ = w.Flush()
}

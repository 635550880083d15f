package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var flagShowMeta bool

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a script's M expression",
	Long: `Print the body of a script to stdout. With --meta, print the header
fields instead of the body.

Name lookup is case-insensitive.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&flagShowMeta, "meta", false, "Print header fields instead of the body")
	rootCmd.AddCommand(showCmd)
}

func runShow(_ *cobra.Command, args []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	rec, err := r.Record(args[0])
	if err != nil {
		return err
	}

	if !flagShowMeta {
		fmt.Println(rec.Body)
		return nil
	}

	entry, _ := r.Get(rec.Name)
	fmt.Printf("Name:         %s\n", rec.Name)
	fmt.Printf("Category:     %s\n", rec.Category)
	if len(rec.Tags) > 0 {
		fmt.Printf("Tags:         %s\n", strings.Join(rec.Tags, ", "))
	}
	if len(rec.Dependencies) > 0 {
		fmt.Printf("Dependencies: %s\n", strings.Join(rec.Dependencies, ", "))
	}
	if rec.Description != "" {
		fmt.Printf("Description:  %s\n", rec.Description)
	}
	if rec.Version != "" {
		fmt.Printf("Version:      %s\n", rec.Version)
	}
	fmt.Printf("Path:         %s\n", entry.Path)
	return nil
}

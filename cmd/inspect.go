package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <name>",
	Short: "Analyze a script's parameters, data sources, and references",
	Long: `Display what static analysis finds in a script body: the function
parameters it declares, the external data sources it touches, and calls to
other repository scripts that are missing from its dependency list.

Example:
  pqhub inspect "Sales Clean"`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(_ *cobra.Command, args []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	insp, err := r.Inspect(args[0])
	if err != nil {
		return err
	}
	rec := insp.Record
	entry, _ := r.Get(rec.Name)

	printSection("Inspect: " + rec.Name)
	fmt.Println()
	fmt.Printf("Category: %s\n", rec.Category)
	if rec.Version != "" {
		fmt.Printf("Version:  %s\n", rec.Version)
	}
	if rec.Description != "" {
		desc := strings.ReplaceAll(strings.TrimSpace(rec.Description), "\n", " ")
		fmt.Printf("Summary:  %s\n", desc)
	}

	if len(insp.Parameters) > 0 {
		fmt.Println("\nParameters:")
		for _, p := range insp.Parameters {
			kind := "required"
			if p.Optional {
				kind = "optional"
			}
			fmt.Printf("  %-24s %-16s %s\n", p.Name, p.Type, kind)
		}
	}

	if len(insp.Sources) > 0 {
		fmt.Println("\nData sources:")
		for _, s := range insp.Sources {
			value := s.Value
			if value == "" {
				value = s.Argument
			}
			fmt.Printf("  %-24s %-10s %s\n", s.Func, s.Kind, value)
		}
	}

	if len(rec.Dependencies) > 0 {
		fmt.Println("\nDependencies (declared):")
		for _, d := range rec.Dependencies {
			status := "✓ Found"
			if _, ok := r.Get(d); !ok {
				status = "✗ Not found"
			}
			fmt.Printf("  %-24s %s\n", d, status)
		}
	}

	if len(insp.Suggested) > 0 {
		fmt.Println("\nReferenced but not declared:")
		for _, name := range insp.Suggested {
			printWarn("", fmt.Sprintf("%s  (add with 'pqhub edit %q --deps ...')", name, rec.Name))
		}
	}

	fmt.Printf("\nPath: %s\n", entry.Path)
	return nil
}

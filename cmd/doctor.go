package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pqhub/pqhub-cli/internal/repo"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check repository health",
	Long: `Check that the index snapshot, the script files, and the dependency
graph agree with each other. Run this command when something seems wrong,
or after editing script files outside of pqhub.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// severeKinds lose data or break loading; the rest are drift warnings.
var severeKinds = map[string]bool{
	"corrupt-index": true,
	"missing-file":  true,
	"malformed":     true,
	"duplicate":     true,
	"cycle":         true,
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	findings, err := r.Checkup(cmd.Context())
	if err != nil {
		return err
	}

	printSection("pqhub doctor")
	fmt.Println()

	byKind := make(map[string][]repo.Finding)
	for _, f := range findings {
		byKind[f.Kind] = append(byKind[f.Kind], f)
	}

	check := func(title string, kinds ...string) {
		fmt.Printf("[ %s ]\n", title)
		n := 0
		for _, kind := range kinds {
			for _, f := range byKind[kind] {
				n++
				if severeKinds[kind] {
					printErr(f.Subject, findingMessage(f))
				} else {
					printWarn(f.Subject, findingMessage(f))
				}
			}
		}
		if n == 0 {
			printOK("", "no problems found")
		}
		fmt.Println()
	}

	check("Index snapshot", "corrupt-index", "missing-file", "unindexed", "stale-index", "duplicate")
	check("Script files", "malformed", "misplaced")
	check("Dependencies", "unresolved", "cycle")

	fmt.Println("===================")
	if len(findings) == 0 {
		fmt.Println("✓  All checks passed. The repository is healthy.")
		return nil
	}
	fmt.Fprintln(os.Stderr, "✗  One or more checks failed. See details above.")
	if len(byKind["corrupt-index"])+len(byKind["unindexed"])+len(byKind["stale-index"])+len(byKind["missing-file"]) > 0 {
		fmt.Println("   Run 'pqhub index --rebuild' to rebuild the snapshot from the tree.")
	}
	return fmt.Errorf("doctor found %d issue(s)", len(findings))
}

// findingMessage renders one finding as a single line.
func findingMessage(f repo.Finding) string {
	switch f.Kind {
	case "missing-file":
		return fmt.Sprintf("indexed file missing on disk: %s", f.Detail)
	case "unindexed":
		return fmt.Sprintf("not in the index (found at %s)", f.Detail)
	case "unresolved":
		return fmt.Sprintf("depends on unknown script %q", f.Detail)
	default:
		return f.Detail
	}
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pqhub/pqhub-cli/internal/resolve"
)

var (
	flagDepsTree    bool
	flagDepsPartial bool
)

var depsCmd = &cobra.Command{
	Use:   "deps <name>...",
	Short: "Show the dependency load order or tree",
	Long: `Resolve the transitive dependencies of the named scripts and print them
in load order, dependencies first. With --tree, render the dependency tree
of each script instead.

An unresolved dependency aborts the resolution unless --partial is set, in
which case it is reported and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDeps,
}

func init() {
	depsCmd.Flags().BoolVar(&flagDepsTree, "tree", false, "Render the dependency tree instead of the load order")
	depsCmd.Flags().BoolVar(&flagDepsPartial, "partial", false, "Skip unresolved dependencies instead of failing")
	rootCmd.AddCommand(depsCmd)
}

func runDeps(_ *cobra.Command, args []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	if flagDepsTree {
		for i, name := range args {
			if i > 0 {
				fmt.Println()
			}
			node, err := r.Tree(name)
			if err != nil {
				return err
			}
			fmt.Print(renderTree(node))
		}
		return nil
	}

	res, err := r.Order(args, resolve.Options{Partial: flagDepsPartial})
	if err != nil {
		return err
	}

	fmt.Printf("Load order (%d script(s)):\n", len(res.Order))
	for i, name := range res.Order {
		fmt.Printf("  %d. %s\n", i+1, name)
	}
	for _, o := range res.Omitted {
		printWarn("", fmt.Sprintf("omitted %s (required by %s)", o.Name, o.MissingFrom))
	}
	return nil
}

// renderTree draws a dependency tree with box-drawing connectors.
func renderTree(root *resolve.TreeNode) string {
	var sb strings.Builder
	sb.WriteString(treeLabel(root) + "\n")
	writeBranches(&sb, root, "")
	return sb.String()
}

func treeLabel(n *resolve.TreeNode) string {
	switch {
	case n.Unresolved:
		return n.Name + " (missing)"
	case n.Repeated:
		return n.Name + " (repeat)"
	}
	return n.Name
}

func writeBranches(sb *strings.Builder, n *resolve.TreeNode, prefix string) {
	for i, c := range n.Children {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(n.Children)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		sb.WriteString(prefix + connector + treeLabel(c) + "\n")
		writeBranches(sb, c, childPrefix)
	}
}

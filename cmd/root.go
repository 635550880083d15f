package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pqhub/pqhub-cli/internal/repo"
)

var (
	flagRepo    string
	flagVerbose bool
)

// logger is shared by every command. Commands print results through the
// output helpers; the logger carries diagnostics to stderr.
var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "pqhub"})

var rootCmd = &cobra.Command{
	Use:          "pqhub",
	Short:        "pqhub — Power Query script repository manager",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `pqhub keeps Power Query (M) scripts in a categorized repository with
metadata headers, a searchable index, and dependency-aware assembly.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagVerbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

// repoRoot resolves the repository root: --repo flag, then PQHUB_REPO,
// then the working directory.
func repoRoot() (string, error) {
	if flagRepo != "" {
		return flagRepo, nil
	}
	if env := os.Getenv("PQHUB_REPO"); env != "" {
		return env, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot determine working directory: %w", err)
	}
	return wd, nil
}

// openRepo opens the repository every data command operates on.
func openRepo() (*repo.Repo, error) {
	root, err := repoRoot()
	if err != nil {
		return nil, err
	}
	r, err := repo.Open(root, repo.Options{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("%w\nRun 'pqhub init' to create a repository.", err)
	}
	return r, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRepo, "repo", "", "Repository root (default $PQHUB_REPO, else the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

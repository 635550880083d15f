package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pqhub/pqhub-cli/internal/config"
	"github.com/pqhub/pqhub-cli/internal/index"
)

// configTemplate is written on first pqhub init. Values mirror the
// defaults applied when the file is absent.
const configTemplate = `# pqhub repository configuration
#
# default_category  category for scripts created without an explicit one
# default_version   version stamped on new scripts
# lock_timeout      how long mutating commands wait for the repository lock
# editor            editor command for 'pqhub edit' (falls back to $EDITOR)

default_category: Uncategorized
default_version: "1.0"
lock_timeout: 5s
editor: ""
`

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a pqhub repository",
	Long: `Initialize a pqhub repository: the config file, an empty index
snapshot, and the default category folder.

With no argument the repository is created at --repo, $PQHUB_REPO, or the
working directory. Running init on an existing repository is safe; present
files are left untouched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, args []string) error {
	// ── 1. Resolve the repository root ────────────────────────────────────────
	var root string
	if len(args) == 1 {
		root = args[0]
	} else {
		var err error
		root, err = repoRoot()
		if err != nil {
			return err
		}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("cannot resolve %s: %w", root, err)
	}

	printSection("pqhub init")

	// ── 2. Create the root directory ──────────────────────────────────────────
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", abs, err)
	}
	printOK("", fmt.Sprintf("Repository directory ready: %s", abs))

	// ── 3. Write pqhub.yaml if missing ────────────────────────────────────────
	cfgPath := filepath.Join(abs, config.FileName)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := os.WriteFile(cfgPath, []byte(configTemplate), 0o644); err != nil {
			return fmt.Errorf("cannot write %s: %w", cfgPath, err)
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	// ── 4. Write an empty index snapshot if missing ───────────────────────────
	idxPath := filepath.Join(abs, index.SnapshotFile)
	if _, err := os.Stat(idxPath); os.IsNotExist(err) {
		if err := os.WriteFile(idxPath, nil, 0o644); err != nil {
			return fmt.Errorf("cannot write %s: %w", idxPath, err)
		}
		printOK("", fmt.Sprintf("Index snapshot written: %s", idxPath))
	} else {
		printSkip("", fmt.Sprintf("Index snapshot already exists: %s", idxPath))
	}

	// ── 5. Create the default category folder ─────────────────────────────────
	cfg, err := config.Load(abs)
	if err != nil {
		return err
	}
	catDir := filepath.Join(abs, cfg.DefaultCategory)
	if _, err := os.Stat(catDir); os.IsNotExist(err) {
		if err := os.MkdirAll(catDir, 0o755); err != nil {
			return fmt.Errorf("cannot create %s: %w", catDir, err)
		}
		printOK("", fmt.Sprintf("Category folder created: %s/", cfg.DefaultCategory))
	} else {
		printSkip("", fmt.Sprintf("Category folder already exists: %s/", cfg.DefaultCategory))
	}

	fmt.Println("\n✓  pqhub init complete. Run 'pqhub new' to add your first script.")
	return nil
}

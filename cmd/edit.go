package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/pqhub/pqhub-cli/internal/repo"
)

var (
	flagEditName     string
	flagEditCategory string
	flagEditTags     []string
	flagEditDeps     []string
	flagEditDesc     string
	flagEditVersion  string
	flagEditFromFile string
	flagEditOpen     bool
)

var editCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Change a script's metadata or body",
	Long: `Update header fields or the M body of a script. Changing the category
moves the file to the new category folder; changing the name renames it.

With no flags, every field is prompted for with its current value as the
default. --editor opens the body in the editor from pqhub.yaml or $EDITOR.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&flagEditName, "name", "", "Rename the script")
	editCmd.Flags().StringVar(&flagEditCategory, "category", "", "Move to another category")
	editCmd.Flags().StringSliceVar(&flagEditTags, "tags", nil, "Replace tags, comma separated")
	editCmd.Flags().StringSliceVar(&flagEditDeps, "deps", nil, "Replace dependencies, comma separated")
	editCmd.Flags().StringVar(&flagEditDesc, "description", "", "Replace the description")
	editCmd.Flags().StringVar(&flagEditVersion, "version", "", "Replace the version")
	editCmd.Flags().StringVar(&flagEditFromFile, "from-file", "", "Replace the body with the contents of a file")
	editCmd.Flags().BoolVar(&flagEditOpen, "editor", false, "Open the body in your editor")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	if flagEditFromFile != "" && flagEditOpen {
		return errors.New("cannot combine --from-file and --editor")
	}

	r, err := openRepo()
	if err != nil {
		return err
	}

	rec, err := r.Record(args[0])
	if err != nil {
		return err
	}
	oldEntry, _ := r.Get(rec.Name)

	edit := repo.Edit{}
	flags := cmd.Flags()
	changed := false
	if flags.Changed("name") {
		edit.Name = &flagEditName
		changed = true
	}
	if flags.Changed("category") {
		edit.Category = &flagEditCategory
		changed = true
	}
	if flags.Changed("tags") {
		edit.Tags = &flagEditTags
		changed = true
	}
	if flags.Changed("deps") {
		edit.Dependencies = &flagEditDeps
		changed = true
	}
	if flags.Changed("description") {
		edit.Description = &flagEditDesc
		changed = true
	}
	if flags.Changed("version") {
		edit.Version = &flagEditVersion
		changed = true
	}
	if flagEditFromFile != "" {
		raw, err := os.ReadFile(flagEditFromFile)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", flagEditFromFile, err)
		}
		body := string(raw)
		edit.Body = &body
		changed = true
	}
	if flagEditOpen {
		body, err := openEditor(r.Config().Editor, rec.Body)
		if err != nil {
			return err
		}
		edit.Body = &body
		changed = true
	}

	if !changed {
		if err := promptEdit(r, rec.Name, &edit); err != nil {
			return err
		}
	}

	updated, err := r.Update(cmd.Context(), rec.Name, edit)
	if err != nil {
		return err
	}

	printOK(updated.Name, "updated")
	if newEntry, ok := r.Get(updated.Name); ok && newEntry.Path != oldEntry.Path {
		printInfo(updated.Name, fmt.Sprintf("moved %s → %s", oldEntry.Path, newEntry.Path))
	}
	return nil
}

// promptEdit walks every field interactively, pre-filled with current
// values. Only answers that differ from the current value are applied.
func promptEdit(r *repo.Repo, name string, edit *repo.Edit) error {
	rec, err := r.Record(name)
	if err != nil {
		return err
	}

	ask := func(message, current string) (string, error) {
		var answer string
		err := survey.AskOne(&survey.Input{Message: message, Default: current}, &answer)
		return answer, err
	}

	if v, err := ask("Name:", rec.Name); err != nil {
		return err
	} else if v != rec.Name {
		edit.Name = &v
	}
	if v, err := ask("Category:", rec.Category); err != nil {
		return err
	} else if v != rec.Category {
		edit.Category = &v
	}
	if v, err := ask("Description:", rec.Description); err != nil {
		return err
	} else if v != rec.Description {
		edit.Description = &v
	}
	if v, err := ask("Version:", rec.Version); err != nil {
		return err
	} else if v != rec.Version {
		edit.Version = &v
	}
	curTags := strings.Join(rec.Tags, ", ")
	if v, err := ask("Tags (comma separated):", curTags); err != nil {
		return err
	} else if v != curTags {
		tags := splitList(v)
		edit.Tags = &tags
	}
	curDeps := strings.Join(rec.Dependencies, ", ")
	if v, err := ask("Dependencies (comma separated):", curDeps); err != nil {
		return err
	} else if v != curDeps {
		deps := splitList(v)
		edit.Dependencies = &deps
	}

	editBody := false
	if err := survey.AskOne(&survey.Confirm{Message: "Edit body in editor?", Default: false}, &editBody); err != nil {
		return err
	}
	if editBody {
		body, err := openEditor(r.Config().Editor, rec.Body)
		if err != nil {
			return err
		}
		edit.Body = &body
	}
	return nil
}

// splitList turns a comma-separated answer into a clean slice.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// openEditor writes body to a temp file, runs the editor on it, and
// returns the edited contents. The editor command comes from pqhub.yaml,
// falling back to $EDITOR.
func openEditor(command, body string) (string, error) {
	if command == "" {
		command = os.Getenv("EDITOR")
	}
	words, err := shellquote.Split(command)
	if err != nil {
		return "", fmt.Errorf("cannot parse editor command %q: %w", command, err)
	}
	if len(words) == 0 {
		return "", errors.New("no editor configured: set editor in pqhub.yaml or $EDITOR")
	}

	f, err := os.CreateTemp("", "pqhub-*.pq")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	defer os.Remove(tmp)
	if _, err := f.WriteString(body); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	c := exec.Command(words[0], append(words[1:], tmp)...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("editor %s failed: %w", words[0], err)
	}

	edited, err := os.ReadFile(tmp)
	if err != nil {
		return "", err
	}
	return string(edited), nil
}

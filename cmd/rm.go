package cmd

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

var flagRmForce bool

var rmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a script from the repository",
	Long: `Remove a script file and its index entry. Deletion is refused while
other scripts declare a dependency on it; --force deletes anyway and skips
the confirmation prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&flagRmForce, "force", "f", false, "Delete without confirmation, even when depended on")
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	name := args[0]
	if !flagRmForce {
		prompt := fmt.Sprintf("Delete %q?", name)
		if e, ok := r.Get(name); ok {
			prompt = fmt.Sprintf("Delete %q (%s)?", e.Name, e.Path)
		}
		confirm := false
		if err := survey.AskOne(&survey.Confirm{Message: prompt, Default: false}, &confirm); err != nil {
			return err
		}
		if !confirm {
			printSkip(name, "not deleted")
			return nil
		}
	}

	if err := r.Remove(cmd.Context(), name, flagRmForce); err != nil {
		return err
	}
	printOK(name, "deleted")
	return nil
}

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/pqhub/pqhub-cli/internal/repo"
)

var (
	flagNewCategory string
	flagNewTags     []string
	flagNewDeps     []string
	flagNewDesc     string
	flagNewVersion  string
	flagNewFromFile string
)

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Add a script to the repository",
	Long: `Create a script file under its category folder and register it in the
index. Name and body are prompted for when not given on the command line.

Unless --deps is set, dependencies are detected from the body: any call to
another script in the repository is declared automatically.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNew,
}

func init() {
	newCmd.Flags().StringVar(&flagNewCategory, "category", "", "Category folder (default from pqhub.yaml)")
	newCmd.Flags().StringSliceVar(&flagNewTags, "tags", nil, "Tags, comma separated")
	newCmd.Flags().StringSliceVar(&flagNewDeps, "deps", nil, "Dependencies, comma separated (overrides detection)")
	newCmd.Flags().StringVar(&flagNewDesc, "description", "", "One-line description")
	newCmd.Flags().StringVar(&flagNewVersion, "version", "", "Version (default from pqhub.yaml)")
	newCmd.Flags().StringVar(&flagNewFromFile, "from-file", "", "Read the M body from a file instead of prompting")
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	var name string
	if len(args) == 1 {
		name = args[0]
	} else {
		if err := survey.AskOne(&survey.Input{Message: "Script name:"}, &name, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	var body string
	if flagNewFromFile != "" {
		raw, err := os.ReadFile(flagNewFromFile)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", flagNewFromFile, err)
		}
		body = string(raw)
	} else {
		if err := survey.AskOne(&survey.Multiline{Message: "M expression body:"}, &body, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	deps := flagNewDeps
	if !cmd.Flags().Changed("deps") {
		deps = r.SuggestForBody(body, name)
		for _, d := range deps {
			printInfo("", fmt.Sprintf("detected dependency: %s", d))
		}
	}

	rec, err := r.Create(cmd.Context(), repo.Draft{
		Name:         name,
		Category:     flagNewCategory,
		Tags:         flagNewTags,
		Dependencies: deps,
		Description:  flagNewDesc,
		Version:      flagNewVersion,
		Body:         body,
	})
	if err != nil {
		return err
	}

	detail := fmt.Sprintf("created in %s/", rec.Category)
	if len(rec.Dependencies) > 0 {
		detail += fmt.Sprintf("  (depends on %s)", strings.Join(rec.Dependencies, ", "))
	}
	printOK(rec.Name, detail)
	return nil
}

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pqhub/pqhub-cli/internal/resolve"
	"github.com/pqhub/pqhub-cli/internal/workbook"
)

var (
	flagInsertOut     string
	flagInsertNoDeps  bool
	flagInsertPartial bool
)

var insertCmd = &cobra.Command{
	Use:   "insert <name>...",
	Short: "Write scripts and their dependencies as a query document",
	Long: `Assemble the named scripts into one text document, each query preceded
by a comment header, and write it to stdout or to -o. Dependencies are
included first, in load order, unless --no-deps.

The output is ready to paste into the Power Query editor.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInsert,
}

func init() {
	insertCmd.Flags().StringVarP(&flagInsertOut, "out", "o", "", "Write to a file instead of stdout")
	insertCmd.Flags().BoolVar(&flagInsertNoDeps, "no-deps", false, "Only the named scripts, in the given order")
	insertCmd.Flags().BoolVar(&flagInsertPartial, "partial", false, "Skip unresolved dependencies instead of failing")
	rootCmd.AddCommand(insertCmd)
}

func runInsert(cmd *cobra.Command, args []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	var queries []workbook.Query
	if flagInsertNoDeps {
		queries, err = r.Bodies(args)
		if err != nil {
			return err
		}
	} else {
		var res *resolve.Resolution
		queries, res, err = r.OrderedBodies(args, resolve.Options{Partial: flagInsertPartial})
		if err != nil {
			return err
		}
		for _, o := range res.Omitted {
			logger.Warn("dependency omitted", "name", o.Name, "requiredBy", o.MissingFrom)
		}
	}

	descriptions := make(map[string]string, len(queries))
	for _, q := range queries {
		if e, ok := r.Get(q.Name); ok && e.Description != "" {
			descriptions[q.Name] = e.Description
		}
	}

	out := io.Writer(os.Stdout)
	var f *os.File
	if flagInsertOut != "" {
		f, err = os.Create(flagInsertOut)
		if err != nil {
			return fmt.Errorf("cannot create %s: %w", flagInsertOut, err)
		}
		defer f.Close()
		out = f
	}

	rep, err := r.Push(cmd.Context(), workbook.StreamSink{W: out, Descriptions: descriptions}, queries)
	if err != nil {
		return err
	}
	if failed := rep.Failed(); len(failed) > 0 {
		for _, res := range failed {
			printErr(res.Name, res.Err.Error())
		}
		return fmt.Errorf("%d query(s) could not be written", len(failed))
	}

	if f != nil {
		if err := f.Close(); err != nil {
			return fmt.Errorf("cannot write %s: %w", flagInsertOut, err)
		}
		printOK("", fmt.Sprintf("%d query(s) written to %s", len(queries), flagInsertOut))
	}
	return nil
}

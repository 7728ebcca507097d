package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/planfile/planfile/doc"
	"github.com/planfile/planfile/parser"
	"github.com/planfile/planfile/syntax"
	"github.com/spf13/cobra"
)

var docFlags = struct {
	project *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "doc [keyword]",
		Short: "Print the keyword reference",
		Example: `  planfile doc task
  planfile doc --project acme.plan delivered`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDoc,
	}
	docFlags.project = cmd.Flags().StringP("project", "p", "", "plan file whose extension attributes are included in the reference")
	rootCmd.AddCommand(cmd)
}

func runDoc(cmd *cobra.Command, args []string) error {
	var g *parser.Grammar
	var err error
	if *docFlags.project != "" {
		_, g, err = syntax.ParseFileWithGrammar(*docFlags.project)
	} else {
		g, err = syntax.Build()
	}
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ref, err := doc.Build(g, logger)
	if err != nil {
		return err
	}
	if err := ref.CrossReference(); err != nil {
		return err
	}

	if len(args) == 1 {
		e, ok := ref.Entry(args[0])
		if !ok {
			return fmt.Errorf("Keyword '%v' is not documented", args[0])
		}
		fmt.Fprint(os.Stdout, ref.Render(e))
		return nil
	}

	for _, e := range ref.Entries() {
		fmt.Fprintf(os.Stdout, "%-18v %v\n", e.Keyword, e.Purpose)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/planfile/planfile/doc"
	"github.com/planfile/planfile/syntax"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "check",
		Short:   "Check the grammar and its documentation for integrity",
		Example: `  planfile check`,
		Args:    cobra.NoArgs,
		RunE:    runCheck,
	}
	rootCmd.AddCommand(cmd)
}

// countingHandler forwards records to the wrapped handler and counts them,
// so documentation warnings can fail the check.
type countingHandler struct {
	slog.Handler
	count *int
}

func (h countingHandler) Handle(ctx context.Context, r slog.Record) error {
	*h.count++
	return h.Handler.Handle(ctx, r)
}

func runCheck(cmd *cobra.Command, args []string) error {
	g, err := syntax.Build()
	if err != nil {
		return err
	}

	var warnings int
	h := countingHandler{
		Handler: slog.NewTextHandler(os.Stderr, nil),
		count:   &warnings,
	}
	ref, err := doc.Build(g, slog.New(h))
	if err != nil {
		return err
	}
	if err := ref.CrossReference(); err != nil {
		return err
	}
	if warnings > 0 {
		return fmt.Errorf("Documentation check reported %v warnings", warnings)
	}

	fmt.Fprintf(os.Stdout, "%v rules, %v documented keywords\n", len(g.Rules()), len(ref.Keywords()))
	return nil
}

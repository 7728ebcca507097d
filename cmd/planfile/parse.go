package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/planfile/planfile/project"
	"github.com/planfile/planfile/syntax"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

var parseFlags = struct {
	quiet *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <plan file path>",
		Short:   "Parse a plan file and print its property trees",
		Example: `  planfile parse acme.plan`,
		Args:    cobra.ExactArgs(1),
		RunE:    runParse,
	}
	parseFlags.quiet = cmd.Flags().BoolP("quiet", "q", false, "suppress output on success")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	proj, err := syntax.ParseFile(args[0])
	if err != nil {
		return err
	}
	if *parseFlags.quiet {
		return nil
	}

	fmt.Fprintf(os.Stdout, "project %v %#v", proj.ID, proj.Name)
	if proj.Version != "" {
		fmt.Fprintf(os.Stdout, " %#v", proj.Version)
	}
	fmt.Fprintf(os.Stdout, " %v - %v\n", proj.Start.Format(dateLayout), proj.End.Format(dateLayout))

	var scns []string
	for _, sc := range proj.Scenarios() {
		scns = append(scns, sc.ID)
	}
	fmt.Fprintf(os.Stdout, "scenarios: %v\n", strings.Join(scns, ", "))

	if proj.Tasks.Len() > 0 {
		fmt.Fprintf(os.Stdout, "\ntasks:\n")
		for _, root := range proj.Tasks.Roots() {
			project.PrintTree(os.Stdout, root)
		}
	}
	if proj.Resources.Len() > 0 {
		fmt.Fprintf(os.Stdout, "\nresources:\n")
		for _, root := range proj.Resources.Roots() {
			project.PrintTree(os.Stdout, root)
		}
	}
	if len(proj.Reports) > 0 {
		fmt.Fprintf(os.Stdout, "\nreports:\n")
		for _, r := range proj.Reports {
			fmt.Fprintf(os.Stdout, "%v %v %#v\n", r.Kind, r.ID, r.FileName)
		}
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/planfile/planfile/tester"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "test <case file path>|<case directory path>",
		Short:   "Run file-driven test cases against the parser",
		Example: `  planfile test cases/`,
		Args:    cobra.ExactArgs(1),
		RunE:    runTest,
	}
	rootCmd.AddCommand(cmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	cs := tester.ListCases(args[0])
	errOccurred := false
	for _, c := range cs {
		if c.Error != nil {
			fmt.Fprintf(os.Stderr, "Failed to read a test case or a directory: %v\n%v\n", c.FilePath, c.Error)
			errOccurred = true
		}
	}
	if errOccurred {
		return errors.New("Cannot run test")
	}

	t := &tester.Tester{
		Cases: cs,
	}
	rs := t.Run()
	passed := 0
	for _, r := range rs {
		fmt.Fprintln(os.Stdout, r)
		if r.Error == nil {
			passed++
		}
	}
	fmt.Fprintf(os.Stdout, "%v/%v passed\n", passed, len(rs))
	if passed < len(rs) {
		return errors.New("Test failed")
	}
	return nil
}

package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "planfile",
	Short: "Read, check and document project plan files",
	Long: `planfile reads project plan files: tasks, resources, allocations,
dependencies, scenarios and reports. It prints the parsed property trees,
renders the keyword reference the grammar documents itself with, checks the
grammar, and runs file-driven test cases.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}

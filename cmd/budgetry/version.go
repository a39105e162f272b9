package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/budgetry"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of budgetry",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("budgetry version %s\n", budgetry.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

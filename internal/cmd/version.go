package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the galleria version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("galleria", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Package cmd defines the galleria command-line interface.
package cmd

import (
	"github.com/spf13/cobra"

	"galleria/internal/log"
)

var (
	debug      bool
	configName string
)

var rootCmd = &cobra.Command{
	Use:   "galleria",
	Short: "Browse, tag, and sort image directories",
	Long: `Galleria keeps a directory of images organized: a sorted, filtered,
paginated view, category tags bound to hotkeys, and a single-image viewer.
State is stored in a small YAML file inside the directory itself.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetDebug(debug)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configName, "config", "", "gallery state filename (default .galleria.yaml)")
}

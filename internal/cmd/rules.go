package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"galleria/internal/engine"
	"galleria/internal/rules"
)

var rulesFile string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Apply glob-based auto-categorization rules",
}

var rulesApplyCmd = &cobra.Command{
	Use:   "apply <directory>",
	Short: "Assign categories to images matching rule patterns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := rules.Load(rulesFile)
		if err != nil {
			return err
		}

		eng := engine.New(engine.WithConfigStore(galleryStore()))
		if err := eng.Open(args[0]); err != nil {
			return err
		}
		snap := eng.Snapshot()

		applied, err := rs.Apply(eng.Images(), snap.Assignments, assignerFunc(eng.AssignCategory))
		if err != nil {
			return err
		}
		fmt.Printf("applied %d assignments\n", applied)
		return nil
	},
}

type assignerFunc func(path, categoryID string) error

func (f assignerFunc) Assign(path, categoryID string) error {
	return f(path, categoryID)
}

func init() {
	rulesApplyCmd.Flags().StringVar(&rulesFile, "rules", "galleria-rules.yaml", "rules file (YAML)")
	rulesCmd.AddCommand(rulesApplyCmd)
	rootCmd.AddCommand(rulesCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"galleria/internal/engine"
	"galleria/pkg/types"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Manage the category list of a directory",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list [directory]",
	Short: "List categories and assignment counts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		eng := engine.New(engine.WithConfigStore(galleryStore()))
		if err := eng.Open(dir); err != nil {
			return err
		}
		snap := eng.Snapshot()
		if len(snap.Categories) == 0 {
			fmt.Println("no categories defined")
			return nil
		}
		counts := map[string]int{}
		for _, assignments := range snap.Assignments {
			for _, a := range assignments {
				counts[a.CategoryID]++
			}
		}
		for _, c := range snap.Categories {
			fmt.Printf("%-20s %-10s %d images\n", c.Name, c.ID, counts[c.ID])
		}
		return nil
	},
}

var categoryColor string

var categoriesAddCmd = &cobra.Command{
	Use:   "add <directory> <id> <name>",
	Short: "Add a category",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng := engine.New(engine.WithConfigStore(galleryStore()))
		if err := eng.Open(args[0]); err != nil {
			return err
		}
		return eng.AddCategory(types.Category{ID: args[1], Name: args[2], Color: categoryColor})
	},
}

var categoriesDeleteCmd = &cobra.Command{
	Use:   "delete <directory> <id>",
	Short: "Delete a category, its assignments, and scrub its hotkeys",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng := engine.New(engine.WithConfigStore(galleryStore()))
		if err := eng.Open(args[0]); err != nil {
			return err
		}
		return eng.DeleteCategory(args[1])
	},
}

func init() {
	categoriesAddCmd.Flags().StringVar(&categoryColor, "color", "#7B61FF", "category color (hex)")
	categoriesCmd.AddCommand(categoriesListCmd, categoriesAddCmd, categoriesDeleteCmd)
	rootCmd.AddCommand(categoriesCmd)
}

package cmd

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"galleria/internal/config"
	"galleria/internal/engine"
	"galleria/internal/log"
	"galleria/internal/tui"
	"galleria/internal/watch"
)

var browseCmd = &cobra.Command{
	Use:   "browse [directory]",
	Short: "Open the interactive gallery browser",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		eng := engine.New(engine.WithConfigStore(galleryStore()))
		if err := eng.Open(dir); err != nil {
			return fmt.Errorf("cannot open %s: %w", dir, err)
		}

		watcher, err := watch.New(dir)
		if err != nil {
			log.With(log.F("directory", dir), log.F("error", err)).
				Warn("directory watching disabled")
		} else {
			watcher.Start()
			defer watcher.Stop()
			go func() {
				for ev := range watcher.Events() {
					switch ev.Op {
					case watch.Added:
						eng.AddImage(engine.StatImage(ev.Path))
					case watch.Removed:
						eng.RemoveImage(ev.Path)
					}
				}
			}()
		}

		// The TUI owns the terminal; logs would tear the screen.
		log.SetOutput(io.Discard)
		defer log.SetOutput(os.Stderr)

		p := tea.NewProgram(tui.New(eng), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func galleryStore() config.Store {
	store := config.NewFileStore()
	if configName != "" {
		store.Filename = configName
	}
	return store
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

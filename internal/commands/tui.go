package commands

import (
	"context"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"weekcal/internal/config"
	appLog "weekcal/internal/log"
	"weekcal/internal/tui"
)

func addTUI(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive week view.",
		Example: `
weekcal tui
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}

			// The alt screen owns the terminal; logs go to a file instead.
			dir, err := config.ExpandPath(a.cfg.CacheDir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return err
			}
			f, err := os.OpenFile(filepath.Join(dir, "tui.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				return err
			}
			defer f.Close()
			appLog.SetOutput(f)

			m := tui.New(context.Background(), a.engine, a.src, a.cfg.Users)
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}

	topLevel.AddCommand(cmd)
}

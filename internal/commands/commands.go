package commands

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "weekcal",
		Short:        "A Monday-to-Sunday week calendar for task feeds.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.config/weekcal/config.yaml).")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level: debug, info, warn or error.")

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addServe(topLevel)
	addWeek(topLevel)
	addTUI(topLevel)
	addCapture(topLevel)
	addVersion(topLevel)
}

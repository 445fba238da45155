package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"weekcal/internal/capture"
	appLog "weekcal/internal/log"
	"weekcal/internal/web"
)

func addCapture(topLevel *cobra.Command) {
	var output string
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Screenshot the current week page to a PNG once and exit.",
		Example: `
weekcal capture
weekcal capture --output ./week.png
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			if output != "" {
				a.cfg.Capture.Output = output
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			srv := web.NewServer(a.cfg, a.engine, a.src, nil)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Run(ctx) }()
			if err := waitHealthy(ctx, "http://"+a.cfg.Listen+"/health", errCh); err != nil {
				return err
			}

			opts, err := capture.FromConfig(a.cfg.Capture)
			if err != nil {
				return err
			}
			if err := capture.CalendarPNG(ctx, opts); err != nil {
				return err
			}
			appLog.Info("capture done", "path", opts.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG path (overrides config if set).")
	topLevel.AddCommand(cmd)
}

// waitHealthy polls url until the in-process server answers.
func waitHealthy(ctx context.Context, url string, errCh <-chan error) error {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case err := <-errCh:
			return fmt.Errorf("server exited before capture: %w", err)
		default:
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server at %s not healthy in time", url)
}

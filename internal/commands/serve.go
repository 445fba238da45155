package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"weekcal/internal/capture"
	appLog "weekcal/internal/log"
	"weekcal/internal/scheduler"
	"weekcal/internal/web"
)

func addServe(topLevel *cobra.Command) {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the week layout over HTTP and keep it fresh on a schedule.",
		Example: `
weekcal serve
weekcal serve --listen 0.0.0.0:8080
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			if listen != "" {
				a.cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sched := scheduler.New(a.engine, a.src, a.cfg.Users)
			if a.cfg.Capture.Enabled {
				sched.AfterRefresh = captureAfterRefresh(a)
			}

			srv := web.NewServer(a.cfg, a.engine, a.src, sched)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Run(ctx) }()

			if err := sched.Start(ctx, a.cfg.RefreshCron, a.cfg.NowTickCron); err != nil {
				stop()
				<-errCh
				return err
			}
			defer sched.Stop(5 * time.Second)

			err = <-errCh
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			appLog.Info("weekcal exiting")
			return err
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set).")
	topLevel.AddCommand(cmd)
}

// captureAfterRefresh screenshots the week page in the background. A capture
// still running when the next refresh lands is not started twice.
func captureAfterRefresh(a *app) func(ctx context.Context) {
	var running sync.Mutex
	return func(ctx context.Context) {
		if !running.TryLock() {
			appLog.Debug("capture already running; skipping")
			return
		}
		go func() {
			defer running.Unlock()
			opts, err := capture.FromConfig(a.cfg.Capture)
			if err != nil {
				appLog.Error("capture config invalid", err)
				return
			}
			if err := capture.CalendarPNG(ctx, opts); err != nil {
				appLog.Error("capture failed", err, "url", opts.URL)
			}
		}()
	}
}

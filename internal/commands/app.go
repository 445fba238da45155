package commands

import (
	"path/filepath"
	"time"

	"weekcal/internal/civil"
	"weekcal/internal/config"
	"weekcal/internal/ics"
	"weekcal/internal/layout"
	appLog "weekcal/internal/log"
	"weekcal/internal/source"
)

// sourceTTL bounds how long a listed week is reused between refreshes.
const sourceTTL = 30 * time.Second

// app is everything a subcommand needs, built from one config file.
type app struct {
	cfg    *config.Config
	clock  civil.Clock
	engine *layout.Engine
	src    *source.Cached
}

func loadApp() (*app, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(level))

	clock := cfg.Clock()
	src, err := buildSource(cfg, clock)
	if err != nil {
		return nil, err
	}

	appLog.Info("effective config",
		"config_path", path,
		"listen", cfg.Listen,
		"timezone", clock.Location().String(),
		"refresh", cfg.RefreshCron,
		"now_tick", cfg.NowTickCron,
		"feeds", len(cfg.Feeds),
		"tasks_file", cfg.TasksFile,
	)

	return &app{
		cfg:    cfg,
		clock:  clock,
		engine: layout.NewEngine(clock),
		src:    src,
	}, nil
}

// buildSource joins the configured feeds and the optional task file.
func buildSource(cfg *config.Config, clock civil.Clock) (*source.Cached, error) {
	var multi source.Multi

	if len(cfg.Feeds) > 0 {
		cacheDir, err := config.ExpandPath(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		feeds := make([]ics.Feed, 0, len(cfg.Feeds))
		for _, f := range cfg.Feeds {
			if f.URL == "" {
				continue
			}
			feeds = append(feeds, ics.Feed{ID: f.ID, URL: f.URL, Name: f.Name, Assignee: f.Assignee})
		}
		fetcher := ics.NewFetcher(filepath.Join(cacheDir, "ics"))
		multi = append(multi, ics.NewSource(fetcher, feeds, clock.Location()))
	}

	if cfg.TasksFile != "" {
		path, err := config.ExpandPath(cfg.TasksFile)
		if err != nil {
			return nil, err
		}
		multi = append(multi, source.File{Path: path})
	}

	return source.NewCached(multi, sourceTTL), nil
}

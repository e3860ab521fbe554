// Package main provides the entry point for the LayerCanvas application.
package main

import (
	"flag"
	"log/slog"
	"os"

	"layercanvas/internal/app"
	"layercanvas/internal/config"
	"layercanvas/internal/generate"
	"layercanvas/internal/version"
	"layercanvas/ui/canvas"
	"layercanvas/ui/mainwindow"
	"layercanvas/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const appID = "io.layercanvas"

var (
	flagConfig = flag.String("config", "", "Configuration file (default "+config.DefaultPath+")")
	flagWatch  = flag.String("watch", "", "Folder to watch for new images, overrides the config")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		slog.Error("load config", "err", err)
		cfg = config.Default()
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)
	logger.Info("starting", "version", version.Version, "config", cfg.Path())

	session := app.NewSession(
		app.WithCanvasSize(cfg.Canvas.Width, cfg.Canvas.Height),
		app.WithHistoryLimit(cfg.History.Limit),
		app.WithRenderOptions(cfg.RenderOptions()),
		app.WithLogger(logger),
	)
	guard := canvas.NewGuard(session)

	var store *generate.Store
	if path := config.Expand(cfg.Generation.HistoryDB); path != "" {
		store, err = generate.OpenStore(path)
		if err != nil {
			logger.Warn("generation history unavailable", "path", path, "err", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	a := fyneapp.NewWithID(appID)
	win := mainwindow.New(a, guard, mainwindow.Options{
		Config: cfg,
		Prefs:  prefs.Load(""),
		Logger: logger,
		Store:  store,
	})

	// Images named on the command line are placed in order.
	if paths := flag.Args(); len(paths) > 0 {
		guard.Do(func(s *app.Session) {
			if _, err := s.LoadAll(paths); err != nil {
				logger.Warn("load images", "err", err)
			}
		})
	}

	watch := cfg.Watch.Dir
	if *flagWatch != "" {
		watch = *flagWatch
	}
	if watch != "" {
		if err := win.Watch(config.Expand(watch)); err != nil {
			logger.Warn("watch folder", "dir", watch, "err", err)
		}
	}

	win.ShowAndRun()
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pagebind/pagebind/config"
	"github.com/pagebind/pagebind/server"
	"github.com/pagebind/pagebind/site"
	"github.com/pagebind/pagebind/templatex"
)

func main() {
	cfgPath := flag.String("config", "config.json", "path to configuration file")
	buildFlag := flag.Bool("build", false, "build the site and exit (default)")
	serveFlag := flag.Bool("serve", false, "build with drafts and serve a preview")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.LogLevel)

	if *serveFlag && *buildFlag {
		logger.Error("flags -build and -serve are mutually exclusive")
		os.Exit(2)
	}
	if *serveFlag {
		// Previews always include drafts.
		cfg.IncludeDrafts = true
	}

	templates, err := templatex.Load(cfg.TemplateDir)
	if err != nil {
		logger.Error("templates", "error", err)
		os.Exit(1)
	}

	svc := site.NewService(cfg, templates, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serveFlag {
		logger.Info("starting preview", "listen", cfg.Listen)
		srv := server.New(cfg, svc, logger, GENERATOR_SIGNATURE)
		if err := srv.Start(ctx); err != nil {
			logger.Error("server", "error", err)
			os.Exit(1)
		}
		return
	}

	report, err := svc.Build(ctx)
	if err != nil {
		logger.Error("build", "error", err)
		os.Exit(1)
	}
	for _, fileErr := range report.FileErrors {
		logger.Error("content", "file", fileErr.Path, "error", fileErr.Err)
	}
	logger.Info("build completed",
		"output", cfg.OutputDir,
		"pages", report.PagesWritten,
		"listings", report.Listings,
		"draftsSkipped", report.DraftsSkipped,
		"errors", len(report.FileErrors),
	)
	if !report.Ok() {
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/communisafe/communisafe/internal/api"
	"github.com/communisafe/communisafe/internal/app"
	"github.com/communisafe/communisafe/internal/model"
	"github.com/communisafe/communisafe/internal/session"
	"github.com/communisafe/communisafe/internal/store"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "communisafe: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	log, closeLog, err := openLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(log)

	cache, err := openCache(cfg.CachePath)
	if err != nil {
		log.Warn("offline cache unavailable", "path", cfg.CachePath, "error", err)
	} else {
		defer cache.Close()
	}

	client := api.NewClient(cfg.Server.BaseURL, "", api.WithLogger(log))
	geocoder := api.NewGeocoder(cfg.Server.GeocoderURL)

	sessions := session.NewStore(session.DefaultProfilePath())
	var restored *session.Session
	if sess, err := sessions.Load(); err == nil {
		restored = &sess
	} else if !errors.Is(err, session.ErrNoSession) {
		log.Warn("restoring session failed", "error", err)
	}

	root := app.New(app.Config{
		AppConfig: cfg,
		Client:    client,
		Geocoder:  geocoder,
		Cache:     cache,
		Sessions:  sessions,
		Restored:  restored,
		Log:       log,
	})

	program := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

// openLogger sends diagnostics to the configured file. The TUI owns
// stdout, so the file is the only destination.
func openLogger(cfg model.LogConfig) (*slog.Logger, func(), error) {
	var out io.Writer = io.Discard
	closeFn := func() {}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file %s: %w", cfg.File, err)
		}
		out = f
		closeFn = func() { f.Close() }
	}

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closeFn, nil
}

// openCache opens the SQLite offline cache, creating its directory.
func openCache(path string) (store.Cache, error) {
	if path == "" {
		return nil, errors.New("no cache path configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	cache, err := store.NewSQLiteCache(path)
	if err != nil {
		return nil, err
	}
	return cache, nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ymori/salesdesk/internal/app"
	"github.com/ymori/salesdesk/internal/auth"
	"github.com/ymori/salesdesk/internal/blob"
	"github.com/ymori/salesdesk/internal/customers"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/notify"
	"github.com/ymori/salesdesk/internal/store"
	"github.com/ymori/salesdesk/internal/tasks"
	"github.com/ymori/salesdesk/internal/threads"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "salesdesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	// The terminal owns stdout; structured logs go to a file next to
	// the database.
	logger, closeLog, err := openLogger(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	objects, err := blob.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("opening object storage: %w", err)
	}

	provider, err := auth.NewLocal(context.Background(), st, auth.KeyringSessionStore{})
	if err != nil {
		return fmt.Errorf("initializing auth: %w", err)
	}

	timeout := time.Duration(cfg.Database.TimeoutSec) * time.Second
	dispatcher := notify.NewDispatcher(st, logger)

	deps := app.Deps{
		Store:     st,
		Auth:      provider,
		Tasks:     tasks.NewService(st, dispatcher, nil, timeout),
		Threads:   threads.NewService(st, dispatcher, timeout),
		Customers: customers.NewService(st, timeout),
		Blob:      objects,
	}

	program := tea.NewProgram(app.New(deps), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

// openLogger writes slog output to salesdesk.log beside the database file.
func openLogger(dbPath string) (*slog.Logger, func(), error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(
		filepath.Join(dir, "salesdesk.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0o644,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	return logger, func() { f.Close() }, nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/vidyasagar/gsurf/internal/app"
	"github.com/vidyasagar/gsurf/internal/browser"
	"github.com/vidyasagar/gsurf/internal/storage"
	"github.com/vidyasagar/gsurf/internal/theme"
	"github.com/vidyasagar/gsurf/internal/tofu"
	"github.com/vidyasagar/gsurf/internal/ui"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "gsurf [url]",
		Short: "gsurf - a terminal client for the Gemini protocol",
		Example: `  gsurf                                # open the configured homepage
  gsurf gemini://geminiprotocol.net/    # open a URL
  gsurf geminiprotocol.net/docs/        # gemini:// is implied`,
		Version:      version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args)
		},
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := storage.LoadConfig()
	if err != nil {
		return err
	}

	if !theme.Set(cfg.Theme) {
		return fmt.Errorf("unknown theme %q, available: %v", cfg.Theme, theme.List())
	}

	logFile, err := openLog()
	if err != nil {
		return err
	}
	defer logFile.Close()

	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: cfg.Level()})))

	target := cfg.Homepage
	if len(args) == 1 {
		target = args[0]
	}
	startURL, err := ui.ParseTarget(target)
	if err != nil {
		return err
	}

	db, err := storage.OpenDB(storage.DataDir())
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("Starting gsurf", "version", version, "url", startURL.String(), "db", db.Path())

	prompter := app.NewPrompter()
	fetcher := browser.NewFetcher(tofu.NewVerifier(storage.NewCertStore(db)), prompter)

	p := tea.NewProgram(app.New(fetcher, prompter, startURL),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		slog.Error("Program failed", "error", err)
		return err
	}
	return nil
}

func openLog() (*os.File, error) {
	dir := storage.StateDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, "gsurf.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}
	return f, nil
}

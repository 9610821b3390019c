// Package cmd implements the CLI commands for loginchallenge.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/loginchallenge/internal/config"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "loginchallenge",
	Short: "Terminal login screen backed by a demo authentication service",
	Long: `loginchallenge shows an ID/password login screen in the terminal and,
on success, the logged-in user's profile.

Examples:
  # Log in against the configured server
  loginchallenge

  # Run with an in-process demo server (koher / 1234)
  loginchallenge login --embedded

  # Run the demo server on its own
  loginchallenge serve

  # Script a login
  echo 1234 | loginchallenge login --headless --id koher --password-stdin`,
	SilenceUsage: true,
	RunE:         runLogin,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/loginchallenge/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	addLoginFlags(rootCmd)
}

// Execute runs the root command with signal-aware cancellation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openLogFile opens the TUI log file under the data directory. The TUI owns
// the terminal, so nothing may be logged to stderr while it runs.
func openLogFile() (*os.File, error) {
	dir := config.DataDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "loginchallenge.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

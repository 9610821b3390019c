package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/loginchallenge/internal/auth"
	"github.com/Dicklesworthstone/loginchallenge/internal/config"
	"github.com/Dicklesworthstone/loginchallenge/internal/diag"
	"github.com/Dicklesworthstone/loginchallenge/internal/login"
	"github.com/Dicklesworthstone/loginchallenge/internal/tui"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Show the login screen (default command)",
	Long: `Show the login screen. On success the logged-in user's profile is shown.

With --headless no screen is drawn: the ID comes from --id and the password
from stdin (prompted without echo when stdin is a terminal). The exit status
is non-zero when the login fails.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var (
	loginEmbedded      bool
	loginHeadless      bool
	loginID            string
	loginPasswordStdin bool
	loginServerURL     string
)

func init() {
	rootCmd.AddCommand(loginCmd)
	addLoginFlags(loginCmd)
}

func addLoginFlags(c *cobra.Command) {
	c.Flags().BoolVar(&loginEmbedded, "embedded", false, "run the demo server in-process")
	c.Flags().BoolVar(&loginHeadless, "headless", false, "log in without drawing the screen")
	c.Flags().StringVar(&loginID, "id", "", "ID for --headless")
	c.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "read the password for --headless from stdin")
	c.Flags().StringVar(&loginServerURL, "server", "", "authentication server URL (overrides config)")
}

// ErrLoginFailed is returned by a headless login the server rejected.
var ErrLoginFailed = errors.New("login failed")

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if loginServerURL != "" {
		cfg.ServerURL = loginServerURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	// The TUI owns the terminal; its logs go to a file.
	logOut := cmd.ErrOrStderr()
	if !loginHeadless {
		f, err := openLogFile()
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if loginEmbedded {
		url, stop, err := startEmbedded(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stop()
		cfg.ServerURL = url
	}

	client, err := auth.NewClient(auth.ClientConfig{
		BaseURL: cfg.ServerURL,
		Timeout: cfg.RequestTimeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	sink, closeSink := newSink(ctx, cfg, logger)
	defer closeSink()

	if loginHeadless {
		return runHeadless(ctx, cmd, cfg, client, sink, logger)
	}

	themeOpts := tui.ThemeOptionsFromEnv()
	themeOpts.NoColor = themeOpts.NoColor || cfg.UI.NoColor
	themeOpts.ReducedMotion = themeOpts.ReducedMotion || cfg.UI.ReducedMotion

	return tui.Run(tui.Options{
		Session:         client,
		Sink:            sink,
		RecordDiscarded: cfg.Diagnostics.RecordDiscarded,
		Theme:           themeOpts,
		Logger:          logger,
		Context:         ctx,
	})
}

// startEmbedded serves the demo backend on a random loopback port.
func startEmbedded(ctx context.Context, cfg *config.Config, logger *slog.Logger) (string, func(), error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("listen: %w", err)
	}
	srv, cleanup, err := newBackend(ctx, cfg, l.Addr().String(), logger)
	if err != nil {
		_ = l.Close()
		return "", nil, err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(l) }()

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("embedded server shutdown error", "error", err)
		}
		if err := <-errCh; err != nil {
			logger.Warn("embedded server error", "error", err)
		}
		cleanup()
	}
	return "http://" + l.Addr().String(), stop, nil
}

// newSink always logs failures and, when enabled, stores them in SQLite.
// The returned func flushes pending entries and closes the database.
func newSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (diag.Sink, func()) {
	sinks := diag.Multi{diag.NewLogSink(logger)}
	if !cfg.Diagnostics.Enabled {
		return sinks, func() {}
	}

	d, err := openDiagnostics(ctx, cfg)
	if err != nil {
		logger.Warn("diagnostics database unavailable", "error", err)
		return sinks, func() {}
	}
	store := diag.NewStore(d, logger)
	sinks = append(sinks, store)
	return sinks, func() {
		store.Close()
		_ = d.Close()
	}
}

func runHeadless(ctx context.Context, cmd *cobra.Command, cfg *config.Config, client *auth.Client, sink diag.Sink, logger *slog.Logger) error {
	if !loginPasswordStdin {
		return fmt.Errorf("--headless requires --password-stdin")
	}
	password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var failure *login.Classification
	orch := login.New(login.Config{
		Presenter: login.PresenterFuncs{
			Failed: func(c login.Classification) { failure = &c },
		},
		Sink:            sink,
		RecordDiscarded: cfg.Diagnostics.RecordDiscarded,
		Logger:          logger,
	})
	orch.Appear(loginID, password)

	if !orch.Submit(ctx, client, loginID, password) {
		return fmt.Errorf("ID and password are both required")
	}
	if failure != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", failure.Title, failure.Message)
		return fmt.Errorf("%w: %s", ErrLoginFailed, failure.Kind)
	}

	u, err := client.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	fmt.Fprintf(out, "%s (@%s)\n", u.Name, u.Handle)
	if u.Introduction != "" {
		fmt.Fprintln(out, u.Introduction)
	}

	if err := client.LogOut(ctx); err != nil {
		logger.Warn("logout failed", "error", err)
	}
	return nil
}

// readPassword reads one line from in. When in is a terminal the password is
// read without echo and a prompt is written to prompt.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "パスワード: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

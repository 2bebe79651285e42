package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/skybi/compliance-console/internal/api/client"
	"github.com/skybi/compliance-console/internal/session"
)

const (
	// ExitFailure is returned when a command failed
	ExitFailure = 1

	// ExitSessionExpired is returned when the backend rejected the session; the user has to log in again
	ExitSessionExpired = 2
)

// Options holds the configuration for creating an App
type Options struct {
	BaseURL    string
	Session    *session.Store
	HTTPClient *http.Client
	Logger     *zerolog.Logger

	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer
}

// App represents a console instance bound to one backend and one session
type App struct {
	client  *client.Client
	stdin   *os.File
	stdout  io.Writer
	stderr  io.Writer
	expired atomic.Bool
}

// NewApp creates a new console.
// The console registers itself as the client's unauthorized handler: a rejected session ends the command with
// ExitSessionExpired and asks the user to log in again.
func NewApp(options Options) (*App, error) {
	app := &App{
		stdin:  options.Stdin,
		stdout: options.Stdout,
		stderr: options.Stderr,
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}

	c, err := client.New(client.Config{
		BaseURL:        options.BaseURL,
		Session:        options.Session,
		HTTPClient:     options.HTTPClient,
		OnUnauthorized: app.sessionExpired,
		Logger:         options.Logger,
	})
	if err != nil {
		return nil, err
	}
	app.client = c
	return app, nil
}

func (app *App) sessionExpired() {
	if app.expired.CompareAndSwap(false, true) {
		fmt.Fprintln(app.stderr, "session expired, run 'auditctl login'")
	}
}

// Run executes the command line and returns the process exit code
func (app *App) Run(ctx context.Context, args []string) int {
	app.expired.Store(false)
	err := app.Root().Execute(ctx, args, app.stderr)
	if app.expired.Load() {
		return ExitSessionExpired
	}
	if err == nil {
		return 0
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(app.stderr, "%s\n", usageErr.Message)
		return ExitFailure
	}
	fmt.Fprintf(app.stderr, "error: %v\n", err)
	return ExitFailure
}

// Root builds the command tree
func (app *App) Root() *Command {
	return &Command{
		Name:    "auditctl",
		Summary: "Console for the compliance audit backend",
		Subcommands: []*Command{
			app.loginCommand(),
			app.logoutCommand(),
			app.whoamiCommand(),
			app.healthCommand(),
			app.rulesCommand(),
			app.workflowsCommand(),
			app.decisionsCommand(),
			app.replayCommand(),
			app.dashboardCommand(),
			app.metricsCommand(),
		},
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/skybi/compliance-console/internal/api/client"
	"github.com/skybi/compliance-console/internal/compliance"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

func (app *App) loginCommand() *Command {
	var passwordFile string
	return &Command{
		Name:    "login",
		Summary: "Log in and store the session token",
		Usage:   "auditctl login <username> [--password-file <path>]",
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("login")
			flagSet.StringVar(&passwordFile, "password-file", "", "path to a file containing the password (default: prompt)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return usageError("exactly one username is required\n\nUsage: auditctl login <username>")
			}
			password, err := app.readPassword(passwordFile)
			if err != nil {
				return err
			}

			token, err := app.client.Authenticate(ctx, client.Credentials{Username: args[0], Password: password})
			if err != nil {
				var authErr *client.AuthError
				if errors.As(err, &authErr) {
					return fmt.Errorf("login failed: %s", authErr.Detail)
				}
				return err
			}

			message := "logged in as " + args[0]
			if !token.Expiry.IsZero() {
				message += " (session valid until " + token.Expiry.Local().Format(time.DateTime) + ")"
			}
			fmt.Fprintln(app.stdout, message)
			return nil
		},
	}
}

// readPassword reads the password from a file or prompts for it with echo disabled
func (app *App) readPassword(passwordFile string) (string, error) {
	if passwordFile != "" && passwordFile != "-" {
		data, err := os.ReadFile(passwordFile)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", passwordFile, err)
		}
		password := strings.TrimRight(string(data), "\r\n")
		if password == "" {
			return "", fmt.Errorf("%s is empty", passwordFile)
		}
		return password, nil
	}

	fd := int(app.stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", usageError("no terminal available for the password prompt (use --password-file)")
	}
	fmt.Fprint(app.stderr, "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(app.stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}

func (app *App) logoutCommand() *Command {
	return &Command{
		Name:    "logout",
		Summary: "Forget the stored session token",
		Run: func(_ context.Context, _ []string) error {
			if err := app.client.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, "logged out")
			return nil
		},
	}
}

func (app *App) whoamiCommand() *Command {
	return &Command{
		Name:    "whoami",
		Summary: "Show the account of the current session",
		Run: func(ctx context.Context, _ []string) error {
			if _, ok := app.client.Session().Current(); !ok {
				return usageError("not logged in, run 'auditctl login'")
			}
			me, err := client.Decode[struct {
				ID       int64  `json:"id"`
				Username string `json:"username"`
			}](app.client.Me(ctx))
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s (id %d) at %s\n", me.Username, me.ID, app.client.BaseURL())
			return nil
		},
	}
}

func (app *App) healthCommand() *Command {
	return &Command{
		Name:    "health",
		Summary: "Show the health of the backend",
		Run: func(ctx context.Context, _ []string) error {
			health, err := client.Decode[compliance.Health](app.client.Health(ctx))
			if err != nil {
				return err
			}
			uptime := time.Duration(health.BackendUptime * float64(time.Second)).Round(time.Second)
			fmt.Fprintf(app.stdout, "status: %s (up %s)\n", health.Status, uptime)
			rows := make([][]string, 0, len(health.AIServices))
			for _, name := range sortedKeys(health.AIServices) {
				rows = append(rows, []string{name, health.AIServices[name]})
			}
			renderTable(app.stdout, []string{"SERVICE", "STATUS"}, rows)
			return nil
		},
	}
}

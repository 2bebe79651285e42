package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/compliance-console/internal/cli"
	"github.com/skybi/compliance-console/internal/config"
	"github.com/skybi/compliance-console/internal/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Set up zerolog to use pretty printing; the console only reports warnings unless in development mode
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out: os.Stderr,
	})

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not load the configuration: %v\n", err)
		return cli.ExitFailure
	}
	if cfg.IsEnvProduction() {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Open the session storage
	storage, closeStorage, err := cfg.SessionStorage(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not open the session storage: %v\n", err)
		return cli.ExitFailure
	}
	defer func() {
		if err := closeStorage(); err != nil {
			log.Warn().Err(err).Msg("could not close the session storage")
		}
	}()

	app, err := cli.NewApp(cli.Options{
		BaseURL:    cfg.APIURL,
		Session:    session.NewStore(storage, log.Logger),
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Logger:     &log.Logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return cli.ExitFailure
	}
	return app.Run(ctx, os.Args[1:])
}

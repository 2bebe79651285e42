package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/compliance-console/internal/api"
	"github.com/skybi/compliance-console/internal/config"
	"github.com/skybi/compliance-console/internal/random"
	"github.com/skybi/compliance-console/internal/reasoning"
	"github.com/skybi/compliance-console/internal/storage"
	"github.com/skybi/compliance-console/internal/storage/cache"
	"github.com/skybi/compliance-console/internal/storage/inmem"
	"github.com/skybi/compliance-console/internal/storage/postgres"
	"github.com/skybi/compliance-console/internal/token"
)

func main() {
	// Set up zerolog to use pretty printing
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out: os.Stderr,
	})
	log.Info().Msg("starting up...")

	// Load the application configuration
	log.Info().Msg("loading configuration...")
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load the configuration")
	}
	if cfg.IsEnvProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Debug().Str("config", fmt.Sprintf("%+v", cfg)).Msg("")

	// Initialize the storage driver
	var underlying storage.Driver
	if cfg.PostgresDSN != "" {
		log.Info().Msg("initializing database connection...")
		underlying = postgres.New(cfg.PostgresDSN)
	} else {
		log.Warn().Msg("no PostgreSQL DSN configured; all data is kept in memory and lost on shutdown")
		underlying = inmem.New()
	}
	if err := underlying.Initialize(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("could not initialize the storage driver")
	}
	driver := cache.New(underlying)
	if err := driver.Initialize(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("could not initialize the caching storage driver")
	}
	defer driver.Close()

	// Create the access token issuer
	secret := []byte(cfg.TokenSecret)
	if len(secret) == 0 {
		log.Warn().Msg("no token secret configured; issued tokens become invalid on restart")
		if secret, err = random.Bytes(32); err != nil {
			log.Fatal().Err(err).Msg("could not generate a token secret")
		}
	}
	tokens, err := token.NewIssuer(secret, cfg.TokenLifetime)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create the token issuer")
	}

	// Start up the backend API
	log.Info().Str("address", cfg.ServerListenAddress).Msg("starting up the backend API...")
	apis := &api.Service{
		Config:   cfg,
		Storage:  driver,
		Tokens:   tokens,
		Reasoner: reasoning.NewReasoner(),
	}
	apiErrs := make(chan error, 1)
	if err := apis.Startup(context.Background(), apiErrs); err != nil {
		log.Fatal().Err(err).Msg("could not start up the backend API")
	}
	go func() {
		err := <-apiErrs
		log.Fatal().Err(err).Msg("the API service raised an unexpected error")
	}()
	defer func() {
		log.Info().Msg("shutting down the backend API...")
		apis.Shutdown()
	}()

	log.Info().Msg("done!")
	defer log.Info().Msg("shutting down...")

	// Wait for the application to be terminated
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt)
	<-shutdown
}

// Package api bundles the HTTP services exposed by the server binary.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/skybi/compliance-console/internal/api/backend"
	"github.com/skybi/compliance-console/internal/config"
	"github.com/skybi/compliance-console/internal/reasoning"
	"github.com/skybi/compliance-console/internal/storage"
	"github.com/skybi/compliance-console/internal/token"
)

// Service represents the backend API service
type Service struct {
	Config   *config.Config
	Storage  storage.Driver
	Tokens   *token.Issuer
	Reasoner *reasoning.Reasoner
	backend  *backend.Service
}

// Startup bootstraps the storage and starts up the backend API.
// Errors raised by the running server are sent to errs.
func (service *Service) Startup(ctx context.Context, errs chan<- error) error {
	backendService := &backend.Service{
		Config:   service.Config,
		Storage:  service.Storage,
		Tokens:   service.Tokens,
		Reasoner: service.Reasoner,
	}
	if err := backendService.Bootstrap(ctx); err != nil {
		return err
	}
	service.backend = backendService
	go func() {
		if err := backendService.Startup(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	return nil
}

// Shutdown shuts down the backend API
func (service *Service) Shutdown() {
	if service.backend != nil {
		service.backend.Shutdown()
		service.backend = nil
	}
}

// Package backend implements the reference compliance audit backend the console talks to.
package backend

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/compliance-console/internal/api/schema"
	"github.com/skybi/compliance-console/internal/config"
	"github.com/skybi/compliance-console/internal/reasoning"
	"github.com/skybi/compliance-console/internal/storage"
	"github.com/skybi/compliance-console/internal/token"
)

// Service represents the backend API service
type Service struct {
	server *http.Server

	Config *config.Config

	Storage  storage.Driver
	Tokens   *token.Issuer
	Reasoner *reasoning.Reasoner

	// Logger is used for request and error logging; the global logger is used if it is nil
	Logger *zerolog.Logger

	init    sync.Once
	handler http.Handler
	writer  *schema.Writer
	metrics *metrics
}

// Handler builds the HTTP handler serving the backend API.
// The handler is only built once; subsequent calls return the same instance.
func (service *Service) Handler() http.Handler {
	service.init.Do(service.build)
	return service.handler
}

func (service *Service) build() {
	if service.Logger == nil {
		service.Logger = &log.Logger
	}
	service.metrics = newMetrics(time.Now())

	// Create the HTTP schema writer
	service.writer = &schema.Writer{
		InternalErrorHook: func(err error) {
			service.Logger.Error().Err(err).Msg("the backend API experienced an unexpected error")
		},
	}

	// Create the HTTP router
	router := chi.NewRouter()
	router.Use(service.MiddlewareLogRequests)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{service.Config.ServerAllowedOrigin},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	router.NotFound(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteDetail(writer, http.StatusNotFound, schema.DetailNotFound)
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteDetail(writer, http.StatusMethodNotAllowed, schema.DetailMethodNotAllowed)
	})

	service.registerEndpoints(router)
	service.handler = router
}

func (service *Service) registerEndpoints(router chi.Router) {
	authenticated := func(end http.HandlerFunc) http.HandlerFunc {
		return withMiddlewares(end, service.MiddlewareVerifyToken)
	}

	// Register the public endpoints
	router.Post("/token", service.EndpointToken)
	router.Get("/health", service.EndpointHealth)

	// Register the user controller endpoints
	router.Post("/users/", authenticated(service.EndpointCreateUser))
	router.Get("/users/me/", authenticated(service.EndpointGetSelfUser))

	// Register the rule controller endpoints
	router.Get("/rules/", authenticated(service.EndpointGetRules))
	router.Post("/rules/", authenticated(service.EndpointCreateRule))
	router.Get("/rules/{rule_id}", authenticated(service.EndpointGetRule))
	router.Put("/rules/{rule_id}", authenticated(service.EndpointUpdateRule))
	router.Get("/rules/{rule_id}/structured", authenticated(service.EndpointGetStructuredRules))

	// Register the workflow controller endpoints
	router.Get("/workflows/", authenticated(service.EndpointGetWorkflows))
	router.Post("/workflows/", authenticated(service.EndpointCreateWorkflow))
	router.Get("/workflows/{workflow_id}", authenticated(service.EndpointGetWorkflow))
	router.Post("/workflows/{workflow_id}/audit", authenticated(service.EndpointAuditWorkflow))
	router.Post("/workflows/{workflow_id}/replay/{decision_id}", authenticated(service.EndpointReplayDecision))

	// Register the decision controller endpoints
	router.Get("/decisions/", authenticated(service.EndpointGetDecisions))
	router.Get("/decisions/{workflow_id}", authenticated(service.EndpointGetWorkflowDecisions))

	// Register the dashboard endpoints
	router.Get("/dashboard/stats", authenticated(service.EndpointGetDashboardStats))
	router.Get("/dashboard/metrics", authenticated(service.EndpointGetSystemMetrics))
	router.Get("/metrics", authenticated(service.EndpointGetAIMetrics))
}

// Startup starts up the backend API.
// It blocks until the server is shut down.
func (service *Service) Startup() error {
	server := &http.Server{
		Addr:              service.Config.ServerListenAddress,
		Handler:           service.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	service.server = server
	return server.ListenAndServe()
}

// Shutdown shuts down the backend API
func (service *Service) Shutdown() {
	if service.server != nil {
		service.server.Close()
		service.server = nil
	}
}

func withMiddlewares(end http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	final := end
	for i := len(middlewares); i > 0; i-- {
		final = middlewares[i-1](final)
	}
	return final
}

// urlParam returns the unescaped value of a path parameter
func urlParam(request *http.Request, key string) string {
	raw := chi.URLParam(request, key)
	if value, err := url.PathUnescape(raw); err == nil {
		return value
	}
	return raw
}

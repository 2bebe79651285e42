package backend

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/skybi/compliance-console/internal/api/schema"
	"github.com/skybi/compliance-console/internal/user"
)

type contextKey string

const contextValueUser contextKey = "user"

// MiddlewareLogRequests logs every request and records the latency of audit requests
func (service *Service) MiddlewareLogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		started := time.Now()
		wrapped := middleware.NewWrapResponseWriter(writer, request.ProtoMajor)
		next.ServeHTTP(wrapped, request)
		duration := time.Since(started)

		if request.Method == http.MethodPost && strings.HasSuffix(request.URL.Path, "/audit") {
			service.metrics.recordLatency(duration)
		}

		service.Logger.Info().
			Str("method", request.Method).
			Str("path", request.URL.Path).
			Int("status", wrapped.Status()).
			Dur("duration", duration).
			Msg("handled request")
	})
}

// MiddlewareVerifyToken makes sure that the requesting client has provided a valid bearer token.
// Additionally, it injects the user the token was issued to into the request context.
func (service *Service) MiddlewareVerifyToken(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		// Try to read the 'Authorization' header and verify it is of type 'Bearer'
		header := request.Header.Get("Authorization")
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			service.unauthorized(writer, "Not authenticated")
			return
		}

		// Verify the token and retrieve the user it was issued to
		username, err := service.Tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			service.unauthorized(writer, schema.DetailUnauthorized)
			return
		}
		obj, err := service.Storage.Users().GetByUsername(request.Context(), username)
		if err != nil {
			service.writer.WriteInternalError(writer, err)
			return
		}
		if obj == nil {
			service.unauthorized(writer, schema.DetailUnauthorized)
			return
		}

		// Delegate to the next handler
		request = request.WithContext(context.WithValue(request.Context(), contextValueUser, obj))
		next(writer, request)
	}
}

func (service *Service) unauthorized(writer http.ResponseWriter, detail string) {
	writer.Header().Set("WWW-Authenticate", "Bearer")
	service.writer.WriteDetail(writer, http.StatusUnauthorized, detail)
}

func currentUser(request *http.Request) *user.User {
	obj, _ := request.Context().Value(contextValueUser).(*user.User)
	return obj
}

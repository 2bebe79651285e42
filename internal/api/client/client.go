// Package client implements the authenticated client of the compliance-audit backend.
//
// All authenticated operations funnel through Client.Do, which attaches the bearer token held by the session store and
// reacts to authorization failures: a 401 response clears the session and invokes the host's OnUnauthorized callback
// before control returns to the caller. Apart from that, Do never interprets the response; callers inspect the status
// themselves or use Decode to map non-2xx responses to the error taxonomy in errors.go.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/compliance-console/internal/session"
)

// DefaultBaseURL is used if no base URL is configured
const DefaultBaseURL = "http://localhost:8000"

var maxResponseSize int64 = 16 << 20

// Config holds the configuration for creating a Client
type Config struct {
	// BaseURL is the base URL of the backend. If empty, DefaultBaseURL is used.
	BaseURL string

	// Session holds the bearer token attached to authenticated requests
	Session *session.Store

	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client

	// OnUnauthorized is invoked once for every 401 response to an authenticated request, after the session was
	// cleared. It is the hook the host application uses to send the user back to its login entry point.
	OnUnauthorized func()

	// Logger is used for request logging. If nil, the global zerolog logger is used.
	Logger *zerolog.Logger
}

// Client represents the compliance-audit backend API client
type Client struct {
	baseURL        string
	session        *session.Store
	httpClient     *http.Client
	onUnauthorized func()
	logger         zerolog.Logger
}

// Request describes a single backend call
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header
}

// New creates a new backend API client
func New(config Config) (*Client, error) {
	if config.Session == nil {
		return nil, fmt.Errorf("client: a session store is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("client: invalid base URL %q: %w", baseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := log.Logger
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		session:        config.Session,
		httpClient:     httpClient,
		onUnauthorized: config.OnUnauthorized,
		logger:         logger.With().Str("component", "client").Logger(),
	}, nil
}

// BaseURL returns the base URL requests are sent to
func (client *Client) BaseURL() string {
	return client.baseURL
}

// Session returns the session store the client reads its token from
func (client *Client) Session() *session.Store {
	return client.session
}

// Do performs an authenticated request.
// The only error it returns is a *TransportError; HTTP-level failures are reported through the response.
func (client *Client) Do(ctx context.Context, request Request) (*Response, error) {
	return client.do(ctx, request, true)
}

func (client *Client) do(ctx context.Context, request Request, authenticated bool) (*Response, error) {
	method := request.Method
	if method == "" {
		method = http.MethodGet
	}

	// Read the current token before anything else so that one request never mixes two tokens
	token, hasToken := "", false
	if authenticated {
		token, hasToken = client.session.Current()
	}

	var body io.Reader
	if request.Body != nil {
		encoded, err := json.Marshal(request.Body)
		if err != nil {
			return nil, fmt.Errorf("client: could not encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, method, client.baseURL+request.Path, body)
	if err != nil {
		return nil, fmt.Errorf("client: could not create request: %w", err)
	}
	httpRequest.Header = buildHeader(request.Header, token, hasToken)

	start := time.Now()
	httpResponse, err := client.httpClient.Do(httpRequest)
	if err != nil {
		return nil, &TransportError{Method: method, Path: request.Path, Err: err}
	}
	defer httpResponse.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(httpResponse.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{Method: method, Path: request.Path, Err: err}
	}

	client.logger.Debug().
		Str("method", method).
		Str("path", request.Path).
		Int("status", httpResponse.StatusCode).
		Dur("took", time.Since(start)).
		Msg("backend request")

	if authenticated && httpResponse.StatusCode == http.StatusUnauthorized {
		client.invalidate()
	}

	return &Response{
		StatusCode: httpResponse.StatusCode,
		Header:     httpResponse.Header,
		body:       responseBody,
	}, nil
}

// invalidate clears the session and notifies the host application
func (client *Client) invalidate() {
	if err := client.session.Clear(); err != nil {
		client.logger.Error().Err(err).Msg("could not clear the session after an authorization failure")
	}
	client.logger.Info().Msg("the backend rejected the session token; session cleared")
	if client.onUnauthorized != nil {
		client.onUnauthorized()
	}
}

// buildHeader merges the caller's headers into the defaults.
// A caller-supplied Authorization header is always dropped: the header is present iff the session holds a token.
func buildHeader(extra http.Header, token string, hasToken bool) http.Header {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")
	for key, values := range extra {
		canonical := http.CanonicalHeaderKey(key)
		if canonical == "Authorization" {
			continue
		}
		header[canonical] = append([]string(nil), values...)
	}
	if hasToken {
		header.Set("Authorization", "Bearer "+token)
	}
	return header
}

func pathSegment(value string) string {
	return url.PathEscape(value)
}

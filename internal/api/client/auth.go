package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// Credentials represents a login submission.
// It is only used for the duration of the call it is passed to.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Authenticate exchanges credentials for a bearer token using the OAuth2 password grant.
// The credentials are submitted form-encoded and without any bearer token. On success the token is stored in the
// session; on failure the session is left untouched.
func (client *Client) Authenticate(ctx context.Context, credentials Credentials) (*oauth2.Token, error) {
	if strings.TrimSpace(credentials.Username) == "" {
		return nil, &ValidationError{Field: "username", Detail: "field required"}
	}
	if credentials.Password == "" {
		return nil, &ValidationError{Field: "password", Detail: "field required"}
	}

	config := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  client.baseURL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client.httpClient)

	token, err := config.PasswordCredentialsToken(ctx, credentials.Username, credentials.Password)
	if err != nil {
		return nil, client.authenticationError(err)
	}

	if err := client.session.Set(token.AccessToken); err != nil {
		return nil, err
	}
	client.logger.Info().Str("username", credentials.Username).Msg("authenticated")
	return token, nil
}

func (client *Client) authenticationError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		response := &Response{
			StatusCode: retrieveErr.Response.StatusCode,
			Header:     retrieveErr.Response.Header,
			body:       retrieveErr.Body,
		}
		if response.StatusCode >= 400 && response.StatusCode < 500 {
			return &AuthError{StatusCode: response.StatusCode, Detail: response.Detail()}
		}
		if respErr := response.Err(); respErr != nil {
			return respErr
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &TransportError{Method: http.MethodPost, Path: "/token", Err: err}
	}
	return &AuthError{Detail: err.Error()}
}

// Logout forgets the current token.
// Unlike an authorization failure, an explicit logout does not invoke OnUnauthorized.
func (client *Client) Logout() error {
	return client.session.Clear()
}

// CreateUser registers a new backend account
func (client *Client) CreateUser(ctx context.Context, credentials Credentials) (*Response, error) {
	if strings.TrimSpace(credentials.Username) == "" {
		return nil, &ValidationError{Field: "username", Detail: "field required"}
	}
	if credentials.Password == "" {
		return nil, &ValidationError{Field: "password", Detail: "field required"}
	}
	return client.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/users/",
		Body:   credentials,
	})
}

// Me retrieves the account the current token belongs to
func (client *Client) Me(ctx context.Context) (*Response, error) {
	return client.Do(ctx, Request{Method: http.MethodGet, Path: "/users/me/"})
}

// Health retrieves the public health report of the backend; no token is sent
func (client *Client) Health(ctx context.Context) (*Response, error) {
	return client.do(ctx, Request{Method: http.MethodGet, Path: "/health"}, false)
}

package backend

import (
	"errors"
	"net/http"
	"strings"

	"github.com/skybi/compliance-console/internal/api/schema"
	"github.com/skybi/compliance-console/internal/user"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// EndpointToken handles the 'POST /token' endpoint.
// It implements the OAuth2 password grant using form-encoded credentials.
func (service *Service) EndpointToken(writer http.ResponseWriter, request *http.Request) {
	if err := request.ParseForm(); err != nil {
		service.writer.WriteIssues(writer, http.StatusUnprocessableEntity, &schema.Issue{
			Loc:  []any{"body"},
			Msg:  "Invalid form body: " + err.Error(),
			Type: "value_error",
		})
		return
	}

	// Validate the form fields
	var issues []*schema.Issue
	for _, field := range []string{"username", "password"} {
		if request.PostForm.Get(field) == "" {
			issues = append(issues, &schema.Issue{Loc: []any{"body", field}, Msg: "Field required", Type: "missing"})
		}
	}
	if grantType := request.PostForm.Get("grant_type"); grantType != "" && grantType != "password" {
		issues = append(issues, &schema.Issue{
			Loc:  []any{"body", "grant_type"},
			Msg:  "String should match pattern '^password$'",
			Type: "string_pattern_mismatch",
		})
	}
	if len(issues) > 0 {
		service.writer.WriteIssues(writer, http.StatusUnprocessableEntity, issues...)
		return
	}
	username := request.PostForm.Get("username")

	// Verify the credentials
	obj, err := service.Storage.Users().GetByUsername(request.Context(), username)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if obj == nil || !obj.VerifyPassword(request.PostForm.Get("password")) {
		service.unauthorized(writer, "Incorrect username or password")
		return
	}

	// Issue the access token
	raw, _, err := service.Tokens.Issue(obj.Username)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	service.Logger.Info().Str("username", obj.Username).Msg("issued an access token")
	service.writer.WriteJSON(writer, &tokenResponse{
		AccessToken: raw,
		TokenType:   "bearer",
		ExpiresIn:   int64(service.Tokens.Lifetime().Seconds()),
	})
}

type userCreatePayload struct {
	Username *string `json:"username" required:"true"`
	Password *string `json:"password" required:"true"`
}

// EndpointCreateUser handles the 'POST /users/' endpoint
func (service *Service) EndpointCreateUser(writer http.ResponseWriter, request *http.Request) {
	payload, issues, err := schema.UnmarshalBody[userCreatePayload](request)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if len(issues) > 0 {
		service.writer.WriteIssues(writer, http.StatusUnprocessableEntity, issues...)
		return
	}
	username := strings.TrimSpace(*payload.Username)
	if username == "" || *payload.Password == "" {
		service.writer.WriteDetail(writer, http.StatusBadRequest, "Username and password must not be empty")
		return
	}

	hash, err := user.HashPassword(*payload.Password)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	created, err := service.Storage.Users().Create(request.Context(), &user.Create{
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, user.ErrUsernameTaken) {
			service.writer.WriteDetail(writer, http.StatusBadRequest, "Username already registered")
			return
		}
		service.writer.WriteInternalError(writer, err)
		return
	}

	service.Logger.Info().Str("username", created.Username).Str("by", currentUser(request).Username).Msg("created a user")
	service.writer.WriteJSON(writer, created)
}

// EndpointGetSelfUser handles the 'GET /users/me/' endpoint
func (service *Service) EndpointGetSelfUser(writer http.ResponseWriter, request *http.Request) {
	service.writer.WriteJSON(writer, currentUser(request))
}

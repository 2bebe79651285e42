package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/skybi/compliance-console/internal/compliance"
	"github.com/skybi/compliance-console/internal/session"
	"github.com/skybi/compliance-console/internal/session/storage/inmem"
)

// recorder is a fake backend recording the headers of every request it receives
type recorder struct {
	mtx      sync.Mutex
	headers  []http.Header
	paths    []string
	status   int
	response string
}

func (rec *recorder) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	rec.mtx.Lock()
	rec.headers = append(rec.headers, request.Header.Clone())
	rec.paths = append(rec.paths, request.URL.EscapedPath())
	status, response := rec.status, rec.response
	rec.mtx.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	if response == "" {
		response = "[]"
	}
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	writer.Write([]byte(response))
}

func (rec *recorder) requests() int {
	rec.mtx.Lock()
	defer rec.mtx.Unlock()
	return len(rec.headers)
}

func newTestClient(t *testing.T, baseURL string, onUnauthorized func()) *Client {
	t.Helper()
	driver, err := inmem.New()
	if err != nil {
		t.Fatalf("creating in-memory storage: %v", err)
	}
	logger := zerolog.Nop()
	c, err := New(Config{
		BaseURL:        baseURL,
		Session:        session.NewStore(driver, logger),
		OnUnauthorized: onUnauthorized,
		Logger:         &logger,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestBearerHeaderAttachedExactlyOnce(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec)
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	if err := c.Session().Set("tok-123"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	header := http.Header{}
	header.Add("Authorization", "Bearer forged")
	header.Add("authorization", "Basic abc")
	header.Set("X-Request-Id", "42")
	if _, err := c.Do(context.Background(), Request{Path: "/rules/", Header: header}); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if _, err := c.ListRules(context.Background()); err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}

	for i, got := range rec.headers {
		values := got.Values("Authorization")
		if len(values) != 1 || values[0] != "Bearer tok-123" {
			t.Errorf("request %d: expected exactly one bearer header, got %q", i, values)
		}
	}
	if rec.headers[0].Get("X-Request-Id") != "42" {
		t.Error("expected caller headers other than Authorization to be kept")
	}
}

func TestNoAuthorizationHeaderWithoutToken(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec)
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	header := http.Header{}
	header.Set("Authorization", "Bearer forged")
	if _, err := c.Do(context.Background(), Request{Path: "/workflows/", Header: header}); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if _, err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	for i, got := range rec.headers {
		if _, ok := got["Authorization"]; ok {
			t.Errorf("request %d: unexpected Authorization header %q", i, got.Values("Authorization"))
		}
	}
}

func TestHealthNeverSendsToken(t *testing.T) {
	rec := &recorder{response: `{"status":"healthy"}`}
	server := httptest.NewServer(rec)
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	c.Session().Set("tok")
	if _, err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if got := rec.headers[0].Get("Authorization"); got != "" {
		t.Errorf("expected no Authorization header, got %q", got)
	}
}

func TestUnauthorizedClearsSessionAndNotifiesOnce(t *testing.T) {
	calls := map[string]func(*Client) (*Response, error){
		"ListRules":      func(c *Client) (*Response, error) { return c.ListRules(context.Background()) },
		"ListWorkflows":  func(c *Client) (*Response, error) { return c.ListWorkflows(context.Background()) },
		"AuditWorkflow":  func(c *Client) (*Response, error) { return c.AuditWorkflow(context.Background(), "WF-1") },
		"ListDecisions":  func(c *Client) (*Response, error) { return c.ListDecisions(context.Background(), "") },
		"ReplayDecision": func(c *Client) (*Response, error) { return c.ReplayDecision(context.Background(), "WF-1", 1) },
		"DashboardStats": func(c *Client) (*Response, error) { return c.DashboardStats(context.Background()) },
		"SystemMetrics":  func(c *Client) (*Response, error) { return c.SystemMetrics(context.Background()) },
		"Me":             func(c *Client) (*Response, error) { return c.Me(context.Background()) },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(&recorder{status: http.StatusUnauthorized, response: `{"detail":"Could not validate credentials"}`})
			defer server.Close()

			var notified atomic.Int32
			c := newTestClient(t, server.URL, func() { notified.Add(1) })
			c.Session().Set("expired")

			response, err := call(c)
			if err != nil {
				t.Fatalf("unexpected transport error: %v", err)
			}
			if response.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected the 401 to be handed back, got %d", response.StatusCode)
			}
			if _, ok := c.Session().Current(); ok {
				t.Error("expected the session to be cleared")
			}
			if n := notified.Load(); n != 1 {
				t.Errorf("expected exactly one notification, got %d", n)
			}
			if !IsUnauthorized(response.Err()) {
				t.Errorf("expected an AuthError, got %v", response.Err())
			}
		})
	}
}

func TestUnauthorizedWithoutCallback(t *testing.T) {
	server := httptest.NewServer(&recorder{status: http.StatusUnauthorized})
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	c.Session().Set("expired")
	if _, err := c.ListRules(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Session().Current(); ok {
		t.Error("expected the session to be cleared")
	}
}

func TestLogoutDoesNotNotify(t *testing.T) {
	notified := false
	c := newTestClient(t, "http://localhost", func() { notified = true })
	c.Session().Set("tok")
	if err := c.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, ok := c.Session().Current(); ok {
		t.Error("expected the session to be cleared")
	}
	if notified {
		t.Error("an explicit logout must not invoke the unauthorized callback")
	}
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(&recorder{})
	url := server.URL
	server.Close()

	c := newTestClient(t, url, nil)
	_, err := c.ListRules(context.Background())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected a TransportError, got %v", err)
	}
	if transportErr.Path != "/rules/" {
		t.Errorf("unexpected path %q", transportErr.Path)
	}
}

func TestClientSideValidationMakesNoRequest(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec)
	defer server.Close()
	c := newTestClient(t, server.URL, nil)
	c.Session().Set("tok")

	_, err := c.CreateWorkflow(context.Background(), compliance.WorkflowDraft{
		WorkflowID:   "WF-1",
		WorkflowType: compliance.WorkflowTypeClaimProcessing,
		Attributes:   json.RawMessage(`{invalid`),
		ActorID:      "adjuster-7",
		SourceSystem: "CLAIMS",
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "attributes" {
		t.Fatalf("expected an attributes ValidationError, got %v", err)
	}

	_, err = c.CreateRule(context.Background(), compliance.RuleDraft{RuleID: "R-1"})
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected a ValidationError, got %v", err)
	}

	if _, err := c.Authenticate(context.Background(), Credentials{Username: "alice"}); !errors.As(err, &validationErr) {
		t.Fatalf("expected a ValidationError, got %v", err)
	}

	if n := rec.requests(); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

func TestListDecisionsEndpoints(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec)
	defer server.Close()
	c := newTestClient(t, server.URL, nil)
	c.Session().Set("tok")

	all, err := Decode[[]compliance.Decision](c.ListDecisions(context.Background(), ""))
	if err != nil {
		t.Fatalf("ListDecisions failed: %v", err)
	}
	filtered, err := Decode[[]compliance.Decision](c.ListDecisions(context.Background(), "WF-1"))
	if err != nil {
		t.Fatalf("ListDecisions failed: %v", err)
	}
	if len(all) != 0 || len(filtered) != 0 {
		t.Errorf("expected empty lists, got %v and %v", all, filtered)
	}
	if rec.paths[0] != "/decisions/" || rec.paths[1] != "/decisions/WF-1" {
		t.Errorf("unexpected paths: %v", rec.paths)
	}
}

func TestResponseErrorMapping(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		check  func(error) bool
		detail string
	}{
		"not found": {
			status: http.StatusNotFound,
			body:   `{"detail":"Decision not found"}`,
			check:  IsNotFound,
			detail: "Decision not found",
		},
		"validation list": {
			status: http.StatusUnprocessableEntity,
			body:   `{"detail":[{"loc":["body","severity"],"msg":"Field required","type":"missing"}]}`,
			check: func(err error) bool {
				var target *ValidationError
				return errors.As(err, &target)
			},
			detail: "severity: Field required",
		},
		"bad request": {
			status: http.StatusBadRequest,
			body:   `{"detail":"Rule ID already registered"}`,
			check: func(err error) bool {
				var target *ValidationError
				return errors.As(err, &target)
			},
			detail: "Rule ID already registered",
		},
		"server error": {
			status: http.StatusInternalServerError,
			body:   `oops`,
			check: func(err error) bool {
				var target *StatusError
				return errors.As(err, &target)
			},
			detail: "oops",
		},
		"forbidden": {
			status: http.StatusForbidden,
			body:   ``,
			check:  IsUnauthorized,
			detail: "Forbidden",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			response := &Response{StatusCode: tc.status, body: []byte(tc.body)}
			err := response.Err()
			if !tc.check(err) {
				t.Fatalf("unexpected error type: %T (%v)", err, err)
			}
			if detail := response.Detail(); detail != tc.detail {
				t.Errorf("expected detail %q, got %q", tc.detail, detail)
			}
		})
	}

	if err := (&Response{StatusCode: http.StatusOK}).Err(); err != nil {
		t.Errorf("expected no error for a 2xx response, got %v", err)
	}
}

func TestPathSegmentsAreEscaped(t *testing.T) {
	rec := &recorder{response: `{}`}
	server := httptest.NewServer(rec)
	defer server.Close()
	c := newTestClient(t, server.URL, nil)
	c.Session().Set("tok")

	if _, err := c.GetRule(context.Background(), "A/B"); err != nil {
		t.Fatalf("GetRule failed: %v", err)
	}
	if rec.paths[0] != "/rules/A%2FB" {
		t.Errorf("expected the rule ID to be a single escaped segment, got %q", rec.paths[0])
	}
}

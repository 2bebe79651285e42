package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/skybi/compliance-console/internal/compliance"
	"github.com/skybi/compliance-console/internal/config"
	"github.com/skybi/compliance-console/internal/reasoning"
	"github.com/skybi/compliance-console/internal/storage/inmem"
	"github.com/skybi/compliance-console/internal/token"
)

const (
	adminUsername = "admin"
	adminPassword = "correct horse"
)

type harness struct {
	t       *testing.T
	service *Service
	server  *httptest.Server
	token   string
}

func newHarness(t *testing.T, seed bool) *harness {
	t.Helper()

	driver := inmem.New()
	if err := driver.Initialize(context.Background()); err != nil {
		t.Fatalf("could not initialize the storage driver: %v", err)
	}
	t.Cleanup(driver.Close)

	tokens, err := token.NewIssuer([]byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	logger := zerolog.Nop()
	service := &Service{
		Config: &config.Config{
			ServerAllowedOrigin: "*",
			AdminUsername:       adminUsername,
			AdminPassword:       adminPassword,
			SeedRules:           seed,
		},
		Storage:  driver,
		Tokens:   tokens,
		Reasoner: reasoning.NewReasoner(),
		Logger:   &logger,
	}
	if err := service.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	server := httptest.NewServer(service.Handler())
	t.Cleanup(server.Close)
	return &harness{t: t, service: service, server: server}
}

func (h *harness) login() {
	h.t.Helper()
	response, err := http.PostForm(h.server.URL+"/token", url.Values{
		"grant_type": {"password"},
		"username":   {adminUsername},
		"password":   {adminPassword},
	})
	if err != nil {
		h.t.Fatalf("login request failed: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		h.t.Fatalf("login answered %d", response.StatusCode)
	}
	var body tokenResponse
	if err := json.NewDecoder(response.Body).Decode(&body); err != nil {
		h.t.Fatalf("could not decode the token response: %v", err)
	}
	if body.TokenType != "bearer" || body.AccessToken == "" {
		h.t.Fatalf("unexpected token response: %+v", body)
	}
	h.token = body.AccessToken
}

// call performs a request and decodes the JSON response into target if it is not nil
func (h *harness) call(method, path string, payload any, target any) int {
	h.t.Helper()
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			h.t.Fatalf("could not encode the payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}
	request, err := http.NewRequest(method, h.server.URL+path, body)
	if err != nil {
		h.t.Fatalf("could not create the request: %v", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		request.Header.Set("Authorization", "Bearer "+h.token)
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		h.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer response.Body.Close()
	if target != nil {
		if err := json.NewDecoder(response.Body).Decode(target); err != nil {
			h.t.Fatalf("could not decode the response of %s %s: %v", method, path, err)
		}
	}
	return response.StatusCode
}

type detailBody struct {
	Detail json.RawMessage `json:"detail"`
}

func (body detailBody) text() string {
	var text string
	_ = json.Unmarshal(body.Detail, &text)
	return text
}

func mfaRule(text string) map[string]any {
	return map[string]any{
		"rule_id":   "NYDFS-500.12",
		"category":  "SECURITY",
		"rule_text": text,
		"severity":  "HIGH",
		"version":   "1.0",
	}
}

const mfaRuleText = "when: attributes.external == true\nmust: attributes.mfa == true"

func accessEvent(workflowID string, mfa bool) map[string]any {
	return map[string]any{
		"workflow_id":   workflowID,
		"workflow_type": "DATA_ACCESS_REQUEST",
		"attributes":    map[string]any{"external": true, "mfa": mfa},
		"actor_id":      "analyst-3",
		"source_system": "VPN",
	}
}

func TestTokenRejectsWrongPassword(t *testing.T) {
	h := newHarness(t, false)
	response, err := http.PostForm(h.server.URL+"/token", url.Values{
		"username": {adminUsername},
		"password": {"wrong"},
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", response.StatusCode)
	}
	if response.Header.Get("WWW-Authenticate") != "Bearer" {
		t.Errorf("missing WWW-Authenticate header")
	}
	var body detailBody
	if err := json.NewDecoder(response.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.text() != "Incorrect username or password" {
		t.Errorf("unexpected detail: %s", body.Detail)
	}
}

func TestProtectedEndpointsRequireValidToken(t *testing.T) {
	h := newHarness(t, false)

	var body detailBody
	if status := h.call(http.MethodGet, "/rules/", nil, &body); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", status)
	}
	if body.text() != "Not authenticated" {
		t.Errorf("unexpected detail: %s", body.Detail)
	}

	h.token = "garbage"
	body = detailBody{}
	if status := h.call(http.MethodGet, "/rules/", nil, &body); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an invalid token, got %d", status)
	}
	if body.text() != "Could not validate credentials" {
		t.Errorf("unexpected detail: %s", body.Detail)
	}

	if status := h.call(http.MethodGet, "/health", nil, nil); status != http.StatusOK {
		t.Errorf("expected the health endpoint to be public, got %d", status)
	}
}

func TestUsers(t *testing.T) {
	h := newHarness(t, false)
	h.login()

	var me map[string]any
	if status := h.call(http.MethodGet, "/users/me/", nil, &me); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if me["username"] != adminUsername {
		t.Errorf("unexpected user: %v", me)
	}
	if _, ok := me["password_hash"]; ok {
		t.Error("the password hash must not be exposed")
	}

	credentials := map[string]string{"username": "auditor", "password": "pw"}
	if status := h.call(http.MethodPost, "/users/", credentials, nil); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var body detailBody
	if status := h.call(http.MethodPost, "/users/", credentials, &body); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for a duplicate user, got %d", status)
	}
	if body.text() != "Username already registered" {
		t.Errorf("unexpected detail: %s", body.Detail)
	}
}

func TestRuleLifecycle(t *testing.T) {
	h := newHarness(t, false)
	h.login()

	var rule compliance.Rule
	if status := h.call(http.MethodPost, "/rules/", mfaRule(mfaRuleText), &rule); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if rule.Status != compliance.RuleStatusActive {
		t.Errorf("expected an active rule, got %s", rule.Status)
	}

	t.Run("duplicate rule id", func(t *testing.T) {
		var body detailBody
		if status := h.call(http.MethodPost, "/rules/", mfaRule(mfaRuleText), &body); status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", status)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		var body struct {
			Detail []map[string]any `json:"detail"`
		}
		if status := h.call(http.MethodPost, "/rules/", map[string]any{"rule_id": "X"}, &body); status != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", status)
		}
		if len(body.Detail) != 4 {
			t.Errorf("expected 4 issues, got %v", body.Detail)
		}
	})

	t.Run("uninterpretable text is rolled back", func(t *testing.T) {
		payload := mfaRule("Shall do something.")
		payload["rule_id"] = "VAGUE-1"
		var body detailBody
		if status := h.call(http.MethodPost, "/rules/", payload, &body); status != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", status)
		}
		if !strings.HasPrefix(body.text(), "Rule interpretation failed") {
			t.Errorf("unexpected detail: %s", body.Detail)
		}
		if status := h.call(http.MethodGet, "/rules/VAGUE-1", nil, nil); status != http.StatusNotFound {
			t.Errorf("expected the rule to be deleted, got %d", status)
		}
		var metrics compliance.AIMetrics
		h.call(http.MethodGet, "/metrics", nil, &metrics)
		if metrics.InterpretationFailures != 1 {
			t.Errorf("expected 1 interpretation failure, got %d", metrics.InterpretationFailures)
		}
	})

	t.Run("failed update restores the rule", func(t *testing.T) {
		var body detailBody
		update := map[string]any{"rule_text": "no clauses", "version": "2.0"}
		if status := h.call(http.MethodPut, "/rules/NYDFS-500.12", update, &body); status != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", status)
		}
		var current compliance.Rule
		h.call(http.MethodGet, "/rules/NYDFS-500.12", nil, &current)
		if current.RuleText != mfaRuleText || current.Version != "1.0" {
			t.Errorf("expected the previous rule, got %+v", current)
		}
	})

	t.Run("update creates a new interpretation", func(t *testing.T) {
		update := map[string]any{"rule_text": mfaRuleText + "\nunless: attributes.emergency == true", "version": "1.1"}
		if status := h.call(http.MethodPut, "/rules/NYDFS-500.12", update, nil); status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		var structured []compliance.StructuredRule
		h.call(http.MethodGet, "/rules/NYDFS-500.12/structured", nil, &structured)
		if len(structured) != 2 {
			t.Fatalf("expected 2 interpretations, got %d", len(structured))
		}
		if structured[1].Version != "1.1" || len(structured[1].Exceptions) != 1 {
			t.Errorf("unexpected latest interpretation: %+v", structured[1])
		}
	})

	t.Run("unknown rule", func(t *testing.T) {
		if status := h.call(http.MethodGet, "/rules/UNKNOWN", nil, nil); status != http.StatusNotFound {
			t.Errorf("expected 404, got %d", status)
		}
	})
}

func TestAuditAndReplay(t *testing.T) {
	h := newHarness(t, false)
	h.login()

	if status := h.call(http.MethodPost, "/rules/", mfaRule(mfaRuleText), nil); status != http.StatusOK {
		t.Fatalf("rule creation answered %d", status)
	}
	if status := h.call(http.MethodPost, "/workflows/", accessEvent("WF-1", false), nil); status != http.StatusOK {
		t.Fatalf("workflow creation answered %d", status)
	}

	var decision compliance.Decision
	if status := h.call(http.MethodPost, "/workflows/WF-1/audit", nil, &decision); status != http.StatusOK {
		t.Fatalf("audit answered %d", status)
	}
	if decision.Decision != compliance.OutcomeNonCompliant {
		t.Fatalf("expected NON_COMPLIANT, got %s", decision.Decision)
	}
	if len(decision.ViolatedRules) != 1 || decision.ViolatedRules[0] != "NYDFS-500.12" {
		t.Errorf("unexpected violated rules: %v", decision.ViolatedRules)
	}
	if decision.RuleVersions["NYDFS-500.12"] != "1.0" {
		t.Errorf("unexpected rule versions: %v", decision.RuleVersions)
	}

	var replayed compliance.Decision
	path := "/workflows/WF-1/replay/" + jsonNumber(decision.ID)
	if status := h.call(http.MethodPost, path, nil, &replayed); status != http.StatusOK {
		t.Fatalf("replay answered %d", status)
	}
	if replayed.ID == decision.ID {
		t.Error("expected the replay to be stored as a new decision")
	}
	if replayed.Decision != decision.Decision {
		t.Errorf("expected the replay to reproduce %s, got %s", decision.Decision, replayed.Decision)
	}

	var decisions []compliance.Decision
	h.call(http.MethodGet, "/decisions/WF-1", nil, &decisions)
	if len(decisions) != 2 || decisions[0].ID != replayed.ID {
		t.Errorf("expected both decisions newest first, got %+v", decisions)
	}

	if status := h.call(http.MethodPost, "/workflows/WF-2/replay/"+jsonNumber(decision.ID), nil, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for a decision of another workflow, got %d", status)
	}

	var stats compliance.DashboardStats
	h.call(http.MethodGet, "/dashboard/stats", nil, &stats)
	if stats.TotalAudits != 2 || stats.ComplianceStats[compliance.OutcomeNonCompliant] != 2 || len(stats.Alerts) != 2 {
		t.Errorf("unexpected dashboard stats: %+v", stats)
	}

	var metrics compliance.SystemMetrics
	h.call(http.MethodGet, "/dashboard/metrics", nil, &metrics)
	if metrics.AIMetrics.TotalAudits != 1 || metrics.RuleCoverage["NYDFS-500.12"] != 2 {
		t.Errorf("unexpected metrics: %+v", metrics)
	}
}

func TestAuditWithoutRules(t *testing.T) {
	h := newHarness(t, false)
	h.login()

	if status := h.call(http.MethodPost, "/workflows/WF-1/audit", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown workflow, got %d", status)
	}

	h.call(http.MethodPost, "/workflows/", accessEvent("WF-1", true), nil)
	var decision compliance.Decision
	if status := h.call(http.MethodPost, "/workflows/WF-1/audit", nil, &decision); status != http.StatusOK {
		t.Fatalf("audit answered %d", status)
	}
	if decision.Decision != compliance.OutcomeCompliant || len(decision.ReasoningTrace) != 1 || decision.ReasoningTrace[0].Info == "" {
		t.Errorf("unexpected decision: %+v", decision)
	}

	var decisions []compliance.Decision
	h.call(http.MethodGet, "/decisions/", nil, &decisions)
	if len(decisions) != 0 {
		t.Errorf("expected nothing to be persisted, got %d decisions", len(decisions))
	}
}

func TestAuditFailureRequiresReview(t *testing.T) {
	h := newHarness(t, false)
	h.login()

	payload := mfaRule("must: attributes.amount > 100")
	h.call(http.MethodPost, "/rules/", payload, nil)
	event := accessEvent("WF-1", true)
	event["attributes"] = map[string]any{"amount": "lots"}
	h.call(http.MethodPost, "/workflows/", event, nil)

	var decision compliance.Decision
	if status := h.call(http.MethodPost, "/workflows/WF-1/audit", nil, &decision); status != http.StatusOK {
		t.Fatalf("audit answered %d", status)
	}
	if decision.Decision != compliance.OutcomeRequiresReview {
		t.Fatalf("expected REQUIRES_REVIEW, got %s", decision.Decision)
	}
	if decision.ReasoningTrace[0].RuleID != reasoning.DiagnosticRuleID {
		t.Errorf("unexpected trace: %+v", decision.ReasoningTrace)
	}
}

func TestSeedRules(t *testing.T) {
	h := newHarness(t, true)
	h.login()

	var rules []compliance.Rule
	if status := h.call(http.MethodGet, "/rules/", nil, &rules); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(rules) != len(demoRules) {
		t.Fatalf("expected %d seeded rules, got %d", len(demoRules), len(rules))
	}

	// Seeding twice must not fail on the existing rules
	if err := h.service.Bootstrap(context.Background()); err != nil {
		t.Fatalf("second Bootstrap failed: %v", err)
	}
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t, false)
	var body detailBody
	if status := h.call(http.MethodGet, "/nowhere", nil, &body); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if body.text() == "" {
		t.Error("expected a detail message")
	}
}

func jsonNumber(id int64) string {
	encoded, _ := json.Marshal(id)
	return string(encoded)
}

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/auth"
)

func newTestHandler(t *testing.T) (*TokenHandler, *auth.Authority) {
	t.Helper()
	authority := auth.New("test-secret")
	return NewTokenHandler(authority, "admin-key"), authority
}

func issueRequest(body, apiKey string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/token", strings.NewReader(body))
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	return req
}

func TestIssue_ReturnsVerifiableToken(t *testing.T) {
	h, authority := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Issue(rec, issueRequest(`{"room":"agent_42","ttlSeconds":120}`, "admin-key"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token     string `json:"token"`
		Room      string `json:"room"`
		ExpiresAt string `json:"expiresAt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Room != "agent_42" {
		t.Errorf("expected room agent_42, got %s", resp.Room)
	}
	if !authority.Verify(resp.Token, "agent_42") {
		t.Error("issued token failed verification for its own room")
	}
	if authority.Verify(resp.Token, "agent_43") {
		t.Error("issued token verified for a different room")
	}
	if _, err := time.Parse(time.RFC3339, resp.ExpiresAt); err != nil {
		t.Errorf("expiresAt is not RFC3339: %v", err)
	}
}

func TestIssue_RejectsBadAPIKey(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, key := range []string{"", "wrong-key"} {
		rec := httptest.NewRecorder()
		h.Issue(rec, issueRequest(`{"room":"agent_42"}`, key))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("key %q: expected 401, got %d", key, rec.Code)
		}
	}
}

func TestIssue_RejectsWhenNoKeyConfigured(t *testing.T) {
	authority := auth.New("test-secret")
	h := NewTokenHandler(authority, "")

	rec := httptest.NewRecorder()
	h.Issue(rec, issueRequest(`{"room":"agent_42"}`, ""))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 when no admin key configured, got %d", rec.Code)
	}
}

func TestIssue_ValidatesBody(t *testing.T) {
	h, _ := newTestHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{room:`},
		{"missing room", `{"ttlSeconds":60}`},
		{"empty room", `{"room":""}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Issue(rec, issueRequest(tc.body, "admin-key"))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

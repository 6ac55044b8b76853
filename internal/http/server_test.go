package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"brightpath/server/internal/config"
	"brightpath/server/internal/db"
	internalhttp "brightpath/server/internal/http"
	"brightpath/server/internal/repository"
)

type authFlowResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	} `json:"user"`
}

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set DATABASE_URL to run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.ApplySchema(ctx, pool, "../../schema.sql"); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	cfg := config.Config{
		JWTSecret:       "integration-test-secret",
		JWTIssuer:       "brightpath-test",
		AccessTokenTTL:  10 * time.Minute,
		RefreshTokenTTL: time.Hour,
		ContentCacheTTL: time.Minute,
	}
	server := internalhttp.NewServer(cfg, repository.NewStore(pool), nil, nil)
	app := httptest.NewServer(server.Router())
	t.Cleanup(app.Close)
	return app
}

func postJSON(t *testing.T, url, token string, payload interface{}) (*http.Response, []byte) {
	t.Helper()
	return requestJSON(t, http.MethodPost, url, token, payload)
}

func requestJSON(t *testing.T, method, url, token string, payload interface{}) (*http.Response, []byte) {
	t.Helper()
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, bytes.NewBuffer(bodyBytes))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, body
}

func TestAuthFlow(t *testing.T) {
	app := startTestServer(t)
	email := fmt.Sprintf("flow-%s@test.local", uuid.NewString()[:8])

	// Signup creates the account and returns both tokens.
	resp, body := postJSON(t, app.URL+"/auth/signup", "", map[string]string{
		"email":    email,
		"password": "dev-password",
		"fullName": "Flow Tester",
		"role":     "tutor",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status %d: %s", resp.StatusCode, body)
	}
	var signup authFlowResponse
	if err := json.Unmarshal(body, &signup); err != nil {
		t.Fatalf("decode signup: %v", err)
	}
	if signup.AccessToken == "" || signup.RefreshToken == "" {
		t.Fatalf("missing tokens in signup response")
	}
	if signup.User.Role != "tutor" {
		t.Fatalf("expected role tutor, got %q", signup.User.Role)
	}

	// Duplicate signup conflicts.
	resp, _ = postJSON(t, app.URL+"/auth/signup", "", map[string]string{
		"email":    email,
		"password": "dev-password",
		"fullName": "Flow Tester",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup status %d", resp.StatusCode)
	}

	// Login with the wrong password is rejected.
	resp, _ = postJSON(t, app.URL+"/auth/login", "", map[string]string{
		"email":    email,
		"password": "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status %d", resp.StatusCode)
	}

	resp, body = postJSON(t, app.URL+"/auth/login", "", map[string]string{
		"email":    email,
		"password": "dev-password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d: %s", resp.StatusCode, body)
	}
	var login authFlowResponse
	if err := json.Unmarshal(body, &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	// /auth/me resolves the profile attached to the token.
	resp, body = requestJSON(t, http.MethodGet, app.URL+"/auth/me", login.AccessToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status %d: %s", resp.StatusCode, body)
	}
	var me struct {
		User struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
		Profile *struct {
			FullName string `json:"full_name"`
		} `json:"profile"`
	}
	if err := json.Unmarshal(body, &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.User.Email != email || me.User.Role != "tutor" {
		t.Fatalf("unexpected me payload: %s", body)
	}
	if me.Profile == nil || me.Profile.FullName != "Flow Tester" {
		t.Fatalf("profile missing from me payload: %s", body)
	}

	// Profile patch round-trips.
	resp, body = requestJSON(t, http.MethodPatch, app.URL+"/profile", login.AccessToken, map[string]string{
		"bio": "Ten years of algebra tutoring.",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile patch status %d: %s", resp.StatusCode, body)
	}
	var patched struct {
		Bio *string `json:"bio"`
	}
	if err := json.Unmarshal(body, &patched); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if patched.Bio == nil || *patched.Bio != "Ten years of algebra tutoring." {
		t.Fatalf("bio not persisted: %s", body)
	}

	// Refresh rotates the session: new tokens work, the old refresh token dies.
	resp, body = postJSON(t, app.URL+"/auth/refresh", "", map[string]string{
		"refreshToken": login.RefreshToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status %d: %s", resp.StatusCode, body)
	}
	var refreshed authFlowResponse
	if err := json.Unmarshal(body, &refreshed); err != nil {
		t.Fatalf("decode refresh: %v", err)
	}
	resp, _ = postJSON(t, app.URL+"/auth/refresh", "", map[string]string{
		"refreshToken": login.RefreshToken,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("reused refresh token status %d", resp.StatusCode)
	}

	// Logout revokes the remaining sessions.
	resp, _ = postJSON(t, app.URL+"/auth/logout", refreshed.AccessToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status %d", resp.StatusCode)
	}
	resp, _ = postJSON(t, app.URL+"/auth/refresh", "", map[string]string{
		"refreshToken": refreshed.RefreshToken,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("post-logout refresh status %d", resp.StatusCode)
	}
}

func TestContentEndpointsReturnArrays(t *testing.T) {
	app := startTestServer(t)

	for _, path := range []string{"/api/faqs", "/api/reviews", "/api/core-values", "/api/services", "/api/credit-plans", "/api/blog"} {
		resp, body := requestJSON(t, http.MethodGet, app.URL+path, "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status %d", path, resp.StatusCode)
		}
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			t.Fatalf("%s: expected JSON array, got %s", path, body)
		}
	}
}

func TestAdminEndpointsRejectStudents(t *testing.T) {
	app := startTestServer(t)
	email := fmt.Sprintf("student-%s@test.local", uuid.NewString()[:8])

	resp, body := postJSON(t, app.URL+"/auth/signup", "", map[string]string{
		"email":    email,
		"password": "dev-password",
		"fullName": "Student Tester",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status %d: %s", resp.StatusCode, body)
	}
	var signup authFlowResponse
	if err := json.Unmarshal(body, &signup); err != nil {
		t.Fatalf("decode signup: %v", err)
	}

	resp, _ = requestJSON(t, http.MethodGet, app.URL+"/api/admin/checkout-attempts", signup.AccessToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for student, got %d", resp.StatusCode)
	}

	resp, _ = postJSON(t, app.URL+"/api/faqs", signup.AccessToken, map[string]interface{}{
		"question":      "Can students post FAQs?",
		"answer":        "No.",
		"display_order": 1,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for student FAQ create, got %d", resp.StatusCode)
	}
}

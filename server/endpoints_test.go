package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/d-chen/lowtierbot/backend/config"
	"github.com/d-chen/lowtierbot/backend/testutil"
	"github.com/d-chen/lowtierbot/backend/wordcount"
)

func testConfig() *config.Config {
	return &config.Config{
		TwitchChannel:     "chan",
		TwitchBotUsername: "low_tier_bot",
		TwitchOAuthToken:  "oauth:tok",
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *wordcount.Ledger) {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	database := testutil.SetupTestDB(t)
	ledger := wordcount.NewLedger(database)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv := httptest.NewServer(NewMux(ctx, database, cfg, ledger))
	t.Cleanup(srv.Close)
	return srv, ledger
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("body = %q", body)
	}
	if resp.Header.Get("X-Correlation-ID") == "" {
		t.Error("expected a correlation id header")
	}
}

func TestReadyzReady(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d body = %s", resp.StatusCode, body)
	}
}

func TestReadyzMissingCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.TwitchOAuthToken = ""
	srv, _ := newTestServer(t, cfg)

	resp, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["failed_check"] != "credentials" {
		t.Errorf("failed_check = %q", body["failed_check"])
	}
}

func TestStatus(t *testing.T) {
	srv, ledger := newTestServer(t, nil)
	ctx := context.Background()

	ledger.Add("alice", "hello", 2)
	ledger.Add("bob", "hello", 1)
	if err := ledger.Flush(ctx); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["entries"].(float64) != 2 {
		t.Errorf("entries = %v, want 2", body["entries"])
	}
	if body["users"].(float64) != 2 {
		t.Errorf("users = %v, want 2", body["users"])
	}
	if body["global_words"].(float64) != 1 {
		t.Errorf("global_words = %v, want 1", body["global_words"])
	}
	if body["channel"] != "chan" {
		t.Errorf("channel = %v", body["channel"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestAdminAuthRequired(t *testing.T) {
	t.Setenv("ADMIN_TOKEN", "sekrit")
	t.Setenv("RATE_LIMIT_ENABLED", "0")
	srv, _ := newTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/admin/wordcount/user?username=alice", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("without token: status = %d, want 401", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/admin/wordcount/user?username=alice", nil)
	req.Header.Set("X-Admin-Token", "sekrit")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("with token: status = %d, want 200", resp.StatusCode)
	}
}

func TestAdminDeleteUser(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "0")
	srv, ledger := newTestServer(t, nil)
	ctx := context.Background()

	ledger.Add("alice", "shared", 2)
	ledger.Add("bob", "shared", 3)
	if err := ledger.Flush(ctx); err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/admin/wordcount/user?username=alice", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	counts, err := ledger.CountsForUser(ctx, "alice", 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 0 {
		t.Errorf("alice rows should be gone, got %v", counts)
	}
	global, err := ledger.GlobalTop(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(global) != 1 || global[0].Count != 3 {
		t.Errorf("global = %v, want shared=3", global)
	}
}

func TestAdminDeleteEntry(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "0")
	srv, ledger := newTestServer(t, nil)
	ctx := context.Background()

	ledger.Add("alice", "keep", 1)
	ledger.Add("alice", "drop", 1)
	if err := ledger.Flush(ctx); err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/admin/wordcount/entry?username=alice&word=drop", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	counts, err := ledger.CountsForUser(ctx, "alice", 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 1 || counts[0].Word != "keep" {
		t.Errorf("counts = %v", counts)
	}
}

func TestAdminDeleteEntryMissingParams(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "0")
	srv, _ := newTestServer(t, nil)
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/admin/wordcount/entry?username=alice", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestOAuthStartNotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	client := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/auth/twitch/start")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 when oauth unconfigured", resp.StatusCode)
	}
}

func TestOAuthStartRedirects(t *testing.T) {
	cfg := testConfig()
	cfg.TwitchClientID = "cid"
	cfg.TwitchRedirectURI = "http://localhost/cb"
	cfg.TwitchScopes = "chat:read chat:edit"
	srv, _ := newTestServer(t, cfg)

	client := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/auth/twitch/start")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		t.Fatal("missing redirect location")
	}
}

func TestOAuthCallbackInvalidState(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/auth/twitch/callback?code=abc&state=bogus")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown state", resp.StatusCode)
	}
}

func TestOAuthStateStoreExpiry(t *testing.T) {
	h := NewHandlers(nil, testConfig(), nil)
	h.addOAuthState("fresh", time.Now().Add(time.Minute))
	h.addOAuthState("stale", time.Now().Add(-time.Minute))
	if !h.takeOAuthState("fresh") {
		t.Error("fresh state should validate")
	}
	if h.takeOAuthState("fresh") {
		t.Error("states are single use")
	}
	if h.takeOAuthState("stale") {
		t.Error("expired state should not validate")
	}
}

package twitchapi

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestBuildAuthorizeURL(t *testing.T) {
	u, err := BuildAuthorizeURL("cid", "http://localhost/cb", "chat:read,chat:edit", "state123")
	if err != nil {
		t.Fatalf("BuildAuthorizeURL() error = %v", err)
	}
	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatal(err)
	}
	q := parsed.Query()
	if q.Get("client_id") != "cid" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("scope") != "chat:read chat:edit" {
		t.Errorf("scope = %q, want space separated", q.Get("scope"))
	}
	if q.Get("state") != "state123" {
		t.Errorf("state = %q", q.Get("state"))
	}
	if !strings.HasPrefix(u, "https://id.twitch.tv/oauth2/authorize?") {
		t.Errorf("unexpected base url: %s", u)
	}
}

func TestBuildAuthorizeURLMissingParams(t *testing.T) {
	if _, err := BuildAuthorizeURL("", "http://localhost/cb", "", ""); err == nil {
		t.Error("missing clientID should error")
	}
	if _, err := BuildAuthorizeURL("cid", "", "", ""); err == nil {
		t.Error("missing redirectURI should error")
	}
}

func TestComputeExpiry(t *testing.T) {
	before := time.Now()
	got := ComputeExpiry(3600)
	if got.Before(before.Add(59*time.Minute)) || got.After(before.Add(61*time.Minute)) {
		t.Errorf("expiry %v not ~1h out", got)
	}

	fallback := ComputeExpiry(0)
	if fallback.Before(before.Add(59 * time.Minute)) {
		t.Errorf("zero seconds should default to +60m, got %v", fallback)
	}
}

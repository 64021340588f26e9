// Package twitchapi contains minimal helpers for the Twitch Helix APIs the
// bot needs: user id lookup, live stream status and stream markers.
package twitchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const helixMaxRetries = 3

// HelixClient calls the handful of Helix endpoints the bot uses. Reads use
// the app token source; marker creation needs a user access token supplied
// by the caller.
type HelixClient struct {
	AppTokenSource *TokenSource
	ClientID       string
	HTTPClient     *http.Client
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

// doJSON performs an authenticated Helix request, retrying transient 429/5xx
// responses and refreshing the app token once on 401.
func (hc *HelixClient) doJSON(ctx context.Context, method, rawURL string, body []byte, out interface{}) error {
	refreshed := false
	for attempt := 1; ; attempt++ {
		tok, err := hc.AppTokenSource.Get(ctx)
		if err != nil {
			return err
		}
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Client-Id", hc.ClientID)
		req.Header.Set("Authorization", "Bearer "+tok)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := hc.http().Do(req)
		if err != nil {
			return err
		}

		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		switch {
		case resp.StatusCode == http.StatusUnauthorized && !refreshed:
			drain(resp)
			hc.AppTokenSource.Invalidate()
			refreshed = true
			continue
		case retryable && attempt < helixMaxRetries:
			drain(resp)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
			continue
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			b, _ := io.ReadAll(resp.Body)
			drain(resp)
			return fmt.Errorf("helix request failed: %s: %s", resp.Status, string(b))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		drain(resp)
		return err
	}
}

func drain(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Warn("failed to close response body", slog.Any("err", err))
	}
}

// GetUserID resolves a login name to its user ID.
func (hc *HelixClient) GetUserID(ctx context.Context, login string) (string, error) {
	if login == "" {
		return "", fmt.Errorf("login empty")
	}
	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	u := "https://api.twitch.tv/helix/users?login=" + login
	if err := hc.doJSON(ctx, http.MethodGet, u, nil, &body); err != nil {
		return "", err
	}
	if len(body.Data) == 0 {
		return "", fmt.Errorf("user not found")
	}
	return body.Data[0].ID, nil
}

// StreamMeta describes a live stream.
type StreamMeta struct {
	Title       string
	ViewerCount int
	StartedAt   string
}

// GetStreams returns the live stream for a channel login. An empty slice
// means the channel is offline.
func (hc *HelixClient) GetStreams(ctx context.Context, userLogin string) ([]StreamMeta, error) {
	if userLogin == "" {
		return nil, fmt.Errorf("userLogin empty")
	}
	var body struct {
		Data []struct {
			Title       string `json:"title"`
			ViewerCount int    `json:"viewer_count"`
			StartedAt   string `json:"started_at"`
		} `json:"data"`
	}
	u := "https://api.twitch.tv/helix/streams?user_login=" + userLogin
	if err := hc.doJSON(ctx, http.MethodGet, u, nil, &body); err != nil {
		return nil, err
	}
	out := make([]StreamMeta, 0, len(body.Data))
	for _, s := range body.Data {
		out = append(out, StreamMeta{Title: s.Title, ViewerCount: s.ViewerCount, StartedAt: s.StartedAt})
	}
	return out, nil
}

// Marker is a created stream marker.
type Marker struct {
	ID              string `json:"id"`
	PositionSeconds int    `json:"position_seconds"`
}

// CreateStreamMarker drops a marker on the channel's live stream. Markers
// require a user access token with the channel:manage:broadcast scope, so
// the caller passes one explicitly instead of using the app token.
func (hc *HelixClient) CreateStreamMarker(ctx context.Context, userToken, userID, description string) (*Marker, error) {
	if userToken == "" || userID == "" {
		return nil, fmt.Errorf("userToken/userID empty")
	}
	payload, err := json.Marshal(map[string]string{
		"user_id":     userID,
		"description": description,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.twitch.tv/helix/streams/markers", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-Id", hc.ClientID)
	req.Header.Set("Authorization", "Bearer "+userToken)
	req.Header.Set("Content-Type", "application/json")
	resp, err := hc.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create stream marker failed: %s: %s", resp.Status, string(b))
	}
	var body struct {
		Data []Marker `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, fmt.Errorf("empty marker response")
	}
	return &body.Data[0], nil
}

package chat

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/d-chen/lowtierbot/backend/db"
	"github.com/d-chen/lowtierbot/backend/twitchapi"
)

// helixBookmarker creates stream markers through the Helix API using the
// broadcaster's stored user token.
type helixBookmarker struct {
	helix   *twitchapi.HelixClient
	db      *sql.DB
	channel string
}

func (h *helixBookmarker) CreateBookmark(ctx context.Context, description string) (string, error) {
	access, _, _, _, err := db.GetOAuthToken(ctx, h.db, "twitch")
	if err != nil {
		return "", fmt.Errorf("no stored user token for markers: %w", err)
	}
	userID, err := h.helix.GetUserID(ctx, h.channel)
	if err != nil {
		return "", fmt.Errorf("resolve broadcaster id: %w", err)
	}
	marker, err := h.helix.CreateStreamMarker(ctx, access, userID, description)
	if err != nil {
		return "", err
	}
	pos := time.Duration(marker.PositionSeconds) * time.Second
	return fmt.Sprintf("Marker saved at %s.", pos), nil
}

package chat

import (
	"fmt"
	"log/slog"
	"time"
)

const clockFormat = "15:04 MST, January 02"

// localTimeReply renders the current wall-clock time for a named city, or an
// empty string when the zone database lacks the location.
func localTimeReply(zone, city string) string {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		slog.Warn("unknown time zone", slog.String("zone", zone), slog.Any("err", err))
		return ""
	}
	return fmt.Sprintf("Local time in %s: %s", city, time.Now().In(loc).Format(clockFormat))
}

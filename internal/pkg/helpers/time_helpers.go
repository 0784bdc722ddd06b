package helpers

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Layouts accepted for incoming timestamp fields. Clients send ISO-8601;
// a bare date is accepted and interpreted as midnight UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp string. Parse failure at the
// transport boundary is reported upward as a field error, never a fault.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not a valid ISO-8601 timestamp: %q", value)
}

// ParseDuration parses a duration string, returning the default on error.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Failed to parse duration string, using default")
		return defaultDuration
	}
	return duration
}

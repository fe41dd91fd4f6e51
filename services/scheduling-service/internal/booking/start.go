package booking

import (
	"strings"
	"time"
)

// datetime-local form inputs carry no zone.
var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// ParseStart accepts RFC 3339, or a zone-less local timestamp interpreted in loc.
func ParseStart(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidStart
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidStart
}

package messaging

import (
	"strings"
	"time"
)

// Timestamp layouts robots are known to send. RFC3339 first; the bare
// layout covers firmware that drops the timezone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp degrades to the current time when the value is missing
// or unparseable, so a bad clock never drops a message.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func normalizeTag(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

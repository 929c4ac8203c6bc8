package util

import "strings"

// SanitizePostgresText strips NUL bytes and invalid UTF-8 from text headed
// for a TEXT or JSONB column; Postgres rejects both. Journal entries arrive
// from arbitrary clients, so every inbound string field passes through here
// before the pipeline touches it.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

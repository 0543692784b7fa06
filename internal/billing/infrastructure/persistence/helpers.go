package persistence

import (
	"database/sql"
	"time"
)

// nilIfEmpty maps an empty string to NULL.
func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// deref converts a nullable string column back to its empty-string form.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SQLite stores timestamps as RFC3339 text. The fixed-width fraction keeps
// lexicographic ordering consistent with chronological ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

package sqlite

import (
	"fmt"
	"time"
)

// Fixed-width UTC layout so lexicographic ordering on the TEXT column
// matches chronological ordering.
const timeLayout = "2006-01-02 15:04:05.000000000"

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

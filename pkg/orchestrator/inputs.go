package orchestrator

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var claimStartLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseClaimStart accepts "YYYY-MM-DD HH:MM:SS", "YYYY-MM-DD HH:MM" or
// "YYYY-MM-DD" in loc, an RFC3339 timestamp, or raw epoch seconds.
func ParseClaimStart(input string, loc *time.Location) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("claim start is empty")
	}
	if epoch, err := strconv.ParseUint(input, 10, 64); err == nil {
		return epoch, nil
	}
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return epochOf(t)
	}
	for _, layout := range claimStartLayouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return epochOf(t)
		}
	}
	return 0, fmt.Errorf("unrecognised claim start '%s'", input)
}

func epochOf(t time.Time) (uint64, error) {
	if t.Unix() < 0 {
		return 0, fmt.Errorf("claim start before 1970")
	}
	return uint64(t.Unix()), nil
}

package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock parses a wall-clock string "HH:MM" (seconds "HH:MM:SS" are accepted and ignored).
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, fmt.Errorf("invalid clock %q: expected HH:MM", s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid clock %q: bad hour", s)
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid clock %q: bad minute", s)
	}

	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, 0, fmt.Errorf("invalid clock %q: bad second", s)
		}
	}

	return hour, minute, nil
}

// ClockMinutes returns minutes since midnight for a wall-clock string.
func ClockMinutes(s string) (int, error) {
	h, m, err := ParseClock(s)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// FormatClock formats minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

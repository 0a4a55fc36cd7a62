package service

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	hoursRe   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:hours|hour|hrs|hr|h|часов|часа|час|ч)`)
	minutesRe = regexp.MustCompile(`(\d+)\s*(?:minutes|minute|mins|min|m|минуты|минута|минут|мин|м)`)
	clockRe   = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	numberRe  = regexp.MustCompile(`^\d+$`)
)

// ParseDurationText extracts a duration in minutes from a free-text annotation such as
// "1 hour 30 minutes", "90 min", "1h30m", "1:30" or "1,5 часа". A bare number is minutes.
// ok is false when nothing usable was found.
func ParseDurationText(text string) (minutes int, ok bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return 0, false
	}

	if m := clockRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		return positive(h*60 + mm)
	}

	if numberRe.MatchString(s) {
		n, _ := strconv.Atoi(s)
		return positive(n)
	}

	var total float64
	found := false

	for _, m := range hoursRe.FindAllStringSubmatch(s, -1) {
		h, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
		if err != nil {
			continue
		}
		total += h * 60
		found = true
	}
	// Часы вырезаем, чтобы "1h30m" не читалось как "1 м"
	rest := hoursRe.ReplaceAllString(s, " ")
	for _, m := range minutesRe.FindAllStringSubmatch(rest, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		total += float64(n)
		found = true
	}

	if !found {
		return 0, false
	}
	return positive(int(math.Round(total)))
}

func positive(n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	return n, true
}

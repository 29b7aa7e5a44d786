package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	yearRe     = regexp.MustCompile(`1[78]\d{2}`)
	monthDayRe = regexp.MustCompile(`(?i)(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2})`)
	dateTextRe = regexp.MustCompile(`,\s*(1[78]\d{2})`)
)

var months = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// ParseDate finds the first year in 1700–1899 and, if present, the first
// "<Month> <day>" in text. A missing or impossible month/day falls back to
// January 1 of the year. ok is false when no year is found.
func ParseDate(text string) (time.Time, bool) {
	ym := yearRe.FindString(text)
	if ym == "" {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(ym)
	fallback := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	md := monthDayRe.FindStringSubmatch(text)
	if md == nil {
		return fallback, true
	}
	month := months[strings.ToLower(md[1])]
	day, _ := strconv.Atoi(md[2])

	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (June 31 -> July 1); reject that.
	if d.Month() != month || d.Day() != day {
		return fallback, true
	}
	return d, true
}

// DateText returns the year token of the first ", <year>" suffix in a title.
func DateText(title string) (string, bool) {
	m := dateTextRe.FindStringSubmatch(title)
	if m == nil {
		return "", false
	}
	return m[1], true
}

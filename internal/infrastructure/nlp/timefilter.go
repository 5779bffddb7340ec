package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeFilterExtractor derives an optional time cutoff and a favor-recent
// hint from query text with a deterministic lexical pass.
type TimeFilterExtractor struct {
	now func() time.Time
}

func NewTimeFilterExtractor() *TimeFilterExtractor {
	return &TimeFilterExtractor{now: time.Now}
}

func newTimeFilterExtractorAt(now func() time.Time) *TimeFilterExtractor {
	return &TimeFilterExtractor{now: now}
}

var (
	pastRangePattern = regexp.MustCompile(`(?:past|last)\s+(\d+)\s+(day|week|month|year)s?`)

	recentMarkers = []string{"recent", "recently", "latest", "newest", "most recent"}
)

// Extract scans for relative date expressions. The earliest-mentioned
// expression wins; absence of any marker yields no cutoff.
func (e *TimeFilterExtractor) Extract(query string) (*time.Time, bool) {
	lowered := strings.ToLower(query)
	now := e.now().UTC()

	favorRecent := false
	for _, marker := range recentMarkers {
		if strings.Contains(lowered, marker) {
			favorRecent = true
			break
		}
	}

	if m := pastRangePattern.FindStringSubmatch(lowered); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			cutoff := addUnits(now, m[2], -n)
			return &cutoff, favorRecent
		}
	}

	switch {
	case strings.Contains(lowered, "today"):
		cutoff := startOfDay(now)
		return &cutoff, favorRecent
	case strings.Contains(lowered, "yesterday"):
		cutoff := startOfDay(now.AddDate(0, 0, -1))
		return &cutoff, favorRecent
	case strings.Contains(lowered, "this week"), strings.Contains(lowered, "last week"):
		cutoff := now.AddDate(0, 0, -7)
		return &cutoff, favorRecent
	case strings.Contains(lowered, "this month"), strings.Contains(lowered, "last month"):
		cutoff := now.AddDate(0, -1, 0)
		return &cutoff, favorRecent
	case strings.Contains(lowered, "this year"), strings.Contains(lowered, "last year"):
		cutoff := now.AddDate(-1, 0, 0)
		return &cutoff, favorRecent
	}

	return nil, favorRecent
}

func addUnits(t time.Time, unit string, n int) time.Time {
	switch unit {
	case "day":
		return t.AddDate(0, 0, n)
	case "week":
		return t.AddDate(0, 0, 7*n)
	case "month":
		return t.AddDate(0, n, 0)
	default:
		return t.AddDate(n, 0, 0)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package services

import (
	"strings"

	"linktrackr/models"
)

const recentClickLimit = 10

// Analytics aggregates a link's full click history.
type Analytics struct {
	TotalClicks     int                 `json:"totalClicks"`
	ClicksByDate    map[string]int      `json:"clicksByDate"`
	DeviceBreakdown map[string]int      `json:"deviceBreakdown"`
	RecentClicks    []models.ClickEvent `json:"recentClicks"`
}

// deviceRules classify a user-agent by case-insensitive substring match.
// First rule that matches wins; nothing matching falls through to Other.
var deviceRules = []struct {
	keyword string
	device  string
}{
	{"mobile", "Mobile"},
	{"tablet", "Tablet"},
	{"windows", "Desktop"},
	{"mac", "Desktop"},
	{"linux", "Desktop"},
}

// ClassifyDevice buckets a user-agent string into Mobile, Tablet, Desktop or
// Other. This is a keyword heuristic, not a user-agent parser.
func ClassifyDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, rule := range deviceRules {
		if strings.Contains(ua, rule.keyword) {
			return rule.device
		}
	}
	return "Other"
}

// ComputeAnalytics derives the per-day histogram, device breakdown and the
// ten most recent clicks (reverse chronological) from the click history.
func ComputeAnalytics(clicks []models.ClickEvent) Analytics {
	byDate := make(map[string]int)
	devices := make(map[string]int)
	for _, click := range clicks {
		byDate[click.Timestamp.UTC().Format("2006-01-02")]++
		devices[ClassifyDevice(click.UserAgent)]++
	}

	return Analytics{
		TotalClicks:     len(clicks),
		ClicksByDate:    byDate,
		DeviceBreakdown: devices,
		RecentClicks:    recentClicks(clicks, recentClickLimit),
	}
}

// recentClicks returns the last n events, newest first. The history is
// append-only, so slice order is chronological.
func recentClicks(clicks []models.ClickEvent, n int) []models.ClickEvent {
	start := len(clicks) - n
	if start < 0 {
		start = 0
	}
	tail := clicks[start:]

	out := make([]models.ClickEvent, 0, len(tail))
	for i := len(tail) - 1; i >= 0; i-- {
		out = append(out, tail[i])
	}
	return out
}

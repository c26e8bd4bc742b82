package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/thebtf/hogmind/pkg/models"
)

// Engagement thresholds for journey insights.
const (
	highEngagementEvents = 10
	lowEngagementEvents  = 3
	eventsPerSession     = 10
)

// KeyEvent summarizes one event type inside a journey.
type KeyEvent struct {
	Event           string `json:"event"`
	FirstOccurrence string `json:"first_occurrence"`
	LastOccurrence  string `json:"last_occurrence"`
	Count           int    `json:"count"`
}

// JourneyAnalysis describes a single user's activity.
type JourneyAnalysis struct {
	UserID        string     `json:"user_id"`
	FirstSeen     string     `json:"first_seen"`
	LastSeen      string     `json:"last_seen"`
	KeyEvents     []KeyEvent `json:"key_events"`
	Insights      []string   `json:"insights"`
	TotalEvents   int        `json:"total_events"`
	SessionCount  int        `json:"session_count"`
	SkippedEvents int        `json:"skipped_events,omitempty"`
}

// AnalyzeJourney summarizes a user's events. It returns nil when no event
// with a valid timestamp is available.
//
// SessionCount is ceil(total/10), an estimate and not a session boundary detector.
func AnalyzeJourney(userID string, events []models.Event, now time.Time) *JourneyAnalysis {
	timed, skipped := models.ParseEventTimes(events)
	if len(timed) == 0 {
		return nil
	}
	sort.SliceStable(timed, func(i, j int) bool { return timed[i].At.Before(timed[j].At) })

	sorted := make([]models.Event, len(timed))
	for i, t := range timed {
		sorted[i] = t.Event
	}

	groups := groupBy(sorted, byEventName)
	keyEvents := make([]KeyEvent, 0, len(groups))
	for _, g := range groups {
		keyEvents = append(keyEvents, KeyEvent{
			Event:           g.key,
			Count:           len(g.events),
			FirstOccurrence: g.events[0].Timestamp,
			LastOccurrence:  g.events[len(g.events)-1].Timestamp,
		})
	}
	sort.SliceStable(keyEvents, func(i, j int) bool { return keyEvents[i].Count > keyEvents[j].Count })

	total := len(sorted)
	first, last := timed[0], timed[len(timed)-1]

	insights := []string{
		fmt.Sprintf("User performed %d events across %d different event types", total, len(groups)),
		fmt.Sprintf("Time span: %s to %s",
			humanize.RelTime(first.At, now, "ago", "from now"),
			humanize.RelTime(last.At, now, "ago", "from now")),
	}
	switch {
	case total > highEngagementEvents:
		insights = append(insights, "High engagement user - performed many actions")
	case total < lowEngagementEvents:
		insights = append(insights, "Low engagement - may need attention or onboarding")
	}

	return &JourneyAnalysis{
		UserID:        userID,
		TotalEvents:   total,
		SessionCount:  (total + eventsPerSession - 1) / eventsPerSession,
		FirstSeen:     first.Event.Timestamp,
		LastSeen:      last.Event.Timestamp,
		KeyEvents:     keyEvents,
		Insights:      insights,
		SkippedEvents: skipped,
	}
}

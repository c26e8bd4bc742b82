package analytics

import (
	"fmt"
	"sort"

	"github.com/thebtf/hogmind/pkg/models"
)

// SessionEpochMillis is the width of a session bucket. Events of one user that
// fall in the same fixed 30 minute epoch form one session, even when two
// contiguous events straddle an epoch boundary.
const SessionEpochMillis int64 = 30 * 60 * 1000

// TopEventsLimit caps TopEvents output.
const TopEventsLimit = 10

// Metrics is the roll-up over a window of events.
// BounceRate and RetentionRate are placeholders and always zero.
type Metrics struct {
	TotalEvents        int     `json:"total_events"`
	UniqueUsers        int     `json:"unique_users"`
	Sessions           int     `json:"sessions"`
	AvgSessionDuration int     `json:"avg_session_duration"`
	BounceRate         float64 `json:"bounce_rate"`
	RetentionRate      float64 `json:"retention_rate"`
	SkippedEvents      int     `json:"skipped_events,omitempty"`
}

// EventCount is the volume of one event type.
type EventCount struct {
	Event       string `json:"event"`
	Count       int    `json:"count"`
	UniqueUsers int    `json:"unique_users"`
}

// DailyTrend is the activity of one UTC calendar day.
type DailyTrend struct {
	Date   string `json:"date"`
	Events int    `json:"events"`
	Users  int    `json:"users"`
}

type sessionKey struct {
	distinctID string
	epoch      int64
}

// ComputeMetrics rolls events up into totals and bucketed sessions.
// AvgSessionDuration is in whole seconds: sessions with fewer than two events
// add nothing to the duration sum but still count toward the divisor.
func ComputeMetrics(events []models.Event) Metrics {
	timed, skipped := models.ParseEventTimes(events)

	type span struct{ first, last int64 }
	sessions := make(map[sessionKey]*span)
	counts := make(map[sessionKey]int)
	for _, t := range timed {
		ms := t.At.UnixMilli()
		key := sessionKey{distinctID: t.Event.DistinctID, epoch: floorDiv(ms, SessionEpochMillis)}
		s, ok := sessions[key]
		if !ok {
			sessions[key] = &span{first: ms, last: ms}
		} else {
			s.first = min(s.first, ms)
			s.last = max(s.last, ms)
		}
		counts[key]++
	}

	var totalMillis int64
	for key, s := range sessions {
		if counts[key] < 2 {
			continue
		}
		totalMillis += s.last - s.first
	}

	avg := 0
	if len(sessions) > 0 {
		avg = int(roundHalfUp(float64(totalMillis) / float64(len(sessions)) / 1000))
	}

	return Metrics{
		TotalEvents:        len(events),
		UniqueUsers:        uniqueUsers(events),
		Sessions:           len(sessions),
		AvgSessionDuration: avg,
		SkippedEvents:      skipped,
	}
}

// EventCounts returns per-event-type volumes in order of first appearance.
func EventCounts(events []models.Event) []EventCount {
	groups := groupBy(events, byEventName)
	out := make([]EventCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, EventCount{
			Event:       g.key,
			Count:       len(g.events),
			UniqueUsers: uniqueUsers(g.events),
		})
	}
	return out
}

// TopEvents returns the n most frequent event types, most frequent first.
func TopEvents(events []models.Event, n int) []EventCount {
	counts := EventCounts(events)
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// DailyTrends buckets events by UTC date, ascending. Events without a valid
// timestamp are excluded.
func DailyTrends(events []models.Event) []DailyTrend {
	timed, _ := models.ParseEventTimes(events)
	byDay := make(map[string][]models.Event)
	for _, t := range timed {
		day := t.At.UTC().Format("2006-01-02")
		byDay[day] = append(byDay[day], t.Event)
	}

	out := make([]DailyTrend, 0, len(byDay))
	for day, dayEvents := range byDay {
		out = append(out, DailyTrend{Date: day, Events: len(dayEvents), Users: uniqueUsers(dayEvents)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// MetricsInsights renders the narrative lines that accompany a metrics roll-up.
func MetricsInsights(m Metrics, top []EventCount) []string {
	insights := []string{
		fmt.Sprintf("Total of %d events from %d unique users", m.TotalEvents, m.UniqueUsers),
		fmt.Sprintf("Average session duration: %d minutes", int(roundHalfUp(float64(m.AvgSessionDuration)/60))),
	}
	if len(top) > 0 {
		insights = append(insights, fmt.Sprintf("Most popular event: %q with %d occurrences", top[0].Event, top[0].Count))
	}
	return insights
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

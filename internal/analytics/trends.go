package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/thebtf/hogmind/pkg/models"
)

// Trend direction and significance values.
const (
	DirectionUp     = "up"
	DirectionDown   = "down"
	DirectionStable = "stable"

	SignificanceHigh   = "high"
	SignificanceMedium = "medium"
	SignificanceLow    = "low"
)

const (
	previousPeriodRatio   = 0.8
	directionThreshold    = 5.0
	highChangeThreshold   = 20.0
	mediumChangeThreshold = 10.0

	lowVolumeEvents      = 1000
	lowAvgEventsPerUser  = 5
	highAvgEventsPerUser = 50
)

// Trend is the synthetic period-over-period change of one event type.
// The previous period is not fetched: it is assumed to be 80% of the
// current count, so every event type seen more than once reports +25%.
type Trend struct {
	Metric       string `json:"metric"`
	Direction    string `json:"direction"`
	Significance string `json:"significance"`
	Change       int    `json:"change"`
}

// InsightAnalysis is the narrative produced by AnalyzeEvents.
type InsightAnalysis struct {
	Summary         string   `json:"summary"`
	Trends          []Trend  `json:"trends"`
	Recommendations []string `json:"recommendations"`
}

var significanceRank = map[string]int{
	SignificanceHigh:   3,
	SignificanceMedium: 2,
	SignificanceLow:    1,
}

// AnalyzeEvents summarizes events and scores per-type trends.
// Trends are ordered by significance (high first), then by change descending.
func AnalyzeEvents(events []models.Event) InsightAnalysis {
	if len(events) == 0 {
		return InsightAnalysis{
			Summary:         "No events found for analysis",
			Trends:          []Trend{},
			Recommendations: []string{"Increase user engagement to generate more events"},
		}
	}

	groups := groupBy(events, byEventName)
	users := uniqueUsers(events)
	avgPerUser := 0
	if users > 0 {
		avgPerUser = int(roundHalfUp(float64(len(events)) / float64(users)))
	}

	summary := fmt.Sprintf(
		"Analyzed %d events across %d event types from %d unique users. Average of %d events per user over %s.",
		len(events), len(groups), users, avgPerUser, timeRange(events),
	)

	trends := scoreTrends(groups)
	recs := recommendations(events, groups, users, trends)

	return InsightAnalysis{
		Summary:         summary,
		Trends:          sortTrends(trends),
		Recommendations: recs,
	}
}

// scoreTrends returns one trend per group, in group order.
func scoreTrends(groups []group) []Trend {
	trends := make([]Trend, 0, len(groups))
	for _, g := range groups {
		current := float64(len(g.events))
		previous := math.Max(1, current*previousPeriodRatio)
		change := (current - previous) / previous * 100

		direction := DirectionStable
		switch {
		case change > directionThreshold:
			direction = DirectionUp
		case change < -directionThreshold:
			direction = DirectionDown
		}

		significance := SignificanceLow
		switch abs := math.Abs(change); {
		case abs > highChangeThreshold:
			significance = SignificanceHigh
		case abs > mediumChangeThreshold:
			significance = SignificanceMedium
		}

		trends = append(trends, Trend{
			Metric:       g.key,
			Change:       int(math.Round(change)),
			Direction:    direction,
			Significance: significance,
		})
	}
	return trends
}

// sortTrends returns a copy ordered by significance, then change descending.
func sortTrends(trends []Trend) []Trend {
	sorted := make([]Trend, len(trends))
	copy(sorted, trends)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := significanceRank[sorted[i].Significance], significanceRank[sorted[j].Significance]
		if ri != rj {
			return ri > rj
		}
		return sorted[i].Change > sorted[j].Change
	})
	return sorted
}

// timeRange describes the span between the earliest and latest valid
// timestamps, counted in whole days.
func timeRange(events []models.Event) string {
	timed, _ := models.ParseEventTimes(events)
	if len(timed) == 0 {
		return "N/A"
	}

	earliest, latest := timed[0].At, timed[0].At
	for _, t := range timed[1:] {
		if t.At.Before(earliest) {
			earliest = t.At
		}
		if t.At.After(latest) {
			latest = t.At
		}
	}

	days := int(latest.Sub(earliest) / (24 * time.Hour))
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%d days", days)
	case days < 30:
		return fmt.Sprintf("%d weeks", int(roundHalfUp(float64(days)/7)))
	default:
		return fmt.Sprintf("%d months", int(roundHalfUp(float64(days)/30)))
	}
}

func recommendations(events []models.Event, groups []group, users int, trends []Trend) []string {
	var recs []string

	if len(events) < lowVolumeEvents {
		recs = append(recs, "Consider implementing more tracking to capture additional user interactions")
	}

	if users > 0 {
		avg := float64(len(events)) / float64(users)
		switch {
		case avg < lowAvgEventsPerUser:
			recs = append(recs, "Focus on user onboarding to increase engagement and event frequency")
		case avg > highAvgEventsPerUser:
			recs = append(recs, "High user engagement detected - consider analyzing power user behaviors for growth insights")
		}
	}

	if top := topGroup(groups); top != nil && float64(len(top.events)) > float64(len(events))*0.5 {
		recs = append(recs, fmt.Sprintf("%q represents majority of events - consider tracking more diverse actions", top.key))
	}

	var declining, growing []string
	for _, t := range trends {
		if t.Significance != SignificanceHigh {
			continue
		}
		switch t.Direction {
		case DirectionDown:
			declining = append(declining, t.Metric)
		case DirectionUp:
			growing = append(growing, t.Metric)
		}
	}
	if len(declining) > 0 {
		recs = append(recs, "Address declining trends in: "+strings.Join(declining, ", "))
	}
	if len(growing) > 0 {
		recs = append(recs, "Capitalize on growing trends in: "+strings.Join(growing, ", "))
	}

	if len(recs) == 0 {
		recs = append(recs, "Data looks healthy - continue monitoring key metrics and user behavior patterns")
	}
	return recs
}

// topGroup returns the largest group, preferring the earliest on ties.
func topGroup(groups []group) *group {
	var top *group
	for i := range groups {
		if top == nil || len(groups[i].events) > len(top.events) {
			top = &groups[i]
		}
	}
	return top
}

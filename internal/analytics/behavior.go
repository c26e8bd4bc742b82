package analytics

import (
	"fmt"
	"math"

	"github.com/thebtf/hogmind/pkg/models"
)

// Segment thresholds.
const (
	highEngagementUserEvents = 20
	powerUserEventTypes      = 5
	lowEngagementUserEvents  = 3
)

// Pattern is a behavior observed across a share of users.
type Pattern struct {
	Pattern     string  `json:"pattern"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Segment is a named group of users matching fixed criteria.
type Segment struct {
	Name      string `json:"name"`
	Criteria  string `json:"criteria"`
	UserCount int    `json:"user_count"`
}

// BehaviorAnalysis holds the patterns and segments found in an event window.
type BehaviorAnalysis struct {
	Patterns []Pattern `json:"patterns"`
	Segments []Segment `json:"segments"`
}

type userActivity struct {
	events int
	types  int
}

// AnalyzeUserBehavior partitions users into the fixed high engagement, power
// user and low engagement segments. A user can belong to several segments.
// Segments with no members are omitted.
func AnalyzeUserBehavior(events []models.Event) BehaviorAnalysis {
	out := BehaviorAnalysis{Patterns: []Pattern{}, Segments: []Segment{}}

	users := groupBy(events, byDistinctID)
	if len(users) == 0 {
		return out
	}
	activity := make([]userActivity, len(users))
	for i, u := range users {
		activity[i] = userActivity{events: len(u.events), types: distinctNames(u.events)}
	}

	rules := []struct {
		pattern     string
		name        string
		criteria    string
		description string
		match       func(userActivity) bool
	}{
		{
			pattern:     "high_engagement",
			name:        "High Engagement Users",
			criteria:    "Users with >20 events",
			description: "%d users show high engagement (>20 events)",
			match:       func(a userActivity) bool { return a.events > highEngagementUserEvents },
		},
		{
			pattern:     "power_users",
			name:        "Power Users",
			criteria:    "Users with >5 different event types",
			description: "%d users are power users (>5 different event types)",
			match:       func(a userActivity) bool { return a.types > powerUserEventTypes },
		},
		{
			pattern:     "low_engagement",
			name:        "Low Engagement Users",
			criteria:    "Users with <3 events",
			description: "%d users show low engagement (<3 events)",
			match:       func(a userActivity) bool { return a.events < lowEngagementUserEvents },
		},
	}

	for _, r := range rules {
		n := 0
		for _, a := range activity {
			if r.match(a) {
				n++
			}
		}
		if n == 0 {
			continue
		}
		out.Patterns = append(out.Patterns, Pattern{
			Pattern:     r.pattern,
			Confidence:  math.Min(100, float64(n)/float64(len(activity))*100),
			Description: fmt.Sprintf(r.description, n),
		})
		out.Segments = append(out.Segments, Segment{Name: r.name, Criteria: r.criteria, UserCount: n})
	}
	return out
}

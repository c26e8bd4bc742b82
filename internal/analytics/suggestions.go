package analytics

import (
	"fmt"

	"github.com/thebtf/hogmind/pkg/models"
)

// Suggestion priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

const (
	funnelConversionThreshold = 50.0
	minInsights               = 5
)

// FunnelStages is the ordered candidate funnel. Stages absent from the event
// window are skipped, and conversion is measured between consecutive present
// stages.
var FunnelStages = []string{"signup", "login", "purchase", "subscription"}

// Suggestion is one optimization recommendation.
type Suggestion struct {
	Category       string `json:"category"`
	Priority       string `json:"priority"`
	Suggestion     string `json:"suggestion"`
	ExpectedImpact string `json:"expected_impact"`
}

// OptimizationSuggestions flags funnel drop-off, low engagement and a thin
// insight catalog.
func OptimizationSuggestions(events []models.Event, insights []models.Insight) []Suggestion {
	suggestions := []Suggestion{}

	byName := make(map[string]int)
	for _, g := range groupBy(events, byEventName) {
		byName[g.key] = uniqueUsers(g.events)
	}

	type stage struct {
		name  string
		users int
	}
	var funnel []stage
	for _, name := range FunnelStages {
		if users, ok := byName[name]; ok {
			funnel = append(funnel, stage{name: name, users: users})
		}
	}
	for i := 1; i < len(funnel); i++ {
		prev, cur := funnel[i-1], funnel[i]
		rate := float64(cur.users) / float64(prev.users) * 100
		if rate < funnelConversionThreshold {
			suggestions = append(suggestions, Suggestion{
				Category:       "Conversion Optimization",
				Priority:       PriorityHigh,
				Suggestion:     fmt.Sprintf("Improve conversion from %s to %s (currently %.1f%%)", prev.name, cur.name, rate),
				ExpectedImpact: "Could increase overall conversion by 15-30%",
			})
		}
	}

	if users := uniqueUsers(events); users > 0 && float64(len(events))/float64(users) < lowAvgEventsPerUser {
		suggestions = append(suggestions, Suggestion{
			Category:       "User Engagement",
			Priority:       PriorityMedium,
			Suggestion:     "Implement onboarding flow to increase user engagement",
			ExpectedImpact: "Could double average events per user",
		})
	}

	if len(insights) < minInsights {
		suggestions = append(suggestions, Suggestion{
			Category:       "Analytics Maturity",
			Priority:       PriorityMedium,
			Suggestion:     "Create more insights to better understand user behavior",
			ExpectedImpact: "Improved data-driven decision making",
		})
	}
	return suggestions
}

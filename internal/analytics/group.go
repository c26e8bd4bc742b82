// Package analytics provides stateless aggregations over fetched analytics events.
//
// Several formulas here are deliberately simple heuristics kept for output
// compatibility: fixed 30 minute session epochs, a synthetic previous period
// at 80% of the current count, and ceil(n/10) journey sessions. None of them
// is a real session or trend detector.
package analytics

import (
	"math"

	"github.com/thebtf/hogmind/pkg/models"
)

// group is a bucket of events sharing a key, in first-seen order.
type group struct {
	key    string
	events []models.Event
}

// groupBy buckets events by key, keeping groups in order of first appearance.
func groupBy(events []models.Event, key func(models.Event) string) []group {
	index := make(map[string]int)
	var groups []group
	for _, e := range events {
		k := key(e)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{key: k})
		}
		groups[i].events = append(groups[i].events, e)
	}
	return groups
}

func byEventName(e models.Event) string  { return e.Event }
func byDistinctID(e models.Event) string { return e.DistinctID }

// uniqueUsers counts distinct ids in events.
func uniqueUsers(events []models.Event) int {
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		seen[e.DistinctID] = struct{}{}
	}
	return len(seen)
}

// distinctNames counts distinct event names in events.
func distinctNames(events []models.Event) int {
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		seen[e.Event] = struct{}{}
	}
	return len(seen)
}

// roundHalfUp rounds like a JavaScript Math.round for the non-negative values used here.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

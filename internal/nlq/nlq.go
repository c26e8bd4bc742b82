// Package nlq routes free-text analytics questions to a tool using an ordered
// list of keyword rules. It is keyword matching, not language understanding.
package nlq

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Intent names the kind of question that was asked.
type Intent string

const (
	// IntentUserJourney asks about one user's activity
	IntentUserJourney Intent = "user_journey"
	// IntentMetrics asks for a KPI overview
	IntentMetrics Intent = "metrics"
	// IntentEventAnalysis asks for event counts
	IntentEventAnalysis Intent = "event_analysis"
	// IntentPopularEvents asks for the most frequent events
	IntentPopularEvents Intent = "popular_events"
	// IntentCohortAnalysis asks about cohorts
	IntentCohortAnalysis Intent = "cohort_analysis"
	// IntentFeatureFlags asks about feature flags
	IntentFeatureFlags Intent = "feature_flags"
	// IntentSessionAnalysis asks about session recordings
	IntentSessionAnalysis Intent = "session_analysis"
	// IntentUnknown matched no rule
	IntentUnknown Intent = "unknown"
)

// DefaultAction is suggested when no rule matches.
const DefaultAction = "get_events"

// Parameter keys an extractor may set.
const (
	ParamDateFrom   = "date_from"
	ParamDistinctID = "distinct_id"
	ParamEventName  = "event_name"
	ParamQuery      = "query"
)

// Interpretation is the routing decision for one query.
type Interpretation struct {
	Parameters      map[string]string `json:"parameters"`
	Intent          Intent            `json:"intent"`
	SuggestedAction string            `json:"suggested_action"`
	Entities        []string          `json:"entities"`
}

// Rule maps a keyword predicate to an intent and the tool that serves it.
// Extract, when set, may add parameters and entities from the query.
type Rule struct {
	Match   func(lower string) bool
	Extract func(query string, in *Interpretation)
	Intent  Intent
	Action  string
}

var (
	relativeDatePattern = regexp.MustCompile(`(?i)(?:last|past)\s+(\d+)\s+(day|week|month)s?`)
	userIDPattern       = regexp.MustCompile(`(?i)\buser\s+([a-zA-Z0-9_-]+)`)
	quotedEventPattern  = regexp.MustCompile(`(?i)event\s+"([^"]+)"`)
)

// userIDStopWords are words that follow "user" in a question without naming one.
var userIDStopWords = map[string]bool{
	"journey":   true,
	"journeys":  true,
	"behavior":  true,
	"behaviors": true,
	"behaviour": true,
	"id":        true,
	"for":       true,
	"with":      true,
	"of":        true,
	"activity":  true,
	"path":      true,
	"flow":      true,
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// rules is evaluated in order and the first match wins. The order is part of
// the routing contract: "user behavior metrics" is a journey question, and
// "top event count" is an event count question.
var rules = []Rule{
	{
		Intent: IntentUserJourney,
		Action: "analyze_user_journey",
		Match: func(q string) bool {
			return strings.Contains(q, "user") && containsAny(q, "journey", "behavior")
		},
		Extract: extractUserID,
	},
	{
		Intent: IntentMetrics,
		Action: "get_metrics",
		Match:  func(q string) bool { return containsAny(q, "metric", "kpi", "overview") },
	},
	{
		Intent: IntentEventAnalysis,
		Action: "get_events",
		Match: func(q string) bool {
			return strings.Contains(q, "event") && strings.Contains(q, "count")
		},
		Extract: extractEventName,
	},
	{
		Intent: IntentPopularEvents,
		Action: "query_data",
		Match:  func(q string) bool { return containsAny(q, "popular", "top") },
		Extract: func(_ string, in *Interpretation) {
			in.Parameters[ParamQuery] = "top events by count"
		},
	},
	{
		Intent: IntentCohortAnalysis,
		Action: "get_cohorts",
		Match:  func(q string) bool { return strings.Contains(q, "cohort") },
	},
	{
		Intent: IntentFeatureFlags,
		Action: "get_feature_flags",
		Match:  func(q string) bool { return containsAny(q, "feature flag", "flag") },
	},
	{
		Intent: IntentSessionAnalysis,
		Action: "get_session_recordings",
		Match:  func(q string) bool { return containsAny(q, "recording", "session") },
	},
}

// Rules returns the routing rules in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Parse interprets query. A relative range such as "last 7 days" becomes a
// date_from relative to now, in UTC, independently of the intent.
func Parse(query string, now time.Time) Interpretation {
	in := Interpretation{
		Intent:          IntentUnknown,
		SuggestedAction: DefaultAction,
		Entities:        []string{},
		Parameters:      map[string]string{},
	}

	extractRelativeDate(query, now, &in)

	lower := strings.ToLower(query)
	for _, r := range rules {
		if !r.Match(lower) {
			continue
		}
		in.Intent = r.Intent
		in.SuggestedAction = r.Action
		if r.Extract != nil {
			r.Extract(query, &in)
		}
		break
	}
	return in
}

func extractRelativeDate(query string, now time.Time, in *Interpretation) {
	m := relativeDatePattern.FindStringSubmatch(query)
	if m == nil {
		return
	}
	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return
	}
	unit := strings.ToLower(m[2])

	from := now.UTC()
	switch unit {
	case "day":
		from = from.AddDate(0, 0, -amount)
	case "week":
		from = from.AddDate(0, 0, -7*amount)
	case "month":
		from = from.AddDate(0, -amount, 0)
	}

	in.Parameters[ParamDateFrom] = from.Format("2006-01-02")
	plural := ""
	if amount > 1 {
		plural = "s"
	}
	in.Entities = append(in.Entities, fmt.Sprintf("%d %s%s", amount, unit, plural))
}

// extractUserID takes the last "user <id>" pair whose id is not a stop word,
// so "the user journey for user abc123" yields abc123.
func extractUserID(query string, in *Interpretation) {
	var id string
	for _, m := range userIDPattern.FindAllStringSubmatch(query, -1) {
		if userIDStopWords[strings.ToLower(m[1])] {
			continue
		}
		id = m[1]
	}
	if id == "" {
		return
	}
	in.Parameters[ParamDistinctID] = id
	in.Entities = append(in.Entities, "user: "+id)
}

func extractEventName(query string, in *Interpretation) {
	m := quotedEventPattern.FindStringSubmatch(query)
	if m == nil {
		return
	}
	in.Parameters[ParamEventName] = m[1]
	in.Entities = append(in.Entities, "event: "+m[1])
}

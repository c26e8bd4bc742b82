package tools

import (
	"context"

	json "github.com/goccy/go-json"
)

// Tool is one catalog entry: its name, declared arguments and handler.
type Tool struct {
	call        func(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, string, error)
	Name        string
	Description string
	Schema      Schema
}

// newTool binds a typed handler to its schema.
func newTool[P any](name, description string, schema Schema, run func(*Dispatcher, context.Context, P) (any, string, error)) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Schema:      schema,
		call: func(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, string, error) {
			var p P
			if err := schema.Bind(name, raw, &p); err != nil {
				return nil, "", err
			}
			return run(d, ctx, p)
		},
	}
}

func dateFrom(what string) Field {
	return Field{Name: "date_from", Type: TypeString, Description: "Start date for " + what + " (YYYY-MM-DD or relative such as -7d)"}
}

func dateTo(what string) Field {
	return Field{Name: "date_to", Type: TypeString, Description: "End date for " + what + " (YYYY-MM-DD)"}
}

func limit(def, maxValue int, what string) Field {
	return Field{
		Name:        "limit",
		Type:        TypeInteger,
		Description: "Number of " + what + " to return",
		Default:     def,
		Min:         1,
		Max:         maxValue,
		Bounded:     true,
	}
}

// catalog lists every tool in the order tools/list reports them.
func catalog() []Tool {
	return []Tool{
		newTool("get_events",
			"Retrieve PostHog events with optional filtering by date, event name, or user",
			Schema{Fields: []Field{
				dateFrom("events"),
				dateTo("events"),
				{Name: "event_name", Type: TypeString, Description: "Specific event name to filter"},
				limit(100, 1000, "events"),
				{Name: "distinct_id", Type: TypeString, Description: "Filter by specific user ID"},
			}},
			(*Dispatcher).getEvents),
		newTool("get_insights",
			"Get existing PostHog insights and their results",
			Schema{Fields: []Field{
				{Name: "name", Type: TypeString, Description: "Filter insights by name"},
				limit(20, 100, "insights"),
			}},
			(*Dispatcher).getInsights),
		newTool("create_insight",
			"Create a new PostHog insight for event analysis",
			Schema{Fields: []Field{
				{Name: "name", Type: TypeString, Description: "Name for the insight", Required: true},
				{Name: "description", Type: TypeString, Description: "Description of the insight"},
				{Name: "events", Type: TypeStringArray, Description: "Array of event names to analyze", Required: true},
				dateFrom("analysis"),
				dateTo("analysis"),
				{Name: "breakdown", Type: TypeString, Description: "Property to breakdown by"},
			}},
			(*Dispatcher).createInsight),
		newTool("get_cohorts",
			"Retrieve user cohorts and their definitions",
			Schema{Fields: []Field{limit(20, 100, "cohorts")}},
			(*Dispatcher).getCohorts),
		newTool("get_persons",
			"Get user/person data with optional search",
			Schema{Fields: []Field{
				limit(100, 1000, "persons"),
				{Name: "search", Type: TypeString, Description: "Search term for person properties"},
			}},
			(*Dispatcher).getPersons),
		newTool("get_feature_flags",
			"Retrieve feature flags and their configurations",
			Schema{Fields: []Field{
				{Name: "active_only", Type: TypeBoolean, Description: "Return only active feature flags", Default: false},
			}},
			(*Dispatcher).getFeatureFlags),
		newTool("analyze_user_journey",
			"Analyze the complete journey of a specific user",
			Schema{Fields: []Field{
				{Name: "distinct_id", Type: TypeString, Description: "User ID to analyze", Required: true},
				dateFrom("analysis"),
				dateTo("analysis"),
			}},
			(*Dispatcher).analyzeUserJourney),
		newTool("get_metrics",
			"Get high-level analytics metrics and KPIs",
			Schema{Fields: []Field{
				dateFrom("metrics"),
				dateTo("metrics"),
				{Name: "events", Type: TypeStringArray, Description: "Specific events to include in metrics"},
			}},
			(*Dispatcher).getMetrics),
		newTool("query_data",
			"Query PostHog data using natural language (keyword-routed analysis)",
			Schema{Fields: []Field{
				{Name: "query", Type: TypeString, Description: "Natural language query about the data", Required: true},
				dateFrom("the query"),
				dateTo("the query"),
				limit(100, 1000, "results"),
			}},
			(*Dispatcher).queryData),
		newTool("get_session_recordings",
			"Retrieve session recordings with optional filtering",
			Schema{Fields: []Field{
				{Name: "distinct_id", Type: TypeString, Description: "Filter by specific user ID"},
				dateFrom("recordings"),
				dateTo("recordings"),
				limit(20, 100, "recordings"),
			}},
			(*Dispatcher).getSessionRecordings),
		newTool("get_recommendations",
			"Suggest optimizations from funnel conversion, engagement and insight coverage",
			Schema{Fields: []Field{
				dateFrom("analysis"),
				dateTo("analysis"),
				limit(1000, 10000, "events to analyze"),
				{
					Name:        "insights_limit",
					Type:        TypeInteger,
					Description: "Number of insights to consider",
					Default:     20,
					Min:         1,
					Max:         100,
					Bounded:     true,
				},
			}},
			(*Dispatcher).getRecommendations),
	}
}

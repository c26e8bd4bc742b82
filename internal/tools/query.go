package tools

import (
	"context"

	"github.com/thebtf/hogmind/internal/analytics"
	"github.com/thebtf/hogmind/internal/nlq"
	"github.com/thebtf/hogmind/pkg/models"
)

// FallbackQueryLimit caps the recent events returned for an unrouted query.
const FallbackQueryLimit = 50

// QueryResult is the query_data payload.
type QueryResult struct {
	Result         any                `json:"result"`
	Interpretation nlq.Interpretation `json:"interpretation"`
}

// queryData routes a free-text question through the nlq rules. Explicit date
// arguments win over a range found in the text.
func (d *Dispatcher) queryData(ctx context.Context, p QueryDataParams) (any, string, error) {
	in := nlq.Parse(p.Query, d.now())

	dateFrom := p.DateFrom
	if dateFrom == "" {
		dateFrom = in.Parameters[nlq.ParamDateFrom]
	}
	window := models.QueryParams{DateFrom: dateFrom, DateTo: p.DateTo, Limit: p.Limit}

	result, summary, err := d.routeQuery(ctx, in, window)
	if err != nil {
		return nil, "", err
	}
	return QueryResult{Interpretation: in, Result: result}, "Query analysis: " + summary, nil
}

func (d *Dispatcher) routeQuery(ctx context.Context, in nlq.Interpretation, window models.QueryParams) (any, string, error) {
	switch in.Intent {
	case nlq.IntentUserJourney:
		id := in.Parameters[nlq.ParamDistinctID]
		if id == "" {
			return nil, "User journey query needs a user id, e.g. \"journey for user abc123\"", nil
		}
		events, err := d.source.GetUserJourney(ctx, id, window.DateFrom, window.DateTo)
		if err != nil {
			return nil, "", err
		}
		if journey := analytics.AnalyzeJourney(id, events, d.now()); journey != nil {
			return journey, "User journey analysis for " + id, nil
		}
		return nil, "No events found for user " + id, nil

	case nlq.IntentMetrics:
		events, err := d.source.GetEvents(ctx, window)
		if err != nil {
			return nil, "", err
		}
		return analytics.ComputeMetrics(events), "Metrics overview", nil

	case nlq.IntentEventAnalysis:
		events, err := d.source.GetEvents(ctx, window)
		if err != nil {
			return nil, "", err
		}
		if name := in.Parameters[nlq.ParamEventName]; name != "" {
			events = models.FilterByName(events, name)
		}
		return analytics.EventCounts(events), "Event counts analysis", nil

	case nlq.IntentPopularEvents:
		events, err := d.source.GetEvents(ctx, window)
		if err != nil {
			return nil, "", err
		}
		return analytics.TopEvents(events, analytics.TopEventsLimit), "Popular events analysis", nil

	case nlq.IntentCohortAnalysis:
		cohorts, err := d.source.GetCohorts(ctx, window.Limit)
		if err != nil {
			return nil, "", err
		}
		return nonNil(cohorts), "Cohort analysis", nil

	case nlq.IntentFeatureFlags:
		flags, err := d.source.GetFeatureFlags(ctx, false)
		if err != nil {
			return nil, "", err
		}
		return nonNil(flags), "Feature flags overview", nil

	case nlq.IntentSessionAnalysis:
		recordings, err := d.source.GetSessionRecordings(ctx, models.RecordingFilter{
			DateFrom: window.DateFrom,
			DateTo:   window.DateTo,
			Limit:    window.Limit,
		})
		if err != nil {
			return nil, "", err
		}
		return nonNil(recordings), "Session recordings analysis", nil

	default:
		window.Limit = min(window.Limit, FallbackQueryLimit)
		events, err := d.source.GetEvents(ctx, window)
		if err != nil {
			return nil, "", err
		}
		return nonNil(events), "Recent events (default query response)", nil
	}
}

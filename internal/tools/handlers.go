package tools

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/thebtf/hogmind/internal/analytics"
	"github.com/thebtf/hogmind/pkg/models"
)

// MetricsFetchLimit is how many events get_metrics aggregates over.
const MetricsFetchLimit = 10000

// notAvailable fills an absent period bound.
const notAvailable = "N/A"

func (d *Dispatcher) getEvents(ctx context.Context, p GetEventsParams) (any, string, error) {
	params := models.QueryParams{DateFrom: p.DateFrom, DateTo: p.DateTo, Limit: p.Limit}

	var (
		events []models.Event
		err    error
	)
	if p.EventName != "" {
		events, err = d.source.GetEventsByName(ctx, p.EventName, params)
	} else {
		events, err = d.source.GetEvents(ctx, params)
	}
	if err != nil {
		return nil, "", err
	}

	if p.DistinctID != "" {
		events = models.FilterByDistinctID(events, p.DistinctID)
	}
	// An upstream that ignores the limit must not push the result past it.
	if len(events) > p.Limit {
		events = events[:p.Limit]
	}
	return nonNil(events), fmt.Sprintf("Retrieved %d events", len(events)), nil
}

func (d *Dispatcher) getInsights(ctx context.Context, p GetInsightsParams) (any, string, error) {
	insights, err := d.source.GetInsights(ctx, p.Limit, p.Name)
	if err != nil {
		return nil, "", err
	}
	return nonNil(insights), fmt.Sprintf("Retrieved %d insights", len(insights)), nil
}

func (d *Dispatcher) createInsight(ctx context.Context, p CreateInsightParams) (any, string, error) {
	series := make([]models.InsightEvent, len(p.Events))
	for i, name := range p.Events {
		series[i] = models.InsightEvent{ID: name, Name: name, Type: "events"}
	}

	filters := models.InsightFilters{
		Events:   series,
		DateFrom: p.DateFrom,
		DateTo:   p.DateTo,
	}
	if p.Breakdown != "" {
		filters.Breakdown = p.Breakdown
	}

	created, err := d.source.CreateInsight(ctx, models.Insight{
		Name:        p.Name,
		Description: p.Description,
		Filters:     filters,
	})
	if err != nil {
		return nil, "", err
	}
	return created, "Created insight: " + created.Name, nil
}

func (d *Dispatcher) getCohorts(ctx context.Context, p GetCohortsParams) (any, string, error) {
	cohorts, err := d.source.GetCohorts(ctx, p.Limit)
	if err != nil {
		return nil, "", err
	}
	return nonNil(cohorts), fmt.Sprintf("Retrieved %d cohorts", len(cohorts)), nil
}

func (d *Dispatcher) getPersons(ctx context.Context, p GetPersonsParams) (any, string, error) {
	persons, err := d.source.GetPersons(ctx, p.Limit, p.Search)
	if err != nil {
		return nil, "", err
	}
	return nonNil(persons), fmt.Sprintf("Retrieved %d persons", len(persons)), nil
}

func (d *Dispatcher) getFeatureFlags(ctx context.Context, p GetFeatureFlagsParams) (any, string, error) {
	flags, err := d.source.GetFeatureFlags(ctx, p.ActiveOnly)
	if err != nil {
		return nil, "", err
	}
	return nonNil(flags), fmt.Sprintf("Retrieved %d feature flags", len(flags)), nil
}

func (d *Dispatcher) getSessionRecordings(ctx context.Context, p GetSessionRecordingsParams) (any, string, error) {
	recordings, err := d.source.GetSessionRecordings(ctx, models.RecordingFilter{
		DistinctID: p.DistinctID,
		DateFrom:   p.DateFrom,
		DateTo:     p.DateTo,
		Limit:      p.Limit,
	})
	if err != nil {
		return nil, "", err
	}
	return nonNil(recordings), fmt.Sprintf("Retrieved %d session recordings", len(recordings)), nil
}

// analyzeUserJourney answers success with null data when the user has no
// events; that is an answer, not a failure.
func (d *Dispatcher) analyzeUserJourney(ctx context.Context, p AnalyzeUserJourneyParams) (any, string, error) {
	events, err := d.source.GetUserJourney(ctx, p.DistinctID, p.DateFrom, p.DateTo)
	if err != nil {
		return nil, "", err
	}

	journey := analytics.AnalyzeJourney(p.DistinctID, events, d.now())
	if journey == nil {
		return nil, "No events found for user " + p.DistinctID, nil
	}
	return journey, "Analyzed journey for user " + p.DistinctID, nil
}

// Period is the requested window of a report.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// MetricsReport is the get_metrics payload.
type MetricsReport struct {
	Period    Period                     `json:"period"`
	Overview  analytics.Metrics          `json:"overview"`
	TopEvents []analytics.EventCount     `json:"top_events"`
	Trends    []analytics.DailyTrend     `json:"trends"`
	Insights  []string                   `json:"insights"`
	Analysis  analytics.InsightAnalysis  `json:"analysis"`
	Behavior  analytics.BehaviorAnalysis `json:"behavior"`
}

func (d *Dispatcher) getMetrics(ctx context.Context, p GetMetricsParams) (any, string, error) {
	events, err := d.source.GetEvents(ctx, models.QueryParams{
		DateFrom: p.DateFrom,
		DateTo:   p.DateTo,
		Limit:    MetricsFetchLimit,
	})
	if err != nil {
		return nil, "", err
	}
	events = models.FilterByNames(events, p.Events)

	overview := analytics.ComputeMetrics(events)
	if overview.SkippedEvents > 0 {
		log.Warn().Int("skipped", overview.SkippedEvents).Msg("Skipped events with unparsable timestamps in metrics")
	}
	top := analytics.TopEvents(events, analytics.TopEventsLimit)

	return MetricsReport{
		Period:    Period{Start: orNA(p.DateFrom), End: orNA(p.DateTo)},
		Overview:  overview,
		TopEvents: top,
		Trends:    analytics.DailyTrends(events),
		Insights:  analytics.MetricsInsights(overview, top),
		Analysis:  analytics.AnalyzeEvents(events),
		Behavior:  analytics.AnalyzeUserBehavior(events),
	}, "Generated metrics analysis", nil
}

// RecommendationsReport is the get_recommendations payload.
type RecommendationsReport struct {
	Suggestions     []analytics.Suggestion `json:"suggestions"`
	Recommendations []string               `json:"recommendations"`
	EventsAnalyzed  int                    `json:"events_analyzed"`
	InsightsCount   int                    `json:"insights_count"`
}

func (d *Dispatcher) getRecommendations(ctx context.Context, p GetRecommendationsParams) (any, string, error) {
	events, err := d.source.GetEvents(ctx, models.QueryParams{
		DateFrom: p.DateFrom,
		DateTo:   p.DateTo,
		Limit:    p.Limit,
	})
	if err != nil {
		return nil, "", err
	}
	insights, err := d.source.GetInsights(ctx, p.InsightsLimit, "")
	if err != nil {
		return nil, "", err
	}

	suggestions := analytics.OptimizationSuggestions(events, insights)
	return RecommendationsReport{
		Suggestions:     suggestions,
		Recommendations: analytics.AnalyzeEvents(events).Recommendations,
		EventsAnalyzed:  len(events),
		InsightsCount:   len(insights),
	}, fmt.Sprintf("Generated %d optimization suggestions", len(suggestions)), nil
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

package posthog

import (
	"context"
	"net/url"
	"strconv"

	"github.com/thebtf/hogmind/pkg/models"
)

// Defaults applied when callers pass a zero limit.
const (
	DefaultPersonsLimit  = 100
	DefaultInsightsLimit = 20
	DefaultCohortsLimit  = 20
)

// GetPersons lists persons, optionally filtered by a search term.
func (c *Client) GetPersons(ctx context.Context, limit int, search string) ([]models.Person, error) {
	if limit <= 0 {
		limit = DefaultPersonsLimit
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if search != "" {
		q.Set("search", search)
	}

	var resp models.ListResponse[models.Person]
	if err := c.getJSON(ctx, "fetch persons", c.projectURL("persons/", q), &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Results), nil
}

// GetInsights lists saved insights, optionally searching by name.
func (c *Client) GetInsights(ctx context.Context, limit int, name string) ([]models.Insight, error) {
	if limit <= 0 {
		limit = DefaultInsightsLimit
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if name != "" {
		q.Set("search", name)
	}

	var resp models.ListResponse[models.Insight]
	if err := c.getJSON(ctx, "fetch insights", c.projectURL("insights/", q), &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Results), nil
}

// CreateInsight saves a new insight and returns the stored definition.
func (c *Client) CreateInsight(ctx context.Context, insight models.Insight) (*models.Insight, error) {
	var created models.Insight
	if err := c.postJSON(ctx, "create insight", c.projectURL("insights/", nil), insight, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetCohorts lists cohorts.
func (c *Client) GetCohorts(ctx context.Context, limit int) ([]models.Cohort, error) {
	if limit <= 0 {
		limit = DefaultCohortsLimit
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var resp models.ListResponse[models.Cohort]
	if err := c.getJSON(ctx, "fetch cohorts", c.projectURL("cohorts/", q), &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Results), nil
}

// GetFeatureFlags lists feature flags; activeOnly asks the API for active flags only.
func (c *Client) GetFeatureFlags(ctx context.Context, activeOnly bool) ([]models.FeatureFlag, error) {
	q := url.Values{}
	if activeOnly {
		q.Set("active", "true")
	}

	var resp models.ListResponse[models.FeatureFlag]
	if err := c.getJSON(ctx, "fetch feature flags", c.projectURL("feature_flags/", q), &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Results), nil
}

// GetSessionRecordings lists session recordings matching filter.
func (c *Client) GetSessionRecordings(ctx context.Context, filter models.RecordingFilter) ([]models.SessionRecording, error) {
	q := url.Values{}
	if filter.DistinctID != "" {
		q.Set("distinct_id", filter.DistinctID)
	}
	if filter.DateFrom != "" {
		q.Set("date_from", filter.DateFrom)
	}
	if filter.DateTo != "" {
		q.Set("date_to", filter.DateTo)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	var resp models.ListResponse[models.SessionRecording]
	if err := c.getJSON(ctx, "fetch session recordings", c.projectURL("session_recordings/", q), &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Results), nil
}

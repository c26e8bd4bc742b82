package posthog

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/thebtf/hogmind/pkg/models"
)

// JourneyFetchLimit is how many events GetUserJourney scans before filtering.
const JourneyFetchLimit = 1000

// eventQuery maps params onto the events endpoint query string.
// Only date range and paging are forwarded; other fields are client-side concerns.
func eventQuery(params models.QueryParams) url.Values {
	q := url.Values{}
	if params.DateFrom != "" {
		q.Set("date_from", params.DateFrom)
	}
	if params.DateTo != "" {
		q.Set("date_to", params.DateTo)
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	return q
}

// GetEvents lists events in the requested window.
func (c *Client) GetEvents(ctx context.Context, params models.QueryParams) ([]models.Event, error) {
	var resp models.ListResponse[models.Event]
	if err := c.getJSON(ctx, "fetch events", c.projectURL("events/", eventQuery(params)), &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Results), nil
}

// GetEventsByName fetches up to params.Limit events and keeps those named name.
// The fetch size is not widened to compensate, so fewer than Limit matches
// may come back even when more exist upstream.
func (c *Client) GetEventsByName(ctx context.Context, name string, params models.QueryParams) ([]models.Event, error) {
	events, err := c.GetEvents(ctx, params)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, &FetchError{Op: "fetch events for " + name, StatusCode: fe.StatusCode, Err: fe.Err}
		}
		return nil, err
	}
	return models.FilterByName(events, name), nil
}

// GetUserJourney returns one user's events in ascending time order.
// Events with unparsable timestamps are dropped and logged.
func (c *Client) GetUserJourney(ctx context.Context, distinctID, dateFrom, dateTo string) ([]models.Event, error) {
	events, err := c.GetEvents(ctx, models.QueryParams{
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Limit:    JourneyFetchLimit,
	})
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, &FetchError{Op: "fetch user journey", StatusCode: fe.StatusCode, Err: fe.Err}
		}
		return nil, err
	}

	sorted, skipped := models.SortByTime(models.FilterByDistinctID(events, distinctID))
	if skipped > 0 {
		log.Warn().
			Str("distinctId", distinctID).
			Int("skipped", skipped).
			Msg("Dropped journey events with invalid timestamps")
	}
	return sorted, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

package tools

import (
	"context"
	"fmt"

	"github.com/thebtf/hogmind/pkg/models"
)

// Resource URIs.
const (
	RecentEventsURI       = "posthog://events/recent"
	DashboardInsightsURI  = "posthog://insights/dashboard"
	recentEventsLimit     = 10
	dashboardInsightLimit = 5
)

// Resource is a read-only document exposed next to the tools.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

// Resources lists the readable resources.
func Resources() []Resource {
	return []Resource{
		{
			URI:         RecentEventsURI,
			Name:        "Recent Events",
			Description: "Most recent PostHog events",
			MimeType:    "application/json",
		},
		{
			URI:         DashboardInsightsURI,
			Name:        "Dashboard Insights",
			Description: "Current dashboard insights",
			MimeType:    "application/json",
		},
	}
}

// ReadResource fetches the document behind uri. Unlike tool calls, failures
// are returned as errors for the transport to report.
func (d *Dispatcher) ReadResource(ctx context.Context, uri string) (any, error) {
	switch uri {
	case RecentEventsURI:
		events, err := d.source.GetEvents(ctx, models.QueryParams{Limit: recentEventsLimit})
		if err != nil {
			return nil, err
		}
		return nonNil(events), nil
	case DashboardInsightsURI:
		insights, err := d.source.GetInsights(ctx, dashboardInsightLimit, "")
		if err != nil {
			return nil, err
		}
		return nonNil(insights), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, uri)
	}
}

package tools

import (
	"context"

	"github.com/thebtf/hogmind/pkg/models"
)

// DataSource is the upstream the dispatcher reads from.
// *posthog.Client satisfies it.
type DataSource interface {
	GetEvents(ctx context.Context, params models.QueryParams) ([]models.Event, error)
	GetEventsByName(ctx context.Context, name string, params models.QueryParams) ([]models.Event, error)
	GetUserJourney(ctx context.Context, distinctID, dateFrom, dateTo string) ([]models.Event, error)
	GetPersons(ctx context.Context, limit int, search string) ([]models.Person, error)
	GetInsights(ctx context.Context, limit int, name string) ([]models.Insight, error)
	CreateInsight(ctx context.Context, insight models.Insight) (*models.Insight, error)
	GetCohorts(ctx context.Context, limit int) ([]models.Cohort, error)
	GetFeatureFlags(ctx context.Context, activeOnly bool) ([]models.FeatureFlag, error)
	GetSessionRecordings(ctx context.Context, filter models.RecordingFilter) ([]models.SessionRecording, error)
}

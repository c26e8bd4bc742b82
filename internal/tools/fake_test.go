package tools

import (
	"context"
	"sync"

	"github.com/thebtf/hogmind/pkg/models"
)

// fakeSource is an in-memory DataSource that records what it was asked for.
type fakeSource struct {
	err        error
	events     []models.Event
	persons    []models.Person
	insights   []models.Insight
	cohorts    []models.Cohort
	flags      []models.FeatureFlag
	recordings []models.SessionRecording

	mu            sync.Mutex
	eventQueries  []models.QueryParams
	byName        []string
	journeyCalls  []string
	insightLimits []int
	created       []models.Insight
	recordingReqs []models.RecordingFilter
	activeOnly    []bool
	cohortLimits  []int
}

func (f *fakeSource) GetEvents(_ context.Context, params models.QueryParams) ([]models.Event, error) {
	f.mu.Lock()
	f.eventQueries = append(f.eventQueries, params)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	events := f.events
	if params.Limit > 0 && len(events) > params.Limit {
		events = events[:params.Limit]
	}
	return events, nil
}

func (f *fakeSource) GetEventsByName(ctx context.Context, name string, params models.QueryParams) ([]models.Event, error) {
	f.mu.Lock()
	f.byName = append(f.byName, name)
	f.mu.Unlock()
	events, err := f.GetEvents(ctx, params)
	if err != nil {
		return nil, err
	}
	return models.FilterByName(events, name), nil
}

func (f *fakeSource) GetUserJourney(_ context.Context, distinctID, _, _ string) ([]models.Event, error) {
	f.mu.Lock()
	f.journeyCalls = append(f.journeyCalls, distinctID)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	sorted, _ := models.SortByTime(models.FilterByDistinctID(f.events, distinctID))
	return sorted, nil
}

func (f *fakeSource) GetPersons(_ context.Context, limit int, _ string) ([]models.Person, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.persons, nil
}

func (f *fakeSource) GetInsights(_ context.Context, limit int, name string) ([]models.Insight, error) {
	f.mu.Lock()
	f.insightLimits = append(f.insightLimits, limit)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Insight
	for _, in := range f.insights {
		if name == "" || in.Name == name {
			out = append(out, in)
		}
	}
	return out, nil
}

func (f *fakeSource) CreateInsight(_ context.Context, insight models.Insight) (*models.Insight, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	insight.ID = len(f.insights) + 1
	f.created = append(f.created, insight)
	f.insights = append(f.insights, insight)
	return &insight, nil
}

func (f *fakeSource) GetCohorts(_ context.Context, limit int) ([]models.Cohort, error) {
	f.mu.Lock()
	f.cohortLimits = append(f.cohortLimits, limit)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.cohorts, nil
}

func (f *fakeSource) GetFeatureFlags(_ context.Context, activeOnly bool) ([]models.FeatureFlag, error) {
	f.mu.Lock()
	f.activeOnly = append(f.activeOnly, activeOnly)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.flags, nil
}

func (f *fakeSource) GetSessionRecordings(_ context.Context, filter models.RecordingFilter) ([]models.SessionRecording, error) {
	f.mu.Lock()
	f.recordingReqs = append(f.recordingReqs, filter)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.recordings, nil
}

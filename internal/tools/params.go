package tools

// Typed arguments of each tool, filled by Schema.Bind.

type GetEventsParams struct {
	DateFrom   string `json:"date_from"`
	DateTo     string `json:"date_to"`
	EventName  string `json:"event_name"`
	DistinctID string `json:"distinct_id"`
	Limit      int    `json:"limit"`
}

type GetInsightsParams struct {
	Name  string `json:"name"`
	Limit int    `json:"limit"`
}

type CreateInsightParams struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	DateFrom    string   `json:"date_from"`
	DateTo      string   `json:"date_to"`
	Breakdown   string   `json:"breakdown"`
	Events      []string `json:"events"`
}

type GetCohortsParams struct {
	Limit int `json:"limit"`
}

type GetPersonsParams struct {
	Search string `json:"search"`
	Limit  int    `json:"limit"`
}

type GetFeatureFlagsParams struct {
	ActiveOnly bool `json:"active_only"`
}

type AnalyzeUserJourneyParams struct {
	DistinctID string `json:"distinct_id"`
	DateFrom   string `json:"date_from"`
	DateTo     string `json:"date_to"`
}

type GetMetricsParams struct {
	DateFrom string   `json:"date_from"`
	DateTo   string   `json:"date_to"`
	Events   []string `json:"events"`
}

type QueryDataParams struct {
	Query    string `json:"query"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
	Limit    int    `json:"limit"`
}

type GetSessionRecordingsParams struct {
	DistinctID string `json:"distinct_id"`
	DateFrom   string `json:"date_from"`
	DateTo     string `json:"date_to"`
	Limit      int    `json:"limit"`
}

type GetRecommendationsParams struct {
	DateFrom      string `json:"date_from"`
	DateTo        string `json:"date_to"`
	Limit         int    `json:"limit"`
	InsightsLimit int    `json:"insights_limit"`
}

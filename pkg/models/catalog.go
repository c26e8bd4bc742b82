package models

// CohortProperty is a single property-matching rule.
type CohortProperty struct {
	Value    any    `json:"value"`
	Key      string `json:"key"`
	Operator string `json:"operator"`
	Type     string `json:"type"`
}

// CohortGroup is a set of rules that must all match.
type CohortGroup struct {
	Properties []CohortProperty `json:"properties"`
}

// Cohort is a named, rule-defined group of users.
type Cohort struct {
	ID          any           `json:"id"`
	Count       *int          `json:"count,omitempty"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	CreatedAt   string        `json:"created_at"`
	Groups      []CohortGroup `json:"groups"`
}

// FlagGroup is one release condition of a feature flag.
type FlagGroup struct {
	RolloutPercentage *float64 `json:"rollout_percentage,omitempty"`
	Properties        []any    `json:"properties"`
}

// FlagVariant is one arm of a multivariate flag.
type FlagVariant struct {
	Key               string  `json:"key"`
	Name              string  `json:"name,omitempty"`
	RolloutPercentage float64 `json:"rollout_percentage"`
}

// Multivariate lists the variants of a multivariate flag.
type Multivariate struct {
	Variants []FlagVariant `json:"variants"`
}

// FlagFilters holds release conditions of a feature flag.
type FlagFilters struct {
	Multivariate *Multivariate `json:"multivariate,omitempty"`
	Groups       []FlagGroup   `json:"groups"`
}

// FeatureFlag is a remotely toggled feature.
type FeatureFlag struct {
	ID        any         `json:"id"`
	Name      string      `json:"name"`
	Key       string      `json:"key"`
	CreatedAt string      `json:"created_at"`
	Filters   FlagFilters `json:"filters"`
	Active    bool        `json:"active"`
}

// SessionRecording summarizes one recorded browsing session.
type SessionRecording struct {
	ID                 string  `json:"id"`
	DistinctID         string  `json:"distinct_id"`
	StartTime          string  `json:"start_time"`
	EndTime            string  `json:"end_time"`
	Duration           float64 `json:"duration"`
	ClickCount         int     `json:"click_count"`
	KeypressCount      int     `json:"keypress_count"`
	MouseActivityCount int     `json:"mouse_activity_count"`
	ActiveSeconds      float64 `json:"active_seconds"`
}

// RecordingFilter narrows a session recording listing.
type RecordingFilter struct {
	DistinctID string
	DateFrom   string
	DateTo     string
	Limit      int
}

package models

// InsightEvent is one series inside an insight definition. ID is an event
// name for event series and a number for action series.
type InsightEvent struct {
	ID         any    `json:"id"`
	Properties any    `json:"properties,omitempty"`
	Name       string `json:"name"`
	Type       string `json:"type"`
}

// InsightFilters describes what an insight measures. Properties is a list or a
// grouped object and Breakdown a property name or a list of them, depending on
// the insight, so both are passed through as decoded.
type InsightFilters struct {
	Properties any            `json:"properties,omitempty"`
	Breakdown  any            `json:"breakdown,omitempty"`
	DateFrom   string         `json:"date_from,omitempty"`
	DateTo     string         `json:"date_to,omitempty"`
	Events     []InsightEvent `json:"events,omitempty"`
}

// Insight is a saved, named analysis definition. Result is the cached
// computation, shaped by the insight type (series objects for trends, nested
// step lists for funnels).
type Insight struct {
	ID          any            `json:"id,omitempty"`
	Result      any            `json:"result,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	CreatedAt   string         `json:"created_at,omitempty"`
	UpdatedAt   string         `json:"updated_at,omitempty"`
	Filters     InsightFilters `json:"filters"`
}

// Package models contains domain models for hogmind.
package models

import (
	"fmt"
	"time"
)

// Properties is an open property bag as delivered by the analytics API.
// Values keep whatever JSON shape the upstream produced.
type Properties map[string]any

// String returns the property as a string when it holds one.
func (p Properties) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Float returns the property as a float64 when it holds a JSON number.
func (p Properties) Float(key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Bool returns the property as a bool when it holds one.
func (p Properties) Bool(key string) (bool, bool) {
	v, ok := p[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Event is a single captured analytics event.
type Event struct {
	Person     *Person    `json:"person,omitempty"`
	Properties Properties `json:"properties"`
	ID         string     `json:"id"`
	Event      string     `json:"event"`
	Timestamp  string     `json:"timestamp"`
	DistinctID string     `json:"distinct_id"`
}

// timestampLayouts are tried in order when parsing event timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02",
}

// ParseTimestamp parses an upstream ISO 8601 timestamp. Values without a zone are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// Time parses the event timestamp.
func (e *Event) Time() (time.Time, error) {
	return ParseTimestamp(e.Timestamp)
}

// Person is an identified user known to the analytics platform.
type Person struct {
	Properties  Properties `json:"properties"`
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	CreatedAt   string     `json:"created_at"`
	DistinctIDs []string   `json:"distinct_ids"`
}

// QueryParams shapes an upstream event query. Zero values are omitted from the request.
type QueryParams struct {
	Properties Properties `json:"properties,omitempty"`
	DateFrom   string     `json:"date_from,omitempty"`
	DateTo     string     `json:"date_to,omitempty"`
	Breakdown  string     `json:"breakdown,omitempty"`
	Events     []string   `json:"events,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}

// ListResponse is the paginated envelope returned by list endpoints.
type ListResponse[T any] struct {
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []T    `json:"results"`
	Count    int    `json:"count,omitempty"`
}

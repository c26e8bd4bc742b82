package models

import (
	"sort"
	"time"
)

// TimedEvent pairs an event with its parsed timestamp.
type TimedEvent struct {
	At    time.Time
	Event Event
}

// ParseEventTimes parses every event timestamp, returning the parsable events
// in input order and the number of events that were excluded.
func ParseEventTimes(events []Event) ([]TimedEvent, int) {
	valid := make([]TimedEvent, 0, len(events))
	for _, e := range events {
		at, err := e.Time()
		if err != nil {
			continue
		}
		valid = append(valid, TimedEvent{At: at, Event: e})
	}
	return valid, len(events) - len(valid)
}

// SortByTime returns a new slice ordered by timestamp ascending and the
// number of events excluded because their timestamp did not parse.
// The input slice is not modified; equal timestamps keep input order.
func SortByTime(events []Event) ([]Event, int) {
	valid, skipped := ParseEventTimes(events)
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].At.Before(valid[j].At)
	})

	out := make([]Event, len(valid))
	for i, v := range valid {
		out[i] = v.Event
	}
	return out, skipped
}

package models

// FilterByName returns the events whose name equals name.
func FilterByName(events []Event, name string) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

// FilterByNames returns the events whose name is one of names.
// An empty names list keeps every event.
func FilterByNames(events []Event, names []string) []Event {
	if len(names) == 0 {
		return events
	}
	keep := make(map[string]struct{}, len(names))
	for _, n := range names {
		keep[n] = struct{}{}
	}
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if _, ok := keep[e.Event]; ok {
			out = append(out, e)
		}
	}
	return out
}

// FilterByDistinctID returns the events emitted by distinctID.
func FilterByDistinctID(events []Event, distinctID string) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.DistinctID == distinctID {
			out = append(out, e)
		}
	}
	return out
}

package signals

import (
	"sort"
	"time"
)

// EventKind classifies behavioral events in a user's signal window.
type EventKind string

const (
	EventAppOpen         EventKind = "app_open"
	EventResponseLatency EventKind = "response_latency"
	EventCheckIn         EventKind = "check_in"
)

// CheckInValue is the daily self-reported mood.
type CheckInValue string

const (
	CheckInGood      CheckInValue = "good"
	CheckInNeutral   CheckInValue = "neutral"
	CheckInDifficult CheckInValue = "difficult"
)

// Event is one timestamped behavioral observation. Value carries the
// latency in seconds for response_latency events and is unused otherwise.
type Event struct {
	UserID    string
	Kind      EventKind
	CheckIn   CheckInValue
	Value     float64
	Timestamp time.Time
}

// Window is the bounded, ordered signal history for one user. It is a
// read-only input to the risk predictor.
type Window struct {
	UserID string
	From   time.Time
	To     time.Time
	Events []Event
}

// Empty reports whether the window has no observations, which is the
// normal state for a new user and never an error.
func (w Window) Empty() bool {
	return len(w.Events) == 0
}

// Sorted returns the events ordered oldest first. The store emits them
// ordered already; this guards windows assembled by hand in tests.
func (w Window) Sorted() []Event {
	out := make([]Event, len(w.Events))
	copy(out, w.Events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// LastActivity returns the timestamp of the most recent event, or zero.
func (w Window) LastActivity() time.Time {
	var last time.Time
	for _, ev := range w.Events {
		if ev.Timestamp.After(last) {
			last = ev.Timestamp
		}
	}
	return last
}

// CheckIns returns only the check-in events, oldest first.
func (w Window) CheckIns() []Event {
	var out []Event
	for _, ev := range w.Sorted() {
		if ev.Kind == EventCheckIn {
			out = append(out, ev)
		}
	}
	return out
}

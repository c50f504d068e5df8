package orchestrator

import (
	"time"

	"github.com/ritmolabs/ritmo/pkg/config"
)

// QuietHours is the local-time window during which proactive outreach is
// suppressed. The window may wrap midnight (the 22:00-06:00 default does).
type QuietHours struct {
	Start config.ClockTime
	End   config.ClockTime
}

// Contains reports whether the local time falls inside the window. An
// empty window (start == end) never matches.
func (q QuietHours) Contains(local time.Time) bool {
	start := q.Start.MinuteOfDay()
	end := q.End.MinuteOfDay()
	if start == end {
		return false
	}

	minute := local.Hour()*60 + local.Minute()
	if start < end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

// NextEnd returns the first moment strictly after local at which the quiet
// window closes, in local's location. Used to schedule delayed responses.
func (q QuietHours) NextEnd(local time.Time) time.Time {
	end := time.Date(local.Year(), local.Month(), local.Day(),
		q.End.Hour, q.End.Minute, 0, 0, local.Location())
	if !end.After(local) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

package risk

import (
	"time"

	"github.com/ritmolabs/ritmo/pkg/signals"
)

// Heuristic thresholds. InactivityHighDays is configurable through the
// predictor; the rest follow the behavioral contract directly.
const (
	defaultInactivityHighDays = 5
	difficultStreakHigh       = 3

	confidenceEmptyWindow = 0.30
	confidenceHeuristic   = 0.55
)

// heuristicAssess is the deterministic fallback path. It never fails and
// is idempotent for identical inputs.
func heuristicAssess(w signals.Window, loc *time.Location, now time.Time, inactivityHighDays int) Assessment {
	if inactivityHighDays <= 0 {
		inactivityHighDays = defaultInactivityHighDays
	}

	assessment := Assessment{
		Level:      Low,
		Confidence: confidenceHeuristic,
		Source:     "heuristic",
		Timestamp:  now,
	}

	if w.Empty() {
		assessment.Confidence = confidenceEmptyWindow
		assessment.Factors = []string{"empty_signal_window"}
		return assessment
	}

	var factors []string
	negatives := 0

	streak := signals.DifficultStreak(w)
	hasDifficult := streak > 0
	nocturnal := signals.HasNocturnalActivity(w, loc)

	daysInactive := 0
	if last := w.LastActivity(); !last.IsZero() && now.After(last) {
		daysInactive = int(now.Sub(last).Hours() / 24)
	}

	if daysInactive >= inactivityHighDays {
		factors = append(factors, "prolonged_inactivity")
		negatives++
	}
	if streak >= difficultStreakHigh {
		factors = append(factors, "consecutive_difficult_checkins")
		negatives++
	}
	if nocturnal {
		factors = append(factors, "nocturnal_access")
		negatives++
	}
	if hasDifficult && streak < difficultStreakHigh {
		factors = append(factors, "recent_difficult_checkin")
		negatives++
	}

	switch {
	case nocturnal && hasDifficult:
		assessment.Level = Critical
	case daysInactive >= inactivityHighDays || streak >= difficultStreakHigh:
		assessment.Level = High
	case negatives > 0:
		assessment.Level = Medium
	default:
		assessment.Level = Low
		factors = append(factors, "no_negative_signals")
	}

	assessment.Factors = factors
	return assessment
}

package signals

import (
	"math"
	"time"
)

// FeatureVector is the engineered input for the trained risk classifier.
// Field order matches the classifier's training contract.
type FeatureVector struct {
	TimeOfDayEntropy    float64 `json:"time_of_day_entropy"`
	DaysSinceLastActive float64 `json:"days_since_last_active"`
	LatencyTrend        float64 `json:"latency_trend"`
	CheckInTrend        float64 `json:"check_in_trend"`
	NocturnalShare      float64 `json:"nocturnal_share"`
	DifficultStreak     float64 `json:"difficult_streak"`
}

// ExtractFeatures engineers the classifier features from a window. The
// extraction is deterministic for a fixed (window, now, location) triple.
func ExtractFeatures(w Window, now time.Time, loc *time.Location) FeatureVector {
	events := w.Sorted()

	fv := FeatureVector{
		TimeOfDayEntropy:    timeOfDayEntropy(events, loc),
		DaysSinceLastActive: daysSince(w.LastActivity(), now),
		LatencyTrend:        latencyTrend(events),
		CheckInTrend:        checkInTrend(events),
		NocturnalShare:      nocturnalShare(events, loc),
		DifficultStreak:     float64(DifficultStreak(w)),
	}
	return fv
}

// DifficultStreak counts consecutive trailing "difficult" check-ins.
func DifficultStreak(w Window) int {
	checkIns := w.CheckIns()
	streak := 0
	for i := len(checkIns) - 1; i >= 0; i-- {
		if checkIns[i].CheckIn != CheckInDifficult {
			break
		}
		streak++
	}
	return streak
}

// HasNocturnalActivity reports activity between 00:00 and 05:00 local.
func HasNocturnalActivity(w Window, loc *time.Location) bool {
	for _, ev := range w.Events {
		hour := ev.Timestamp.In(loc).Hour()
		if hour >= 0 && hour < 5 {
			return true
		}
	}
	return false
}

func daysSince(last, now time.Time) float64 {
	if last.IsZero() {
		return 0
	}
	d := now.Sub(last)
	if d < 0 {
		return 0
	}
	return d.Hours() / 24
}

// timeOfDayEntropy measures how scattered activity is across six 4-hour
// buckets. Uniform scatter approaches ln(6); a rigid routine approaches 0.
func timeOfDayEntropy(events []Event, loc *time.Location) float64 {
	var counts [6]int
	total := 0
	for _, ev := range events {
		if ev.Kind != EventAppOpen {
			continue
		}
		bucket := ev.Timestamp.In(loc).Hour() / 4
		counts[bucket]++
		total++
	}
	if total == 0 {
		return 0
	}
	entropy := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		entropy -= p * math.Log(p)
	}
	return entropy
}

// latencyTrend is the mean of the last three latencies minus the mean of
// the three before them, in seconds. Positive means slowing down.
func latencyTrend(events []Event) float64 {
	var latencies []float64
	for _, ev := range events {
		if ev.Kind == EventResponseLatency {
			latencies = append(latencies, ev.Value)
		}
	}
	return trailingDelta(latencies)
}

// checkInTrend maps check-ins to scores (good=1, neutral=0, difficult=-1)
// and compares the recent mean with the preceding one. Negative means the
// mood is worsening.
func checkInTrend(events []Event) float64 {
	var scores []float64
	for _, ev := range events {
		if ev.Kind != EventCheckIn {
			continue
		}
		switch ev.CheckIn {
		case CheckInGood:
			scores = append(scores, 1)
		case CheckInDifficult:
			scores = append(scores, -1)
		default:
			scores = append(scores, 0)
		}
	}
	return trailingDelta(scores)
}

func nocturnalShare(events []Event, loc *time.Location) float64 {
	if len(events) == 0 {
		return 0
	}
	nocturnal := 0
	for _, ev := range events {
		hour := ev.Timestamp.In(loc).Hour()
		if hour >= 0 && hour < 5 {
			nocturnal++
		}
	}
	return float64(nocturnal) / float64(len(events))
}

func trailingDelta(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	n := 3
	if len(values) < 2*n {
		n = len(values) / 2
	}
	recent := mean(values[len(values)-n:])
	prior := mean(values[len(values)-2*n : len(values)-n])
	return recent - prior
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

package risk

import "time"

// Level is the ordered risk scale. Comparisons use the integer ordering:
// Low < Medium < High < Critical.
type Level int

const (
	Low Level = iota
	Medium
	High
	Critical
)

func (l Level) String() string {
	switch l {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseLevel maps classifier output strings onto the ordered scale.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "low":
		return Low, true
	case "medium":
		return Medium, true
	case "high":
		return High, true
	case "critical":
		return Critical, true
	}
	return Low, false
}

// Assessment is created fresh per evaluation and never mutated. The
// orchestrator does not persist it.
type Assessment struct {
	Level      Level
	Confidence float64
	Factors    []string
	Source     string // "classifier" or "heuristic"
	Timestamp  time.Time
}

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockTime is a wall-clock minute of day, used for quiet-hours windows.
type ClockTime struct {
	Hour   int
	Minute int
}

func (t ClockTime) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseClockTime parses "HH:MM" in 24-hour notation.
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("invalid clock time %q, want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("invalid hour in clock time %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid minute in clock time %q", s)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

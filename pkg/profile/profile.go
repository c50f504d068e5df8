package profile

import (
	"fmt"
	"strings"
	"time"
)

// LifeStage buckets users into the five fixed accompaniment profiles.
// The stage shapes habit catalogs, persona rules, and reply tone.
type LifeStage string

const (
	StageOlderAdult       LifeStage = "older_adult"
	StageWorkingAdult     LifeStage = "working_adult"
	StageYoungAdult       LifeStage = "young_adult"
	StageMigrant          LifeStage = "migrant"
	StageVisuallyImpaired LifeStage = "visually_impaired"
)

// Stages lists every valid life stage, in catalog order.
func Stages() []LifeStage {
	return []LifeStage{
		StageOlderAdult,
		StageWorkingAdult,
		StageYoungAdult,
		StageMigrant,
		StageVisuallyImpaired,
	}
}

func ParseLifeStage(s string) (LifeStage, error) {
	stage := LifeStage(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Stages() {
		if stage == known {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown life stage %q", s)
}

// CommMode is the user's preferred delivery mode inside a channel.
type CommMode string

const (
	CommText  CommMode = "text"
	CommAudio CommMode = "audio"
	CommMixed CommMode = "mixed"
)

// UserProfile is loaded by the caller and immutable for the evaluation.
type UserProfile struct {
	ID          string
	LifeStage   LifeStage
	DisplayName string
	Channel     string // preferred delivery channel name ("discord", "cli")
	ChatID      string
	CommMode    CommMode
	Timezone    string
}

// Validate rejects profiles the orchestrator must not guess around: a
// missing id, name, or unrecognized life stage is fatal to the evaluation.
func (p UserProfile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("profile: missing user id")
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		return fmt.Errorf("profile %s: missing display name", p.ID)
	}
	if _, err := ParseLifeStage(string(p.LifeStage)); err != nil {
		return fmt.Errorf("profile %s: %w", p.ID, err)
	}
	if _, err := p.Location(); err != nil {
		return fmt.Errorf("profile %s: %w", p.ID, err)
	}
	return nil
}

// Location resolves the profile timezone. All quiet-hours and day-boundary
// decisions run in this location, never in server time.
func (p UserProfile) Location() (*time.Location, error) {
	tz := strings.TrimSpace(p.Timezone)
	if tz == "" {
		return nil, fmt.Errorf("missing timezone")
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

// LocalNow is the user's current wall-clock time.
func (p UserProfile) LocalNow(now time.Time) (time.Time, error) {
	loc, err := p.Location()
	if err != nil {
		return time.Time{}, err
	}
	return now.In(loc), nil
}

package risk

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ritmolabs/ritmo/pkg/profile"
	"github.com/ritmolabs/ritmo/pkg/signals"
)

func testProfile() profile.UserProfile {
	return profile.UserProfile{
		ID:          "u-1",
		LifeStage:   profile.StageYoungAdult,
		DisplayName: "Ana",
		Timezone:    "UTC",
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
}

func TestAssessEmptyWindow(t *testing.T) {
	p := NewPredictor(WithNowFunc(fixedNow))
	w := signals.Window{UserID: "u-1"}

	a, err := p.Assess(context.Background(), w, testProfile())
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if a.Level != Low {
		t.Errorf("Expected low for empty window, got %s", a.Level)
	}
	if a.Confidence >= 0.5 {
		t.Errorf("Expected low confidence for empty window, got %f", a.Confidence)
	}
	if a.Source != "heuristic" {
		t.Errorf("Expected heuristic source, got %s", a.Source)
	}
}

func TestAssessIdempotent(t *testing.T) {
	p := NewPredictor(WithNowFunc(fixedNow))
	now := fixedNow()
	w := signals.Window{
		UserID: "u-1",
		Events: []signals.Event{
			{Kind: signals.EventCheckIn, CheckIn: signals.CheckInDifficult, Timestamp: now.Add(-2 * time.Hour)},
			{Kind: signals.EventAppOpen, Timestamp: now.Add(-1 * time.Hour)},
		},
	}

	first, err := p.Assess(context.Background(), w, testProfile())
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	second, err := p.Assess(context.Background(), w, testProfile())
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if first.Level != second.Level || first.Confidence != second.Confidence {
		t.Errorf("Expected identical assessments, got %v and %v", first, second)
	}
}

func TestAssessNocturnalDifficultIsCritical(t *testing.T) {
	p := NewPredictor(WithNowFunc(fixedNow))
	now := fixedNow()
	nocturnal := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	w := signals.Window{
		UserID: "u-1",
		Events: []signals.Event{
			{Kind: signals.EventCheckIn, CheckIn: signals.CheckInDifficult, Timestamp: now.Add(-20 * time.Hour)},
			{Kind: signals.EventAppOpen, Timestamp: nocturnal},
		},
	}

	a, err := p.Assess(context.Background(), w, testProfile())
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if a.Level != Critical {
		t.Errorf("Expected critical for nocturnal activity plus difficult check-in, got %s", a.Level)
	}
}

func TestAssessProlongedInactivityIsHigh(t *testing.T) {
	p := NewPredictor(WithNowFunc(fixedNow))
	now := fixedNow()
	w := signals.Window{
		UserID: "u-1",
		Events: []signals.Event{
			{Kind: signals.EventAppOpen, Timestamp: now.Add(-6 * 24 * time.Hour)},
		},
	}

	a, err := p.Assess(context.Background(), w, testProfile())
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if a.Level != High {
		t.Errorf("Expected high for 6 days of inactivity, got %s", a.Level)
	}
}

func TestAssessDifficultStreakIsHigh(t *testing.T) {
	p := NewPredictor(WithNowFunc(fixedNow))
	now := fixedNow()
	var events []signals.Event
	for i := 3; i >= 1; i-- {
		events = append(events, signals.Event{
			Kind:      signals.EventCheckIn,
			CheckIn:   signals.CheckInDifficult,
			Timestamp: now.Add(-time.Duration(i) * 24 * time.Hour),
		})
	}
	events = append(events, signals.Event{Kind: signals.EventAppOpen, Timestamp: now.Add(-1 * time.Hour)})

	a, err := p.Assess(context.Background(), signals.Window{UserID: "u-1", Events: events}, testProfile())
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if a.Level != High {
		t.Errorf("Expected high for three consecutive difficult check-ins, got %s", a.Level)
	}
}

type stubClassifier struct {
	level      Level
	confidence float64
	err        error
}

func (s stubClassifier) Predict(ctx context.Context, fv signals.FeatureVector) (Level, float64, error) {
	return s.level, s.confidence, s.err
}

func TestAssessClassifierPreferred(t *testing.T) {
	p := NewPredictor(
		WithNowFunc(fixedNow),
		WithClassifier(stubClassifier{level: Medium, confidence: 0.82}),
	)
	w := signals.Window{
		UserID: "u-1",
		Events: []signals.Event{
			{Kind: signals.EventAppOpen, Timestamp: fixedNow().Add(-1 * time.Hour)},
		},
	}

	a, err := p.Assess(context.Background(), w, testProfile())
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if a.Source != "classifier" {
		t.Errorf("Expected classifier source, got %s", a.Source)
	}
	if a.Level != Medium || a.Confidence != 0.82 {
		t.Errorf("Expected medium/0.82 from classifier, got %s/%f", a.Level, a.Confidence)
	}
}

func TestAssessClassifierErrorFallsBack(t *testing.T) {
	p := NewPredictor(
		WithNowFunc(fixedNow),
		WithClassifier(stubClassifier{err: fmt.Errorf("connection refused")}),
	)
	w := signals.Window{
		UserID: "u-1",
		Events: []signals.Event{
			{Kind: signals.EventAppOpen, Timestamp: fixedNow().Add(-1 * time.Hour)},
		},
	}

	a, err := p.Assess(context.Background(), w, testProfile())
	if err != nil {
		t.Fatalf("Expected classifier error to be swallowed, got: %v", err)
	}
	if a.Source != "heuristic" {
		t.Errorf("Expected heuristic fallback, got %s", a.Source)
	}
	if a.Level != Low {
		t.Errorf("Expected low from heuristic for benign window, got %s", a.Level)
	}
}

func TestLevelOrdering(t *testing.T) {
	if !(Low < Medium && Medium < High && High < Critical) {
		t.Fatal("Risk level ordering broken")
	}
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"low", "medium", "high", "critical"} {
		level, ok := ParseLevel(name)
		if !ok {
			t.Fatalf("ParseLevel(%q) failed", name)
		}
		if level.String() != name {
			t.Errorf("Round trip failed for %q, got %q", name, level.String())
		}
	}
	if _, ok := ParseLevel("severe"); ok {
		t.Error("Expected unknown level to be rejected")
	}
}

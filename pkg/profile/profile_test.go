package profile

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func validProfile() UserProfile {
	return UserProfile{
		ID:          "u-1",
		LifeStage:   StageYoungAdult,
		DisplayName: "Ana",
		Channel:     "cli",
		ChatID:      "direct",
		CommMode:    CommText,
		Timezone:    "Europe/Madrid",
	}
}

func TestValidateRejectsBrokenProfiles(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*UserProfile)
	}{
		{"missing-id", func(p *UserProfile) { p.ID = "" }},
		{"missing-name", func(p *UserProfile) { p.DisplayName = "  " }},
		{"unknown-stage", func(p *UserProfile) { p.LifeStage = "teenager" }},
		{"missing-timezone", func(p *UserProfile) { p.Timezone = "" }},
		{"bad-timezone", func(p *UserProfile) { p.Timezone = "Mars/Olympus" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validProfile()
			tc.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	if err := validProfile().Validate(); err != nil {
		t.Errorf("Valid profile rejected: %v", err)
	}
}

func TestParseLifeStageNormalizes(t *testing.T) {
	stage, err := ParseLifeStage("  Older_Adult ")
	if err != nil {
		t.Fatalf("ParseLifeStage: %v", err)
	}
	if stage != StageOlderAdult {
		t.Errorf("Expected older_adult, got %s", stage)
	}
	if _, err := ParseLifeStage("adolescent"); err == nil {
		t.Error("Expected error for unknown stage")
	}
}

func TestPersonaRulesCoverEveryStage(t *testing.T) {
	for _, stage := range Stages() {
		if PersonaRules(stage) == "" {
			t.Errorf("No persona rules for stage %s", stage)
		}
	}
}

func TestVisuallyImpairedRulesAvoidVisualLanguage(t *testing.T) {
	rules := PersonaRules(StageVisuallyImpaired)
	if !strings.Contains(rules, "read aloud") {
		t.Error("Visually impaired rules should require audio-safe content")
	}
}

func TestStoreUpsertGetRoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "profiles.db"))
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	p := validProfile()
	if err := store.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := store.Get(ctx, "u-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != p {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", got, p)
	}

	// Update in place.
	p.DisplayName = "Ana María"
	p.LifeStage = StageMigrant
	if err := store.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	got, err = store.Get(ctx, "u-1")
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.DisplayName != "Ana María" || got.LifeStage != StageMigrant {
		t.Errorf("Update not applied: %+v", got)
	}
}

func TestStoreGetUnknownUser(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "profiles.db"))
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	defer store.Close()

	_, err = store.Get(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStoreUpsertRejectsInvalid(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "profiles.db"))
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	defer store.Close()

	p := validProfile()
	p.Timezone = ""
	if err := store.Upsert(context.Background(), p); err == nil {
		t.Error("Expected invalid profile to be rejected")
	}
}

func TestStoreListIDs(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "profiles.db"))
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for _, id := range []string{"u-b", "u-a"} {
		p := validProfile()
		p.ID = id
		if err := store.Upsert(ctx, p); err != nil {
			t.Fatalf("Upsert %s: %v", id, err)
		}
	}

	ids, err := store.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "u-a" || ids[1] != "u-b" {
		t.Errorf("Unexpected ids: %v", ids)
	}
}

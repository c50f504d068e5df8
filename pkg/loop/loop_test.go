package loop

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ritmolabs/ritmo/pkg/bus"
	"github.com/ritmolabs/ritmo/pkg/config"
	"github.com/ritmolabs/ritmo/pkg/conversation"
	"github.com/ritmolabs/ritmo/pkg/habits"
	"github.com/ritmolabs/ritmo/pkg/memory"
	"github.com/ritmolabs/ritmo/pkg/orchestrator"
	"github.com/ritmolabs/ritmo/pkg/profile"
	"github.com/ritmolabs/ritmo/pkg/risk"
	"github.com/ritmolabs/ritmo/pkg/signals"
)

type fixture struct {
	loop     *Loop
	bus      *bus.MessageBus
	profiles *profile.SQLiteStore
	signals  *signals.SQLiteStore
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	profiles, err := profile.NewSQLiteStore(filepath.Join(dir, "profiles.db"))
	if err != nil {
		t.Fatalf("profile store: %v", err)
	}
	t.Cleanup(func() { profiles.Close() })

	signalStore, err := signals.NewSQLiteStore(filepath.Join(dir, "signals.db"))
	if err != nil {
		t.Fatalf("signal store: %v", err)
	}
	t.Cleanup(func() { signalStore.Close() })

	memStore, err := memory.NewSQLiteStore(filepath.Join(dir, "memory.db"))
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	t.Cleanup(func() { memStore.Close() })

	habitStore, err := habits.NewSQLiteStore(filepath.Join(dir, "habits.db"))
	if err != nil {
		t.Fatalf("habit store: %v", err)
	}
	t.Cleanup(func() { habitStore.Close() })

	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	mb := bus.NewMessageBus()

	quiet := orchestrator.QuietHours{
		Start: config.ClockTime{Hour: 22},
		End:   config.ClockTime{Hour: 6},
	}

	f := &fixture{
		bus:      mb,
		profiles: profiles,
		signals:  signalStore,
		now:      now,
	}
	f.loop = New(Options{
		Bus:          mb,
		Profiles:     profiles,
		Signals:      signalStore,
		Memory:       memStore,
		Predictor:    risk.NewPredictor(risk.WithNowFunc(func() time.Time { return f.now })),
		HabitAgent:   habits.NewAgent(habitStore, 48*time.Hour),
		Conversation: conversation.NewAgent(nil, "", 300, 80),
		Orchestrator: orchestrator.New(quiet),
		MemoryDepth:  5,
		Lookback:     14 * 24 * time.Hour,
		Now:          func() time.Time { return f.now },
	})

	err = profiles.Upsert(context.Background(), profile.UserProfile{
		ID:          "u-1",
		LifeStage:   profile.StageYoungAdult,
		DisplayName: "Ana",
		Channel:     "cli",
		ChatID:      "chat-1",
		CommMode:    profile.CommText,
		Timezone:    "UTC",
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return f
}

func (f *fixture) receive(t *testing.T) bus.OutboundMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, ok := f.bus.SubscribeOutbound(ctx)
	if !ok {
		t.Fatal("Expected an outbound message")
	}
	return out
}

func TestUserMessageAlwaysAnswered(t *testing.T) {
	f := newFixture(t)

	err := f.loop.HandleUserMessage(context.Background(), bus.InboundMessage{
		Channel:  "cli",
		SenderID: "u-1",
		ChatID:   "chat-1",
		Content:  "hola, ¿cómo estás?",
	})
	if err != nil {
		t.Fatalf("HandleUserMessage failed: %v", err)
	}

	out := f.receive(t)
	if out.Content == "" {
		t.Error("Reply content is empty")
	}
	if out.ChatID != "chat-1" || out.Channel != "cli" {
		t.Errorf("Reply misrouted: %+v", out)
	}
}

func TestNocturnalDistressMessageEscalates(t *testing.T) {
	f := newFixture(t)
	f.now = time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)

	err := f.loop.HandleUserMessage(context.Background(), bus.InboundMessage{
		Channel:  "cli",
		SenderID: "u-1",
		ChatID:   "chat-1",
		Content:  "me siento agotado y sin ganas de nada",
	})
	if err != nil {
		t.Fatalf("HandleUserMessage failed: %v", err)
	}

	out := f.receive(t)
	if out.Priority != string(orchestrator.PriorityHighest) {
		t.Errorf("Expected highest priority for nocturnal distress, got %s", out.Priority)
	}
	if !strings.Contains(out.Content, "Ana") {
		t.Errorf("Fallback reply should address the user: %q", out.Content)
	}
}

func TestProactiveStableDispatchesHabitOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Recent benign activity keeps the heuristic at low risk.
	if err := f.signals.Record(ctx, signals.Event{
		UserID: "u-1", Kind: signals.EventAppOpen, Timestamp: f.now.Add(-2 * time.Hour),
	}); err != nil {
		t.Fatalf("seed signal: %v", err)
	}

	if err := f.loop.EvaluateProactive(ctx, "u-1"); err != nil {
		t.Fatalf("EvaluateProactive failed: %v", err)
	}
	out := f.receive(t)
	if !strings.Contains(out.Content, "Ana") {
		t.Errorf("Habit nudge should greet the user: %q", out.Content)
	}

	// Second sweep inside the cooldown must stay silent.
	f.now = f.now.Add(3 * time.Hour)
	if err := f.loop.EvaluateProactive(ctx, "u-1"); err != nil {
		t.Fatalf("Second EvaluateProactive failed: %v", err)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	if msg, ok := f.bus.SubscribeOutbound(timeoutCtx); ok {
		t.Errorf("Expected silence inside cooldown, got: %q", msg.Content)
	}
}

func TestProactiveQuietHoursSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.now = time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)

	// Inactivity pushes the heuristic to high risk, still below critical.
	if err := f.signals.Record(ctx, signals.Event{
		UserID: "u-1", Kind: signals.EventAppOpen, Timestamp: f.now.Add(-6 * 24 * time.Hour),
	}); err != nil {
		t.Fatalf("seed signal: %v", err)
	}

	if err := f.loop.EvaluateProactive(ctx, "u-1"); err != nil {
		t.Fatalf("EvaluateProactive failed: %v", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	if msg, ok := f.bus.SubscribeOutbound(timeoutCtx); ok {
		t.Errorf("Expected quiet-hours silence, got: %q", msg.Content)
	}
}

func TestProactiveMediumRiskReachesOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A lone difficult check-in is a single negative signal: medium risk.
	if err := f.signals.Record(ctx, signals.Event{
		UserID: "u-1", Kind: signals.EventCheckIn, CheckIn: signals.CheckInDifficult,
		Timestamp: f.now.Add(-20 * time.Hour),
	}); err != nil {
		t.Fatalf("seed signal: %v", err)
	}
	if err := f.signals.Record(ctx, signals.Event{
		UserID: "u-1", Kind: signals.EventAppOpen, Timestamp: f.now.Add(-19 * time.Hour),
	}); err != nil {
		t.Fatalf("seed signal: %v", err)
	}

	if err := f.loop.EvaluateProactive(ctx, "u-1"); err != nil {
		t.Fatalf("EvaluateProactive failed: %v", err)
	}

	out := f.receive(t)
	if out.Priority != string(orchestrator.PriorityElevated) {
		t.Errorf("Expected elevated priority for medium-risk outreach, got %s", out.Priority)
	}
}

func TestUnknownUserIsAnError(t *testing.T) {
	f := newFixture(t)

	err := f.loop.HandleUserMessage(context.Background(), bus.InboundMessage{
		Channel:  "cli",
		SenderID: "stranger",
		Content:  "hola",
	})
	if err == nil {
		t.Fatal("Expected error for unknown profile")
	}
}

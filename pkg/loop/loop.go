package loop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ritmolabs/ritmo/pkg/bus"
	"github.com/ritmolabs/ritmo/pkg/conversation"
	"github.com/ritmolabs/ritmo/pkg/habits"
	"github.com/ritmolabs/ritmo/pkg/logger"
	"github.com/ritmolabs/ritmo/pkg/memory"
	"github.com/ritmolabs/ritmo/pkg/orchestrator"
	"github.com/ritmolabs/ritmo/pkg/profile"
	"github.com/ritmolabs/ritmo/pkg/risk"
	"github.com/ritmolabs/ritmo/pkg/signals"
	"github.com/ritmolabs/ritmo/pkg/tone"
)

// ProfileStore is the read side the loop needs from profile storage.
type ProfileStore interface {
	Get(ctx context.Context, id string) (profile.UserProfile, error)
	ListIDs(ctx context.Context) ([]string, error)
}

// SignalStore records behavioral events and serves lookback windows.
type SignalStore interface {
	Record(ctx context.Context, ev signals.Event) error
	WindowFor(ctx context.Context, userID string, lookback time.Duration, now time.Time) (signals.Window, error)
}

// MemoryStore is the conversation history surface the loop owns writes to.
// Agents only ever see snapshots.
type MemoryStore interface {
	Append(ctx context.Context, userID string, turn memory.Turn) error
	SnapshotFor(ctx context.Context, userID string, depth int) (memory.Snapshot, error)
}

// Options wires the companion loop.
type Options struct {
	Bus          *bus.MessageBus
	Profiles     ProfileStore
	Signals      SignalStore
	Memory       MemoryStore
	Predictor    *risk.Predictor
	HabitAgent   *habits.Agent
	Conversation *conversation.Agent
	Orchestrator *orchestrator.Orchestrator
	MemoryDepth  int
	Lookback     time.Duration
	Now          func() time.Time
}

// Loop runs the evaluation pipeline for inbound messages and proactive
// sweeps. Evaluations for different users run concurrently; evaluations
// for the same user are serialized by a per-user lock.
type Loop struct {
	bus          *bus.MessageBus
	profiles     ProfileStore
	signals      SignalStore
	memory       MemoryStore
	predictor    *risk.Predictor
	habitAgent   *habits.Agent
	conversation *conversation.Agent
	orch         *orchestrator.Orchestrator
	memoryDepth  int
	lookback     time.Duration
	now          func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	wg sync.WaitGroup
}

func New(opts Options) *Loop {
	if opts.MemoryDepth <= 0 {
		opts.MemoryDepth = 5
	}
	if opts.Lookback <= 0 {
		opts.Lookback = 14 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Loop{
		bus:          opts.Bus,
		profiles:     opts.Profiles,
		signals:      opts.Signals,
		memory:       opts.Memory,
		predictor:    opts.Predictor,
		habitAgent:   opts.HabitAgent,
		conversation: opts.Conversation,
		orch:         opts.Orchestrator,
		memoryDepth:  opts.MemoryDepth,
		lookback:     opts.Lookback,
		now:          opts.Now,
		locks:        make(map[string]*sync.Mutex),
	}
}

// Run consumes inbound messages until the context is cancelled. Each
// message is handled on its own goroutine; the per-user lock keeps
// same-user evaluations sequential.
func (l *Loop) Run(ctx context.Context) {
	logger.InfoC("loop", "Companion loop started")
	for {
		msg, ok := l.bus.ConsumeInbound(ctx)
		if !ok {
			break
		}
		l.wg.Add(1)
		go func(msg bus.InboundMessage) {
			defer l.wg.Done()
			if err := l.HandleUserMessage(ctx, msg); err != nil {
				logger.ErrorCF("loop", "Failed to handle message", map[string]interface{}{
					"channel": msg.Channel,
					"sender":  msg.SenderID,
					"error":   err.Error(),
				})
			}
		}(msg)
	}
	l.wg.Wait()
	logger.InfoC("loop", "Companion loop stopped")
}

// userLock returns the serialization lock for a user id.
func (l *Loop) userLock(userID string) *sync.Mutex {
	l.locksMu.Lock()
	defer l.locksMu.Unlock()
	mu, ok := l.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[userID] = mu
	}
	return mu
}

// HandleUserMessage runs the full pipeline for one inbound message. The
// sender id doubles as the profile id.
func (l *Loop) HandleUserMessage(ctx context.Context, msg bus.InboundMessage) error {
	mu := l.userLock(msg.SenderID)
	mu.Lock()
	defer mu.Unlock()

	prof, err := l.profiles.Get(ctx, msg.SenderID)
	if err != nil {
		return fmt.Errorf("load profile %s: %w", msg.SenderID, err)
	}
	if msg.ChatID != "" {
		prof.ChatID = msg.ChatID
	}
	if msg.Channel != "" {
		prof.Channel = msg.Channel
	}

	now := l.now()
	if err := l.signals.Record(ctx, signals.Event{
		UserID:    prof.ID,
		Kind:      signals.EventAppOpen,
		Timestamp: now,
	}); err != nil {
		logger.WarnCF("loop", "Failed to record activity signal", map[string]interface{}{
			"user_id": prof.ID,
			"error":   err.Error(),
		})
	}

	decision, assessment, label, err := l.evaluate(ctx, prof, orchestrator.TriggerUserMessage, msg.Content, now)
	if err != nil {
		return err
	}
	if decision.Silent() {
		// Rule order guarantees user messages are answered; reaching this
		// means a rule regression worth surfacing loudly.
		return fmt.Errorf("user message silenced: %s", decision.Rationale)
	}

	snapshot, err := l.memory.SnapshotFor(ctx, prof.ID, l.memoryDepth)
	if err != nil {
		return fmt.Errorf("load memory snapshot: %w", err)
	}

	reply, err := l.conversation.Reply(ctx, conversation.Request{
		Profile:      prof,
		Snapshot:     snapshot,
		UserMessage:  msg.Content,
		Tone:         label.Tone,
		FollowUpHint: label.NeedsFollowUp,
		Risk:         assessment,
	})
	if err != nil {
		return fmt.Errorf("generate reply: %w", err)
	}

	l.appendExchange(ctx, prof.ID, msg.Content, reply.Text, now)
	l.dispatch(prof, reply.Text, decision.Priority)
	return nil
}

// EvaluateProactive runs one proactive cycle for a user. Called by the
// scheduler; silent outcomes are normal and not errors.
func (l *Loop) EvaluateProactive(ctx context.Context, userID string) error {
	mu := l.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	prof, err := l.profiles.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("load profile %s: %w", userID, err)
	}

	now := l.now()
	decision, assessment, _, err := l.evaluate(ctx, prof, orchestrator.TriggerProactive, "", now)
	if err != nil {
		return err
	}

	switch {
	case decision.Silent():
		return nil

	case decision.Agent == orchestrator.AgentHabit:
		return l.dispatchHabit(ctx, prof, now)

	case decision.Action == orchestrator.RespondDelayed:
		l.scheduleDelayed(ctx, prof, assessment, decision, now)
		return nil

	default:
		return l.dispatchProactiveReply(ctx, prof, assessment, decision)
	}
}

// evaluate runs tone analysis, risk assessment, and the decision rules.
func (l *Loop) evaluate(ctx context.Context, prof profile.UserProfile, trigger orchestrator.Trigger, message string, now time.Time) (orchestrator.Decision, risk.Assessment, tone.Label, error) {
	window, err := l.signals.WindowFor(ctx, prof.ID, l.lookback, now)
	if err != nil {
		return orchestrator.Decision{}, risk.Assessment{}, tone.Label{}, fmt.Errorf("load signal window: %w", err)
	}

	assessment, err := l.predictor.Assess(ctx, window, prof)
	if err != nil {
		return orchestrator.Decision{}, risk.Assessment{}, tone.Label{}, fmt.Errorf("assess risk: %w", err)
	}

	label := tone.Analyze(message)
	if label.Tone == tone.EmpatheticNeeded && assessment.Level < risk.Critical {
		// Acute distress in the message itself can outrank a calm window;
		// nocturnal distress is the classic escalation.
		if local := now.In(localOrUTC(prof)); local.Hour() < 5 {
			assessment.Level = risk.Critical
			assessment.Factors = append(assessment.Factors, "nocturnal_distress_message")
		} else if assessment.Level < risk.Medium {
			assessment.Level = risk.Medium
			assessment.Factors = append(assessment.Factors, "distress_message")
		}
	}

	localNow := now.In(localOrUTC(prof))

	habitReady := false
	if trigger == orchestrator.TriggerProactive && l.habitAgent != nil {
		habitReady, err = l.habitAgent.Ready(ctx, prof.ID, localNow)
		if err != nil {
			logger.WarnCF("loop", "Habit cooldown check failed", map[string]interface{}{
				"user_id": prof.ID,
				"error":   err.Error(),
			})
			habitReady = false
		}
	}

	decision, err := l.orch.Decide(orchestrator.Input{
		Trigger:    trigger,
		Message:    message,
		Profile:    prof,
		Tone:       label.Tone,
		Risk:       assessment,
		LocalNow:   localNow,
		HabitReady: habitReady,
	})
	if err != nil {
		return orchestrator.Decision{}, risk.Assessment{}, tone.Label{}, err
	}
	return decision, assessment, label, nil
}

func (l *Loop) dispatchHabit(ctx context.Context, prof profile.UserProfile, now time.Time) error {
	localNow := now.In(localOrUTC(prof))

	window, err := l.signals.WindowFor(ctx, prof.ID, l.lookback, now)
	if err != nil {
		return fmt.Errorf("load signal window: %w", err)
	}
	daysInactive := 0
	if last := window.LastActivity(); !last.IsZero() && now.After(last) {
		daysInactive = int(now.Sub(last).Hours() / 24)
	}

	suggestion, err := l.habitAgent.Suggest(ctx, prof, localNow, daysInactive)
	if err == habits.ErrCoolingDown {
		return nil
	}
	if err != nil {
		return fmt.Errorf("suggest habit: %w", err)
	}

	l.appendExchange(ctx, prof.ID, "", suggestion.Message, now)
	l.dispatch(prof, suggestion.Message, orchestrator.PriorityNormal)
	return nil
}

func (l *Loop) dispatchProactiveReply(ctx context.Context, prof profile.UserProfile, assessment risk.Assessment, decision orchestrator.Decision) error {
	snapshot, err := l.memory.SnapshotFor(ctx, prof.ID, l.memoryDepth)
	if err != nil {
		return fmt.Errorf("load memory snapshot: %w", err)
	}

	reply, err := l.conversation.Reply(ctx, conversation.Request{
		Profile:   prof,
		Snapshot:  snapshot,
		Tone:      tone.Neutral,
		Risk:      assessment,
		Proactive: true,
		Elevated:  decision.Priority == orchestrator.PriorityElevated || decision.Priority == orchestrator.PriorityHighest,
	})
	if err != nil {
		return fmt.Errorf("generate proactive reply: %w", err)
	}

	l.appendExchange(ctx, prof.ID, "", reply.Text, l.now())
	l.dispatch(prof, reply.Text, decision.Priority)
	return nil
}

// scheduleDelayed holds a respond_delayed decision until its window opens,
// then regenerates and dispatches. Cancellation of the loop context drops
// the pending send.
func (l *Loop) scheduleDelayed(ctx context.Context, prof profile.UserProfile, assessment risk.Assessment, decision orchestrator.Decision, now time.Time) {
	delay := decision.Until.Sub(now)
	if delay < 0 {
		delay = 0
	}
	logger.InfoCF("loop", "Proactive outreach delayed", map[string]interface{}{
		"user_id": prof.ID,
		"until":   decision.Until.Format(time.RFC3339),
	})

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			mu := l.userLock(prof.ID)
			mu.Lock()
			defer mu.Unlock()
			if err := l.dispatchProactiveReply(ctx, prof, assessment, decision); err != nil {
				logger.ErrorCF("loop", "Delayed outreach failed", map[string]interface{}{
					"user_id": prof.ID,
					"error":   err.Error(),
				})
			}
		}
	}()
}

// appendExchange writes the turn pair after dispatch. A proactive nudge
// has no user side, so only the assistant turn lands.
func (l *Loop) appendExchange(ctx context.Context, userID, userText, assistantText string, now time.Time) {
	if userText != "" {
		if err := l.memory.Append(ctx, userID, memory.Turn{Role: "user", Content: userText, Timestamp: now}); err != nil {
			logger.WarnCF("loop", "Failed to append user turn", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}
	if err := l.memory.Append(ctx, userID, memory.Turn{Role: "assistant", Content: assistantText, Timestamp: now}); err != nil {
		logger.WarnCF("loop", "Failed to append assistant turn", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

func (l *Loop) dispatch(prof profile.UserProfile, text string, priority orchestrator.Priority) {
	l.bus.PublishOutbound(bus.OutboundMessage{
		Channel:  prof.Channel,
		ChatID:   prof.ChatID,
		Content:  text,
		Priority: string(priority),
	})
}

func localOrUTC(prof profile.UserProfile) *time.Location {
	loc, err := prof.Location()
	if err != nil {
		return time.UTC
	}
	return loc
}

package orchestrator

import (
	"fmt"
	"time"

	"github.com/ritmolabs/ritmo/pkg/logger"
	"github.com/ritmolabs/ritmo/pkg/profile"
	"github.com/ritmolabs/ritmo/pkg/risk"
	"github.com/ritmolabs/ritmo/pkg/tone"
)

// Input is everything one decision needs, assembled by the caller. The
// risk assessment and tone label are computed before Decide runs; LocalNow
// is already in the user's timezone. HabitReady reflects the per-user
// cooldown check done by the caller.
type Input struct {
	Trigger    Trigger
	Message    string
	Profile    profile.UserProfile
	Tone       tone.Tone
	Risk       risk.Assessment
	LocalNow   time.Time
	HabitReady bool
}

// Orchestrator applies the priority-ordered decision rules. It holds no
// per-user state and performs no I/O, so a single instance serves all
// concurrent evaluations.
type Orchestrator struct {
	quiet QuietHours
}

func New(quiet QuietHours) *Orchestrator {
	return &Orchestrator{quiet: quiet}
}

// Decide runs the rules in strict priority order; the first match wins and
// the rationale names it. Ties never score-compete: critical risk beats
// quiet hours purely because rule 2 outranks nothing and rule 1 excludes
// critical explicitly.
func (o *Orchestrator) Decide(in Input) (Decision, error) {
	if err := in.Profile.Validate(); err != nil {
		return Decision{}, fmt.Errorf("orchestrator: %w", err)
	}

	d := o.evaluate(in)

	logger.InfoCF("orchestrator", "Decision made", map[string]interface{}{
		"user_id":   in.Profile.ID,
		"trigger":   string(in.Trigger),
		"risk":      in.Risk.Level.String(),
		"tone":      string(in.Tone),
		"action":    string(d.Action),
		"agent":     string(d.Agent),
		"rationale": d.Rationale,
	})
	return d, nil
}

func (o *Orchestrator) evaluate(in Input) Decision {
	inQuiet := o.quiet.Contains(in.LocalNow)

	// Rule 1: quiet hours suppress proactive outreach below critical risk.
	// User-initiated messages are exempt and fall through.
	if inQuiet && in.Risk.Level < risk.Critical && in.Trigger != TriggerUserMessage {
		return silenced(fmt.Sprintf("rule 1: quiet hours suppress proactive outreach at %s risk", in.Risk.Level))
	}

	// Rule 2: critical risk always gets an immediate reply, quiet hours or not.
	if in.Risk.Level == risk.Critical {
		return dispatched(Decision{
			Action:    RespondImmediately,
			Agent:     AgentConversational,
			Priority:  PriorityHighest,
			Rationale: "rule 2: critical risk overrides quiet hours and trigger type",
		})
	}

	// Rule 3: a user who writes always gets a reply.
	if in.Trigger == TriggerUserMessage {
		return dispatched(Decision{
			Action:    RespondImmediately,
			Agent:     AgentConversational,
			Priority:  PriorityNormal,
			Rationale: "rule 3: user-initiated message",
		})
	}

	// Rule 4: proactive outreach at medium or high risk, with elevated
	// priority. Delayed past the quiet window if evaluation lands inside it.
	if in.Risk.Level == risk.Medium || in.Risk.Level == risk.High {
		if inQuiet {
			return dispatched(Decision{
				Action:    RespondDelayed,
				Until:     o.quiet.NextEnd(in.LocalNow),
				Agent:     AgentConversational,
				Priority:  PriorityElevated,
				Rationale: fmt.Sprintf("rule 4: %s risk proactive outreach delayed past quiet hours", in.Risk.Level),
			})
		}
		return dispatched(Decision{
			Action:    RespondImmediately,
			Agent:     AgentConversational,
			Priority:  PriorityElevated,
			Rationale: fmt.Sprintf("rule 4: %s risk proactive outreach", in.Risk.Level),
		})
	}

	// Rule 5: stable users get a habit nudge if the cooldown has elapsed.
	// Stable means low risk and no empathy flag on the tone.
	if in.Risk.Level == risk.Low && in.Tone != tone.EmpatheticNeeded {
		if in.HabitReady {
			return dispatched(Decision{
				Action:    RespondImmediately,
				Agent:     AgentHabit,
				Priority:  PriorityNormal,
				Rationale: "rule 5: stable state, habit suggestion available",
			})
		}
		return silenced("rule 5: stable state but habit cooldown active")
	}

	// Rule 6: nothing warranted a response.
	return silenced("rule 6: default, no response warranted")
}

func dispatched(d Decision) Decision {
	d.State = StateDispatched
	return d
}

func silenced(rationale string) Decision {
	return Decision{
		Action:    StaySilent,
		Agent:     AgentNone,
		Priority:  PriorityNormal,
		Rationale: rationale,
		State:     StateSilenced,
	}
}

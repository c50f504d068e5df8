package orchestrator

import "time"

// Trigger distinguishes a user-initiated message from a scheduled or
// signal-driven proactive evaluation.
type Trigger string

const (
	TriggerUserMessage Trigger = "user_message"
	TriggerProactive   Trigger = "proactive"
)

// Action is what the engine decided to do this cycle.
type Action string

const (
	RespondImmediately Action = "respond_immediately"
	RespondDelayed     Action = "respond_delayed"
	StaySilent         Action = "stay_silent"
)

// AgentKind names which agent produces the response content.
type AgentKind string

const (
	AgentConversational AgentKind = "conversational"
	AgentHabit          AgentKind = "habit"
	AgentNone           AgentKind = "none"
)

// Priority orders dispatch urgency for the delivery layer.
type Priority string

const (
	PriorityNormal   Priority = "normal"
	PriorityElevated Priority = "elevated"
	PriorityHighest  Priority = "highest"
)

// State tracks the evaluation lifecycle. States are per evaluation and
// never persisted; Dispatched and Silenced are terminal.
type State string

const (
	StateIdle       State = "idle"
	StateEvaluating State = "evaluating"
	StateDeciding   State = "deciding"
	StateDispatched State = "dispatched"
	StateSilenced   State = "silenced"
)

// Decision is the single immutable output of one evaluation. Until is set
// only for respond_delayed and is strictly after the evaluation time.
type Decision struct {
	Action    Action
	Until     time.Time
	Agent     AgentKind
	Priority  Priority
	Rationale string
	State     State
}

func (d Decision) Silent() bool {
	return d.Action == StaySilent
}

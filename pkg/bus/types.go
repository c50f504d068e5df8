package bus

// InboundMessage is a user-initiated message arriving from a delivery
// channel (discord, cli). Proactive evaluations do not travel on the bus;
// they are injected by the scheduler directly into the companion loop.
type InboundMessage struct {
	Channel  string
	SenderID string
	ChatID   string
	Content  string
	Metadata map[string]string
}

// OutboundMessage is a reply or proactive nudge on its way to a channel.
type OutboundMessage struct {
	Channel  string
	ChatID   string
	Content  string
	Priority string
}

// Priority values recognized on OutboundMessage. Anything else is treated
// as normal.
const (
	PriorityHighest  = "highest"
	PriorityElevated = "elevated"
	PriorityNormal   = "normal"
)

// MessageHandler lets a channel register a direct callback for messages
// addressed to it instead of polling SubscribeOutbound.
type MessageHandler func(msg OutboundMessage) error

package bus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const (
	inboundCapacity  = 100
	outboundCapacity = 100
	publishTimeout   = 100 * time.Millisecond
)

// Outbound tiers indexed by delivery urgency. Lower index drains first.
const (
	tierHighest = iota
	tierElevated
	tierNormal
	tierCount
)

// MessageBus carries inbound user messages and outbound replies between
// the delivery channels and the companion loop. Inbound is plain FIFO;
// user messages carry no urgency ranking. Outbound is priority-tiered so
// a critical alert published behind a batch of habit nudges still leaves
// first.
type MessageBus struct {
	inbound  chan InboundMessage
	handlers map[string]MessageHandler
	closed   bool
	dropped  droppedCounters
	mu       sync.RWMutex

	outMu     sync.Mutex
	outQueues [tierCount][]OutboundMessage
	// outReady holds one token per queued outbound message; outSpace wakes
	// a publisher blocked on a full queue after a subscriber pops.
	outReady chan struct{}
	outSpace chan struct{}
}

type droppedCounters struct {
	inbound  atomic.Uint64
	outbound atomic.Uint64
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:  make(chan InboundMessage, inboundCapacity),
		handlers: make(map[string]MessageHandler),
		outReady: make(chan struct{}, outboundCapacity),
		outSpace: make(chan struct{}, 1),
	}
}

func (mb *MessageBus) PublishInbound(msg InboundMessage) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}

	select {
	case mb.inbound <- msg:
	default:
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case mb.inbound <- msg:
		case <-timer.C:
			mb.dropped.inbound.Add(1)
		}
	}
}

func (mb *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case msg, ok := <-mb.inbound:
		if !ok {
			return InboundMessage{}, false
		}
		return msg, true
	case <-ctx.Done():
		return InboundMessage{}, false
	}
}

// PublishOutbound enqueues into the tier matching the message priority.
// When the queue is full it waits up to publishTimeout for a subscriber to
// make room, then drops and counts.
func (mb *MessageBus) PublishOutbound(msg OutboundMessage) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}

	if mb.enqueueOutbound(msg) {
		return
	}
	timer := time.NewTimer(publishTimeout)
	defer timer.Stop()
	for {
		select {
		case <-mb.outSpace:
			if mb.enqueueOutbound(msg) {
				return
			}
		case <-timer.C:
			mb.dropped.outbound.Add(1)
			return
		}
	}
}

func (mb *MessageBus) enqueueOutbound(msg OutboundMessage) bool {
	mb.outMu.Lock()
	defer mb.outMu.Unlock()
	total := 0
	for _, q := range mb.outQueues {
		total += len(q)
	}
	if total >= outboundCapacity {
		return false
	}
	tier := tierFor(msg.Priority)
	mb.outQueues[tier] = append(mb.outQueues[tier], msg)
	// Tokens never exceed queued messages, so this cannot block.
	mb.outReady <- struct{}{}
	return true
}

// SubscribeOutbound blocks until a message is queued or the context ends,
// then returns the oldest message from the highest non-empty tier. After
// Close it drains what remains before reporting ok=false.
func (mb *MessageBus) SubscribeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case _, ok := <-mb.outReady:
		if !ok {
			return OutboundMessage{}, false
		}
		msg := mb.dequeueOutbound()
		select {
		case mb.outSpace <- struct{}{}:
		default:
		}
		return msg, true
	case <-ctx.Done():
		return OutboundMessage{}, false
	}
}

func (mb *MessageBus) dequeueOutbound() OutboundMessage {
	mb.outMu.Lock()
	defer mb.outMu.Unlock()
	for tier := range mb.outQueues {
		if len(mb.outQueues[tier]) == 0 {
			continue
		}
		msg := mb.outQueues[tier][0]
		mb.outQueues[tier] = mb.outQueues[tier][1:]
		return msg
	}
	// Unreachable while tokens track queued messages.
	return OutboundMessage{}
}

func tierFor(priority string) int {
	switch priority {
	case PriorityHighest:
		return tierHighest
	case PriorityElevated:
		return tierElevated
	default:
		return tierNormal
	}
}

func (mb *MessageBus) RegisterHandler(channel string, handler MessageHandler) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.handlers[channel] = handler
}

func (mb *MessageBus) GetHandler(channel string) (MessageHandler, bool) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	handler, ok := mb.handlers[channel]
	return handler, ok
}

func (mb *MessageBus) Close() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return
	}
	mb.closed = true
	close(mb.inbound)
	close(mb.outReady)
}

func (mb *MessageBus) DroppedInbound() uint64 {
	return mb.dropped.inbound.Load()
}

func (mb *MessageBus) DroppedOutbound() uint64 {
	return mb.dropped.outbound.Load()
}

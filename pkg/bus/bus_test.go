package bus

import (
	"context"
	"testing"
)

func TestMessageBus_PublishInboundDropsWhenBufferFull(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	for i := 0; i < cap(mb.inbound); i++ {
		mb.PublishInbound(InboundMessage{Channel: "test", SenderID: "u", ChatID: "c", Content: "msg"})
	}

	mb.PublishInbound(InboundMessage{Channel: "test", SenderID: "u", ChatID: "c", Content: "overflow"})
	if mb.DroppedInbound() != 1 {
		t.Fatalf("expected dropped inbound count 1, got %d", mb.DroppedInbound())
	}
}

func TestMessageBus_PublishOutboundDropsWhenQueueFull(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	for i := 0; i < outboundCapacity; i++ {
		mb.PublishOutbound(OutboundMessage{Channel: "test", ChatID: "c", Content: "msg"})
	}

	mb.PublishOutbound(OutboundMessage{Channel: "test", ChatID: "c", Content: "overflow"})
	if mb.DroppedOutbound() != 1 {
		t.Fatalf("expected dropped outbound count 1, got %d", mb.DroppedOutbound())
	}
}

func TestMessageBus_OutboundPriorityOrdering(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	mb.PublishOutbound(OutboundMessage{ChatID: "c", Content: "nudge-1", Priority: PriorityNormal})
	mb.PublishOutbound(OutboundMessage{ChatID: "c", Content: "nudge-2", Priority: ""})
	mb.PublishOutbound(OutboundMessage{ChatID: "c", Content: "concern", Priority: PriorityElevated})
	mb.PublishOutbound(OutboundMessage{ChatID: "c", Content: "alert", Priority: PriorityHighest})

	expected := []string{"alert", "concern", "nudge-1", "nudge-2"}
	for i, want := range expected {
		msg, ok := mb.SubscribeOutbound(context.Background())
		if !ok {
			t.Fatalf("subscribe %d returned ok=false", i)
		}
		if msg.Content != want {
			t.Errorf("message %d = %q, expected %q", i, msg.Content, want)
		}
	}
}

func TestMessageBus_CloseDrainsQueuedOutbound(t *testing.T) {
	mb := NewMessageBus()

	mb.PublishOutbound(OutboundMessage{ChatID: "c", Content: "pending", Priority: PriorityNormal})
	mb.Close()

	msg, ok := mb.SubscribeOutbound(context.Background())
	if !ok {
		t.Fatal("expected the queued message to survive Close")
	}
	if msg.Content != "pending" {
		t.Errorf("drained message = %q, expected %q", msg.Content, "pending")
	}
	if _, ok := mb.SubscribeOutbound(context.Background()); ok {
		t.Fatal("expected ok=false once the queue is drained")
	}
}

func TestMessageBus_ClosedChannelsReturnFalse(t *testing.T) {
	mb := NewMessageBus()
	mb.Close()

	if _, ok := mb.ConsumeInbound(context.Background()); ok {
		t.Fatalf("expected closed inbound consume to return ok=false")
	}
	if _, ok := mb.SubscribeOutbound(context.Background()); ok {
		t.Fatalf("expected closed outbound subscribe to return ok=false")
	}
}

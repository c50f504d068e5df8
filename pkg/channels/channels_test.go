package channels

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ritmolabs/ritmo/pkg/bus"
)

func TestIsAllowedEmptyListAdmitsAll(t *testing.T) {
	c := NewBaseChannel("test", bus.NewMessageBus(), nil)
	if !c.IsAllowed("anyone") {
		t.Error("Empty allowlist should admit everyone")
	}
}

func TestIsAllowedMatchesIDAndUsername(t *testing.T) {
	c := NewBaseChannel("test", bus.NewMessageBus(), []string{"12345", "@ana"})

	cases := []struct {
		sender   string
		expected bool
	}{
		{"12345", true},
		{"12345|ana", true},
		{"99999|ana", true},
		{"99999", false},
		{"99999|bob", false},
	}
	for _, tc := range cases {
		if got := c.IsAllowed(tc.sender); got != tc.expected {
			t.Errorf("IsAllowed(%q) = %v, expected %v", tc.sender, got, tc.expected)
		}
	}
}

func TestHandleMessagePublishesInbound(t *testing.T) {
	mb := bus.NewMessageBus()
	c := NewBaseChannel("test", mb, nil)

	c.HandleMessage("u-1", "chat-1", "hola", map[string]string{"k": "v"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := mb.ConsumeInbound(ctx)
	if !ok {
		t.Fatal("Expected an inbound message")
	}
	if msg.Channel != "test" || msg.SenderID != "u-1" || msg.Content != "hola" {
		t.Errorf("Unexpected inbound message: %+v", msg)
	}
}

func TestHandleMessageDropsDisallowedSender(t *testing.T) {
	mb := bus.NewMessageBus()
	c := NewBaseChannel("test", mb, []string{"allowed"})

	c.HandleMessage("blocked", "chat-1", "hola", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, ok := mb.ConsumeInbound(ctx); ok {
		t.Error("Disallowed sender's message should not reach the bus")
	}
}

func TestSplitMessageShortContentUntouched(t *testing.T) {
	chunks := splitMessage("hola, ¿cómo estás?", 1800)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
}

func TestSplitMessageRespectsLimit(t *testing.T) {
	content := strings.Repeat("Una frase corta de prueba. ", 200)
	chunks := splitMessage(content, 500)
	if len(chunks) < 2 {
		t.Fatal("Expected content to be split")
	}
	for i, chunk := range chunks {
		if len(chunk) > 500 {
			t.Errorf("Chunk %d exceeds limit: %d chars", i, len(chunk))
		}
	}
	joined := strings.Join(chunks, " ")
	if !strings.Contains(joined, "Una frase corta de prueba.") {
		t.Error("Split lost content")
	}
}

package providers

import "context"

// Message is one turn of conversation sent to the model. Role is "user" or
// "assistant"; the system prompt travels separately.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UsageInfo carries token accounting returned by the API.
type UsageInfo struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// LLMResponse is the provider-neutral reply shape.
type LLMResponse struct {
	Content    string
	StopReason string
	Usage      *UsageInfo
}

// ChatOptions tunes a single generation call.
type ChatOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// LLMProvider generates replies. Implementations must respect the context
// deadline; callers own the fallback behavior when a call fails.
type LLMProvider interface {
	Chat(ctx context.Context, system string, messages []Message, opts ChatOptions) (*LLMResponse, error)
}

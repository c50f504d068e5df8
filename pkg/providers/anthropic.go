package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ritmolabs/ritmo/pkg/config"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-5"
	anthropicAPIVersion   = "2023-06-01"
)

// AnthropicProvider talks to the Anthropic Messages API.
type AnthropicProvider struct {
	apiKey     string
	apiBase    string
	httpClient *http.Client
}

func NewAnthropicProvider(apiKey, apiBase string, timeout time.Duration) *AnthropicProvider {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &AnthropicProvider{
		apiKey:     apiKey,
		apiBase:    strings.TrimRight(apiBase, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *AnthropicProvider) Chat(ctx context.Context, system string, messages []Message, opts ChatOptions) (*LLMResponse, error) {
	if p.apiBase == "" {
		return nil, fmt.Errorf("Anthropic API base not configured")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}

	requestBody := map[string]interface{}{
		"model":      model,
		"max_tokens": maxTokens,
		"messages":   messages,
	}
	if system != "" {
		requestBody["system"] = system
	}
	if opts.Temperature > 0 {
		requestBody["temperature"] = opts.Temperature
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/v1/messages", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Anthropic API request failed:\n  Status: %d\n  Body:   %s", resp.StatusCode, string(body))
	}

	return p.parseResponse(body)
}

func (p *AnthropicProvider) parseResponse(body []byte) (*LLMResponse, error) {
	var apiResponse struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string     `json:"stop_reason"`
		Usage      *UsageInfo `json:"usage"`
	}

	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var text strings.Builder
	for _, block := range apiResponse.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &LLMResponse{
		Content:    text.String(),
		StopReason: apiResponse.StopReason,
		Usage:      apiResponse.Usage,
	}, nil
}

func (p *AnthropicProvider) GetDefaultModel() string {
	return defaultAnthropicModel
}

// CreateProvider builds the configured LLM provider. Only Anthropic is
// supported; an empty API key is an error and the caller decides whether
// running without a provider is acceptable.
func CreateProvider(cfg *config.Config) (LLMProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey())
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set providers.anthropic.api_key or RITMO_PROVIDERS_ANTHROPIC_API_KEY)")
	}

	timeout := time.Duration(cfg.Providers.Anthropic.TimeoutSeconds) * time.Second
	return NewAnthropicProvider(apiKey, cfg.APIBase(), timeout), nil
}

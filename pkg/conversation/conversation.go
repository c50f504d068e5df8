package conversation

import (
	"context"
	"strings"

	"github.com/ritmolabs/ritmo/pkg/logger"
	"github.com/ritmolabs/ritmo/pkg/memory"
	"github.com/ritmolabs/ritmo/pkg/profile"
	"github.com/ritmolabs/ritmo/pkg/providers"
	"github.com/ritmolabs/ritmo/pkg/risk"
	"github.com/ritmolabs/ritmo/pkg/tone"
)

// Request carries everything one reply generation needs. UserMessage is
// empty for proactive outreach.
type Request struct {
	Profile     profile.UserProfile
	Snapshot    memory.Snapshot
	UserMessage string
	Tone        tone.Tone
	// FollowUpHint carries the analyzer's needs-follow-up flag from the
	// tone label. Critical risk forces the final flag on regardless.
	FollowUpHint bool
	Risk         risk.Assessment
	Proactive    bool
	// Elevated marks proactive outreach driven by medium or high risk, which
	// shifts the register from casual check-in to gentle concern.
	Elevated bool
}

// Reply is a generated response ready for dispatch.
type Reply struct {
	Text          string
	Tone          tone.Tone
	NeedsFollowUp bool
	Source        string // "model" or "fallback"
}

// Agent wraps the LLM provider with prompt construction, reply shaping,
// and the deterministic fallback catalog. A provider failure is never an
// error for callers; the fallback reply absorbs it.
type Agent struct {
	provider     providers.LLMProvider
	model        string
	maxTokens    int
	replyWordCap int
}

func NewAgent(provider providers.LLMProvider, model string, maxTokens, replyWordCap int) *Agent {
	if maxTokens <= 0 {
		maxTokens = 300
	}
	if replyWordCap <= 0 {
		replyWordCap = 80
	}
	return &Agent{
		provider:     provider,
		model:        model,
		maxTokens:    maxTokens,
		replyWordCap: replyWordCap,
	}
}

// Reply generates the response text for a decision to respond. The only
// hard failure left is a context already cancelled; everything the
// provider can do wrong degrades to the fallback catalog.
func (a *Agent) Reply(ctx context.Context, req Request) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}

	needsFollowUp := a.needsFollowUp(req)

	if a.provider == nil {
		return a.fallbackReply(req, needsFollowUp), nil
	}

	system := buildSystemPrompt(req)
	messages := buildMessages(req)

	resp, err := a.provider.Chat(ctx, system, messages, providers.ChatOptions{
		Model:     a.model,
		MaxTokens: a.maxTokens,
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		if err != nil {
			logger.WarnCF("conversation", "Provider failed, using fallback reply", map[string]interface{}{
				"user_id": req.Profile.ID,
				"error":   err.Error(),
			})
		}
		return a.fallbackReply(req, needsFollowUp), nil
	}

	return Reply{
		Text:          a.shape(resp.Content, req.Profile),
		Tone:          req.Tone,
		NeedsFollowUp: needsFollowUp,
		Source:        "model",
	}, nil
}

// needsFollowUp propagates the tone label's flag; only critical risk
// forces it on regardless of tone.
func (a *Agent) needsFollowUp(req Request) bool {
	if req.Risk.Level == risk.Critical {
		return true
	}
	return req.FollowUpHint || req.Tone == tone.EmpatheticNeeded
}

func (a *Agent) fallbackReply(req Request, needsFollowUp bool) Reply {
	return Reply{
		Text:          a.shape(fallbackText(req), req.Profile),
		Tone:          req.Tone,
		NeedsFollowUp: needsFollowUp,
		Source:        "fallback",
	}
}

// shape trims, enforces the word cap at a sentence boundary, and softens
// punctuation for audio-mode users.
func (a *Agent) shape(text string, prof profile.UserProfile) string {
	text = strings.TrimSpace(text)

	if prof.CommMode == profile.CommAudio {
		text = strings.ReplaceAll(text, "...", "")
		text = strings.ReplaceAll(text, ";", ",")
	}

	words := strings.Fields(text)
	if len(words) <= a.replyWordCap {
		return text
	}

	capped := strings.Join(words[:a.replyWordCap], " ")
	if idx := strings.LastIndexAny(capped, ".!?"); idx > 0 {
		return capped[:idx+1]
	}
	return capped + "."
}

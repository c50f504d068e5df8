package conversation

import (
	"fmt"
	"strings"

	"github.com/ritmolabs/ritmo/pkg/profile"
	"github.com/ritmolabs/ritmo/pkg/providers"
	"github.com/ritmolabs/ritmo/pkg/risk"
	"github.com/ritmolabs/ritmo/pkg/tone"
)

// buildSystemPrompt assembles the persona, the risk directive, and the
// tone directive for one generation.
func buildSystemPrompt(req Request) string {
	prof := req.Profile

	var b strings.Builder
	fmt.Fprintf(&b, `You are Ritmo, an empathetic companion for people in vulnerable situations.

USER PROFILE:
- Name: %s
- Life stage: %s
- Communication mode: %s

REPLY CHARACTERISTICS:
- At most 2-3 sentences (50-80 words)
- Warm, human, non-judgmental tone
- Avoid unsolicited advice
- Focus on validating emotions
- Use the user's name occasionally`,
		prof.DisplayName, prof.LifeStage, prof.CommMode)

	if rules := profile.PersonaRules(prof.LifeStage); rules != "" {
		b.WriteString("\n\n" + rules)
	}
	if rules := profile.CommModeRules(prof.CommMode); rules != "" {
		b.WriteString("\n\n" + rules)
	}
	b.WriteString("\n\n" + profile.UniversalRules())

	if req.Risk.Level >= risk.High {
		fmt.Fprintf(&b, "\n\nALERT: the user shows signs of %s risk. Be especially empathetic and gently consider suggesting professional support resources.", req.Risk.Level)
	}

	switch {
	case req.Proactive && req.Elevated:
		b.WriteString("\n\nPROACTIVE CONCERN MODE: reach out with gentle concern. Ask how they are doing without being intrusive or alarming.")
	case req.Proactive:
		b.WriteString("\n\nPROACTIVE MODE: start a warm, welcoming conversation. Ask how they are without being intrusive.")
	}

	switch req.Tone {
	case tone.EmpatheticNeeded:
		b.WriteString("\n\nEMPATHETIC MODE: the user seems to need emotional support. Validate their feelings and show them they are not alone.")
	case tone.EncouragingNeeded:
		b.WriteString("\n\nENCOURAGING MODE: the user is struggling with something. Acknowledge the difficulty and reinforce their effort.")
	case tone.Celebratory:
		b.WriteString("\n\nCELEBRATORY MODE: the user is sharing a win. Celebrate with them genuinely and specifically.")
	}

	return b.String()
}

// buildMessages converts the memory snapshot plus the current message into
// the provider turn list. Proactive requests synthesize an instruction turn
// because the model needs a user-role message to reply to.
func buildMessages(req Request) []providers.Message {
	var messages []providers.Message
	for _, turn := range req.Snapshot.Turns {
		role := turn.Role
		if role != "user" && role != "assistant" {
			role = "user"
		}
		messages = append(messages, providers.Message{Role: role, Content: turn.Content})
	}

	if req.UserMessage != "" {
		messages = append(messages, providers.Message{Role: "user", Content: req.UserMessage})
		return messages
	}

	instruction := "Write a warm proactive message to start a conversation with the user."
	if req.Elevated {
		instruction = "Write a gentle proactive message showing you noticed the user may be going through a rough patch, and ask how they are."
	}
	// The snapshot may end on an assistant turn; the API requires
	// alternating roles ending in a user turn.
	messages = append(messages, providers.Message{Role: "user", Content: instruction})
	return messages
}

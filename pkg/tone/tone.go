package tone

import "strings"

// Tone is the emotional register a reply should take. It is derived from
// the user's most recent message, or defaults to neutral for proactive
// evaluations with no message.
type Tone string

const (
	EmpatheticNeeded  Tone = "empathetic-needed"
	EncouragingNeeded Tone = "encouraging-needed"
	Celebratory       Tone = "celebratory"
	Neutral           Tone = "neutral"
)

func Tones() []Tone {
	return []Tone{EmpatheticNeeded, EncouragingNeeded, Celebratory, Neutral}
}

// Marker lists are bilingual because the user base writes in Spanish and
// English, often mixed. Matching is lowercase substring over the message.
var distressMarkers = []string{
	"agotado", "agotada", "cansado", "cansada", "sin ganas", "no puedo mas",
	"no puedo más", "triste", "solo", "sola", "soledad", "ansiedad",
	"ansioso", "ansiosa", "deprimido", "deprimida", "llorar", "miedo",
	"me rindo", "no vale la pena", "desesperado", "desesperada",
	"exhausted", "tired", "hopeless", "lonely", "alone", "anxious",
	"depressed", "can't go on", "cant go on", "give up", "worthless",
	"crying", "scared", "overwhelmed",
}

var struggleMarkers = []string{
	"dificil", "difícil", "cuesta", "me cuesta", "no pude", "fracaso",
	"fracasé", "fracase", "fallé", "falle", "no logro", "estancado",
	"estancada", "frustrado", "frustrada", "abrumado", "abrumada",
	"hard", "difficult", "struggling", "failed", "couldn't", "couldnt",
	"stuck", "frustrated", "can't do", "cant do",
}

var achievementMarkers = []string{
	"lo logré", "lo logre", "lo conseguí", "lo consegui", "terminé",
	"termine", "completé", "complete la", "aprobé", "aprobe", "gané",
	"gane", "orgulloso", "orgullosa", "feliz", "contento", "contenta",
	"buenas noticias", "por fin",
	"i did it", "finished", "completed", "passed", "achieved", "proud",
	"happy", "great news", "finally did", "accomplished",
}

// Label is the analyzer's full verdict: the tone plus whether the message
// itself warrants checking back on the user later. Distress markers set
// the flag; risk handling downstream may still force it on.
type Label struct {
	Tone          Tone
	NeedsFollowUp bool
}

// Analyze maps a user message to its label. Precedence runs distress over
// struggle over achievement, so a message mixing exhaustion and a win
// still gets the empathetic register. An empty message is neutral.
func Analyze(message string) Label {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return Label{Tone: Neutral}
	}

	if containsAny(text, distressMarkers) {
		return Label{Tone: EmpatheticNeeded, NeedsFollowUp: true}
	}
	if containsAny(text, struggleMarkers) {
		return Label{Tone: EncouragingNeeded}
	}
	if containsAny(text, achievementMarkers) {
		return Label{Tone: Celebratory}
	}
	return Label{Tone: Neutral}
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

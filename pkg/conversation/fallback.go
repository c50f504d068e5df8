package conversation

import (
	"fmt"
	"hash/fnv"

	"github.com/ritmolabs/ritmo/pkg/risk"
	"github.com/ritmolabs/ritmo/pkg/tone"
)

// fallbackCatalog covers every tone and risk level pairing so a provider
// outage can never leave a decided response without text. Templates take
// the user's display name.
var fallbackCatalog = map[tone.Tone]map[risk.Level][]string{
	tone.EmpatheticNeeded: {
		risk.Low: {
			"Entiendo que estés pasando por un momento difícil, %s. Estoy aquí para acompañarte.",
			"Gracias por compartir eso conmigo, %s. No estás en esto a solas.",
		},
		risk.Medium: {
			"Siento que las cosas estén pesadas últimamente, %s. Estoy aquí contigo. ¿Quieres contarme más?",
			"Lo que sientes es válido, %s. Me quedo aquí acompañándote.",
		},
		risk.High: {
			"%s, lo que me cuentas suena muy duro. No tienes que atravesarlo en soledad. ¿Cómo te sientes ahora mismo?",
			"Estoy contigo, %s. Cuando algo pesa tanto, hablarlo con alguien de confianza puede ayudar. ¿Hay alguien cerca a quien puedas llamar?",
		},
		risk.Critical: {
			"%s, me importa mucho cómo estás. No estás solo en esto, y pedir ayuda profesional es un acto de cuidado. ¿Puedo acompañarte mientras tanto?",
			"Gracias por decírmelo, %s. Lo que sientes merece atención y apoyo de verdad. Estoy aquí contigo ahora mismo.",
		},
	},
	tone.EncouragingNeeded: {
		risk.Low: {
			"Que hoy cueste no borra todo lo que ya has avanzado, %s. Paso a paso.",
			"Lo estás intentando, %s, y eso ya vale mucho. ¿Qué te ayudaría ahora?",
		},
		risk.Medium: {
			"Los días difíciles también pasan, %s. Reconozco el esfuerzo que estás haciendo.",
			"No hace falta poder con todo hoy, %s. Con un paso pequeño alcanza.",
		},
		risk.High: {
			"%s, llevas un tiempo remando contra corriente y eso agota. Está bien descansar. Estoy aquí.",
			"Veo lo mucho que te está costando, %s. No es falta de fuerza, es que la cuesta es real. ¿Cómo estás hoy?",
		},
		risk.Critical: {
			"%s, cuando todo cuesta tanto, lo más valiente es dejarse acompañar. Estoy aquí, y hay personas preparadas para ayudarte.",
			"No tienes que demostrar nada, %s. Ahora toca cuidarte, y no estás solo para hacerlo.",
		},
	},
	tone.Celebratory: {
		risk.Low: {
			"¡Qué buena noticia, %s! Me alegra muchísimo. Cuéntame cómo te sientes.",
			"¡Eso merece celebrarse, %s! Disfrútalo.",
		},
		risk.Medium: {
			"Me alegra mucho leer esto, %s. Estos momentos buenos también cuentan, guárdalo.",
			"¡Bien ahí, %s! Un logro así se nota más cuando la semana viene cuesta arriba.",
		},
		risk.High: {
			"%s, qué importante este logro justo ahora. Me alegra de verdad. ¿Cómo te sientes con todo lo demás?",
			"Celebro esto contigo, %s. Y también quiero saber cómo estás tú, más allá del logro.",
		},
		risk.Critical: {
			"Me alegra mucho esta noticia, %s. Y sigo aquí para lo otro también, lo bueno y lo difícil.",
			"Qué bien, %s, de corazón. ¿Y tú, cómo vienes estando estos días?",
		},
	},
	tone.Neutral: {
		risk.Low: {
			"Gracias por escribirme, %s. ¿Cómo ha sido tu día?",
			"Qué bueno saber de ti, %s. Aquí estoy para lo que necesites.",
		},
		risk.Medium: {
			"Me alegra que me escribas, %s. ¿Cómo te has sentido estos días?",
			"Hola, %s. Te he tenido presente. ¿Cómo va todo?",
		},
		risk.High: {
			"Hola, %s. Hace días que quería saber de ti. ¿Cómo estás, de verdad?",
			"%s, me quedo pensando en cómo vienes estando. Si te apetece contarme, aquí estoy.",
		},
		risk.Critical: {
			"%s, estoy aquí contigo. Me importa saber cómo estás ahora mismo.",
			"Hola, %s. No hace falta que estés bien para escribirme. ¿Cómo estás?",
		},
	},
}

// fallbackText picks a template deterministically so the same user and
// message always get the same fallback, mirroring replies from a stateless
// retry.
func fallbackText(req Request) string {
	byRisk, ok := fallbackCatalog[req.Tone]
	if !ok {
		byRisk = fallbackCatalog[tone.Neutral]
	}
	templates, ok := byRisk[req.Risk.Level]
	if !ok {
		templates = byRisk[risk.Low]
	}

	h := fnv.New32a()
	h.Write([]byte(req.Profile.ID))
	h.Write([]byte{'|'})
	h.Write([]byte(req.UserMessage))
	idx := int(h.Sum32()) % len(templates)
	if idx < 0 {
		idx += len(templates)
	}
	return fmt.Sprintf(templates[idx], req.Profile.DisplayName)
}

package habits

import (
	"fmt"
	"time"

	"github.com/ritmolabs/ritmo/pkg/profile"
)

// TimeBucket partitions the day for habit selection. Off-hours map to the
// afternoon bucket rather than failing.
type TimeBucket string

const (
	Morning   TimeBucket = "morning"
	Afternoon TimeBucket = "afternoon"
	Evening   TimeBucket = "evening"
)

// BucketFor maps a local wall-clock time to its habit bucket.
func BucketFor(local time.Time) TimeBucket {
	hour := local.Hour()
	switch {
	case hour >= 6 && hour <= 11:
		return Morning
	case hour >= 19 && hour <= 22:
		return Evening
	default:
		return Afternoon
	}
}

// Habit is one catalog entry. Simple habits are low-effort ones preferred
// after a stretch of inactivity, when asking for much would backfire.
type Habit struct {
	ID     string
	Text   string
	Simple bool
}

var catalog = map[profile.LifeStage]map[TimeBucket][]Habit{
	profile.StageOlderAdult: {
		Morning: {
			{Text: "tomar un vaso de agua al despertar", Simple: true},
			{Text: "hacer 5 minutos de estiramientos suaves"},
			{Text: "leer las noticias con una taza de té"},
			{Text: "caminar 10 minutos por casa o el jardín", Simple: true},
			{Text: "abrir la ventana y respirar aire fresco", Simple: true},
			{Text: "regar las plantas con calma"},
			{Text: "desayunar sentado y sin prisa"},
		},
		Afternoon: {
			{Text: "llamar a un familiar o amigo"},
			{Text: "hacer un puzzle o un juego mental"},
			{Text: "escuchar música relajante", Simple: true},
			{Text: "revisar fotos de recuerdos alegres"},
			{Text: "dar un paseo corto por el barrio"},
			{Text: "escuchar la radio un rato", Simple: true},
			{Text: "ordenar un cajón pequeño, sin prisa"},
		},
		Evening: {
			{Text: "escribir 3 cosas buenas del día"},
			{Text: "preparar la ropa para mañana"},
			{Text: "preparar una infusión relajante", Simple: true},
			{Text: "leer unas páginas antes de dormir"},
			{Text: "rezar o meditar unos minutos si lo acostumbras"},
			{Text: "escuchar música tranquila antes de acostarte", Simple: true},
			{Text: "cenar ligero y temprano"},
		},
	},
	profile.StageWorkingAdult: {
		Morning: {
			{Text: "hacer 10 minutos de ejercicio o yoga"},
			{Text: "planificar las 3 tareas más importantes del día"},
			{Text: "desayunar sin prisa, disfrutando", Simple: true},
			{Text: "escribir o reflexionar 5 minutos"},
			{Text: "no mirar el correo hasta después de desayunar"},
			{Text: "beber un vaso de agua antes del café", Simple: true},
			{Text: "salir de casa 5 minutos antes para ir sin correr"},
		},
		Afternoon: {
			{Text: "tomar un descanso de 15 minutos sin pantallas", Simple: true},
			{Text: "salir a caminar o tomar aire fresco", Simple: true},
			{Text: "conectar con un ser querido"},
			{Text: "hacer algo creativo durante 10 minutos"},
			{Text: "comer sin el móvil delante"},
			{Text: "estirar cuello y espalda un par de minutos", Simple: true},
			{Text: "anotar una cosa que ya terminaste hoy"},
		},
		Evening: {
			{Text: "desconectar los dispositivos una hora antes de dormir"},
			{Text: "revisar y celebrar los logros del día"},
			{Text: "dejar todo listo para una mañana sin estrés"},
			{Text: "hacer ejercicios de respiración", Simple: true},
			{Text: "dar un paseo corto después de cenar"},
			{Text: "escuchar música que te relaje", Simple: true},
			{Text: "escribir lo que quede pendiente para soltarlo"},
		},
	},
	profile.StageYoungAdult: {
		Morning: {
			{Text: "hacer la cama al levantarte", Simple: true},
			{Text: "beber agua y hacer 5 minutos de movimiento", Simple: true},
			{Text: "escribir un objetivo claro para el día"},
			{Text: "escuchar música motivadora", Simple: true},
			{Text: "no abrir redes sociales en la primera media hora"},
			{Text: "desayunar algo, aunque sea sencillo", Simple: true},
			{Text: "ducharte y vestirte aunque no salgas"},
		},
		Afternoon: {
			{Text: "tomar descansos activos cada 2 horas"},
			{Text: "salir de casa aunque sea 20 minutos", Simple: true},
			{Text: "hacer algo que disfrutes sin sentir culpa"},
			{Text: "conectar con amigos o familia"},
			{Text: "escribir a esa persona con la que hace tiempo no hablas"},
			{Text: "mover el cuerpo 10 minutos, como sea", Simple: true},
			{Text: "ordenar una esquina de tu cuarto"},
		},
		Evening: {
			{Text: "reflexionar sobre una cosa que aprendiste hoy"},
			{Text: "organizar tu espacio personal"},
			{Text: "leer o estudiar algo que te interese"},
			{Text: "mantener un horario fijo para dormir"},
			{Text: "dejar el móvil fuera de la cama"},
			{Text: "escuchar un podcast o música tranquila", Simple: true},
			{Text: "apuntar una cosa que te haya hecho reír"},
		},
	},
	profile.StageMigrant: {
		Morning: {
			{Text: "practicar 5 minutos del idioma local"},
			{Text: "leer noticias de tu país y del actual"},
			{Text: "hacer una lista de metas para el día"},
			{Text: "contactar con tu familia cuando sea posible"},
			{Text: "desayunar algo que te guste de aquí o de allá", Simple: true},
			{Text: "aprender una palabra nueva del idioma local", Simple: true},
			{Text: "salir a caminar por una calle que no conozcas"},
		},
		Afternoon: {
			{Text: "explorar algo nuevo de la ciudad", Simple: true},
			{Text: "conectar con otras personas migrantes o locales"},
			{Text: "hacer una actividad que te recuerde a casa"},
			{Text: "buscar una oportunidad de crecimiento"},
			{Text: "preparar una receta de tu tierra"},
			{Text: "escuchar música de casa un rato", Simple: true},
			{Text: "saludar a un vecino o al tendero de siempre"},
		},
		Evening: {
			{Text: "escribir sobre tu experiencia del día"},
			{Text: "planificar algo positivo para mañana"},
			{Text: "mantener una tradición importante para ti"},
			{Text: "celebrar tus pequeños progresos", Simple: true},
			{Text: "mandar un audio a alguien de casa"},
			{Text: "apuntar algo que ya entiendes mejor que al llegar"},
			{Text: "ver o escuchar algo en el idioma local"},
		},
	},
	profile.StageVisuallyImpaired: {
		Morning: {
			{Text: "organizar tu espacio según tus necesidades"},
			{Text: "escuchar noticias o contenido de interés", Simple: true},
			{Text: "hacer ejercicios de movilidad u orientación"},
			{Text: "planificar las rutas y actividades del día"},
			{Text: "tomar un vaso de agua al despertar", Simple: true},
			{Text: "estirar brazos y espalda con calma", Simple: true},
			{Text: "repasar en voz alta el plan del día"},
		},
		Afternoon: {
			{Text: "practicar habilidades de vida independiente"},
			{Text: "conectar con otros a través de audio o voz"},
			{Text: "explorar contenido táctil o auditivo", Simple: true},
			{Text: "hacer una actividad adaptada que disfrutes"},
			{Text: "llamar a alguien con quien te guste conversar"},
			{Text: "salir a tomar aire por un recorrido conocido"},
			{Text: "escuchar un capítulo de un audiolibro", Simple: true},
		},
		Evening: {
			{Text: "reflexionar usando audio o braille"},
			{Text: "preparar tus herramientas para mañana"},
			{Text: "escuchar música, podcasts o audiolibros", Simple: true},
			{Text: "hacer ejercicios de relajación", Simple: true},
			{Text: "dejar cada cosa en su lugar de siempre"},
			{Text: "grabar una nota de voz con lo mejor del día"},
			{Text: "hacer unas respiraciones profundas antes de dormir", Simple: true},
		},
	},
}

// Used when a stage/bucket pair is somehow missing from the catalog.
var genericHabits = []Habit{
	{Text: "tomar un momento para respirar profundo", Simple: true},
	{Text: "hacer algo que te haga sentir bien", Simple: true},
	{Text: "conectar con alguien importante para ti"},
}

func init() {
	for stage, buckets := range catalog {
		for bucket, habitList := range buckets {
			for i := range habitList {
				habitList[i].ID = fmt.Sprintf("%s/%s/%d", stage, bucket, i)
			}
			buckets[bucket] = habitList
		}
	}
	for i := range genericHabits {
		genericHabits[i].ID = fmt.Sprintf("generic/%d", i)
	}
}

// CatalogFor returns the habit pool for a stage and time bucket. It never
// returns an empty slice.
func CatalogFor(stage profile.LifeStage, bucket TimeBucket) []Habit {
	if buckets, ok := catalog[stage]; ok {
		if habitList, ok := buckets[bucket]; ok && len(habitList) > 0 {
			return habitList
		}
	}
	return genericHabits
}

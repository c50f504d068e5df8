package habits

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/ritmolabs/ritmo/pkg/logger"
	"github.com/ritmolabs/ritmo/pkg/profile"
)

// ErrCoolingDown is returned when the per-user cooldown has not elapsed.
// Callers treat it as "stay silent", not as a failure.
var ErrCoolingDown = fmt.Errorf("habit suggestion cooling down")

// CooldownStore persists when a user last received a habit suggestion and
// which habit it was, so rotation can avoid immediate repeats.
type CooldownStore interface {
	LastSuggestion(ctx context.Context, userID string) (habitID string, at time.Time, err error)
	RecordSuggestion(ctx context.Context, userID, habitID string, at time.Time) error
}

// Suggestion is a composed habit nudge ready to deliver.
type Suggestion struct {
	Habit   Habit
	Bucket  TimeBucket
	Message string
}

// Agent proposes one habit per evaluation for stable users. It only runs
// when the orchestrator has already ruled out every risk-driven response.
type Agent struct {
	store    CooldownStore
	cooldown time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewAgent builds a habit agent over the cooldown store. A non-positive
// cooldown disables the cooldown entirely; every evaluation may nudge.
func NewAgent(store CooldownStore, cooldown time.Duration) *Agent {
	return &Agent{
		store:    store,
		cooldown: cooldown,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Ready reports whether the cooldown has elapsed for the user, without
// recording anything. The orchestrator consults it before selecting the
// habit agent.
func (a *Agent) Ready(ctx context.Context, userID string, localNow time.Time) (bool, error) {
	if a.cooldown <= 0 {
		return true, nil
	}
	_, lastAt, err := a.store.LastSuggestion(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load habit cooldown: %w", err)
	}
	return lastAt.IsZero() || localNow.Sub(lastAt) >= a.cooldown, nil
}

// Suggest picks and phrases a habit for the user's stage and local time of
// day. daysInactive > 3 narrows the pool to low-effort habits. The cooldown
// is checked and recorded here so consecutive proactive cycles cannot
// double-nudge the same user.
func (a *Agent) Suggest(ctx context.Context, prof profile.UserProfile, localNow time.Time, daysInactive int) (Suggestion, error) {
	lastID, lastAt, err := a.store.LastSuggestion(ctx, prof.ID)
	if err != nil {
		return Suggestion{}, fmt.Errorf("load habit cooldown: %w", err)
	}
	if a.cooldown > 0 && !lastAt.IsZero() && localNow.Sub(lastAt) < a.cooldown {
		return Suggestion{}, ErrCoolingDown
	}

	bucket := BucketFor(localNow)
	habit := a.pick(prof.LifeStage, bucket, lastID, daysInactive)

	suggestion := Suggestion{
		Habit:   habit,
		Bucket:  bucket,
		Message: a.compose(habit, prof, bucket),
	}

	if err := a.store.RecordSuggestion(ctx, prof.ID, habit.ID, localNow); err != nil {
		return Suggestion{}, fmt.Errorf("record habit suggestion: %w", err)
	}

	logger.InfoCF("habits", "Habit suggested", map[string]interface{}{
		"user_id": prof.ID,
		"habit":   habit.ID,
		"bucket":  string(bucket),
	})
	return suggestion, nil
}

// pick rotates within the bucket pool, skipping the previously suggested
// habit when the pool allows it.
func (a *Agent) pick(stage profile.LifeStage, bucket TimeBucket, lastID string, daysInactive int) Habit {
	pool := CatalogFor(stage, bucket)

	if daysInactive > 3 {
		var simple []Habit
		for _, h := range pool {
			if h.Simple {
				simple = append(simple, h)
			}
		}
		if len(simple) > 0 {
			pool = simple
		}
	}

	if len(pool) > 1 && lastID != "" {
		var rotated []Habit
		for _, h := range pool {
			if h.ID != lastID {
				rotated = append(rotated, h)
			}
		}
		if len(rotated) > 0 {
			pool = rotated
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return pool[a.rng.Intn(len(pool))]
}

var greetings = map[TimeBucket][]string{
	Morning: {
		"¡Buenos días, %s!",
		"Qué bueno verte por aquí, %s.",
		"¡Hola, %s! ¿Cómo amaneciste?",
	},
	Afternoon: {
		"¡Hola, %s!",
		"Buenas tardes, %s.",
		"¿Cómo va tu día, %s?",
	},
	Evening: {
		"¡Hola, %s!",
		"Buenas noches, %s.",
		"Espero que hayas tenido un buen día, %s.",
	},
}

var connectors = []string{
	"Me preguntaba si te gustaría probar",
	"Tengo una idea que podría gustarte:",
	"¿Qué te parece si intentamos",
	"Se me ocurrió que podrías disfrutar",
	"¿Te animas a",
}

var motivations = []string{
	"Los pequeños cambios crean grandes resultados.",
	"Cada paso cuenta, por pequeño que sea.",
	"Es genial cuidarte de esta manera.",
	"Tu bienestar es importante.",
	"Te mereces estos momentos para ti.",
}

var followUps = []string{
	"¿Te parece algo que podrías intentar?",
	"¿Crees que podría funcionar para ti?",
	"¿Qué opinas?",
	"¿Te suena bien?",
	"¿Te gustaría probarlo?",
}

func (a *Agent) compose(habit Habit, prof profile.UserProfile, bucket TimeBucket) string {
	a.mu.Lock()
	greeting := fmt.Sprintf(pickString(a.rng, greetings[bucket]), prof.DisplayName)
	connector := pickString(a.rng, connectors)
	motivation := pickString(a.rng, motivations)
	followUp := pickString(a.rng, followUps)
	a.mu.Unlock()

	return strings.Join([]string{
		greeting,
		fmt.Sprintf("%s %s? %s", connector, habit.Text, motivation),
		followUp,
	}, " ")
}

func pickString(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}

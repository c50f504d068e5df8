package risk

import (
	"context"
	"time"

	"github.com/ritmolabs/ritmo/pkg/logger"
	"github.com/ritmolabs/ritmo/pkg/profile"
	"github.com/ritmolabs/ritmo/pkg/signals"
)

// Predictor fuses the trained classifier with the deterministic heuristic.
// A nil classifier means heuristic-only operation.
type Predictor struct {
	classifier         Classifier
	inactivityHighDays int
	now                func() time.Time
}

type PredictorOption func(*Predictor)

func WithClassifier(c Classifier) PredictorOption {
	return func(p *Predictor) { p.classifier = c }
}

func WithInactivityHighDays(days int) PredictorOption {
	return func(p *Predictor) { p.inactivityHighDays = days }
}

// WithNowFunc pins the predictor clock, for tests.
func WithNowFunc(now func() time.Time) PredictorOption {
	return func(p *Predictor) { p.now = now }
}

func NewPredictor(opts ...PredictorOption) *Predictor {
	p := &Predictor{
		inactivityHighDays: defaultInactivityHighDays,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Assess maps a user's signal window to a risk assessment. The profile
// must already be validated; only its timezone is consulted here. Errors
// from the classifier are swallowed and downgrade to the heuristic, so
// Assess itself only fails on a broken profile timezone.
func (p *Predictor) Assess(ctx context.Context, w signals.Window, prof profile.UserProfile) (Assessment, error) {
	loc, err := prof.Location()
	if err != nil {
		return Assessment{}, err
	}
	now := p.now()

	if p.classifier != nil && !w.Empty() {
		fv := signals.ExtractFeatures(w, now, loc)
		level, confidence, err := p.classifier.Predict(ctx, fv)
		if err == nil {
			return Assessment{
				Level:      level,
				Confidence: confidence,
				Factors:    classifierFactors(fv),
				Source:     "classifier",
				Timestamp:  now,
			}, nil
		}
		logger.WarnCF("risk", "Classifier unavailable, using heuristic", map[string]interface{}{
			"user_id": prof.ID,
			"error":   err.Error(),
		})
	}

	return heuristicAssess(w, loc, now, p.inactivityHighDays), nil
}

// classifierFactors names the engineered features that stood out, so the
// decision rationale stays explainable even on the model path.
func classifierFactors(fv signals.FeatureVector) []string {
	var factors []string
	if fv.DaysSinceLastActive >= 3 {
		factors = append(factors, "days_since_last_active")
	}
	if fv.DifficultStreak >= 2 {
		factors = append(factors, "difficult_streak")
	}
	if fv.NocturnalShare > 0.2 {
		factors = append(factors, "nocturnal_share")
	}
	if fv.LatencyTrend > 60 {
		factors = append(factors, "latency_trend")
	}
	if fv.CheckInTrend < 0 {
		factors = append(factors, "check_in_trend")
	}
	if len(factors) == 0 {
		factors = []string{"model_score"}
	}
	return factors
}

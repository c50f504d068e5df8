package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/ritmolabs/ritmo/pkg/logger"
)

// Sweeper runs one proactive evaluation cycle. The companion loop
// implements it.
type Sweeper interface {
	EvaluateProactive(ctx context.Context, userID string) error
}

// UserLister yields the user ids to sweep. The profile store implements it.
type UserLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// Scheduler fires proactive sweeps on a cron expression. The expression
// runs in server time; per-user quiet hours are applied downstream in the
// user's own timezone.
type Scheduler struct {
	expr    string
	gron    *gronx.Gronx
	sweeper Sweeper
	users   UserLister
}

func New(expr string, sweeper Sweeper, users UserLister) (*Scheduler, error) {
	gron := gronx.New()
	if !gron.IsValid(expr) {
		return nil, fmt.Errorf("invalid cron expression %q", expr)
	}
	return &Scheduler{
		expr:    expr,
		gron:    gron,
		sweeper: sweeper,
		users:   users,
	}, nil
}

// Run checks the expression once a minute and sweeps when due. It returns
// when the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	logger.InfoCF("scheduler", "Proactive scheduler started", map[string]interface{}{
		"cron": s.expr,
	})

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoC("scheduler", "Proactive scheduler stopped")
			return
		case now := <-ticker.C:
			due, err := s.gron.IsDue(s.expr, now)
			if err != nil {
				logger.ErrorCF("scheduler", "Cron evaluation failed", map[string]interface{}{
					"cron":  s.expr,
					"error": err.Error(),
				})
				continue
			}
			if due {
				s.Sweep(ctx)
			}
		}
	}
}

// Sweep evaluates every known user once. Failures are per-user and never
// abort the rest of the sweep.
func (s *Scheduler) Sweep(ctx context.Context) {
	ids, err := s.users.ListIDs(ctx)
	if err != nil {
		logger.ErrorCF("scheduler", "Failed to list users for sweep", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	logger.InfoCF("scheduler", "Proactive sweep started", map[string]interface{}{
		"users": len(ids),
	})
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if err := s.sweeper.EvaluateProactive(ctx, id); err != nil {
			logger.WarnCF("scheduler", "Proactive evaluation failed", map[string]interface{}{
				"user_id": id,
				"error":   err.Error(),
			})
		}
	}
}

package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ── Scheduled resync ───────────────────────────────────────

// Refresher is anything whose record list can be reloaded.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Resyncer reloads records on a cron schedule so changes written to a shared
// backend by other processes show up without a restart.
type Resyncer struct {
	target Refresher
	logger *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewResyncer creates a stopped Resyncer.
func NewResyncer(target Refresher, logger *zap.Logger) *Resyncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resyncer{target: target, logger: logger.Named("resync")}
}

// Start schedules refreshes with a standard five-field cron expression or a
// descriptor such as "@every 30s". An empty expression disables the resync.
// Calling Start again replaces the previous schedule; an invalid expression
// leaves it in place.
func (r *Resyncer) Start(ctx context.Context, expr string) error {
	var next *cron.Cron
	if expr != "" {
		next = cron.New()
		if _, err := next.AddFunc(expr, func() {
			if err := r.target.Refresh(ctx); err != nil {
				r.logger.Warn("scheduled refresh failed", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("invalid sync schedule %q: %w", expr, err)
		}
	}

	r.mu.Lock()
	prev := r.cron
	r.cron = next
	if next != nil {
		next.Start()
	}
	r.mu.Unlock()

	if prev != nil {
		<-prev.Stop().Done()
	}
	if next != nil {
		r.logger.Info("resync scheduled", zap.String("schedule", expr))
	}
	return nil
}

// Stop cancels the schedule and waits for a running refresh to return.
func (r *Resyncer) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wayfarelab/wayfare/internal/repository"
)

// SessionReaper deletes expired session rows on a schedule. Expired sessions
// are already rejected on read; the reaper just keeps the table from growing
// without bound.
type SessionReaper struct {
	sessions repository.SessionRepository
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewSessionReaper creates a session reaper with the given cron spec
// (e.g. "@hourly").
func NewSessionReaper(sessions repository.SessionRepository, spec string, logger *slog.Logger) (*SessionReaper, error) {
	r := &SessionReaper{
		sessions: sessions,
		cron:     cron.New(),
		logger:   logger,
	}

	if _, err := r.cron.AddFunc(spec, r.reap); err != nil {
		return nil, fmt.Errorf("invalid reaper schedule %q: %w", spec, err)
	}

	return r, nil
}

// Start begins the schedule in a background goroutine.
func (r *SessionReaper) Start() {
	r.cron.Start()
	r.logger.Info("session reaper started")
}

// Stop halts the schedule and waits for a running reap to finish.
func (r *SessionReaper) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("session reaper stopped")
}

func (r *SessionReaper) reap() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := r.sessions.DeleteExpired(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "session reap failed", slog.String("error", err.Error()))
		return
	}

	if deleted > 0 {
		r.logger.InfoContext(ctx, "expired sessions reaped", slog.Int64("deleted", deleted))
	}
}

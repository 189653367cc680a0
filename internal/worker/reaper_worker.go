package worker

import (
	"context"
	"time"

	"github.com/examhall/cbt-backend/internal/service"
	"github.com/rs/zerolog"
)

// ReaperWorker force-finalizes sessions whose time budget has elapsed. It
// only runs when deadline enforcement is on; the expired sessions are graded
// with whatever answers they had stored.
type ReaperWorker struct {
	sessionService *service.ExamSessionService
	interval       time.Duration
	log            zerolog.Logger
}

// NewReaperWorker creates a new ReaperWorker.
func NewReaperWorker(sessionService *service.ExamSessionService, interval time.Duration, log zerolog.Logger) *ReaperWorker {
	return &ReaperWorker{
		sessionService: sessionService,
		interval:       interval,
		log:            log.With().Str("component", "reaper_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *ReaperWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			finalized, err := w.sessionService.FinalizeExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("Sweep error")
				continue
			}
			if finalized > 0 {
				w.log.Info().Int("count", finalized).Msg("Expired sessions finalized")
			}
		}
	}
}

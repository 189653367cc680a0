package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/examhall/cbt-backend/internal/config"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ProgressWorker consumes persist_progress_queue and folds autosaved answers
// into the session rows in PostgreSQL. Redis absorbs the per-keystroke write
// rate; Postgres stays the source of truth.
type ProgressWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewProgressWorker creates a new ProgressWorker.
func NewProgressWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ProgressWorker {
	return &ProgressWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "progress_worker").Logger(),
	}
}

type progressPayload struct {
	SessionID string `json:"session_id"`
	QID       string `json:"q_id"`
	Answer    string `json:"answer"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ProgressWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ProgressWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or the 1 second timeout.
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistProgressQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var payload progressPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persistAnswer(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Str("session_id", payload.SessionID).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistProgressQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *ProgressWorker) persistAnswer(ctx context.Context, p *progressPayload) error {
	sessionID, err := uuid.Parse(p.SessionID)
	if err != nil {
		return err
	}
	if _, err := uuid.Parse(p.QID); err != nil {
		return err
	}

	// Merge one key into the answers jsonb. Completed sessions are frozen;
	// a late autosave for one is simply dropped.
	_, err = w.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET answers = answers || jsonb_build_object($2::text, $3::text)
		 WHERE id = $1 AND NOT is_completed`,
		sessionID, p.QID, p.Answer,
	)
	return err
}

// drain processes all remaining items in the queue before shutdown.
func (w *ProgressWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistProgressQueue).Result()
		if err != nil {
			break
		}

		var payload progressPayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			continue
		}
		if err := w.persistAnswer(ctx, &payload); err != nil {
			w.log.Error().Err(err).
				Str("session_id", payload.SessionID).
				Msg("Drain persist error, item dropped")
			continue
		}
		drained++
	}
	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained queue")
	}
}

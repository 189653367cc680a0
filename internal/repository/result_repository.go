package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/examhall/cbt-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResultRepository handles graded result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultColumns = `id, session_id, exam_id, student_name, student_id, score,
	total_points, percentage, passed, answers, correct_answers, completed_at`

func scanResult(row pgx.Row) (*model.Result, error) {
	res := &model.Result{}
	var answersRaw, correctRaw []byte
	err := row.Scan(&res.ID, &res.SessionID, &res.ExamID, &res.StudentName, &res.StudentID,
		&res.Score, &res.TotalPoints, &res.Percentage, &res.Passed,
		&answersRaw, &correctRaw, &res.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	res.Answers = map[string]string{}
	if len(answersRaw) > 0 {
		if err := json.Unmarshal(answersRaw, &res.Answers); err != nil {
			return nil, err
		}
	}
	res.CorrectAnswers = map[string]bool{}
	if len(correctRaw) > 0 {
		if err := json.Unmarshal(correctRaw, &res.CorrectAnswers); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// GetByID retrieves a single result.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	return scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM results WHERE id = $1`, id))
}

// GetBySessionID retrieves the canonical result for a session.
func (r *ResultRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.Result, error) {
	return scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM results WHERE session_id = $1`, sessionID))
}

// List retrieves all results, newest first.
func (r *ResultRepository) List(ctx context.Context) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM results ORDER BY completed_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// Create inserts a result. The unique index on session_id makes this a no-op
// when a concurrent finalizer already stored one; callers re-read by session
// id to obtain the canonical row.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return err
	}
	correct, err := json.Marshal(res.CorrectAnswers)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO results (session_id, exam_id, student_name, student_id, score,
		                      total_points, percentage, passed, answers, correct_answers, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (session_id) DO NOTHING`,
		res.SessionID, res.ExamID, res.StudentName, res.StudentID, res.Score,
		res.TotalPoints, res.Percentage, res.Passed, answers, correct, res.CompletedAt)
	return err
}

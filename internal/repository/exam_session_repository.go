package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/examhall/cbt-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamSessionRepository handles exam session data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

const sessionColumns = `id, exam_id, student_name, student_id, started_at, ended_at,
	answers, current_question_index, is_completed, session_question_ids::text[]`

func scanSession(row pgx.Row) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	var answersRaw []byte
	var questionIDs []string
	err := row.Scan(&s.ID, &s.ExamID, &s.StudentName, &s.StudentID, &s.StartedAt,
		&s.EndedAt, &answersRaw, &s.CurrentQuestionIndex, &s.IsCompleted, &questionIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Answers = map[string]string{}
	if len(answersRaw) > 0 {
		if err := json.Unmarshal(answersRaw, &s.Answers); err != nil {
			return nil, err
		}
	}
	for _, raw := range questionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		s.SessionQuestionIDs = append(s.SessionQuestionIDs, id)
	}
	return s, nil
}

// GetByID retrieves a single session.
func (r *ExamSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE id = $1`, id))
}

// GetActiveByExamAndStudent retrieves the student's open session for an exam,
// if any.
func (r *ExamSessionRepository) GetActiveByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID string) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE exam_id = $1 AND student_id = $2 AND NOT is_completed
		 ORDER BY started_at DESC
		 LIMIT 1`, examID, studentID))
}

// Create inserts a new session.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (exam_id, student_name, student_id, answers,
		                            current_question_index, session_question_ids)
		 VALUES ($1, $2, $3, $4, $5, $6::uuid[])
		 RETURNING id, started_at`,
		s.ExamID, s.StudentName, s.StudentID, answers,
		s.CurrentQuestionIndex, uuidStrings(s.SessionQuestionIDs),
	).Scan(&s.ID, &s.StartedAt)
}

// UpdateProgress overwrites the answer map and navigation index of an open
// session and returns the updated row. Completed sessions are left untouched
// and reported as ErrNotFound by the caller path that re-reads the row.
func (r *ExamSessionRepository) UpdateProgress(ctx context.Context, id uuid.UUID, answers map[string]string, currentQuestionIndex int) (*model.ExamSession, error) {
	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	return scanSession(r.pool.QueryRow(ctx,
		`UPDATE exam_sessions
		 SET answers = $2, current_question_index = $3
		 WHERE id = $1 AND NOT is_completed
		 RETURNING `+sessionColumns, id, raw, currentQuestionIndex))
}

// MarkCompleted performs the single Active to Completed transition. It
// reports true only for the caller that actually flipped the flag; every
// later call is a no-op returning false.
func (r *ExamSessionRepository) MarkCompleted(ctx context.Context, id uuid.UUID, answers map[string]string, endedAt time.Time) (bool, error) {
	raw, err := json.Marshal(answers)
	if err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET is_completed = TRUE, answers = $2, ended_at = $3
		 WHERE id = $1 AND NOT is_completed`,
		id, raw, endedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListExpired returns open sessions whose time budget, plus grace, has
// elapsed as of now.
func (r *ExamSessionRepository) ListExpired(ctx context.Context, now time.Time, graceSeconds int) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT es.id, es.exam_id, es.student_name, es.student_id, es.started_at, es.ended_at,
		        es.answers, es.current_question_index, es.is_completed, es.session_question_ids::text[]
		 FROM exam_sessions es
		 JOIN exams e ON es.exam_id = e.id
		 WHERE NOT es.is_completed
		   AND es.started_at + make_interval(mins => e.duration, secs => $2) < $1`,
		now, graceSeconds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ExamSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

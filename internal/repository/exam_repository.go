package repository

import (
	"context"
	"errors"

	"github.com/examhall/cbt-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamRepository handles exam definition data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	var questionIDs []string
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Subject, &e.ClassLevel,
		&e.Duration, &e.PassingScore, &questionIDs, &e.NumberOfQuestionsToDisplay,
		&e.RandomizeQuestions, &e.TotalPoints, &e.IsActive, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.QuestionIDs = make([]uuid.UUID, 0, len(questionIDs))
	for _, raw := range questionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		e.QuestionIDs = append(e.QuestionIDs, id)
	}
	return e, nil
}

const examColumns = `id, title, description, subject, class_level, duration, passing_score,
	question_ids::text[], number_of_questions_to_display, randomize_questions,
	total_points, is_active, created_at`

// GetByID retrieves a single exam.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
}

// List retrieves all exams, newest first.
func (r *ExamRepository) List(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	questionIDs := uuidStrings(e.QuestionIDs)
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, description, subject, class_level, duration, passing_score,
		                    question_ids, number_of_questions_to_display, randomize_questions,
		                    total_points, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::uuid[], $8, $9, $10, $11)
		 RETURNING id, created_at`,
		e.Title, e.Description, e.Subject, e.ClassLevel, e.Duration, e.PassingScore,
		questionIDs, e.NumberOfQuestionsToDisplay, e.RandomizeQuestions,
		e.TotalPoints, e.IsActive,
	).Scan(&e.ID, &e.CreatedAt)
}

// Update overwrites an existing exam.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	questionIDs := uuidStrings(e.QuestionIDs)
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $2, description = $3, subject = $4, class_level = $5, duration = $6,
		     passing_score = $7, question_ids = $8::uuid[], number_of_questions_to_display = $9,
		     randomize_questions = $10, total_points = $11, is_active = $12
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.Subject, e.ClassLevel, e.Duration,
		e.PassingScore, questionIDs, e.NumberOfQuestionsToDisplay,
		e.RandomizeQuestions, e.TotalPoints, e.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an exam.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

package repository

import (
	"context"
	"errors"

	"github.com/examhall/cbt-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// GetByID retrieves a single question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, question_text, question_type, subject, class_level, difficulty,
		        options, correct_answer, points
		 FROM questions
		 WHERE id = $1`, id,
	).Scan(&q.ID, &q.QuestionText, &q.QuestionType, &q.Subject, &q.ClassLevel,
		&q.Difficulty, &q.Options, &q.CorrectAnswer, &q.Points)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetByIDs retrieves questions preserving the order of ids. Ids that no
// longer resolve to a question are skipped.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	textIDs := make([]string, len(ids))
	for i, id := range ids {
		textIDs[i] = id.String()
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, question_text, question_type, subject, class_level, difficulty,
		        options, correct_answer, points
		 FROM questions
		 WHERE id = ANY($1::uuid[])`, textIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]model.Question, len(ids))
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.QuestionType, &q.Subject, &q.ClassLevel,
			&q.Difficulty, &q.Options, &q.CorrectAnswer, &q.Points); err != nil {
			return nil, err
		}
		byID[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// List retrieves all questions, newest first.
func (r *QuestionRepository) List(ctx context.Context) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_text, question_type, subject, class_level, difficulty,
		        options, correct_answer, points
		 FROM questions
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.QuestionType, &q.Subject, &q.ClassLevel,
			&q.Difficulty, &q.Options, &q.CorrectAnswer, &q.Points); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListBySubjectClass retrieves the question bank for one subject and class
// level, oldest first so bank-selection pools are stable across calls.
func (r *QuestionRepository) ListBySubjectClass(ctx context.Context, subject, classLevel string) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_text, question_type, subject, class_level, difficulty,
		        options, correct_answer, points
		 FROM questions
		 WHERE subject = $1 AND class_level = $2
		 ORDER BY created_at`,
		subject, classLevel,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.QuestionType, &q.Subject, &q.ClassLevel,
			&q.Difficulty, &q.Options, &q.CorrectAnswer, &q.Points); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (question_text, question_type, subject, class_level, difficulty,
		                        options, correct_answer, points)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		q.QuestionText, q.QuestionType, q.Subject, q.ClassLevel, q.Difficulty,
		q.Options, q.CorrectAnswer, q.Points,
	).Scan(&q.ID)
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

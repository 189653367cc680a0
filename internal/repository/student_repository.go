package repository

import (
	"context"
	"errors"

	"github.com/examhall/cbt-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudentRepository handles student roster data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByID retrieves a single student.
func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, student_id FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.StudentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List retrieves all students ordered by name.
func (r *StudentRepository) List(ctx context.Context) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, student_id FROM students ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.StudentID); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO students (name, student_id) VALUES ($1, $2) RETURNING id`,
		s.Name, s.StudentID,
	).Scan(&s.ID)
}

// Update overwrites an existing student.
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE students SET name = $2, student_id = $3 WHERE id = $1`,
		s.ID, s.Name, s.StudentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a student.
func (r *StudentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

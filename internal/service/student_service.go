package service

import (
	"context"
	"fmt"

	"github.com/examhall/cbt-backend/internal/model"
	"github.com/google/uuid"
)

// StudentService handles roster management.
type StudentService struct {
	students StudentStore
}

// NewStudentService creates a new StudentService.
func NewStudentService(students StudentStore) *StudentService {
	return &StudentService{students: students}
}

// List returns all students.
func (s *StudentService) List(ctx context.Context) ([]model.Student, error) {
	return s.students.List(ctx)
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	return s.students.GetByID(ctx, id)
}

// Create stores a new student.
func (s *StudentService) Create(ctx context.Context, req *model.CreateStudentRequest) (*model.Student, error) {
	student := &model.Student{Name: req.Name, StudentID: req.StudentID}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	return student, nil
}

// CreateBulk stores a batch of roster entries, as produced by a CSV import.
// Rows missing a name or student number are skipped rather than failing the
// whole batch.
func (s *StudentService) CreateBulk(ctx context.Context, reqs []model.CreateStudentRequest) ([]model.Student, error) {
	created := make([]model.Student, 0, len(reqs))
	for i := range reqs {
		if reqs[i].Name == "" || reqs[i].StudentID == "" {
			continue
		}
		student := &model.Student{Name: reqs[i].Name, StudentID: reqs[i].StudentID}
		if err := s.students.Create(ctx, student); err != nil {
			return nil, fmt.Errorf("create student %d: %w", i, err)
		}
		created = append(created, *student)
	}
	return created, nil
}

// Update overwrites a student record.
func (s *StudentService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateStudentRequest) (*model.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.StudentID != nil {
		student.StudentID = *req.StudentID
	}
	if err := s.students.Update(ctx, student); err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	return student, nil
}

// Delete removes a student.
func (s *StudentService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.students.Delete(ctx, id)
}

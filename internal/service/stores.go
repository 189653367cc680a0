package service

import (
	"context"
	"time"

	"github.com/examhall/cbt-backend/internal/model"
	"github.com/google/uuid"
)

// Store interfaces are defined here, on the consumer side, so the engines
// can be driven by the pgx repositories in production and by the in-memory
// store in tests. Implementations must return repository.ErrNotFound for
// absent ids.

// QuestionStore provides question data access.
type QuestionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	// GetByIDs returns questions in the order of ids, silently skipping ids
	// that no longer resolve to a question.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error)
	List(ctx context.Context) ([]model.Question, error)
	// ListBySubjectClass returns the question bank for one subject and class
	// level, the candidate pool for bank-selection exams.
	ListBySubjectClass(ctx context.Context, subject, classLevel string) ([]model.Question, error)
	Create(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExamStore provides exam definition data access.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	List(ctx context.Context) ([]model.Exam, error)
	Create(ctx context.Context, e *model.Exam) error
	Update(ctx context.Context, e *model.Exam) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SessionStore provides exam session data access. MarkCompleted is the
// compare-and-set guarding the at-most-one-result invariant: it reports
// whether this call performed the Active → Completed transition.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error)
	GetActiveByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID string) (*model.ExamSession, error)
	Create(ctx context.Context, s *model.ExamSession) error
	UpdateProgress(ctx context.Context, id uuid.UUID, answers map[string]string, currentQuestionIndex int) (*model.ExamSession, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, answers map[string]string, endedAt time.Time) (bool, error)
	// ListExpired returns active sessions whose deadline (startedAt + exam
	// duration + grace) lies before now.
	ListExpired(ctx context.Context, now time.Time, graceSeconds int) ([]model.ExamSession, error)
}

// ResultStore provides graded result data access. Create must be a no-op
// when a result for the same session already exists, so concurrent
// finalizers converge on a single canonical row.
type ResultStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error)
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.Result, error)
	List(ctx context.Context) ([]model.Result, error)
	Create(ctx context.Context, r *model.Result) error
}

// StudentStore provides roster data access.
type StudentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error)
	List(ctx context.Context) ([]model.Student, error)
	Create(ctx context.Context, s *model.Student) error
	Update(ctx context.Context, s *model.Student) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AdminStore provides back-office user data access.
type AdminStore interface {
	GetByUsername(ctx context.Context, username string) (*model.Admin, error)
	Create(ctx context.Context, a *model.Admin) error
}

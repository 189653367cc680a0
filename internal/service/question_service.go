package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/examhall/cbt-backend/internal/model"
	"github.com/google/uuid"
)

// QuestionService handles question bank business logic.
type QuestionService struct {
	questions QuestionStore
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions QuestionStore) *QuestionService {
	return &QuestionService{questions: questions}
}

// List returns all bank questions.
func (s *QuestionService) List(ctx context.Context) ([]model.Question, error) {
	return s.questions.List(ctx)
}

// Get returns a single question.
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return s.questions.GetByID(ctx, id)
}

// Create validates and stores a new question.
func (s *QuestionService) Create(ctx context.Context, req *model.CreateQuestionRequest) (*model.Question, error) {
	q := req.ToQuestion()
	if err := validateQuestion(q); err != nil {
		return nil, err
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// CreateBulk stores a batch of questions. The batch is validated up front so
// a bad entry rejects the whole batch before anything is stored.
func (s *QuestionService) CreateBulk(ctx context.Context, reqs []model.CreateQuestionRequest) ([]model.Question, error) {
	questions := make([]*model.Question, 0, len(reqs))
	for i := range reqs {
		q := reqs[i].ToQuestion()
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, q)
	}

	created := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if err := s.questions.Create(ctx, q); err != nil {
			return nil, fmt.Errorf("create question: %w", err)
		}
		created = append(created, *q)
	}
	return created, nil
}

// Delete removes a question from the bank. Exams referencing it keep working:
// resolution skips ids that no longer exist.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.questions.Delete(ctx, id)
}

func validateQuestion(q *model.Question) error {
	switch q.QuestionType {
	case model.QuestionTypeMultipleChoice:
		if len(q.Options) < 2 {
			return errors.New("multiple-choice question needs at least two options")
		}
	case model.QuestionTypeTrueFalse, model.QuestionTypeShortAnswer:
		// No option constraints.
	default:
		return fmt.Errorf("unknown question type %q", q.QuestionType)
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/examhall/cbt-backend/internal/config"
	"github.com/examhall/cbt-backend/internal/model"
	"github.com/examhall/cbt-backend/internal/selection"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// examPaperTTL bounds staleness of the cached student-facing paper.
const examPaperTTL = 10 * time.Minute

// ExamService handles exam definition business logic and per-session
// question set resolution.
type ExamService struct {
	exams     ExamStore
	questions QuestionStore
	rdb       *redis.Client

	// rng drives subset selection and shuffling. math/rand generators are
	// not safe for concurrent use, so draws go through rngMu.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewExamService creates a new ExamService.
func NewExamService(exams ExamStore, questions QuestionStore, rdb *redis.Client, rng *rand.Rand) *ExamService {
	return &ExamService{exams: exams, questions: questions, rdb: rdb, rng: rng}
}

// List returns all exams.
func (s *ExamService) List(ctx context.Context) ([]model.Exam, error) {
	return s.exams.List(ctx)
}

// ListActive returns exams currently open to students.
func (s *ExamService) ListActive(ctx context.Context) ([]model.Exam, error) {
	exams, err := s.exams.List(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]model.Exam, 0, len(exams))
	for _, e := range exams {
		if e.IsActive {
			active = append(active, e)
		}
	}
	return active, nil
}

// Get returns a single exam.
func (s *ExamService) Get(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.exams.GetByID(ctx, id)
}

// Create validates and stores a new exam. TotalPoints is derived from the
// authored question bank at creation time.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	questionIDs, err := parseUUIDs(req.QuestionIDs)
	if err != nil {
		return nil, err
	}
	// An empty authored list is only valid in bank-selection mode, where the
	// displayed-count cap draws from the subject's whole question bank.
	if len(questionIDs) == 0 && (req.NumberOfQuestionsToDisplay == nil || *req.NumberOfQuestionsToDisplay <= 0) {
		return nil, errors.New("exam needs questions or a number of questions to display")
	}
	if len(questionIDs) > 0 && req.NumberOfQuestionsToDisplay != nil && *req.NumberOfQuestionsToDisplay > len(questionIDs) {
		return nil, ErrInsufficientQuestions
	}

	questions, err := s.questions.GetByIDs(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) != len(questionIDs) {
		return nil, errors.New("one or more question ids do not exist")
	}

	total := 0
	for _, q := range questions {
		total += q.Points
	}

	exam := &model.Exam{
		Title:                      req.Title,
		Description:                req.Description,
		Subject:                    req.Subject,
		ClassLevel:                 req.ClassLevel,
		Duration:                   req.Duration,
		PassingScore:               req.PassingScore,
		QuestionIDs:                questionIDs,
		NumberOfQuestionsToDisplay: req.NumberOfQuestionsToDisplay,
		RandomizeQuestions:         req.RandomizeQuestions,
		TotalPoints:                total,
		IsActive:                   true,
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	return exam, nil
}

// Update applies a partial update and recomputes TotalPoints when the
// question bank changed.
func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = req.Description
	}
	if req.Subject != nil {
		exam.Subject = *req.Subject
	}
	if req.ClassLevel != nil {
		exam.ClassLevel = *req.ClassLevel
	}
	if req.Duration != nil {
		exam.Duration = *req.Duration
	}
	if req.PassingScore != nil {
		exam.PassingScore = *req.PassingScore
	}
	if req.NumberOfQuestionsToDisplay != nil {
		if *req.NumberOfQuestionsToDisplay == 0 {
			exam.NumberOfQuestionsToDisplay = nil
		} else {
			exam.NumberOfQuestionsToDisplay = req.NumberOfQuestionsToDisplay
		}
	}
	if req.RandomizeQuestions != nil {
		exam.RandomizeQuestions = *req.RandomizeQuestions
	}
	if req.IsActive != nil {
		exam.IsActive = *req.IsActive
	}
	if req.QuestionIDs != nil {
		questionIDs, err := parseUUIDs(req.QuestionIDs)
		if err != nil {
			return nil, err
		}
		questions, err := s.questions.GetByIDs(ctx, questionIDs)
		if err != nil {
			return nil, fmt.Errorf("load questions: %w", err)
		}
		if len(questions) != len(questionIDs) {
			return nil, errors.New("one or more question ids do not exist")
		}
		total := 0
		for _, q := range questions {
			total += q.Points
		}
		exam.QuestionIDs = questionIDs
		exam.TotalPoints = total
	}
	if len(exam.QuestionIDs) > 0 && exam.NumberOfQuestionsToDisplay != nil && *exam.NumberOfQuestionsToDisplay > len(exam.QuestionIDs) {
		return nil, ErrInsufficientQuestions
	}

	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("update exam: %w", err)
	}
	s.invalidatePaper(ctx, id)
	return exam, nil
}

// Delete removes an exam and drops its cached paper.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.exams.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidatePaper(ctx, id)
	return nil
}

// ResolveQuestionSet computes the question ids one session will see. When
// the exam caps the displayed count, a random subset without replacement is
// drawn; when it randomizes order, the set is shuffled. Otherwise the
// authored order is preserved. An exam with a displayed-count cap but no
// authored list draws from the whole bank for its subject and class level.
func (s *ExamService) ResolveQuestionSet(ctx context.Context, exam *model.Exam) ([]uuid.UUID, error) {
	pool := exam.QuestionIDs
	if exam.NumberOfQuestionsToDisplay != nil && *exam.NumberOfQuestionsToDisplay > 0 {
		if len(pool) == 0 {
			bank, err := s.questions.ListBySubjectClass(ctx, exam.Subject, exam.ClassLevel)
			if err != nil {
				return nil, fmt.Errorf("load question bank: %w", err)
			}
			pool = make([]uuid.UUID, 0, len(bank))
			for _, q := range bank {
				pool = append(pool, q.ID)
			}
		}
		s.rngMu.Lock()
		ids, err := selection.Subset(s.rng, pool, *exam.NumberOfQuestionsToDisplay)
		s.rngMu.Unlock()
		if err != nil {
			if errors.Is(err, selection.ErrInsufficientPool) {
				return nil, ErrInsufficientQuestions
			}
			return nil, err
		}
		return ids, nil
	}
	if exam.RandomizeQuestions {
		s.rngMu.Lock()
		ids := selection.Shuffle(s.rng, pool)
		s.rngMu.Unlock()
		return ids, nil
	}
	return append([]uuid.UUID(nil), pool...), nil
}

// GetPaper returns the student-facing exam payload with answer keys
// stripped, served from the Redis cache when warm. Postgres stays the source
// of truth; a cache miss rebuilds and heals the cache.
func (s *ExamService) GetPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	key := config.CacheKey.ExamPaperKey(examID.String())
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, key).Result()
		if err == nil {
			paper := &model.ExamPaper{}
			if err := json.Unmarshal([]byte(raw), paper); err == nil {
				return paper, nil
			}
			// Corrupt cache entry, rebuild below.
		} else if !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("get cached paper: %w", err)
		}
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.GetByIDs(ctx, exam.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	paper := &model.ExamPaper{
		ExamID:    exam.ID,
		Title:     exam.Title,
		Duration:  exam.Duration,
		Questions: make([]model.QuestionForStudent, 0, len(questions)),
	}
	for i := range questions {
		paper.Questions = append(paper.Questions, questions[i].ForStudent())
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(paper); err == nil {
			_ = s.rdb.Set(ctx, key, raw, examPaperTTL).Err()
		}
	}
	return paper, nil
}

// QuestionsFor returns the full question records for a resolved session set,
// preserving order and skipping deleted questions.
func (s *ExamService) QuestionsFor(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	return s.questions.GetByIDs(ctx, ids)
}

func (s *ExamService) invalidatePaper(ctx context.Context, examID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	_ = s.rdb.Del(ctx, config.CacheKey.ExamPaperKey(examID.String())).Err()
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("invalid question id %q: %w", r, err)
		}
		out = append(out, id)
	}
	return out, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examhall/cbt-backend/internal/config"
	"github.com/examhall/cbt-backend/internal/grading"
	"github.com/examhall/cbt-backend/internal/model"
	"github.com/examhall/cbt-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExamSessionService owns the session lifecycle: create, progress, finalize.
// Finalization is idempotent and race-safe; at most one Result ever exists
// per session regardless of how many submitters race.
type ExamSessionService struct {
	cfg      *config.Config
	sessions SessionStore
	exams    ExamStore
	results  ResultStore
	examSvc  *ExamService
	log      zerolog.Logger

	// now is swappable for deterministic deadline tests.
	now func() time.Time
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	cfg *config.Config,
	sessions SessionStore,
	exams ExamStore,
	results ResultStore,
	examSvc *ExamService,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		cfg:      cfg,
		sessions: sessions,
		exams:    exams,
		results:  results,
		examSvc:  examSvc,
		log:      log,
		now:      time.Now,
	}
}

// CreateSession starts an exam attempt. The question set the student will
// see is resolved here, once, and frozen on the session. With retakes
// disabled, an existing active attempt is returned instead of a new one.
func (s *ExamSessionService) CreateSession(ctx context.Context, req *model.CreateSessionRequest) (*model.ExamSession, error) {
	examID, err := uuid.Parse(req.ExamID)
	if err != nil {
		return nil, fmt.Errorf("invalid exam id: %w", err)
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !exam.IsActive {
		return nil, errors.New("exam is not active")
	}

	if !s.cfg.AllowRetakes {
		existing, err := s.sessions.GetActiveByExamAndStudent(ctx, examID, req.StudentID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("check existing session: %w", err)
		}
	}

	questionIDs, err := s.examSvc.ResolveQuestionSet(ctx, exam)
	if err != nil {
		return nil, err
	}

	session := &model.ExamSession{
		ExamID:             examID,
		StudentName:        req.StudentName,
		StudentID:          req.StudentID,
		Answers:            map[string]string{},
		SessionQuestionIDs: questionIDs,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("exam_id", examID.String()).
		Str("student_id", req.StudentID).
		Int("question_count", len(questionIDs)).
		Msg("session started")
	return session, nil
}

// GetSession returns a session with its remaining time budget.
func (s *ExamSessionService) GetSession(ctx context.Context, id uuid.UUID) (*model.SessionState, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	remaining, err := s.remainingSeconds(ctx, session)
	if err != nil {
		return nil, err
	}
	return &model.SessionState{Session: session, RemainingSeconds: remaining}, nil
}

// SessionQuestions returns the question records for the session's resolved
// set, in presentation order.
func (s *ExamSessionService) SessionQuestions(ctx context.Context, id uuid.UUID) ([]model.Question, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.examSvc.QuestionsFor(ctx, s.questionSet(ctx, session))
}

// RecordProgress replaces the session's answer map and navigation index
// wholesale. Last write wins; there is no merging.
func (s *ExamSessionService) RecordProgress(ctx context.Context, id uuid.UUID, req *model.ProgressRequest) (*model.ExamSession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, ErrSessionCompleted
	}
	if s.expired(ctx, session) {
		return nil, ErrSessionExpired
	}

	answers := req.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	updated, err := s.sessions.UpdateProgress(ctx, id, answers, req.CurrentQuestionIndex)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Lost a race with a finalizer between the read and the write.
			return nil, ErrSessionCompleted
		}
		return nil, fmt.Errorf("update progress: %w", err)
	}
	return updated, nil
}

// Finalize grades a session and stores its Result exactly once. The call is
// idempotent: resubmissions and concurrent submitters all receive the same
// canonical Result. When answers is non-nil it replaces the stored map
// before grading; otherwise the stored answers are graded.
func (s *ExamSessionService) Finalize(ctx context.Context, id uuid.UUID, answers map[string]string) (*model.Result, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.IsCompleted {
		result, err := s.results.GetBySessionID(ctx, id)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("get result: %w", err)
		}
		// Completed but no result on record: fall through and grade, the
		// conflict-free insert below converges on one row either way.
	}

	finalAnswers := session.Answers
	if answers != nil {
		finalAnswers = answers
	}
	if finalAnswers == nil {
		finalAnswers = map[string]string{}
	}

	exam, err := s.exams.GetByID(ctx, session.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	questions, err := s.examSvc.QuestionsFor(ctx, s.questionSet(ctx, session))
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	graded := make([]grading.GradedQuestion, 0, len(questions))
	for _, q := range questions {
		graded = append(graded, grading.GradedQuestion{
			ID:            q.ID.String(),
			CorrectAnswer: q.CorrectAnswer,
			Points:        q.Points,
		})
	}
	summary := grading.Grade(graded, finalAnswers, exam.PassingScore)

	completedAt := s.now()
	won, err := s.sessions.MarkCompleted(ctx, id, finalAnswers, completedAt)
	if err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}
	if !won {
		// Lost the completion race. The answers the winner stored on the
		// session are canonical now, so regrade from those: this racer's
		// insert below may land first, and a row graded from its own
		// answers could disagree with the session.
		session, err = s.sessions.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("reload session: %w", err)
		}
		finalAnswers = session.Answers
		if finalAnswers == nil {
			finalAnswers = map[string]string{}
		}
		summary = grading.Grade(graded, finalAnswers, exam.PassingScore)
		if session.EndedAt != nil {
			completedAt = *session.EndedAt
		}
	}

	// Every racer attempts the insert; the unique index on session_id lets
	// exactly one land and leaves the rest as no-ops. Skipping the insert
	// for losers would leave a window where the winner has flipped the flag
	// but not yet stored its row.
	result := &model.Result{
		SessionID:      id,
		ExamID:         session.ExamID,
		StudentName:    session.StudentName,
		StudentID:      session.StudentID,
		Score:          summary.Score,
		TotalPoints:    summary.TotalPoints,
		Percentage:     summary.Percentage,
		Passed:         summary.Passed,
		Answers:        finalAnswers,
		CorrectAnswers: summary.CorrectAnswers,
		CompletedAt:    completedAt,
	}
	if err := s.results.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("store result: %w", err)
	}
	if won {
		s.log.Info().
			Str("session_id", id.String()).
			Int("score", summary.Score).
			Int("percentage", summary.Percentage).
			Bool("passed", summary.Passed).
			Msg("session finalized")
	}

	// Winner and losers alike read back the canonical row.
	result, err = s.results.GetBySessionID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return result, nil
}

// FinalizeExpired sweeps open sessions past their deadline and grades each
// with its stored answers. Returns the number of sessions finalized.
func (s *ExamSessionService) FinalizeExpired(ctx context.Context) (int, error) {
	expired, err := s.sessions.ListExpired(ctx, s.now(), s.cfg.DeadlineGraceSeconds)
	if err != nil {
		return 0, fmt.Errorf("list expired: %w", err)
	}

	finalized := 0
	for _, session := range expired {
		if _, err := s.Finalize(ctx, session.ID, nil); err != nil {
			s.log.Error().Err(err).
				Str("session_id", session.ID.String()).
				Msg("force finalize failed")
			continue
		}
		finalized++
	}
	return finalized, nil
}

// GetResult returns a result by its id.
func (s *ExamSessionService) GetResult(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	return s.results.GetByID(ctx, id)
}

// GetResultBySession returns the canonical result for a session.
func (s *ExamSessionService) GetResultBySession(ctx context.Context, sessionID uuid.UUID) (*model.Result, error) {
	return s.results.GetBySessionID(ctx, sessionID)
}

// ListResults returns all results, newest first.
func (s *ExamSessionService) ListResults(ctx context.Context) ([]model.Result, error) {
	return s.results.List(ctx)
}

// questionSet returns the frozen per-session set when present, falling back
// to the exam's authored list for sessions created before resolution existed.
func (s *ExamSessionService) questionSet(ctx context.Context, session *model.ExamSession) []uuid.UUID {
	if len(session.SessionQuestionIDs) > 0 {
		return session.SessionQuestionIDs
	}
	exam, err := s.exams.GetByID(ctx, session.ExamID)
	if err != nil {
		return nil
	}
	return exam.QuestionIDs
}

func (s *ExamSessionService) remainingSeconds(ctx context.Context, session *model.ExamSession) (int64, error) {
	exam, err := s.exams.GetByID(ctx, session.ExamID)
	if err != nil {
		return 0, fmt.Errorf("get exam: %w", err)
	}
	if session.IsCompleted {
		return 0, nil
	}
	deadline := session.StartedAt.Add(time.Duration(exam.Duration) * time.Minute)
	remaining := deadline.Sub(s.now())
	if remaining < 0 {
		return 0, nil
	}
	return int64(remaining.Seconds()), nil
}

// expired reports whether deadline enforcement rejects further writes to
// this session.
func (s *ExamSessionService) expired(ctx context.Context, session *model.ExamSession) bool {
	if !s.cfg.EnforceDeadline {
		return false
	}
	exam, err := s.exams.GetByID(ctx, session.ExamID)
	if err != nil {
		return false
	}
	deadline := session.StartedAt.
		Add(time.Duration(exam.Duration) * time.Minute).
		Add(time.Duration(s.cfg.DeadlineGraceSeconds) * time.Second)
	return s.now().After(deadline)
}

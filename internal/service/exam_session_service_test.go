package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/examhall/cbt-backend/internal/config"
	"github.com/examhall/cbt-backend/internal/model"
	"github.com/examhall/cbt-backend/internal/repository/memstore"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type engineFixture struct {
	store      *memstore.Store
	examSvc    *ExamService
	sessionSvc *ExamSessionService
	cfg        *config.Config
}

func newEngine(t *testing.T, mutate func(cfg *config.Config)) *engineFixture {
	t.Helper()
	cfg := &config.Config{
		AllowRetakes:         true,
		EnforceDeadline:      false,
		DeadlineGraceSeconds: 0,
	}
	if mutate != nil {
		mutate(cfg)
	}
	store := memstore.New()
	examSvc := NewExamService(store.Exams(), store.Questions(), nil, rand.New(rand.NewSource(1)))
	sessionSvc := NewExamSessionService(cfg, store.Sessions(), store.Exams(), store.Results(), examSvc, zerolog.Nop())
	return &engineFixture{store: store, examSvc: examSvc, sessionSvc: sessionSvc, cfg: cfg}
}

func seedQuestions(t *testing.T, f *engineFixture, specs []model.Question) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, 0, len(specs))
	for i := range specs {
		q := specs[i]
		if q.QuestionType == "" {
			q.QuestionType = model.QuestionTypeShortAnswer
		}
		if q.Points == 0 {
			q.Points = 1
		}
		if err := f.store.Questions().Create(context.Background(), &q); err != nil {
			t.Fatalf("seed question: %v", err)
		}
		ids = append(ids, q.ID)
	}
	return ids
}

func seedExam(t *testing.T, f *engineFixture, exam model.Exam) *model.Exam {
	t.Helper()
	if exam.Duration == 0 {
		exam.Duration = 30
	}
	exam.IsActive = true
	total := 0
	for _, id := range exam.QuestionIDs {
		q, err := f.store.Questions().GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("seed exam: %v", err)
		}
		total += q.Points
	}
	exam.TotalPoints = total
	if err := f.store.Exams().Create(context.Background(), &exam); err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	return &exam
}

func startSession(t *testing.T, f *engineFixture, exam *model.Exam, studentID string) *model.ExamSession {
	t.Helper()
	session, err := f.sessionSvc.CreateSession(context.Background(), &model.CreateSessionRequest{
		ExamID:      exam.ID.String(),
		StudentName: "Test Student",
		StudentID:   studentID,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session
}

func TestFinalizeGradesStoredAnswers(t *testing.T) {
	f := newEngine(t, nil)
	ids := seedQuestions(t, f, []model.Question{
		{CorrectAnswer: "Paris", Points: 2},
		{CorrectAnswer: "4", Points: 3},
	})
	exam := seedExam(t, f, model.Exam{Title: "Geo", QuestionIDs: ids, PassingScore: 50})
	session := startSession(t, f, exam, "S1")

	_, err := f.sessionSvc.RecordProgress(context.Background(), session.ID, &model.ProgressRequest{
		Answers: map[string]string{
			ids[0].String(): "  paris ",
			ids[1].String(): "5",
		},
	})
	if err != nil {
		t.Fatalf("record progress: %v", err)
	}

	result, err := f.sessionSvc.Finalize(context.Background(), session.ID, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if result.Score != 2 {
		t.Errorf("Score = %d, want 2", result.Score)
	}
	if result.TotalPoints != 5 {
		t.Errorf("TotalPoints = %d, want 5", result.TotalPoints)
	}
	if result.Percentage != 40 {
		t.Errorf("Percentage = %d, want 40", result.Percentage)
	}
	if result.Passed {
		t.Error("Passed = true, want false")
	}
	if len(result.CorrectAnswers) != 2 {
		t.Errorf("CorrectAnswers has %d entries, want 2", len(result.CorrectAnswers))
	}
}

func TestFinalizeSubmittedAnswersOverrideStored(t *testing.T) {
	f := newEngine(t, nil)
	ids := seedQuestions(t, f, []model.Question{{CorrectAnswer: "yes", Points: 1}})
	exam := seedExam(t, f, model.Exam{Title: "Quiz", QuestionIDs: ids, PassingScore: 100})
	session := startSession(t, f, exam, "S1")

	_, err := f.sessionSvc.RecordProgress(context.Background(), session.ID, &model.ProgressRequest{
		Answers: map[string]string{ids[0].String(): "no"},
	})
	if err != nil {
		t.Fatalf("record progress: %v", err)
	}

	result, err := f.sessionSvc.Finalize(context.Background(), session.ID, map[string]string{
		ids[0].String(): "YES",
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if !result.Passed {
		t.Error("submitted answers should win over stored answers")
	}
	if result.Answers[ids[0].String()] != "YES" {
		t.Errorf("stored final answer = %q, want YES", result.Answers[ids[0].String()])
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	f := newEngine(t, nil)
	ids := seedQuestions(t, f, []model.Question{{CorrectAnswer: "a", Points: 1}})
	exam := seedExam(t, f, model.Exam{Title: "Quiz", QuestionIDs: ids, PassingScore: 0})
	session := startSession(t, f, exam, "S1")

	first, err := f.sessionSvc.Finalize(context.Background(), session.ID, map[string]string{ids[0].String(): "a"})
	if err != nil {
		t.Fatalf("first finalize: %v", err)
	}
	second, err := f.sessionSvc.Finalize(context.Background(), session.ID, map[string]string{ids[0].String(): "changed"})
	if err != nil {
		t.Fatalf("second finalize: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("resubmission returned a different result: %s vs %s", first.ID, second.ID)
	}
	if second.Answers[ids[0].String()] != "a" {
		t.Error("resubmission must not regrade or overwrite the stored result")
	}
	all, err := f.sessionSvc.ListResults(context.Background())
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("results stored = %d, want 1", len(all))
	}
}

func TestFinalizeConcurrentSubmittersConverge(t *testing.T) {
	f := newEngine(t, nil)
	ids := seedQuestions(t, f, []model.Question{{CorrectAnswer: "a", Points: 1}})
	exam := seedExam(t, f, model.Exam{Title: "Quiz", QuestionIDs: ids, PassingScore: 0})
	session := startSession(t, f, exam, "S1")

	const submitters = 16
	results := make([]*model.Result, submitters)
	errs := make([]error, submitters)
	var wg sync.WaitGroup
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Each submitter races with its own answers; only one set may
			// end up canonical.
			results[i], errs[i] = f.sessionSvc.Finalize(context.Background(), session.ID, map[string]string{
				ids[0].String(): fmt.Sprintf("guess-%d", i),
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < submitters; i++ {
		if errs[i] != nil {
			t.Fatalf("submitter %d: %v", i, errs[i])
		}
		if results[i].ID != results[0].ID {
			t.Fatalf("submitter %d got result %s, submitter 0 got %s", i, results[i].ID, results[0].ID)
		}
	}
	all, err := f.sessionSvc.ListResults(context.Background())
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("results stored = %d, want exactly 1", len(all))
	}

	// The stored result must agree with the answers frozen on the session,
	// whichever submitter won the completion race.
	stored, err := f.store.Sessions().GetByID(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got, want := all[0].Answers[ids[0].String()], stored.Answers[ids[0].String()]; got != want {
		t.Errorf("result answers = %q, session answers = %q; they must match", got, want)
	}
}

func TestFinalizeAfterCompletionGradesSessionAnswers(t *testing.T) {
	f := newEngine(t, nil)
	ids := seedQuestions(t, f, []model.Question{{CorrectAnswer: "right", Points: 1}})
	exam := seedExam(t, f, model.Exam{Title: "Quiz", QuestionIDs: ids, PassingScore: 100})
	session := startSession(t, f, exam, "S1")

	// Complete the session with canonical answers but leave no result
	// behind, the state a submitter observes after losing the completion
	// race to a finalizer that has not stored its row yet.
	won, err := f.store.Sessions().MarkCompleted(context.Background(), session.ID,
		map[string]string{ids[0].String(): "right"}, time.Now())
	if err != nil || !won {
		t.Fatalf("mark completed: won=%v err=%v", won, err)
	}

	result, err := f.sessionSvc.Finalize(context.Background(), session.ID, map[string]string{
		ids[0].String(): "wrong",
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if got := result.Answers[ids[0].String()]; got != "right" {
		t.Errorf("result answers = %q, want the session's stored answers", got)
	}
	if !result.Passed {
		t.Error("grading must use the session's stored answers, not the late submission")
	}
}

func TestRecordProgressOverwritesWholesale(t *testing.T) {
	f := newEngine(t, nil)
	ids := seedQuestions(t, f, []model.Question{
		{CorrectAnswer: "a"}, {CorrectAnswer: "b"},
	})
	exam := seedExam(t, f, model.Exam{Title: "Quiz", QuestionIDs: ids})
	session := startSession(t, f, exam, "S1")

	_, err := f.sessionSvc.RecordProgress(context.Background(), session.ID, &model.ProgressRequest{
		Answers:              map[string]string{ids[0].String(): "a", ids[1].String(): "b"},
		CurrentQuestionIndex: 1,
	})
	if err != nil {
		t.Fatalf("first save: %v", err)
	}

	updated, err := f.sessionSvc.RecordProgress(context.Background(), session.ID, &model.ProgressRequest{
		Answers:              map[string]string{ids[1].String(): "changed"},
		CurrentQuestionIndex: 0,
	})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if len(updated.Answers) != 1 {
		t.Errorf("answers after overwrite = %v, want only the second map", updated.Answers)
	}
	if _, ok := updated.Answers[ids[0].String()]; ok {
		t.Error("first answer survived an overwrite that omitted it")
	}
	if updated.CurrentQuestionIndex != 0 {
		t.Errorf("CurrentQuestionIndex = %d, want 0", updated.CurrentQuestionIndex)
	}
}

func TestRecordProgressOnCompletedSession(t *testing.T) {
	f := newEngine(t, nil)
	ids := seedQuestions(t, f, []model.Question{{CorrectAnswer: "a"}})
	exam := seedExam(t, f, model.Exam{Title: "Quiz", QuestionIDs: ids})
	session := startSession(t, f, exam, "S1")

	if _, err := f.sessionSvc.Finalize(context.Background(), session.ID, nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	_, err := f.sessionSvc.RecordProgress(context.Background(), session.ID, &model.ProgressRequest{
		Answers: map[string]string{ids[0].String(): "late"},
	})
	if !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("err = %v, want ErrSessionCompleted", err)
	}
}

func TestCreateSessionResolvesSubset(t *testing.T) {
	f := newEngine(t, nil)
	ids := seedQuestions(t, f, []model.Question{
		{CorrectAnswer: "a"}, {CorrectAnswer: "b"}, {CorrectAnswer: "c"},
		{CorrectAnswer: "d"}, {CorrectAnswer: "e"},
	})
	n := 3
	exam := seedExam(t, f, model.Exam{Title: "Subset", QuestionIDs: ids, NumberOfQuestionsToDisplay: &n})

	pool := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		pool[id] = true
	}

	session := startSession(t, f, exam, "S1")
	if len(session.SessionQuestionIDs) != n {
		t.Fatalf("resolved set size = %d, want %d", len(session.SessionQuestionIDs), n)
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range session.SessionQuestionIDs {
		if !pool[id] {
			t.Errorf("resolved id %s is not in the exam pool", id)
		}
		if seen[id] {
			t.Errorf("resolved id %s repeats", id)
		}
		seen[id] = true
	}

	// The frozen set, not the full bank, is what gets graded.
	result, err := f.sessionSvc.Finalize(context.Background(), session.ID, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if result.TotalPoints != n {
		t.Errorf("graded TotalPoints = %d, want %d (one point per resolved question)", result.TotalPoints, n)
	}
}

func TestCreateSessionInsufficientPool(t *testing.T) {
	f := newEngine(t, nil)
	ids := seedQuestions(t, f, []model.Question{{CorrectAnswer: "a"}, {CorrectAnswer: "b"}})
	n := 5
	exam := seedExam(t, f, model.Exam{Title: "Subset", QuestionIDs: ids, NumberOfQuestionsToDisplay: &n})

	_, err := f.sessionSvc.CreateSession(context.Background(), &model.CreateSessionRequest{
		ExamID:      exam.ID.String(),
		StudentName: "Test Student",
		StudentID:   "S1",
	})
	if !errors.Is(err, ErrInsufficientQuestions) {
		t.Errorf("err = %v, want ErrInsufficientQuestions", err)
	}
}

func TestCreateSessionRetakesAllowed(t *testing.T) {
	f := newEngine(t, nil)
	ids := seedQuestions(t, f, []model.Question{{CorrectAnswer: "a"}})
	exam := seedExam(t, f, model.Exam{Title: "Quiz", QuestionIDs: ids})

	first := startSession(t, f, exam, "S1")
	second := startSession(t, f, exam, "S1")
	if first.ID == second.ID {
		t.Error("retakes allowed: each create should mint a fresh session")
	}
}

func TestCreateSessionRetakesDisabled(t *testing.T) {
	f := newEngine(t, func(cfg *config.Config) { cfg.AllowRetakes = false })
	ids := seedQuestions(t, f, []model.Question{{CorrectAnswer: "a"}})
	exam := seedExam(t, f, model.Exam{Title: "Quiz", QuestionIDs: ids})

	first := startSession(t, f, exam, "S1")
	second := startSession(t, f, exam, "S1")
	if first.ID != second.ID {
		t.Error("retakes disabled: create should return the existing active session")
	}

	// A finalized attempt no longer blocks a new one.
	if _, err := f.sessionSvc.Finalize(context.Background(), first.ID, nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	third := startSession(t, f, exam, "S1")
	if third.ID == first.ID {
		t.Error("completed session must not be returned as active")
	}
}

func TestDeadlineEnforcement(t *testing.T) {
	f := newEngine(t, func(cfg *config.Config) {
		cfg.EnforceDeadline = true
		cfg.DeadlineGraceSeconds = 30
	})
	ids := seedQuestions(t, f, []model.Question{{CorrectAnswer: "a"}})
	exam := seedExam(t, f, model.Exam{Title: "Timed", QuestionIDs: ids, Duration: 10})
	session := startSession(t, f, exam, "S1")

	base := session.StartedAt

	// Inside the window: writes pass.
	f.sessionSvc.now = func() time.Time { return base.Add(9 * time.Minute) }
	if _, err := f.sessionSvc.RecordProgress(context.Background(), session.ID, &model.ProgressRequest{
		Answers: map[string]string{ids[0].String(): "a"},
	}); err != nil {
		t.Fatalf("progress inside window: %v", err)
	}

	// Inside the grace period: still pass.
	f.sessionSvc.now = func() time.Time { return base.Add(10*time.Minute + 20*time.Second) }
	if _, err := f.sessionSvc.RecordProgress(context.Background(), session.ID, &model.ProgressRequest{
		Answers: map[string]string{ids[0].String(): "a"},
	}); err != nil {
		t.Fatalf("progress inside grace: %v", err)
	}

	// Past grace: rejected.
	f.sessionSvc.now = func() time.Time { return base.Add(11 * time.Minute) }
	_, err := f.sessionSvc.RecordProgress(context.Background(), session.ID, &model.ProgressRequest{
		Answers: map[string]string{ids[0].String(): "a"},
	})
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("err = %v, want ErrSessionExpired", err)
	}
}

func TestFinalizeExpiredSweepsOnlyOverdueSessions(t *testing.T) {
	f := newEngine(t, func(cfg *config.Config) {
		cfg.EnforceDeadline = true
	})
	ids := seedQuestions(t, f, []model.Question{{CorrectAnswer: "a"}})
	shortExam := seedExam(t, f, model.Exam{Title: "Short", QuestionIDs: ids, Duration: 5})
	longExam := seedExam(t, f, model.Exam{Title: "Long", QuestionIDs: ids, Duration: 120})

	short := startSession(t, f, shortExam, "S1")
	long := startSession(t, f, longExam, "S2")

	f.sessionSvc.now = func() time.Time { return short.StartedAt.Add(time.Hour) }
	finalized, err := f.sessionSvc.FinalizeExpired(context.Background())
	if err != nil {
		t.Fatalf("finalize expired: %v", err)
	}
	if finalized != 1 {
		t.Errorf("finalized = %d, want 1", finalized)
	}

	state, err := f.sessionSvc.GetSession(context.Background(), short.ID)
	if err != nil {
		t.Fatalf("get short session: %v", err)
	}
	if !state.Session.IsCompleted {
		t.Error("overdue session should be completed")
	}
	state, err = f.sessionSvc.GetSession(context.Background(), long.ID)
	if err != nil {
		t.Fatalf("get long session: %v", err)
	}
	if state.Session.IsCompleted {
		t.Error("session inside its window must not be swept")
	}
}

func TestRemainingSecondsFloorsAtZero(t *testing.T) {
	f := newEngine(t, nil)
	ids := seedQuestions(t, f, []model.Question{{CorrectAnswer: "a"}})
	exam := seedExam(t, f, model.Exam{Title: "Timed", QuestionIDs: ids, Duration: 10})
	session := startSession(t, f, exam, "S1")

	f.sessionSvc.now = func() time.Time { return session.StartedAt.Add(4 * time.Minute) }
	state, err := f.sessionSvc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if state.RemainingSeconds != 6*60 {
		t.Errorf("RemainingSeconds = %d, want %d", state.RemainingSeconds, 6*60)
	}

	f.sessionSvc.now = func() time.Time { return session.StartedAt.Add(time.Hour) }
	state, err = f.sessionSvc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if state.RemainingSeconds != 0 {
		t.Errorf("RemainingSeconds = %d, want 0", state.RemainingSeconds)
	}
}

func TestSessionQuestionsSkipDeleted(t *testing.T) {
	f := newEngine(t, nil)
	ids := seedQuestions(t, f, []model.Question{
		{CorrectAnswer: "a"}, {CorrectAnswer: "b"}, {CorrectAnswer: "c"},
	})
	exam := seedExam(t, f, model.Exam{Title: "Quiz", QuestionIDs: ids})
	session := startSession(t, f, exam, "S1")

	if err := f.store.Questions().Delete(context.Background(), ids[1]); err != nil {
		t.Fatalf("delete question: %v", err)
	}
	questions, err := f.sessionSvc.SessionQuestions(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("session questions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("questions = %d, want 2 after deletion", len(questions))
	}
	if questions[0].ID != ids[0] || questions[1].ID != ids[2] {
		t.Error("surviving questions should keep their presentation order")
	}

	// Grading adapts to the surviving set.
	result, err := f.sessionSvc.Finalize(context.Background(), session.ID, map[string]string{
		ids[0].String(): "a",
		ids[2].String(): "c",
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if result.TotalPoints != 2 || result.Score != 2 {
		t.Errorf("score/total = %d/%d, want 2/2", result.Score, result.TotalPoints)
	}
}

package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/examhall/cbt-backend/internal/model"
	"github.com/examhall/cbt-backend/internal/repository/memstore"
	"github.com/google/uuid"
)

func newExamFixture(t *testing.T) (*memstore.Store, *ExamService) {
	t.Helper()
	store := memstore.New()
	svc := NewExamService(store.Exams(), store.Questions(), nil, rand.New(rand.NewSource(42)))
	return store, svc
}

func seedBank(t *testing.T, store *memstore.Store, points ...int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, 0, len(points))
	for _, p := range points {
		q := &model.Question{
			QuestionText:  "q",
			QuestionType:  model.QuestionTypeShortAnswer,
			Subject:       "math",
			ClassLevel:    "10",
			Difficulty:    model.DifficultyEasy,
			CorrectAnswer: "a",
			Points:        p,
		}
		if err := store.Questions().Create(context.Background(), q); err != nil {
			t.Fatalf("seed question: %v", err)
		}
		ids = append(ids, q.ID)
	}
	return ids
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func TestCreateExamComputesTotalPoints(t *testing.T) {
	store, svc := newExamFixture(t)
	ids := seedBank(t, store, 2, 3, 5)

	exam, err := svc.Create(context.Background(), &model.CreateExamRequest{
		Title:        "Algebra",
		Subject:      "math",
		ClassLevel:   "10",
		Duration:     60,
		PassingScore: 60,
		QuestionIDs:  idStrings(ids),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if exam.TotalPoints != 10 {
		t.Errorf("TotalPoints = %d, want 10", exam.TotalPoints)
	}
	if !exam.IsActive {
		t.Error("new exams should start active")
	}
}

func TestCreateExamRejectsUnknownQuestion(t *testing.T) {
	store, svc := newExamFixture(t)
	ids := seedBank(t, store, 1)

	_, err := svc.Create(context.Background(), &model.CreateExamRequest{
		Title:       "Broken",
		Subject:     "math",
		ClassLevel:  "10",
		Duration:    60,
		QuestionIDs: append(idStrings(ids), uuid.NewString()),
	})
	if err == nil {
		t.Fatal("expected error for unknown question id")
	}
}

func TestCreateExamRejectsOversizedSubset(t *testing.T) {
	store, svc := newExamFixture(t)
	ids := seedBank(t, store, 1, 1)
	n := 3

	_, err := svc.Create(context.Background(), &model.CreateExamRequest{
		Title:                      "Subset",
		Subject:                    "math",
		ClassLevel:                 "10",
		Duration:                   60,
		QuestionIDs:                idStrings(ids),
		NumberOfQuestionsToDisplay: &n,
	})
	if !errors.Is(err, ErrInsufficientQuestions) {
		t.Errorf("err = %v, want ErrInsufficientQuestions", err)
	}
}

func TestResolveQuestionSetPreservesAuthoredOrder(t *testing.T) {
	store, svc := newExamFixture(t)
	ids := seedBank(t, store, 1, 1, 1, 1)
	exam := &model.Exam{QuestionIDs: ids}

	resolved, err := svc.ResolveQuestionSet(context.Background(), exam)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolved) != len(ids) {
		t.Fatalf("resolved %d ids, want %d", len(resolved), len(ids))
	}
	for i := range ids {
		if resolved[i] != ids[i] {
			t.Fatalf("position %d: got %s, want authored order", i, resolved[i])
		}
	}
	// The returned slice must be a copy; callers mutate session sets.
	resolved[0] = uuid.New()
	if exam.QuestionIDs[0] == resolved[0] {
		t.Error("resolution must not alias the exam's authored slice")
	}
}

func TestResolveQuestionSetShuffleIsPermutation(t *testing.T) {
	store, svc := newExamFixture(t)
	ids := seedBank(t, store, 1, 1, 1, 1, 1, 1, 1, 1)
	exam := &model.Exam{QuestionIDs: ids, RandomizeQuestions: true}

	resolved, err := svc.ResolveQuestionSet(context.Background(), exam)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolved) != len(ids) {
		t.Fatalf("resolved %d ids, want %d", len(resolved), len(ids))
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range resolved {
		seen[id] = true
	}
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("id %s missing from shuffled set", id)
		}
	}
}

func TestResolveQuestionSetDrawsFromBankWhenUnauthored(t *testing.T) {
	store, svc := newExamFixture(t)
	ids := seedBank(t, store, 1, 1, 1, 1, 1, 1)
	// A question outside the exam's subject must never be drawn.
	other := &model.Question{
		QuestionText:  "q",
		QuestionType:  model.QuestionTypeShortAnswer,
		Subject:       "history",
		ClassLevel:    "10",
		Difficulty:    model.DifficultyEasy,
		CorrectAnswer: "a",
		Points:        1,
	}
	if err := store.Questions().Create(context.Background(), other); err != nil {
		t.Fatalf("seed question: %v", err)
	}

	n := 4
	exam := &model.Exam{
		Subject:                    "math",
		ClassLevel:                 "10",
		NumberOfQuestionsToDisplay: &n,
	}
	resolved, err := svc.ResolveQuestionSet(context.Background(), exam)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolved) != n {
		t.Fatalf("resolved %d ids, want %d", len(resolved), n)
	}
	pool := map[uuid.UUID]bool{}
	for _, id := range ids {
		pool[id] = true
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range resolved {
		if !pool[id] {
			t.Errorf("id %s not in the math bank", id)
		}
		if seen[id] {
			t.Errorf("id %s drawn twice", id)
		}
		seen[id] = true
	}
}

func TestCreateExamWithoutQuestionsNeedsDisplayCount(t *testing.T) {
	_, svc := newExamFixture(t)

	_, err := svc.Create(context.Background(), &model.CreateExamRequest{
		Title:      "Empty",
		Subject:    "math",
		ClassLevel: "10",
		Duration:   60,
	})
	if err == nil {
		t.Fatal("expected error for exam with no questions and no display count")
	}

	n := 3
	exam, err := svc.Create(context.Background(), &model.CreateExamRequest{
		Title:                      "Bank mode",
		Subject:                    "math",
		ClassLevel:                 "10",
		Duration:                   60,
		NumberOfQuestionsToDisplay: &n,
	})
	if err != nil {
		t.Fatalf("create bank-mode exam: %v", err)
	}
	if exam.TotalPoints != 0 {
		t.Errorf("TotalPoints = %d, want 0 with no authored list", exam.TotalPoints)
	}
}

func TestUpdateExamRecomputesTotalPoints(t *testing.T) {
	store, svc := newExamFixture(t)
	ids := seedBank(t, store, 2, 3, 5)

	exam, err := svc.Create(context.Background(), &model.CreateExamRequest{
		Title:       "Algebra",
		Subject:     "math",
		ClassLevel:  "10",
		Duration:    60,
		QuestionIDs: idStrings(ids),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(context.Background(), exam.ID, &model.UpdateExamRequest{
		QuestionIDs: idStrings(ids[:2]),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TotalPoints != 5 {
		t.Errorf("TotalPoints = %d, want 5 after shrinking the bank", updated.TotalPoints)
	}
}

func TestGetPaperStripsAnswerKeys(t *testing.T) {
	store, svc := newExamFixture(t)
	ids := seedBank(t, store, 1, 1)

	exam, err := svc.Create(context.Background(), &model.CreateExamRequest{
		Title:       "Paper",
		Subject:     "math",
		ClassLevel:  "10",
		Duration:    45,
		QuestionIDs: idStrings(ids),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	paper, err := svc.GetPaper(context.Background(), exam.ID)
	if err != nil {
		t.Fatalf("get paper: %v", err)
	}
	if paper.Duration != 45 || len(paper.Questions) != 2 {
		t.Fatalf("paper = %+v, want 2 questions and duration 45", paper)
	}
	for i, q := range paper.Questions {
		if q.ID != ids[i] {
			t.Errorf("question %d out of order", i)
		}
	}
}

func TestListActiveFiltersInactive(t *testing.T) {
	store, svc := newExamFixture(t)
	ids := seedBank(t, store, 1)

	exam, err := svc.Create(context.Background(), &model.CreateExamRequest{
		Title:       "Visible",
		Subject:     "math",
		ClassLevel:  "10",
		Duration:    30,
		QuestionIDs: idStrings(ids),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	off := false
	if _, err := svc.Update(context.Background(), exam.ID, &model.UpdateExamRequest{IsActive: &off}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active exams = %d, want 0", len(active))
	}
}

// Package memstore is an in-memory implementation of the service store
// interfaces, used by unit tests in place of Postgres.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/examhall/cbt-backend/internal/model"
	"github.com/examhall/cbt-backend/internal/repository"
	"github.com/google/uuid"
)

// Store holds all tables behind one lock. Sub-store accessors return views
// that satisfy the individual service interfaces.
type Store struct {
	mu        sync.RWMutex
	questions map[uuid.UUID]model.Question
	exams     map[uuid.UUID]model.Exam
	sessions  map[uuid.UUID]model.ExamSession
	results   map[uuid.UUID]model.Result
	students  map[uuid.UUID]model.Student
	admins    map[string]model.Admin

	nextAdminID int
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		questions: map[uuid.UUID]model.Question{},
		exams:     map[uuid.UUID]model.Exam{},
		sessions:  map[uuid.UUID]model.ExamSession{},
		results:   map[uuid.UUID]model.Result{},
		students:  map[uuid.UUID]model.Student{},
		admins:    map[string]model.Admin{},
	}
}

func (s *Store) Questions() *Questions { return &Questions{s} }
func (s *Store) Exams() *Exams         { return &Exams{s} }
func (s *Store) Sessions() *Sessions   { return &Sessions{s} }
func (s *Store) Results() *Results     { return &Results{s} }
func (s *Store) Students() *Students   { return &Students{s} }
func (s *Store) Admins() *Admins       { return &Admins{s} }

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyBoolMap(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copySession(s model.ExamSession) model.ExamSession {
	s.Answers = copyStringMap(s.Answers)
	s.SessionQuestionIDs = append([]uuid.UUID(nil), s.SessionQuestionIDs...)
	return s
}

func copyResult(r model.Result) model.Result {
	r.Answers = copyStringMap(r.Answers)
	r.CorrectAnswers = copyBoolMap(r.CorrectAnswers)
	return r
}

// Questions implements service.QuestionStore.
type Questions struct{ s *Store }

func (q *Questions) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	record, ok := q.s.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &record, nil
}

func (q *Questions) GetByIDs(_ context.Context, ids []uuid.UUID) ([]model.Question, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	out := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		if record, ok := q.s.questions[id]; ok {
			out = append(out, record)
		}
	}
	return out, nil
}

func (q *Questions) List(_ context.Context) ([]model.Question, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	out := make([]model.Question, 0, len(q.s.questions))
	for _, record := range q.s.questions {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (q *Questions) ListBySubjectClass(_ context.Context, subject, classLevel string) ([]model.Question, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	var out []model.Question
	for _, record := range q.s.questions {
		if record.Subject == subject && record.ClassLevel == classLevel {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (q *Questions) Create(_ context.Context, record *model.Question) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	q.s.questions[record.ID] = *record
	return nil
}

func (q *Questions) Delete(_ context.Context, id uuid.UUID) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if _, ok := q.s.questions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(q.s.questions, id)
	return nil
}

// Exams implements service.ExamStore.
type Exams struct{ s *Store }

func (e *Exams) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()
	record, ok := e.s.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	record.QuestionIDs = append([]uuid.UUID(nil), record.QuestionIDs...)
	return &record, nil
}

func (e *Exams) List(_ context.Context) ([]model.Exam, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()
	out := make([]model.Exam, 0, len(e.s.exams))
	for _, record := range e.s.exams {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (e *Exams) Create(_ context.Context, record *model.Exam) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	e.s.exams[record.ID] = *record
	return nil
}

func (e *Exams) Update(_ context.Context, record *model.Exam) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if _, ok := e.s.exams[record.ID]; !ok {
		return repository.ErrNotFound
	}
	e.s.exams[record.ID] = *record
	return nil
}

func (e *Exams) Delete(_ context.Context, id uuid.UUID) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if _, ok := e.s.exams[id]; !ok {
		return repository.ErrNotFound
	}
	delete(e.s.exams, id)
	return nil
}

// Sessions implements service.SessionStore.
type Sessions struct{ s *Store }

func (m *Sessions) GetByID(_ context.Context, id uuid.UUID) (*model.ExamSession, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	record, ok := m.s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	record = copySession(record)
	return &record, nil
}

func (m *Sessions) GetActiveByExamAndStudent(_ context.Context, examID uuid.UUID, studentID string) (*model.ExamSession, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var found *model.ExamSession
	for _, record := range m.s.sessions {
		if record.ExamID != examID || record.StudentID != studentID || record.IsCompleted {
			continue
		}
		if found == nil || record.StartedAt.After(found.StartedAt) {
			copied := copySession(record)
			found = &copied
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (m *Sessions) Create(_ context.Context, record *model.ExamSession) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.StartedAt.IsZero() {
		record.StartedAt = time.Now()
	}
	if record.Answers == nil {
		record.Answers = map[string]string{}
	}
	m.s.sessions[record.ID] = copySession(*record)
	return nil
}

func (m *Sessions) UpdateProgress(_ context.Context, id uuid.UUID, answers map[string]string, currentQuestionIndex int) (*model.ExamSession, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	record, ok := m.s.sessions[id]
	if !ok || record.IsCompleted {
		return nil, repository.ErrNotFound
	}
	record.Answers = copyStringMap(answers)
	record.CurrentQuestionIndex = currentQuestionIndex
	m.s.sessions[id] = record
	updated := copySession(record)
	return &updated, nil
}

func (m *Sessions) MarkCompleted(_ context.Context, id uuid.UUID, answers map[string]string, endedAt time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	record, ok := m.s.sessions[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if record.IsCompleted {
		return false, nil
	}
	record.IsCompleted = true
	record.Answers = copyStringMap(answers)
	ended := endedAt
	record.EndedAt = &ended
	m.s.sessions[id] = record
	return true, nil
}

func (m *Sessions) ListExpired(_ context.Context, now time.Time, graceSeconds int) ([]model.ExamSession, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []model.ExamSession
	for _, record := range m.s.sessions {
		if record.IsCompleted {
			continue
		}
		exam, ok := m.s.exams[record.ExamID]
		if !ok {
			continue
		}
		deadline := record.StartedAt.
			Add(time.Duration(exam.Duration) * time.Minute).
			Add(time.Duration(graceSeconds) * time.Second)
		if deadline.Before(now) {
			out = append(out, copySession(record))
		}
	}
	return out, nil
}

// Results implements service.ResultStore.
type Results struct{ s *Store }

func (m *Results) GetByID(_ context.Context, id uuid.UUID) (*model.Result, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	record, ok := m.s.results[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	record = copyResult(record)
	return &record, nil
}

func (m *Results) GetBySessionID(_ context.Context, sessionID uuid.UUID) (*model.Result, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, record := range m.s.results {
		if record.SessionID == sessionID {
			record = copyResult(record)
			return &record, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *Results) List(_ context.Context) ([]model.Result, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := make([]model.Result, 0, len(m.s.results))
	for _, record := range m.s.results {
		out = append(out, copyResult(record))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

func (m *Results) Create(_ context.Context, record *model.Result) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.results {
		if existing.SessionID == record.SessionID {
			return nil
		}
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	m.s.results[record.ID] = copyResult(*record)
	return nil
}

// Students implements service.StudentStore.
type Students struct{ s *Store }

func (m *Students) GetByID(_ context.Context, id uuid.UUID) (*model.Student, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	record, ok := m.s.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &record, nil
}

func (m *Students) List(_ context.Context) ([]model.Student, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := make([]model.Student, 0, len(m.s.students))
	for _, record := range m.s.students {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Students) Create(_ context.Context, record *model.Student) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	m.s.students[record.ID] = *record
	return nil
}

func (m *Students) Update(_ context.Context, record *model.Student) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.students[record.ID]; !ok {
		return repository.ErrNotFound
	}
	m.s.students[record.ID] = *record
	return nil
}

func (m *Students) Delete(_ context.Context, id uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.students[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.students, id)
	return nil
}

// Admins implements service.AdminStore.
type Admins struct{ s *Store }

func (m *Admins) GetByUsername(_ context.Context, username string) (*model.Admin, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	record, ok := m.s.admins[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &record, nil
}

func (m *Admins) Create(_ context.Context, record *model.Admin) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.nextAdminID++
	record.ID = m.s.nextAdminID
	m.s.admins[record.Username] = *record
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamSession represents one student attempt at an exam. The session is
// mutable (answers, navigation position) until IsCompleted becomes true,
// after which it is frozen and the Result owns the canonical record.
type ExamSession struct {
	ID          uuid.UUID  `json:"id"`
	ExamID      uuid.UUID  `json:"examId"`
	StudentName string     `json:"studentName"`
	StudentID   string     `json:"studentId"`
	StartedAt   time.Time  `json:"startedAt"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
	// Answers maps question id to the student's answer string.
	Answers              map[string]string `json:"answers"`
	CurrentQuestionIndex int               `json:"currentQuestionIndex"`
	IsCompleted          bool              `json:"isCompleted"`
	// SessionQuestionIDs is the resolved, possibly randomized question set
	// presented to this student. When set it overrides the exam's authored
	// list for question fetch and grading.
	SessionQuestionIDs []uuid.UUID `json:"sessionQuestionIds,omitempty"`
}

// CreateSessionRequest is the payload for starting an exam attempt.
type CreateSessionRequest struct {
	ExamID      string `json:"examId" binding:"required,uuid"`
	StudentName string `json:"studentName" binding:"required,min=1,max=255"`
	StudentID   string `json:"studentId" binding:"required,min=1,max=100"`
}

// ProgressRequest is the payload for saving session progress. Answers and
// the navigation index replace the stored state wholesale (last write wins).
type ProgressRequest struct {
	Answers              map[string]string `json:"answers"`
	CurrentQuestionIndex int               `json:"currentQuestionIndex" binding:"min=0"`
}

// SubmitRequest is the payload for finalizing a session. Answers is
// optional; absent, the session's stored answers are graded.
type SubmitRequest struct {
	Answers map[string]string `json:"answers"`
}

// SessionState is returned alongside a session for clients recovering from
// a reload: the remaining time budget in whole seconds, floored at zero.
type SessionState struct {
	Session          *ExamSession `json:"session"`
	RemainingSeconds int64        `json:"remainingSeconds"`
}

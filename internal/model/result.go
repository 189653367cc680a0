package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is the immutable graded outcome of a session. At most one Result
// may ever exist per session id, no matter how many times submission is
// attempted.
type Result struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"sessionId"`
	ExamID      uuid.UUID `json:"examId"`
	StudentName string    `json:"studentName"`
	StudentID   string    `json:"studentId"`
	Score       int       `json:"score"`
	// TotalPoints is the point sum of the graded question set (the session's
	// resolved set, not the exam-level display figure).
	TotalPoints int  `json:"totalPoints"`
	Percentage  int  `json:"percentage"`
	Passed      bool `json:"passed"`
	// Answers is the final submitted answer map.
	Answers map[string]string `json:"answers"`
	// CorrectAnswers marks every graded question correct or not, answered
	// or otherwise, for review screens.
	CorrectAnswers map[string]bool `json:"correctAnswers"`
	CompletedAt    time.Time       `json:"completedAt"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam represents an exam definition. QuestionIDs is the authored bank for
// this exam; the set actually shown to a student is resolved per session.
type Exam struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Subject     string    `json:"subject"`
	ClassLevel  string    `json:"classLevel"`
	// Duration is the time budget in minutes.
	Duration     int         `json:"duration"`
	PassingScore int         `json:"passingScore"`
	QuestionIDs  []uuid.UUID `json:"questionIds"`
	// NumberOfQuestionsToDisplay, when set and > 0, selects a random subset
	// of that size from the bank for each session.
	NumberOfQuestionsToDisplay *int `json:"numberOfQuestionsToDisplay,omitempty"`
	// RandomizeQuestions shuffles the presented order per session.
	RandomizeQuestions bool `json:"randomizeQuestions"`
	// TotalPoints is derived once at creation from the authored bank. Grading
	// recomputes totals from the session's resolved set; this figure is for
	// display only.
	TotalPoints int       `json:"totalPoints"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ExamPaper is the student-facing exam payload, cached in Redis. It never
// carries answer keys.
type ExamPaper struct {
	ExamID    uuid.UUID            `json:"examId"`
	Title     string               `json:"title"`
	Duration  int                  `json:"duration"`
	Questions []QuestionForStudent `json:"questions"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title                      string   `json:"title" binding:"required,min=1,max=255"`
	Description                *string  `json:"description" binding:"omitempty,max=2000"`
	Subject                    string   `json:"subject" binding:"required,min=1,max=100"`
	ClassLevel                 string   `json:"classLevel" binding:"required,min=1,max=50"`
	Duration                   int      `json:"duration" binding:"required,min=1,max=480"`
	PassingScore               int      `json:"passingScore" binding:"min=0,max=100"`
	// QuestionIDs may be empty when NumberOfQuestionsToDisplay is set; the
	// session then draws from the whole bank for the subject and class level.
	QuestionIDs                []string `json:"questionIds" binding:"omitempty,dive,uuid"`
	NumberOfQuestionsToDisplay *int     `json:"numberOfQuestionsToDisplay" binding:"omitempty,min=1"`
	RandomizeQuestions         bool     `json:"randomizeQuestions"`
}

// UpdateExamRequest is the payload for partially updating an exam.
type UpdateExamRequest struct {
	Title                      *string  `json:"title" binding:"omitempty,min=1,max=255"`
	Description                *string  `json:"description" binding:"omitempty,max=2000"`
	Subject                    *string  `json:"subject" binding:"omitempty,min=1,max=100"`
	ClassLevel                 *string  `json:"classLevel" binding:"omitempty,min=1,max=50"`
	Duration                   *int     `json:"duration" binding:"omitempty,min=1,max=480"`
	PassingScore               *int     `json:"passingScore" binding:"omitempty,min=0,max=100"`
	QuestionIDs                []string `json:"questionIds" binding:"omitempty,min=1,dive,uuid"`
	NumberOfQuestionsToDisplay *int     `json:"numberOfQuestionsToDisplay" binding:"omitempty,min=0"`
	RandomizeQuestions         *bool    `json:"randomizeQuestions"`
	IsActive                   *bool    `json:"isActive"`
}

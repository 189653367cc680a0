package model

import (
	"github.com/google/uuid"
)

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple-choice"
	QuestionTypeTrueFalse      QuestionType = "true-false"
	QuestionTypeShortAnswer    QuestionType = "short-answer"
)

// Difficulty enumerates question difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question represents a single bank question. The answer key lives on the
// record; student-facing payloads use QuestionForStudent instead.
type Question struct {
	ID            uuid.UUID    `json:"id"`
	QuestionText  string       `json:"questionText"`
	QuestionType  QuestionType `json:"questionType"`
	Subject       string       `json:"subject"`
	ClassLevel    string       `json:"classLevel"`
	Difficulty    Difficulty   `json:"difficulty"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer"`
	Points        int          `json:"points"`
}

// QuestionForStudent is a question stripped of its answer key.
type QuestionForStudent struct {
	ID           uuid.UUID    `json:"id"`
	QuestionText string       `json:"questionText"`
	QuestionType QuestionType `json:"questionType"`
	Options      []string     `json:"options,omitempty"`
	Points       int          `json:"points"`
}

// ForStudent strips the answer key from a question.
func (q *Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		QuestionType: q.QuestionType,
		Options:      q.Options,
		Points:       q.Points,
	}
}

// CreateQuestionRequest is the payload for creating a question.
type CreateQuestionRequest struct {
	QuestionText  string   `json:"questionText" binding:"required,min=1,max=2000"`
	QuestionType  string   `json:"questionType" binding:"required,oneof=multiple-choice true-false short-answer"`
	Subject       string   `json:"subject" binding:"required,min=1,max=100"`
	ClassLevel    string   `json:"classLevel" binding:"required,min=1,max=50"`
	Difficulty    string   `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Options       []string `json:"options" binding:"omitempty,dive,max=500"`
	CorrectAnswer string   `json:"correctAnswer" binding:"required,max=500"`
	Points        int      `json:"points" binding:"required,min=1"`
}

// ToQuestion converts a validated request into a Question entity.
func (r *CreateQuestionRequest) ToQuestion() *Question {
	return &Question{
		QuestionText:  r.QuestionText,
		QuestionType:  QuestionType(r.QuestionType),
		Subject:       r.Subject,
		ClassLevel:    r.ClassLevel,
		Difficulty:    Difficulty(r.Difficulty),
		Options:       r.Options,
		CorrectAnswer: r.CorrectAnswer,
		Points:        r.Points,
	}
}

// Package grading scores a submitted answer set against a question set.
// It is pure: no I/O, no clock, fully determined by its inputs.
package grading

import (
	"math"
	"strings"
)

// GradedQuestion is the minimal view of a question the grader needs.
type GradedQuestion struct {
	ID            string
	CorrectAnswer string
	Points        int
}

// Summary is the outcome of grading one answer set.
type Summary struct {
	Score int
	// TotalPoints is the point sum of the graded question set, which may
	// differ from the exam-level display total when subsets vary.
	TotalPoints int
	Percentage  int
	Passed      bool
	// CorrectAnswers holds an entry for every graded question, answered
	// or not.
	CorrectAnswers map[string]bool
}

// Grade scores answers against questions. A question is correct iff an
// answer exists for its id and, after trimming surrounding whitespace and
// case-folding, it equals the question's correct answer. A missing answer
// is simply incorrect, never an error.
//
// Percentage is round-half-away-from-zero of 100*score/totalPoints, fixed
// at 0 when the question set carries no points.
func Grade(questions []GradedQuestion, answers map[string]string, passingScore int) Summary {
	s := Summary{
		CorrectAnswers: make(map[string]bool, len(questions)),
	}

	for _, q := range questions {
		s.TotalPoints += q.Points

		answer, ok := answers[q.ID]
		correct := ok && equalFold(answer, q.CorrectAnswer)
		s.CorrectAnswers[q.ID] = correct
		if correct {
			s.Score += q.Points
		}
	}

	if s.TotalPoints > 0 {
		s.Percentage = int(math.Round(100 * float64(s.Score) / float64(s.TotalPoints)))
	}
	s.Passed = s.Percentage >= passingScore

	return s
}

// equalFold compares two answers ignoring surrounding whitespace and case.
func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

package grading

import "testing"

func threeQuestions() []GradedQuestion {
	return []GradedQuestion{
		{ID: "q1", CorrectAnswer: "A", Points: 1},
		{ID: "q2", CorrectAnswer: "True", Points: 2},
		{ID: "q3", CorrectAnswer: "42", Points: 3},
	}
}

func TestGradeAllCorrect(t *testing.T) {
	s := Grade(threeQuestions(), map[string]string{
		"q1": "A",
		"q2": "True",
		"q3": "42",
	}, 100)

	if s.Score != 6 {
		t.Errorf("Score = %d, want 6", s.Score)
	}
	if s.TotalPoints != 6 {
		t.Errorf("TotalPoints = %d, want 6", s.TotalPoints)
	}
	if s.Percentage != 100 {
		t.Errorf("Percentage = %d, want 100", s.Percentage)
	}
	if !s.Passed {
		t.Error("Passed = false, want true")
	}
}

func TestGradeCaseAndWhitespaceFolding(t *testing.T) {
	s := Grade(threeQuestions(), map[string]string{
		"q1": "a",
		"q2": " TRUE ",
		"q3": "43",
	}, 50)

	if s.Score != 3 {
		t.Errorf("Score = %d, want 3", s.Score)
	}
	if s.Percentage != 50 {
		t.Errorf("Percentage = %d, want 50", s.Percentage)
	}
	if !s.CorrectAnswers["q1"] || !s.CorrectAnswers["q2"] {
		t.Error("q1 and q2 should match case/whitespace-insensitively")
	}
	if s.CorrectAnswers["q3"] {
		t.Error("q3 should be incorrect")
	}
}

func TestGradeUnansweredIsIncorrect(t *testing.T) {
	s := Grade(threeQuestions(), map[string]string{"q1": "A"}, 50)

	if s.Score != 1 {
		t.Errorf("Score = %d, want 1", s.Score)
	}
	if len(s.CorrectAnswers) != 3 {
		t.Fatalf("CorrectAnswers has %d entries, want 3 (every question graded)", len(s.CorrectAnswers))
	}
	for _, id := range []string{"q2", "q3"} {
		if s.CorrectAnswers[id] {
			t.Errorf("unanswered %s marked correct", id)
		}
	}
}

func TestGradeRoundingBoundaries(t *testing.T) {
	questions := []GradedQuestion{
		{ID: "q1", CorrectAnswer: "x", Points: 1},
		{ID: "q2", CorrectAnswer: "y", Points: 1},
		{ID: "q3", CorrectAnswer: "z", Points: 1},
	}

	tests := []struct {
		name           string
		answers        map[string]string
		wantPercentage int
		wantPassed     bool
	}{
		{
			name:           "one of three rounds to 33 and fails at 50",
			answers:        map[string]string{"q1": "x"},
			wantPercentage: 33,
			wantPassed:     false,
		},
		{
			name:           "two of three rounds to 67 and passes at 50",
			answers:        map[string]string{"q1": "x", "q2": "y"},
			wantPercentage: 67,
			wantPassed:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Grade(questions, tt.answers, 50)
			if s.Percentage != tt.wantPercentage {
				t.Errorf("Percentage = %d, want %d", s.Percentage, tt.wantPercentage)
			}
			if s.Passed != tt.wantPassed {
				t.Errorf("Passed = %v, want %v", s.Passed, tt.wantPassed)
			}
		})
	}
}

func TestGradeZeroTotalPoints(t *testing.T) {
	s := Grade(nil, map[string]string{"q1": "A"}, 50)

	if s.Percentage != 0 {
		t.Errorf("Percentage = %d, want 0 for empty question set", s.Percentage)
	}
	if s.Passed {
		t.Error("Passed = true, want false with passingScore 50")
	}
}

func TestGradeZeroPassingScoreAlwaysPasses(t *testing.T) {
	s := Grade(threeQuestions(), nil, 0)

	if s.Score != 0 {
		t.Errorf("Score = %d, want 0", s.Score)
	}
	if !s.Passed {
		t.Error("Passed = false, want true when passingScore is 0")
	}
}

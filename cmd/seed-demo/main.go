package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/examhall/cbt-backend/internal/config"
	"github.com/examhall/cbt-backend/internal/database"
	"github.com/examhall/cbt-backend/internal/logger"
	"github.com/examhall/cbt-backend/internal/model"
	"github.com/examhall/cbt-backend/internal/repository"
	"github.com/examhall/cbt-backend/internal/service"
)

// Seeds a demo question bank, one exam over it, and a small roster.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionRepo := repository.NewQuestionRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)

	questionService := service.NewQuestionService(questionRepo)
	examService := service.NewExamService(examRepo, questionRepo, nil, rand.New(rand.NewSource(time.Now().UnixNano())))
	studentService := service.NewStudentService(studentRepo)

	fmt.Println("=== Seeding Demo Data ===")

	questionReqs := []model.CreateQuestionRequest{
		{
			QuestionText:  "What is the capital of France?",
			QuestionType:  string(model.QuestionTypeMultipleChoice),
			Subject:       "Geography",
			ClassLevel:    "10",
			Difficulty:    string(model.DifficultyEasy),
			Options:       []string{"Paris", "Lyon", "Marseille", "Nice"},
			CorrectAnswer: "Paris",
			Points:        2,
		},
		{
			QuestionText:  "The Earth orbits the Sun.",
			QuestionType:  string(model.QuestionTypeTrueFalse),
			Subject:       "Science",
			ClassLevel:    "10",
			Difficulty:    string(model.DifficultyEasy),
			CorrectAnswer: "true",
			Points:        1,
		},
		{
			QuestionText:  "What is 7 * 6?",
			QuestionType:  string(model.QuestionTypeShortAnswer),
			Subject:       "Math",
			ClassLevel:    "10",
			Difficulty:    string(model.DifficultyEasy),
			CorrectAnswer: "42",
			Points:        2,
		},
		{
			QuestionText:  "Which planet is known as the Red Planet?",
			QuestionType:  string(model.QuestionTypeMultipleChoice),
			Subject:       "Science",
			ClassLevel:    "10",
			Difficulty:    string(model.DifficultyMedium),
			Options:       []string{"Venus", "Mars", "Jupiter", "Saturn"},
			CorrectAnswer: "Mars",
			Points:        2,
		},
		{
			QuestionText:  "Water boils at 90 degrees Celsius at sea level.",
			QuestionType:  string(model.QuestionTypeTrueFalse),
			Subject:       "Science",
			ClassLevel:    "10",
			Difficulty:    string(model.DifficultyMedium),
			CorrectAnswer: "false",
			Points:        1,
		},
		{
			QuestionText:  "Name the largest ocean on Earth.",
			QuestionType:  string(model.QuestionTypeShortAnswer),
			Subject:       "Geography",
			ClassLevel:    "10",
			Difficulty:    string(model.DifficultyHard),
			CorrectAnswer: "Pacific",
			Points:        3,
		},
	}

	questions, err := questionService.CreateBulk(ctx, questionReqs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed questions")
	}
	fmt.Printf("Created %d questions\n", len(questions))

	questionIDs := make([]string, 0, len(questions))
	for _, q := range questions {
		questionIDs = append(questionIDs, q.ID.String())
	}

	display := 4
	exam, err := examService.Create(ctx, &model.CreateExamRequest{
		Title:                      "General Knowledge Demo",
		Subject:                    "General",
		ClassLevel:                 "10",
		Duration:                   30,
		PassingScore:               60,
		QuestionIDs:                questionIDs,
		NumberOfQuestionsToDisplay: &display,
		RandomizeQuestions:         true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed exam")
	}
	fmt.Printf("Created exam %s (%s)\n", exam.Title, exam.ID)

	roster := []model.CreateStudentRequest{
		{Name: "Budi Santoso", StudentID: "S-0001"},
		{Name: "Siti Aminah", StudentID: "S-0002"},
		{Name: "Andi Pratama", StudentID: "S-0003"},
		{Name: "Rina Wati", StudentID: "S-0004"},
		{Name: "Joko Susilo", StudentID: "S-0005"},
	}
	for i := range roster {
		if _, err := studentService.Create(ctx, &roster[i]); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed student")
		}
	}
	fmt.Printf("Created %d students\n", len(roster))

	fmt.Println("Done")
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/evalia-labs/paperdesk-backend/internal/config"
	"github.com/evalia-labs/paperdesk-backend/internal/database"
	"github.com/evalia-labs/paperdesk-backend/internal/logger"
	"github.com/evalia-labs/paperdesk-backend/internal/model"
	"github.com/evalia-labs/paperdesk-backend/internal/repository"
	"github.com/evalia-labs/paperdesk-backend/internal/repository/mongostore"
	"github.com/evalia-labs/paperdesk-backend/internal/repository/postgres"
)

// Seeds a demo question bank covering every supported question type, one
// per type, under the "demo" tenant.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var store repository.QuestionStore

	switch cfg.StoreDriver {
	case "postgres":
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		store = postgres.NewQuestionStore(pool)

	case "mongo":
		client, err := database.NewMongoClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		store = mongostore.NewQuestionStore(client.Database(cfg.MongoDatabase))

	case "memory":
		log.Fatal().Msg("Seeding the memory store is pointless, pick postgres or mongo")

	default:
		log.Fatal().Str("driver", cfg.StoreDriver).Msg("Unknown STORE_DRIVER")
	}

	fmt.Println("=== Seeding Demo Question Bank ===")

	for _, q := range demoQuestions() {
		q := q
		if err := store.Create(ctx, &q); err != nil {
			log.Fatal().Err(err).Str("type", string(q.Type)).Msg("Seed failed")
		}
		fmt.Printf("seeded %-18s %s\n", q.Type, q.ID)
	}

	fmt.Println("Done.")
}

func demoQuestions() []model.Question {
	intPtr := func(n int) *int { return &n }
	boolPtr := func(b bool) *bool { return &b }
	floatPtr := func(f float64) *float64 { return &f }

	return []model.Question{
		{
			TenantID: "demo",
			Type:     model.QuestionTypeMCQSingle,
			Text:     "Which planet is closest to the Sun?",
			Options:  []string{"Venus", "Mercury", "Mars", "Earth"},
			AnswerKey: model.AnswerKey{
				CorrectOptionIndex: intPtr(1),
			},
			Solution: "Mercury orbits at roughly 58 million km.",
			Metadata: model.QuestionMetadata{Marks: 1},
		},
		{
			TenantID: "demo",
			Type:     model.QuestionTypeMCQMultiple,
			Text:     "Which of these are prime numbers?",
			Options:  []string{"2", "4", "7", "9"},
			AnswerKey: model.AnswerKey{
				CorrectOptionIndices: []int{0, 2},
			},
			Metadata: model.QuestionMetadata{Marks: 2},
		},
		{
			TenantID: "demo",
			Type:     model.QuestionTypeTrueFalse,
			Text:     "Sound travels faster in water than in air.",
			AnswerKey: model.AnswerKey{
				CorrectBool: boolPtr(true),
			},
			Metadata: model.QuestionMetadata{Marks: 1},
		},
		{
			TenantID: "demo",
			Type:     model.QuestionTypeFillInBlank,
			Text:     "The force that pulls objects toward Earth is called ____.",
			AnswerKey: model.AnswerKey{
				CorrectText:     "gravity",
				AcceptedAnswers: []string{"gravitation", "gravitational force"},
			},
			Metadata: model.QuestionMetadata{Marks: 1},
		},
		{
			TenantID: "demo",
			Type:     model.QuestionTypeNumerical,
			Text:     "What is the approximate value of pi to two decimals?",
			AnswerKey: model.AnswerKey{
				CorrectValue: floatPtr(3.14),
				Tolerance:    0.01,
			},
			Metadata: model.QuestionMetadata{Marks: 2},
		},
		{
			TenantID: "demo",
			Type:     model.QuestionTypeMatchTheColumn,
			Text:     "Match each country with its capital.",
			AnswerKey: model.AnswerKey{
				CorrectPairs: map[string]string{
					"France": "Paris",
					"Japan":  "Tokyo",
					"Kenya":  "Nairobi",
				},
			},
			Metadata: model.QuestionMetadata{Marks: 6},
		},
		{
			TenantID: "demo",
			Type:     model.QuestionTypeShortAnswer,
			Text:     "Define photosynthesis in one sentence.",
			Metadata: model.QuestionMetadata{Marks: 2},
		},
		{
			TenantID: "demo",
			Type:     model.QuestionTypeLongAnswer,
			Text:     "Explain the water cycle with a diagram.",
			Metadata: model.QuestionMetadata{Marks: 5},
		},
		{
			TenantID: "demo",
			Type:     model.QuestionTypeEssay,
			Text:     "Discuss the impact of the printing press on European society.",
			Metadata: model.QuestionMetadata{Marks: 10},
		},
		{
			TenantID: "demo",
			Type:     model.QuestionTypeCreativeWriting,
			Text:     "Write a short story beginning with: 'The last train had already left.'",
			Metadata: model.QuestionMetadata{Marks: 10},
		},
	}
}

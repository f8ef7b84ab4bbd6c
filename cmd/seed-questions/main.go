package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/thoughtcode/tca-backend/internal/config"
	"github.com/thoughtcode/tca-backend/internal/database"
	"github.com/thoughtcode/tca-backend/internal/logger"
	"github.com/thoughtcode/tca-backend/internal/model"
	"github.com/thoughtcode/tca-backend/internal/repository"
	"github.com/thoughtcode/tca-backend/internal/service"
)

// defaultSeed is used when no -file is given.
const defaultSeed = `[
  {"title": "Two Sum", "descriptionUrl": "https://leetcode.com/problems/two-sum/", "codingRound": true, "whereAsked": "Phone screen"},
  {"title": "LRU Cache", "descriptionUrl": "https://leetcode.com/problems/lru-cache/", "codingRound": true, "whereAsked": "Onsite"},
  {"title": "Design a URL shortener", "description": "System design discussion", "codingRound": false, "whereAsked": "Onsite"},
  {"title": "Merge Intervals", "descriptionUrl": "https://leetcode.com/problems/merge-intervals/", "codingRound": true, "whereAsked": "Take-home"}
]`

func main() {
	var file string
	flag.StringVar(&file, "file", "", "JSON array of questions to insert (defaults to a built-in sample set)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	raw := []byte(defaultSeed)
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("Failed to read seed file")
		}
		raw = b
	}

	var reqs []model.CreateQuestionRequest
	if err := json.Unmarshal(raw, &reqs); err != nil {
		log.Fatal().Err(err).Msg("Seed data is not a JSON array of questions")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionService := service.NewQuestionService(repository.NewQuestionRepository(pool), nil, 0, log)

	fmt.Printf("=== Seeding %d questions ===\n", len(reqs))

	successCount := 0
	for i, req := range reqs {
		q := req.ToQuestion()
		if err := questionService.Create(ctx, q); err != nil {
			fmt.Printf("Error creating question #%d: %v\n", i+1, err)
			continue
		}
		successCount++
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d questions.\n", successCount, len(reqs))
}

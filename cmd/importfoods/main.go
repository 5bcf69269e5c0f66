// cmd/importfoods/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"diet-planner/config"
	"diet-planner/internal/db"
	"diet-planner/pkg/logger"
)

func main() {
	file := flag.String("file", "healthy_foods_500.csv", "CSV file with catalog rows")
	batchSize := flag.Int("batch", 50, "rows per insert batch")
	countOnly := flag.Bool("count", false, "print the number of catalog rows and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.New().Fatal("Failed to load config", "error", err)
	}
	l := logger.ForMode(cfg.Log.Mode)
	defer l.Sync()

	database, err := db.NewPostgresDB(cfg.DB)
	if err != nil {
		l.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *countOnly {
		n, err := database.CountFoods(ctx)
		if err != nil {
			l.Fatal("Failed to count foods", "error", err)
		}
		fmt.Println(n)
		return
	}

	if err := database.EnsureSchema(ctx); err != nil {
		l.Fatal("Failed to prepare database schema", "error", err)
	}

	f, err := os.Open(*file)
	if err != nil {
		l.Fatal("Failed to open CSV file", "file", *file, "error", err)
	}
	defer f.Close()

	foods, err := parseFoods(f)
	if err != nil {
		l.Fatal("Failed to parse CSV file", "file", *file, "error", err)
	}
	l.Info("Read foods from CSV", "count", len(foods))

	inserted := 0
	results := database.InsertFoods(ctx, foods, *batchSize)
	for _, r := range results {
		if r.Err != nil {
			l.Error("Batch failed", "batch", r.Batch, "of", len(results), "error", r.Err)
			continue
		}
		l.Info("Batch inserted", "batch", r.Batch, "of", len(results), "rows", r.Inserted)
		inserted += r.Inserted
	}

	l.Info("Import finished", "inserted", inserted, "total", len(foods))
}

// Seeds the precedent store with a starter corpus of reviewed contract
// clauses and runs a sample query to verify retrieval.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"strconv"

	"clauseguard-backend/config"
	"clauseguard-backend/llm"
	"clauseguard-backend/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	dataPath := flag.String("data", "data/precedents.json", "path to a JSON array of clause texts")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			logrus.Warn("No .env file found, using environment variables")
		}
	}

	cfg := config.Load()
	ctx := context.Background()

	raw, err := os.ReadFile(*dataPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to read precedent data")
	}
	var clauses []string
	if err := json.Unmarshal(raw, &clauses); err != nil {
		logrus.WithError(err).Fatal("Failed to parse precedent data")
	}
	logrus.WithField("count", len(clauses)).Info("Loaded precedent clauses")

	embedder, err := llm.NewGeminiEmbedder(cfg.GeminiAPIKey)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize embedder")
	}

	var db *pgxpool.Pool
	if cfg.PrecedentBackend == string(repository.PrecedentBackendPostgres) {
		db, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect to Postgres")
		}
		defer db.Close()
	}

	store, err := repository.NewPrecedentStoreFromEnv(db, embedder)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize precedent store")
	}

	if pg, ok := store.(*repository.PostgresPrecedentStore); ok {
		if err := pg.EnsureSchema(ctx); err != nil {
			logrus.WithError(err).Fatal("Failed to create precedent schema")
		}
	}

	for i, text := range clauses {
		id := strconv.Itoa(i)
		if err := store.Upsert(ctx, id, text); err != nil {
			logrus.WithError(err).WithField("id", id).Fatal("Failed to upsert precedent")
		}
	}
	logrus.WithField("count", len(clauses)).Info("Seeded precedent store")

	matches, err := store.Query(ctx, "confidentiality obligations", 3)
	if err != nil {
		logrus.WithError(err).Fatal("Sample query failed")
	}
	for _, m := range matches {
		logrus.WithFields(logrus.Fields{
			"id":         m.PrecedentID,
			"similarity": m.Similarity,
		}).Info(m.Excerpt)
	}
}

package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/yourusername/f1-predictor/internal/config"
)

// SetupTestDB connects to the database named by F1PREDICT_TEST_DATABASE_HOST
// and friends, applies the schema and empties it. The test is skipped when
// no test database is configured.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	host := os.Getenv("F1PREDICT_TEST_DATABASE_HOST")
	if host == "" {
		t.Skip("Integration test - set F1PREDICT_TEST_DATABASE_HOST to run against PostgreSQL")
	}
	port, err := strconv.Atoi(getenv("F1PREDICT_TEST_DATABASE_PORT", "5432"))
	if err != nil {
		t.Fatalf("invalid F1PREDICT_TEST_DATABASE_PORT: %v", err)
	}

	cfg := &config.Config{Database: config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     getenv("F1PREDICT_TEST_DATABASE_NAME", "f1predict_test"),
		User:     getenv("F1PREDICT_TEST_DATABASE_USER", "postgres"),
		Password: os.Getenv("F1PREDICT_TEST_DATABASE_PASSWORD"),
		SSLMode:  "disable",
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Initialize(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	if _, err := db.pool.Exec(ctx, "TRUNCATE prediction_runs"); err != nil {
		db.Close()
		t.Fatalf("failed to reset test database: %v", err)
	}
	return db
}

// TeardownTestDB closes the database connection
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()
	db.Close()
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

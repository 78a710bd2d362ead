package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/unionhall/ballotproof/internal/adapters/repository/postgres"
	"github.com/unionhall/ballotproof/internal/config"
	"github.com/unionhall/ballotproof/internal/core/services"
	"github.com/unionhall/ballotproof/internal/logger"
)

// Admin job: replays one session's audit chain, flags tampered entries in
// place, and prints the aggregate report as JSON for audit review.
func main() {
	var sessionID string
	flag.StringVar(&sessionID, "session", "", "voting session id to verify")
	flag.Parse()

	if sessionID == "" {
		log.Fatal("a -session id is required.")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	db, err := sql.Open("postgres", cfg.DatabaseURL())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	auditRepo := postgres.NewAuditLogRepository(db)
	integrityService := services.NewIntegrityService(auditRepo, cfg.VotingSecret, zlog)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := integrityService.VerifySession(ctx, sessionID)
	if err != nil {
		zlog.Fatalw("integrity verification failed", "session_id", sessionID, "error", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatal(err)
	}
}

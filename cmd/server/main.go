package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/unionhall/ballotproof/internal/adapters/handler/http"
	"github.com/unionhall/ballotproof/internal/adapters/repository/postgres"
	"github.com/unionhall/ballotproof/internal/config"
	"github.com/unionhall/ballotproof/internal/core/services"
	"github.com/unionhall/ballotproof/internal/logger"
)

func main() {
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
		zlog.Fatalw("failed to open database", "error", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		zlog.Fatalw("failed to ping database", "error", err)
	}

	auditRepo := postgres.NewAuditLogRepository(db)
	ballotService := services.NewBallotService(auditRepo, cfg.VotingSecret, zlog)
	integrityService := services.NewIntegrityService(auditRepo, cfg.VotingSecret, zlog)

	handler := http.NewHandler(
		http.NewBallotHandler(ballotService),
		http.NewIntegrityHandler(integrityService),
	)
	server := &stdhttp.Server{Addr: "0.0.0.0:" + cfg.Port, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zlog.Infow("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			zlog.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	zlog.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Fatalw("shutdown failed", "error", err)
	}
}

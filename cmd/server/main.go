/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the AM billing engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from the environment
  2. Initialize the SQLite store
  3. Construct tracker clients and the sync orchestrator
  4. Configure the HTTP router and the backfill scheduler
  5. Start the server with graceful shutdown

ENVIRONMENT:
  HTTP_ADDR      Listen address (default :8080)
  DB_PATH        SQLite path, ":memory:" for in-memory (default billing.db)
  JIRA_BASE_URL  Jira Cloud base URL
  JIRA_TOKEN     Jira API token
  TEMPO_BASE_URL Tempo API base URL
  TEMPO_TOKEN    Tempo API token
  CRON_SECRET    Bearer secret for sync/cron endpoints
  SYNC_CRON      Backfill schedule (default "0 3 * * *")

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the cron scheduler and wait for a running tick
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the database connection
  5. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/cron.go: Scheduled backfill
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amflow/billing-engine/api"
	"github.com/amflow/billing-engine/config"
	"github.com/amflow/billing-engine/logging"
	"github.com/amflow/billing-engine/store/sqlite"
	"github.com/amflow/billing-engine/syncer"
	"github.com/amflow/billing-engine/tracker"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	jira := tracker.NewJiraClient(cfg, log)
	tempo := tracker.NewTempoClient(cfg, log)

	orch := syncer.NewOrchestrator(store, jira, tempo, log)
	orch.ChunkSize = cfg.SyncChunkSize
	orch.PageSize = cfg.SyncPageSize

	handler := api.NewHandler(store, orch, log)
	handler.CronSecret = cfg.CronSecret
	handler.BackfillBatch = cfg.BackfillBatch

	router := api.NewRouter(handler)

	scheduler := api.NewScheduler(orch, cfg.BackfillBatch, log)
	if err := scheduler.Start(cfg.SyncCron); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.SyncCron).Msg("failed to start scheduler")
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // sync requests can run long
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.AppEnv).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}

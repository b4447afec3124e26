/*
cron.go - In-process scheduled backfill driver

PURPOSE:
  Drives the incremental backfill on a cron schedule so every contract's
  ledger is refreshed at least daily, without an external scheduler. Each
  tick keeps requesting batches until the orchestrator reports no more
  stale contracts.

OVERLAP:
  A tick that is still running when the next one fires makes the new tick
  a no-op. Per-contract locks inside the orchestrator already prevent
  interleaved syncs; this flag just avoids piling up redundant passes.
*/
package api

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/amflow/billing-engine/syncer"
)

// maxBackfillRounds bounds one tick. At the default batch size this covers
// far more contracts than the portal manages.
const maxBackfillRounds = 200

// Scheduler runs the backfill on a cron expression.
type Scheduler struct {
	cron    *cron.Cron
	orch    *syncer.Orchestrator
	batch   int
	log     zerolog.Logger
	running atomic.Bool
}

func NewScheduler(orch *syncer.Orchestrator, batch int, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		orch:  orch,
		batch: batch,
		log:   log,
	}
}

// Start registers the backfill job and starts the cron loop.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, s.tick)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("schedule", schedule).Msg("cron: backfill scheduled")
	return nil
}

// Stop stops scheduling and waits for a running tick's jobs to return.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) tick() {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn().Msg("cron: previous backfill still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	start := time.Now()
	total := 0
	for round := 0; round < maxBackfillRounds; round++ {
		result, err := s.orch.Backfill(context.Background(), s.batch)
		if err != nil {
			s.log.Error().Err(err).Int("processed", total).Msg("cron: backfill aborted")
			return
		}
		total += result.Processed
		if !result.HasMore {
			break
		}
	}
	s.log.Info().
		Int("processed", total).
		Dur("elapsed", time.Since(start)).
		Msg("cron: backfill finished")
}

/*
backfill.go - Incremental, restartable cron-driven sync batches

PURPOSE:
  The cron surface never syncs every contract in one invocation. Each call
  takes the contracts with the oldest sync watermark (never-synced first),
  syncs a bounded batch, and reports whether more work remains. The
  watermark advance inside Sync makes repeated invocations resume where
  the previous one left off.
*/
package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/amflow/billing-engine/billing"
)

// StaleAfter is the default watermark age past which a contract is due for
// another backfill sync.
const StaleAfter = 12 * time.Hour

type BackfillStatus string

const (
	BackfillCompleted  BackfillStatus = "completed"
	BackfillProcessing BackfillStatus = "processing"
	BackfillError      BackfillStatus = "error"
)

type BackfillResult struct {
	Status    BackfillStatus `json:"status"`
	Processed int            `json:"processed"`
	HasMore   bool           `json:"hasMore"`
	Error     string         `json:"error,omitempty"`
}

// Backfill syncs up to batchSize contracts whose watermark is older than
// StaleAfter. Contracts already syncing elsewhere are skipped, not errors.
func (o *Orchestrator) Backfill(ctx context.Context, batchSize int) (*BackfillResult, error) {
	cutoff := time.Now().UTC().Add(-StaleAfter)
	stale, err := o.store.ListStaleWorkPackages(ctx, cutoff, batchSize+1)
	if err != nil {
		return &BackfillResult{Status: BackfillError, Error: err.Error()}, err
	}

	hasMore := len(stale) > batchSize
	if hasMore {
		stale = stale[:batchSize]
	}

	result := &BackfillResult{Status: BackfillCompleted, HasMore: hasMore}
	for _, wp := range stale {
		_, err := o.Sync(ctx, wp.ID, SyncOptions{})
		switch {
		case errors.Is(err, billing.ErrSyncInProgress):
			o.log.Info().Str("work_package", string(wp.ID)).Msg("backfill: contract busy, skipped")
			continue
		case errors.Is(err, billing.ErrNoActivePeriod):
			o.log.Info().Str("work_package", string(wp.ID)).Msg("backfill: no validity periods, skipped")
			continue
		case errors.Is(err, billing.ErrUnauthorized):
			// Credentials won't improve for later contracts either.
			result.Status = BackfillError
			result.Error = err.Error()
			return result, err
		case err != nil:
			result.Status = BackfillError
			result.Error = err.Error()
			return result, err
		}
		result.Processed++
	}

	if hasMore {
		result.Status = BackfillProcessing
	}
	return result, nil
}

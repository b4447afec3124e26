/*
store.go - Persistence interfaces for the billing engine

PURPOSE:
  Defines the boundary between domain logic and the database. The engine
  depends only on CRUD plus filtered-aggregate queries, never on a
  store-specific feature, so SQLite and in-memory implementations are
  interchangeable.

REPLACE-NOT-MERGE:
  The ledger write path is ReplaceForPeriod: one atomic swap of all rows
  for a (contract, period). There is no row-level update. This is what
  makes re-running a sync idempotent and keeps a crashed run from leaving
  a half-written period behind.

IMPLEMENTATIONS:
  - store/sqlite: production store, transactional replace
  - billing/store: in-memory store for tests

SEE ALSO:
  - aggregate.go: Consumes LedgerStore, produces MetricStore rows
  - syncer: Drives ReplaceForPeriod after each batch
*/
package billing

import (
	"context"
	"time"
)

// =============================================================================
// CONTRACT STORE - work packages and validity periods
// =============================================================================

type ContractStore interface {
	GetWorkPackage(ctx context.Context, id WorkPackageID) (*WorkPackage, error)
	ListWorkPackages(ctx context.Context) ([]WorkPackage, error)
	SaveWorkPackage(ctx context.Context, wp *WorkPackage) error

	// TouchSynced advances the backfill watermark after a successful sync.
	TouchSynced(ctx context.Context, id WorkPackageID, at time.Time) error

	// ListStaleWorkPackages returns contracts whose watermark is older than
	// olderThan, ordered by LastSyncedAt ascending (never-synced first) and
	// capped at limit. Drives incremental cron backfills.
	ListStaleWorkPackages(ctx context.Context, olderThan time.Time, limit int) ([]WorkPackage, error)

	GetPeriod(ctx context.Context, id PeriodID) (*ValidityPeriod, error)
	ListPeriods(ctx context.Context, wpID WorkPackageID) ([]ValidityPeriod, error)

	// SavePeriod validates non-overlap against the contract's other periods
	// before writing.
	SavePeriod(ctx context.Context, p *ValidityPeriod) error
}

// =============================================================================
// LEDGER STORE - normalized worklog rows
// =============================================================================

type LedgerStore interface {
	// ReplaceForPeriod atomically swaps all ledger rows of one
	// (contract, period). Either the full new set is visible or the old
	// one still is; readers never observe a partial replace.
	ReplaceForPeriod(ctx context.Context, wpID WorkPackageID, periodID PeriodID, rows []WorklogEntry) error

	ListForPeriod(ctx context.Context, wpID WorkPackageID, periodID PeriodID) ([]WorklogEntry, error)
	ListForContract(ctx context.Context, wpID WorkPackageID) ([]WorklogEntry, error)

	// HasEntry reports whether the ledger holds any row for the given
	// contract+issue+month. Used for manual-consumption duplicate detection.
	HasEntry(ctx context.Context, wpID WorkPackageID, issueKey string, month MonthKey) (bool, error)
}

// =============================================================================
// METRIC STORE
// =============================================================================

type MetricStore interface {
	// ReplaceMetrics overwrites the contract's monthly metrics with the
	// recomputed set. Months absent from metrics are removed.
	ReplaceMetrics(ctx context.Context, wpID WorkPackageID, metrics []MonthlyMetric) error

	ListMetrics(ctx context.Context, wpID WorkPackageID) ([]MonthlyMetric, error)
}

// =============================================================================
// REGULARIZATION STORES
// =============================================================================

type RegularizationStore interface {
	SaveRegularization(ctx context.Context, r *Regularization) error
	DeleteRegularization(ctx context.Context, id RegularizationID) error
	ListRegularizations(ctx context.Context, wpID WorkPackageID) ([]Regularization, error)
}

type StrategyStore interface {
	SaveStrategy(ctx context.Context, s *SpecialRegularization) error
	GetStrategy(ctx context.Context, id StrategyID) (*SpecialRegularization, error)
	ListStrategies(ctx context.Context) ([]SpecialRegularization, error)

	// DeleteStrategy fails with StrategyInUseError while any validity
	// period references the strategy.
	DeleteStrategy(ctx context.Context, id StrategyID) error
}

// =============================================================================
// IMPORT LOG - audit trail of sync runs
// =============================================================================

type ImportLog struct {
	ID            string
	WorkPackageID WorkPackageID
	StartedAt     time.Time
	CompletedAt   time.Time
	Processed     int
	Errored       int
	TotalHours    Hours
	Success       bool
	Message       string
}

type ImportLogStore interface {
	AppendImportLog(ctx context.Context, entry ImportLog) error
	ListImportLogs(ctx context.Context, limit int) ([]ImportLog, error)
}

// =============================================================================
// SYNC STORE - everything the orchestrator needs
// =============================================================================

type SyncStore interface {
	ContractStore
	LedgerStore
	MetricStore
	RegularizationStore
	StrategyStore
	ImportLogStore
}

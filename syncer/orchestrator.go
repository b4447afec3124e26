/*
Package syncer drives the full resynchronization of a contract's ledger
from the external trackers.

PURPOSE:
  Given a work package, the orchestrator walks its validity periods,
  cursor-pages the Jira issue search, offset-pages the Tempo worklog
  search in bounded chunks, filters and normalizes the results, and
  atomically replaces the contract's ledger rows per period. Monthly
  metrics are recomputed afterwards so they always agree with the ledger.

IDEMPOTENCE:
  The ledger write is replace-per-period inside one store transaction.
  Running a sync twice yields identical row counts; a crash mid-run
  leaves the previous period contents intact.

FAILURE SEMANTICS:
  A failed chunk or page is logged and counted; the run continues with the
  remaining chunks and reports partial success. Authorization failures are
  fatal and abort immediately. Chunk deadlines turn hung calls into
  retryable chunk failures.

CONCURRENCY:
  One in-process lock per contract. Two syncs of the same contract never
  interleave; different contracts proceed in parallel.

SEE ALSO:
  - normalizer.go: Attribution and field-extraction rules
  - maintenance.go: Manual-consumption duplicate cleanup
  - backfill.go: Incremental cron-driven sync batches
*/
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amflow/billing-engine/billing"
	"github.com/amflow/billing-engine/tracker"
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

type IssueSearcher interface {
	SearchIssues(ctx context.Context, jql, pageToken string, maxResults int) (*tracker.SearchPage, error)
}

type WorklogSearcher interface {
	SearchWorklogs(ctx context.Context, from, to billing.TimePoint, issueIDs []int64, offset, limit int) ([]tracker.Worklog, error)
}

// Notifier is the fire-and-forget alert hook. Failures here never block
// or fail a sync.
type Notifier interface {
	NotifySyncFailure(wpID billing.WorkPackageID, err error)
}

// LogNotifier is the default Notifier: it only logs.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) NotifySyncFailure(wpID billing.WorkPackageID, err error) {
	n.Log.Error().Err(err).Str("work_package", string(wpID)).Msg("sync failed")
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

type Orchestrator struct {
	store    billing.SyncStore
	jira     IssueSearcher
	tempo    WorklogSearcher
	agg      *billing.Aggregator
	notifier Notifier
	locks    *lockRegistry
	log      zerolog.Logger

	// BillingModeFieldName is the human-readable custom field name used in
	// JQL clauses (distinct from the customfield id the client projects).
	BillingModeFieldName string

	ChunkSize    int           // max issue ids per Tempo query
	PageSize     int           // page size for both trackers
	ChunkTimeout time.Duration // deadline per chunk; timeout = retryable failure
}

func NewOrchestrator(store billing.SyncStore, jira IssueSearcher, tempo WorklogSearcher, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:                store,
		jira:                 jira,
		tempo:                tempo,
		agg:                  billing.NewAggregator(store, store),
		notifier:             LogNotifier{Log: log},
		locks:                newLockRegistry(),
		log:                  log,
		BillingModeFieldName: "Modo de facturación",
		ChunkSize:            50,
		PageSize:             100,
		ChunkTimeout:         2 * time.Minute,
	}
}

// WithNotifier replaces the failure notifier.
func (o *Orchestrator) WithNotifier(n Notifier) *Orchestrator {
	o.notifier = n
	return o
}

// SyncOptions tune one run.
type SyncOptions struct {
	// Debug returns the structured sync log to the caller.
	Debug bool
	// WindowDays caps how far back the issue search reaches, overriding
	// the period start. Zero means the full period.
	WindowDays int
}

// SyncResult is the structured outcome reported to the caller. The caller
// decides whether to alert; the orchestrator never panics across this
// boundary.
type SyncResult struct {
	Success    bool          `json:"success"`
	Processed  int           `json:"processed"`
	Errored    int           `json:"errored"`
	TotalHours billing.Hours `json:"totalHours"`
	Logs       []SyncLogLine `json:"logs,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Sync performs a full resynchronization of one contract's ledger across
// its validity periods.
func (o *Orchestrator) Sync(ctx context.Context, wpID billing.WorkPackageID, opts SyncOptions) (*SyncResult, error) {
	if !o.locks.acquire(wpID) {
		return nil, billing.ErrSyncInProgress
	}
	defer o.locks.release(wpID)

	startedAt := time.Now().UTC()
	slog := NewSyncLog(opts.Debug)
	result := &SyncResult{TotalHours: billing.ZeroHours()}

	wp, err := o.store.GetWorkPackage(ctx, wpID)
	if err != nil {
		return nil, err
	}
	periods, err := o.store.ListPeriods(ctx, wpID)
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, billing.ErrNoActivePeriod
	}

	for _, period := range periods {
		if err := o.syncPeriod(ctx, wp, period, opts, slog, result); err != nil {
			// Authorization problems abort the whole run; anything else was
			// already absorbed as a chunk failure.
			if errors.Is(err, billing.ErrUnauthorized) {
				result.Error = err.Error()
				result.Logs = slog.Lines()
				o.notifier.NotifySyncFailure(wpID, err)
				return result, err
			}
			result.Errored++
			slog.Errorf("period %s: %v", period.ID, err)
		}
	}

	if _, err := o.agg.Recompute(ctx, wp); err != nil {
		result.Error = err.Error()
		result.Logs = slog.Lines()
		o.notifier.NotifySyncFailure(wpID, err)
		return result, err
	}

	if err := o.store.TouchSynced(ctx, wpID, startedAt); err != nil {
		slog.Warnf("watermark update failed: %v", err)
	}

	result.Success = result.Errored == 0
	result.Logs = slog.Lines()

	logErr := o.store.AppendImportLog(ctx, billing.ImportLog{
		ID:            uuid.NewString(),
		WorkPackageID: wpID,
		StartedAt:     startedAt,
		CompletedAt:   time.Now().UTC(),
		Processed:     result.Processed,
		Errored:       result.Errored,
		TotalHours:    result.TotalHours,
		Success:       result.Success,
		Message:       result.Error,
	})
	if logErr != nil {
		o.log.Warn().Err(logErr).Msg("syncer: import log write failed")
	}

	if !result.Success {
		o.notifier.NotifySyncFailure(wpID, fmt.Errorf("sync finished with %d errored chunk(s)", result.Errored))
	}
	return result, nil
}

// =============================================================================
// PER-PERIOD SYNC
// =============================================================================

func (o *Orchestrator) syncPeriod(ctx context.Context, wp *billing.WorkPackage, period billing.ValidityPeriod, opts SyncOptions, slog *SyncLog, result *SyncResult) error {
	from, to := o.searchWindow(period, opts)
	if to.Before(from) {
		slog.Infof("period %s: window empty, skipping", period.ID)
		return nil
	}
	if opts.WindowDays > 0 && period.Start.Before(from) {
		// The replace still covers the whole period, so rows older than the
		// window do not survive a capped run.
		slog.Warnf("period %s: search window capped at %s; ledger rows before it will be dropped by the replace", period.ID, from)
	}

	issues, err := o.collectIssues(ctx, wp, from, to, slog)
	if err != nil {
		return err
	}
	slog.Infof("period %s: %d issue(s) matched filter", period.ID, len(issues))

	var rows []billing.WorklogEntry
	if wp.Type == billing.ContractEvents {
		// Count-based billing: every in-range ticket becomes a row,
		// independent of Tempo.
		rows = o.eventRows(wp, period, issues, slog)
	} else {
		rows, err = o.worklogRows(ctx, wp, period, issues, from, to, slog, result)
		if err != nil {
			return err
		}
	}

	if err := o.store.ReplaceForPeriod(ctx, wp.ID, period.ID, rows); err != nil {
		return fmt.Errorf("ledger replace: %w", err)
	}

	result.Processed += len(rows)
	for _, row := range rows {
		result.TotalHours = result.TotalHours.Add(row.Hours)
	}
	slog.Infof("period %s: %d ledger row(s) written", period.ID, len(rows))
	return nil
}

func (o *Orchestrator) searchWindow(period billing.ValidityPeriod, opts SyncOptions) (billing.TimePoint, billing.TimePoint) {
	from := period.Start
	to := period.End
	today := billing.Today()
	if today.Before(to) {
		to = today
	}
	if opts.WindowDays > 0 {
		floor := today.AddDays(-opts.WindowDays)
		if from.Before(floor) {
			from = floor
		}
	}
	return from, to
}

// collectIssues cursor-pages the issue search to exhaustion and filters
// client-side as well, so a lagging server-side filter cannot leak issue
// types into the ledger.
func (o *Orchestrator) collectIssues(ctx context.Context, wp *billing.WorkPackage, from, to billing.TimePoint, slog *SyncLog) (map[int64]tracker.Issue, error) {
	jql := tracker.BuildContractJQL(
		wp.JiraProjects, o.standardTypes(wp), wp.IncludeEvolutivo, wp.EvolutivoBillingMode,
		o.BillingModeFieldName, from, to,
	)
	slog.Infof("jql: %s", jql)

	issues := make(map[int64]tracker.Issue)
	token := ""
	for {
		page, err := o.jira.SearchIssues(ctx, jql, token, o.PageSize)
		if err != nil {
			return nil, err
		}
		for _, issue := range page.Issues {
			if !o.matchesFilter(issue, wp) {
				slog.Filterf("issue %s dropped: type=%q mode=%q", issue.Key, issue.Fields.IssueType.Name, BillingModeOf(issue))
				continue
			}
			id, err := strconv.ParseInt(issue.ID, 10, 64)
			if err != nil {
				slog.Warnf("issue %s has non-numeric id %q, skipped", issue.Key, issue.ID)
				continue
			}
			issues[id] = issue
		}
		if page.IsLast || page.NextPageToken == "" {
			return issues, nil
		}
		token = page.NextPageToken
	}
}

func (o *Orchestrator) standardTypes(wp *billing.WorkPackage) []string {
	if len(wp.StandardIssueTypes) > 0 {
		return wp.StandardIssueTypes
	}
	return []string{"Incidencia", "Service Request", "Consulta"}
}

// matchesFilter mirrors the JQL: standard types always pass; evolutivo
// passes only under the contract's configured billing mode.
func (o *Orchestrator) matchesFilter(issue tracker.Issue, wp *billing.WorkPackage) bool {
	issueType := issue.Fields.IssueType.Name
	for _, t := range o.standardTypes(wp) {
		if t == issueType {
			return true
		}
	}
	if wp.IncludeEvolutivo && issueType == "Evolutivo" {
		return BillingModeOf(issue) == wp.EvolutivoBillingMode
	}
	return false
}

// worklogRows chunks the matched issue ids and offset-pages Tempo for each
// chunk. Chunk failures are absorbed: counted, logged, and the run moves on.
// Authorization failures are the exception: they abort before any ledger
// write, so revoked credentials can never shrink the ledger.
func (o *Orchestrator) worklogRows(ctx context.Context, wp *billing.WorkPackage, period billing.ValidityPeriod, issues map[int64]tracker.Issue, from, to billing.TimePoint, slog *SyncLog, result *SyncResult) ([]billing.WorklogEntry, error) {
	ids := make([]int64, 0, len(issues))
	for id := range issues {
		ids = append(ids, id)
	}

	var rows []billing.WorklogEntry
	seen := make(map[int64]bool) // tempo worklog ids already counted

	for start := 0; start < len(ids); start += o.ChunkSize {
		end := start + o.ChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		chunkRows, err := o.fetchChunk(ctx, wp, period, issues, chunk, from, to, seen, slog)
		if err != nil {
			if errors.Is(err, billing.ErrUnauthorized) {
				slog.Errorf("chunk %d-%d: %v", start, end, err)
				return nil, err
			}
			result.Errored++
			slog.Errorf("chunk %d-%d: %v", start, end, err)
			continue
		}
		rows = append(rows, chunkRows...)
	}
	return rows, nil
}

func (o *Orchestrator) fetchChunk(ctx context.Context, wp *billing.WorkPackage, period billing.ValidityPeriod, issues map[int64]tracker.Issue, chunk []int64, from, to billing.TimePoint, seen map[int64]bool, slog *SyncLog) ([]billing.WorklogEntry, error) {
	chunkCtx := ctx
	if o.ChunkTimeout > 0 {
		var cancel context.CancelFunc
		chunkCtx, cancel = context.WithTimeout(ctx, o.ChunkTimeout)
		defer cancel()
	}

	var rows []billing.WorklogEntry
	offset := 0
	for {
		page, err := o.tempo.SearchWorklogs(chunkCtx, from, to, chunk, offset, o.PageSize)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: chunk deadline exceeded", billing.ErrTransient)
			}
			return nil, err
		}

		for _, wl := range page {
			if seen[wl.TempoWorklogID] {
				continue
			}
			issue, ok := issues[wl.Issue.ID]
			if !ok {
				slog.Filterf("worklog %d dropped: issue %d not in filter set", wl.TempoWorklogID, wl.Issue.ID)
				continue
			}
			if !AttributableToContract(wl, issue, wp) {
				slog.Filterf("worklog %d dropped: contract tag mismatch on %s", wl.TempoWorklogID, issue.Key)
				continue
			}
			row, ok := NormalizeWorklog(wl, issue, wp, period.ID)
			if !ok {
				slog.Warnf("worklog %d has malformed start date %q, skipped", wl.TempoWorklogID, wl.StartDate)
				continue
			}
			seen[wl.TempoWorklogID] = true
			rows = append(rows, row)
		}

		if len(page) < o.PageSize {
			return rows, nil
		}
		offset += o.PageSize
	}
}

func (o *Orchestrator) eventRows(wp *billing.WorkPackage, period billing.ValidityPeriod, issues map[int64]tracker.Issue, slog *SyncLog) []billing.WorklogEntry {
	var rows []billing.WorklogEntry
	for _, issue := range issues {
		row, ok := NormalizeIssueTicket(issue, wp, period.ID)
		if !ok {
			slog.Warnf("issue %s has malformed created date %q, skipped", issue.Key, issue.Fields.Created)
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

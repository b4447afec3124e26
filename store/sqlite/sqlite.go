/*
Package sqlite provides the SQLite-backed implementation of the billing
store interfaces.

PURPOSE:
  Implements billing.SyncStore (contracts, periods, ledger, metrics,
  regularizations, strategies, import logs) on SQLite. The same patterns
  apply to PostgreSQL; only minor dialect differences.

REPLACE-NOT-MERGE:
  Ledger rows and monthly metrics have no row-level update path. Both are
  replaced inside a single database transaction (delete+insert), so a
  reader never observes a half-replaced period and a crashed sync leaves
  the previous contents intact.

TYPED CONFIGURATION:
  Correction tiers, rappel tiers, and level rates are stored as JSON but
  decoded exactly once, here, into typed values. Nothing downstream
  re-parses configuration blobs.

WAL MODE:
  The database is opened with WAL for better read concurrency and crash
  recovery. A sync.RWMutex serializes writers in-process.

SEE ALSO:
  - billing/store.go: Interface definitions
  - billing/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/amflow/billing-engine/billing"
)

// Store implements billing.SyncStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS work_packages (
		id TEXT PRIMARY KEY,
		client_ref TEXT NOT NULL,
		name TEXT NOT NULL,
		contract_type TEXT NOT NULL,
		jira_projects_json TEXT NOT NULL,
		tempo_account_key TEXT NOT NULL,
		include_evolutivo BOOLEAN DEFAULT FALSE,
		evolutivo_billing_mode TEXT,
		include_tm BOOLEAN DEFAULT FALSE,
		standard_types_json TEXT,
		correction_tiers_json TEXT,
		last_synced_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS validity_periods (
		id TEXT PRIMARY KEY,
		work_package_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_quantity TEXT NOT NULL,
		hourly_rate TEXT NOT NULL,
		premium BOOLEAN DEFAULT FALSE,
		premium_price TEXT,
		strategy_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_periods_work_package
		ON validity_periods(work_package_id);
	CREATE INDEX IF NOT EXISTS idx_periods_strategy
		ON validity_periods(strategy_id) WHERE strategy_id != '';

	-- Normalized worklog ledger. Replace-per-period: no UPDATE path.
	CREATE TABLE IF NOT EXISTS worklog_entries (
		id TEXT PRIMARY KEY,
		work_package_id TEXT NOT NULL,
		period_id TEXT NOT NULL,
		issue_key TEXT NOT NULL,
		issue_type TEXT NOT NULL,
		billing_mode TEXT NOT NULL,
		hours TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		author TEXT,
		author_level TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_worklogs_wp_period
		ON worklog_entries(work_package_id, period_id);
	CREATE INDEX IF NOT EXISTS idx_worklogs_wp_issue_month
		ON worklog_entries(work_package_id, issue_key, year, month);

	CREATE TABLE IF NOT EXISTS monthly_metrics (
		work_package_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		consumed_hours TEXT NOT NULL,
		PRIMARY KEY (work_package_id, year, month)
	);

	CREATE TABLE IF NOT EXISTS regularizations (
		id TEXT PRIMARY KEY,
		work_package_id TEXT NOT NULL,
		date TEXT NOT NULL,
		reg_type TEXT NOT NULL,
		quantity TEXT NOT NULL,
		ticket_ref TEXT,
		description TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_regularizations_wp
		ON regularizations(work_package_id);
	CREATE INDEX IF NOT EXISTS idx_regularizations_wp_type
		ON regularizations(work_package_id, reg_type);

	CREATE TABLE IF NOT EXISTS special_regularizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		strategy_type TEXT NOT NULL,
		rappel_tiers_json TEXT,
		level_rates_json TEXT,
		default_rate TEXT
	);

	CREATE TABLE IF NOT EXISTS import_logs (
		id TEXT PRIMARY KEY,
		work_package_id TEXT NOT NULL,
		started_at TEXT NOT NULL,
		completed_at TEXT NOT NULL,
		processed INTEGER NOT NULL,
		errored INTEGER NOT NULL,
		total_hours TEXT NOT NULL,
		success BOOLEAN NOT NULL,
		message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_import_logs_started
		ON import_logs(started_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CONTRACT STORE
// =============================================================================

func (s *Store) SaveWorkPackage(ctx context.Context, wp *billing.WorkPackage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, _ := json.Marshal(wp.JiraProjects)
	types, _ := json.Marshal(wp.StandardIssueTypes)
	tiers, _ := json.Marshal(wp.CorrectionTiers)

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO work_packages
		(id, client_ref, name, contract_type, jira_projects_json, tempo_account_key,
		 include_evolutivo, evolutivo_billing_mode, include_tm, standard_types_json,
		 correction_tiers_json, last_synced_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wp.ID, wp.ClientRef, wp.Name, wp.Type, string(projects), wp.TempoAccountKey,
		wp.IncludeEvolutivo, wp.EvolutivoBillingMode, wp.IncludeTimeAndMaterials, string(types),
		string(tiers), formatTime(wp.LastSyncedAt), formatTime(orNow(wp.CreatedAt)),
	)
	return err
}

func (s *Store) GetWorkPackage(ctx context.Context, id billing.WorkPackageID) (*billing.WorkPackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, client_ref, name, contract_type, jira_projects_json, tempo_account_key,
		       include_evolutivo, evolutivo_billing_mode, include_tm, standard_types_json,
		       correction_tiers_json, last_synced_at, created_at
		FROM work_packages WHERE id = ?`, id)

	wp, err := scanWorkPackage(row)
	if err == sql.ErrNoRows {
		return nil, billing.ErrContractNotFound
	}
	return wp, err
}

func (s *Store) ListWorkPackages(ctx context.Context) ([]billing.WorkPackage, error) {
	return s.queryWorkPackages(ctx, `
		SELECT id, client_ref, name, contract_type, jira_projects_json, tempo_account_key,
		       include_evolutivo, evolutivo_billing_mode, include_tm, standard_types_json,
		       correction_tiers_json, last_synced_at, created_at
		FROM work_packages ORDER BY id`)
}

func (s *Store) ListStaleWorkPackages(ctx context.Context, olderThan time.Time, limit int) ([]billing.WorkPackage, error) {
	// Empty last_synced_at sorts (and compares) below any RFC3339 timestamp,
	// so never-synced contracts are always stale and lead the batch.
	return s.queryWorkPackages(ctx, `
		SELECT id, client_ref, name, contract_type, jira_projects_json, tempo_account_key,
		       include_evolutivo, evolutivo_billing_mode, include_tm, standard_types_json,
		       correction_tiers_json, last_synced_at, created_at
		FROM work_packages WHERE last_synced_at < ?
		ORDER BY last_synced_at ASC, id ASC LIMIT ?`, formatTime(olderThan), limit)
}

func (s *Store) TouchSynced(ctx context.Context, id billing.WorkPackageID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE work_packages SET last_synced_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return billing.ErrContractNotFound
	}
	return nil
}

func (s *Store) queryWorkPackages(ctx context.Context, query string, args ...any) ([]billing.WorkPackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.WorkPackage
	for rows.Next() {
		wp, err := scanWorkPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *wp)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanWorkPackage(row scannable) (*billing.WorkPackage, error) {
	var wp billing.WorkPackage
	var projects, types, tiers, lastSynced, created string
	var mode, clientRef sql.NullString

	err := row.Scan(&wp.ID, &clientRef, &wp.Name, &wp.Type, &projects, &wp.TempoAccountKey,
		&wp.IncludeEvolutivo, &mode, &wp.IncludeTimeAndMaterials, &types,
		&tiers, &lastSynced, &created)
	if err != nil {
		return nil, err
	}

	wp.ClientRef = clientRef.String
	wp.EvolutivoBillingMode = mode.String
	_ = json.Unmarshal([]byte(projects), &wp.JiraProjects)
	if types != "" {
		_ = json.Unmarshal([]byte(types), &wp.StandardIssueTypes)
	}
	if tiers != "" && tiers != "null" {
		_ = json.Unmarshal([]byte(tiers), &wp.CorrectionTiers)
	}
	wp.LastSyncedAt = parseTime(lastSynced)
	wp.CreatedAt = parseTime(created)
	return &wp, nil
}

func (s *Store) SavePeriod(ctx context.Context, p *billing.ValidityPeriod) error {
	// Validate and insert under one write lock, so two concurrent saves
	// cannot both pass validation against the same stale snapshot.
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.listPeriodsLocked(ctx, p.WorkPackageID)
	if err != nil {
		return err
	}
	if err := billing.ValidatePeriods(*p, existing); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO validity_periods
		(id, work_package_id, start_date, end_date, total_quantity, hourly_rate,
		 premium, premium_price, strategy_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.WorkPackageID, p.Start.String(), p.End.String(),
		p.TotalQuantity.Value.String(), p.HourlyRate.Value.String(),
		p.Premium, p.PremiumPrice.Value.String(), p.StrategyID, formatTime(orNow(p.CreatedAt)),
	)
	return err
}

func (s *Store) GetPeriod(ctx context.Context, id billing.PeriodID) (*billing.ValidityPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, work_package_id, start_date, end_date, total_quantity, hourly_rate,
		       premium, premium_price, strategy_id, created_at
		FROM validity_periods WHERE id = ?`, id)

	p, err := scanPeriod(row)
	if err == sql.ErrNoRows {
		return nil, billing.ErrPeriodNotFound
	}
	return p, err
}

func (s *Store) ListPeriods(ctx context.Context, wpID billing.WorkPackageID) ([]billing.ValidityPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listPeriodsLocked(ctx, wpID)
}

func (s *Store) listPeriodsLocked(ctx context.Context, wpID billing.WorkPackageID) ([]billing.ValidityPeriod, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, work_package_id, start_date, end_date, total_quantity, hourly_rate,
		       premium, premium_price, strategy_id, created_at
		FROM validity_periods WHERE work_package_id = ? ORDER BY start_date ASC`, wpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.ValidityPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPeriod(row scannable) (*billing.ValidityPeriod, error) {
	var p billing.ValidityPeriod
	var start, end, quantity, rate, created string
	var premiumPrice, strategyID sql.NullString

	err := row.Scan(&p.ID, &p.WorkPackageID, &start, &end, &quantity, &rate,
		&p.Premium, &premiumPrice, &strategyID, &created)
	if err != nil {
		return nil, err
	}

	p.Start = parseDate(start)
	p.End = parseDate(end)
	p.TotalQuantity = billing.Hours{Value: billing.MustParseDecimal(quantity)}
	p.HourlyRate = billing.Money{Value: billing.MustParseDecimal(rate)}
	if premiumPrice.Valid {
		p.PremiumPrice = billing.Money{Value: billing.MustParseDecimal(premiumPrice.String)}
	}
	p.StrategyID = billing.StrategyID(strategyID.String)
	p.CreatedAt = parseTime(created)
	return &p, nil
}

// =============================================================================
// LEDGER STORE
// =============================================================================

// ReplaceForPeriod swaps all ledger rows for one (contract, period) inside
// a single database transaction.
func (s *Store) ReplaceForPeriod(ctx context.Context, wpID billing.WorkPackageID, periodID billing.PeriodID, entries []billing.WorklogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM worklog_entries WHERE work_package_id = ? AND period_id = ?`,
		wpID, periodID); err != nil {
		return err
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO worklog_entries
			(id, work_package_id, period_id, issue_key, issue_type, billing_mode,
			 hours, year, month, author, author_level, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.WorkPackageID, e.PeriodID, e.IssueKey, e.IssueType, e.BillingMode,
			e.Hours.Value.String(), e.Year, int(e.Month), e.Author, e.AuthorLevel,
			formatTime(orNow(e.CreatedAt)),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) ListForPeriod(ctx context.Context, wpID billing.WorkPackageID, periodID billing.PeriodID) ([]billing.WorklogEntry, error) {
	return s.queryWorklogs(ctx, `
		SELECT id, work_package_id, period_id, issue_key, issue_type, billing_mode,
		       hours, year, month, author, author_level, created_at
		FROM worklog_entries WHERE work_package_id = ? AND period_id = ?
		ORDER BY year, month, issue_key`, wpID, periodID)
}

func (s *Store) ListForContract(ctx context.Context, wpID billing.WorkPackageID) ([]billing.WorklogEntry, error) {
	return s.queryWorklogs(ctx, `
		SELECT id, work_package_id, period_id, issue_key, issue_type, billing_mode,
		       hours, year, month, author, author_level, created_at
		FROM worklog_entries WHERE work_package_id = ?
		ORDER BY year, month, issue_key`, wpID)
}

func (s *Store) HasEntry(ctx context.Context, wpID billing.WorkPackageID, issueKey string, month billing.MonthKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM worklog_entries
		WHERE work_package_id = ? AND issue_key = ? AND year = ? AND month = ?`,
		wpID, issueKey, month.Year, int(month.Month)).Scan(&n)
	return n > 0, err
}

func (s *Store) queryWorklogs(ctx context.Context, query string, args ...any) ([]billing.WorklogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.WorklogEntry
	for rows.Next() {
		var e billing.WorklogEntry
		var hours, created string
		var month int
		var author, level sql.NullString
		if err := rows.Scan(&e.ID, &e.WorkPackageID, &e.PeriodID, &e.IssueKey, &e.IssueType,
			&e.BillingMode, &hours, &e.Year, &month, &author, &level, &created); err != nil {
			return nil, err
		}
		e.Hours = billing.Hours{Value: billing.MustParseDecimal(hours)}
		e.Month = time.Month(month)
		e.Author = author.String
		e.AuthorLevel = level.String
		e.CreatedAt = parseTime(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// METRIC STORE
// =============================================================================

func (s *Store) ReplaceMetrics(ctx context.Context, wpID billing.WorkPackageID, metrics []billing.MonthlyMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM monthly_metrics WHERE work_package_id = ?`, wpID); err != nil {
		return err
	}
	for _, m := range metrics {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO monthly_metrics (work_package_id, year, month, consumed_hours)
			VALUES (?, ?, ?, ?)`,
			m.WorkPackageID, m.Year, int(m.Month), m.ConsumedHours.Value.String(),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListMetrics(ctx context.Context, wpID billing.WorkPackageID) ([]billing.MonthlyMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT work_package_id, year, month, consumed_hours
		FROM monthly_metrics WHERE work_package_id = ? ORDER BY year, month`, wpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.MonthlyMetric
	for rows.Next() {
		var m billing.MonthlyMetric
		var hours string
		var month int
		if err := rows.Scan(&m.WorkPackageID, &m.Year, &month, &hours); err != nil {
			return nil, err
		}
		m.Month = time.Month(month)
		m.ConsumedHours = billing.Hours{Value: billing.MustParseDecimal(hours)}
		out = append(out, m)
	}
	return out, rows.Err()
}

// =============================================================================
// REGULARIZATION STORES
// =============================================================================

func (s *Store) SaveRegularization(ctx context.Context, r *billing.Regularization) error {
	if r.Type == billing.RegManualConsumption && r.TicketRef == "" {
		return billing.ErrMissingTicketRef
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO regularizations
		(id, work_package_id, date, reg_type, quantity, ticket_ref, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.WorkPackageID, r.Date.String(), r.Type,
		r.Quantity.Value.String(), r.TicketRef, r.Description, formatTime(orNow(r.CreatedAt)),
	)
	return err
}

func (s *Store) DeleteRegularization(ctx context.Context, id billing.RegularizationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM regularizations WHERE id = ?`, id)
	return err
}

func (s *Store) ListRegularizations(ctx context.Context, wpID billing.WorkPackageID) ([]billing.Regularization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, work_package_id, date, reg_type, quantity, ticket_ref, description, created_at
		FROM regularizations WHERE work_package_id = ? ORDER BY date ASC`, wpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.Regularization
	for rows.Next() {
		var r billing.Regularization
		var date, quantity, created string
		var ticket, desc sql.NullString
		if err := rows.Scan(&r.ID, &r.WorkPackageID, &date, &r.Type, &quantity, &ticket, &desc, &created); err != nil {
			return nil, err
		}
		r.Date = parseDate(date)
		r.Quantity = billing.Hours{Value: billing.MustParseDecimal(quantity)}
		r.TicketRef = ticket.String
		r.Description = desc.String
		r.CreatedAt = parseTime(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SaveStrategy(ctx context.Context, strat *billing.SpecialRegularization) error {
	if err := billing.ValidateStrategy(strat); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tiers, _ := json.Marshal(strat.RappelTiers)
	rates, _ := json.Marshal(strat.LevelRates)

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO special_regularizations
		(id, name, strategy_type, rappel_tiers_json, level_rates_json, default_rate)
		VALUES (?, ?, ?, ?, ?, ?)`,
		strat.ID, strat.Name, strat.Type, string(tiers), string(rates),
		strat.DefaultRate.Value.String(),
	)
	return err
}

func (s *Store) GetStrategy(ctx context.Context, id billing.StrategyID) (*billing.SpecialRegularization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, strategy_type, rappel_tiers_json, level_rates_json, default_rate
		FROM special_regularizations WHERE id = ?`, id)

	strat, err := scanStrategy(row)
	if err == sql.ErrNoRows {
		return nil, billing.ErrStrategyNotFound
	}
	return strat, err
}

func (s *Store) ListStrategies(ctx context.Context) ([]billing.SpecialRegularization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, strategy_type, rappel_tiers_json, level_rates_json, default_rate
		FROM special_regularizations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.SpecialRegularization
	for rows.Next() {
		strat, err := scanStrategy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *strat)
	}
	return out, rows.Err()
}

func scanStrategy(row scannable) (*billing.SpecialRegularization, error) {
	var strat billing.SpecialRegularization
	var tiers, rates, defaultRate sql.NullString

	err := row.Scan(&strat.ID, &strat.Name, &strat.Type, &tiers, &rates, &defaultRate)
	if err != nil {
		return nil, err
	}

	// Decode once here; the engine only ever sees typed values.
	if tiers.Valid && tiers.String != "" && tiers.String != "null" {
		_ = json.Unmarshal([]byte(tiers.String), &strat.RappelTiers)
	}
	if rates.Valid && rates.String != "" && rates.String != "null" {
		_ = json.Unmarshal([]byte(rates.String), &strat.LevelRates)
	}
	if defaultRate.Valid {
		strat.DefaultRate = billing.Money{Value: billing.MustParseDecimal(defaultRate.String)}
	}
	return &strat, nil
}

func (s *Store) DeleteStrategy(ctx context.Context, id billing.StrategyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM validity_periods WHERE strategy_id = ?`, id)
	if err != nil {
		return err
	}
	defer rows.Close()

	var holders []billing.PeriodID
	for rows.Next() {
		var pid billing.PeriodID
		if err := rows.Scan(&pid); err != nil {
			return err
		}
		holders = append(holders, pid)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(holders) > 0 {
		return &billing.StrategyInUseError{StrategyID: id, Periods: holders}
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM special_regularizations WHERE id = ?`, id)
	return err
}

// =============================================================================
// IMPORT LOG STORE
// =============================================================================

func (s *Store) AppendImportLog(ctx context.Context, entry billing.ImportLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_logs
		(id, work_package_id, started_at, completed_at, processed, errored, total_hours, success, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.WorkPackageID, formatTime(entry.StartedAt), formatTime(entry.CompletedAt),
		entry.Processed, entry.Errored, entry.TotalHours.Value.String(), entry.Success, entry.Message,
	)
	return err
}

func (s *Store) ListImportLogs(ctx context.Context, limit int) ([]billing.ImportLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, work_package_id, started_at, completed_at, processed, errored, total_hours, success, message
		FROM import_logs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.ImportLog
	for rows.Next() {
		var entry billing.ImportLog
		var started, completed, hours string
		var message sql.NullString
		if err := rows.Scan(&entry.ID, &entry.WorkPackageID, &started, &completed,
			&entry.Processed, &entry.Errored, &hours, &entry.Success, &message); err != nil {
			return nil, err
		}
		entry.StartedAt = parseTime(started)
		entry.CompletedAt = parseTime(completed)
		entry.TotalHours = billing.Hours{Value: billing.MustParseDecimal(hours)}
		entry.Message = message.String
		out = append(out, entry)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseDate(s string) billing.TimePoint {
	t, _ := time.Parse("2006-01-02", s)
	return billing.TimePoint{Time: t}
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

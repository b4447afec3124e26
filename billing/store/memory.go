// Package store provides an in-memory billing.SyncStore for tests and dev.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/amflow/billing-engine/billing"
)

// =============================================================================
// MEMORY STORE - implements every billing store interface
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	workPackages map[billing.WorkPackageID]billing.WorkPackage
	periods      map[billing.PeriodID]billing.ValidityPeriod
	ledger       map[ledgerKey][]billing.WorklogEntry
	metrics      map[billing.WorkPackageID][]billing.MonthlyMetric
	regs         map[billing.RegularizationID]billing.Regularization
	strategies   map[billing.StrategyID]billing.SpecialRegularization
	imports      []billing.ImportLog
}

type ledgerKey struct {
	WP     billing.WorkPackageID
	Period billing.PeriodID
}

func NewMemory() *Memory {
	return &Memory{
		workPackages: make(map[billing.WorkPackageID]billing.WorkPackage),
		periods:      make(map[billing.PeriodID]billing.ValidityPeriod),
		ledger:       make(map[ledgerKey][]billing.WorklogEntry),
		metrics:      make(map[billing.WorkPackageID][]billing.MonthlyMetric),
		regs:         make(map[billing.RegularizationID]billing.Regularization),
		strategies:   make(map[billing.StrategyID]billing.SpecialRegularization),
	}
}

// =============================================================================
// CONTRACT STORE
// =============================================================================

func (m *Memory) GetWorkPackage(_ context.Context, id billing.WorkPackageID) (*billing.WorkPackage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wp, ok := m.workPackages[id]
	if !ok {
		return nil, billing.ErrContractNotFound
	}
	return &wp, nil
}

func (m *Memory) ListWorkPackages(_ context.Context) ([]billing.WorkPackage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]billing.WorkPackage, 0, len(m.workPackages))
	for _, wp := range m.workPackages {
		out = append(out, wp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveWorkPackage(_ context.Context, wp *billing.WorkPackage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workPackages[wp.ID] = *wp
	return nil
}

func (m *Memory) TouchSynced(_ context.Context, id billing.WorkPackageID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	wp, ok := m.workPackages[id]
	if !ok {
		return billing.ErrContractNotFound
	}
	wp.LastSyncedAt = at
	m.workPackages[id] = wp
	return nil
}

func (m *Memory) ListStaleWorkPackages(_ context.Context, olderThan time.Time, limit int) ([]billing.WorkPackage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]billing.WorkPackage, 0, len(m.workPackages))
	for _, wp := range m.workPackages {
		if wp.LastSyncedAt.IsZero() || wp.LastSyncedAt.Before(olderThan) {
			out = append(out, wp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSyncedAt.Equal(out[j].LastSyncedAt) {
			return out[i].LastSyncedAt.Before(out[j].LastSyncedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) GetPeriod(_ context.Context, id billing.PeriodID) (*billing.ValidityPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.periods[id]
	if !ok {
		return nil, billing.ErrPeriodNotFound
	}
	return &p, nil
}

func (m *Memory) ListPeriods(_ context.Context, wpID billing.WorkPackageID) ([]billing.ValidityPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listPeriodsLocked(wpID), nil
}

func (m *Memory) listPeriodsLocked(wpID billing.WorkPackageID) []billing.ValidityPeriod {
	var out []billing.ValidityPeriod
	for _, p := range m.periods {
		if p.WorkPackageID == wpID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func (m *Memory) SavePeriod(_ context.Context, p *billing.ValidityPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := billing.ValidatePeriods(*p, m.listPeriodsLocked(p.WorkPackageID)); err != nil {
		return err
	}
	m.periods[p.ID] = *p
	return nil
}

// =============================================================================
// LEDGER STORE
// =============================================================================

func (m *Memory) ReplaceForPeriod(_ context.Context, wpID billing.WorkPackageID, periodID billing.PeriodID, rows []billing.WorklogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	replacement := make([]billing.WorklogEntry, len(rows))
	copy(replacement, rows)
	m.ledger[ledgerKey{WP: wpID, Period: periodID}] = replacement
	return nil
}

func (m *Memory) ListForPeriod(_ context.Context, wpID billing.WorkPackageID, periodID billing.PeriodID) ([]billing.WorklogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.ledger[ledgerKey{WP: wpID, Period: periodID}]
	out := make([]billing.WorklogEntry, len(rows))
	copy(out, rows)
	return out, nil
}

func (m *Memory) ListForContract(_ context.Context, wpID billing.WorkPackageID) ([]billing.WorklogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []billing.WorklogEntry
	for k, rows := range m.ledger {
		if k.WP == wpID {
			out = append(out, rows...)
		}
	}
	return out, nil
}

func (m *Memory) HasEntry(_ context.Context, wpID billing.WorkPackageID, issueKey string, month billing.MonthKey) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, rows := range m.ledger {
		if k.WP != wpID {
			continue
		}
		for _, row := range rows {
			if row.IssueKey == issueKey && row.Year == month.Year && row.Month == month.Month {
				return true, nil
			}
		}
	}
	return false, nil
}

// =============================================================================
// METRIC STORE
// =============================================================================

func (m *Memory) ReplaceMetrics(_ context.Context, wpID billing.WorkPackageID, metrics []billing.MonthlyMetric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	replacement := make([]billing.MonthlyMetric, len(metrics))
	copy(replacement, metrics)
	m.metrics[wpID] = replacement
	return nil
}

func (m *Memory) ListMetrics(_ context.Context, wpID billing.WorkPackageID) ([]billing.MonthlyMetric, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]billing.MonthlyMetric, len(m.metrics[wpID]))
	copy(out, m.metrics[wpID])
	return out, nil
}

// =============================================================================
// REGULARIZATION STORES
// =============================================================================

func (m *Memory) SaveRegularization(_ context.Context, r *billing.Regularization) error {
	if r.Type == billing.RegManualConsumption && r.TicketRef == "" {
		return billing.ErrMissingTicketRef
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[r.ID] = *r
	return nil
}

func (m *Memory) DeleteRegularization(_ context.Context, id billing.RegularizationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.regs, id)
	return nil
}

func (m *Memory) ListRegularizations(_ context.Context, wpID billing.WorkPackageID) ([]billing.Regularization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []billing.Regularization
	for _, r := range m.regs {
		if r.WorkPackageID == wpID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) SaveStrategy(_ context.Context, s *billing.SpecialRegularization) error {
	if err := billing.ValidateStrategy(s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strategies[s.ID] = *s
	return nil
}

func (m *Memory) GetStrategy(_ context.Context, id billing.StrategyID) (*billing.SpecialRegularization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.strategies[id]
	if !ok {
		return nil, billing.ErrStrategyNotFound
	}
	return &s, nil
}

func (m *Memory) ListStrategies(_ context.Context) ([]billing.SpecialRegularization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]billing.SpecialRegularization, 0, len(m.strategies))
	for _, s := range m.strategies {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteStrategy(_ context.Context, id billing.StrategyID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var holders []billing.PeriodID
	for _, p := range m.periods {
		if p.StrategyID == id {
			holders = append(holders, p.ID)
		}
	}
	if len(holders) > 0 {
		return &billing.StrategyInUseError{StrategyID: id, Periods: holders}
	}
	delete(m.strategies, id)
	return nil
}

// =============================================================================
// IMPORT LOG STORE
// =============================================================================

func (m *Memory) AppendImportLog(_ context.Context, entry billing.ImportLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imports = append(m.imports, entry)
	return nil
}

func (m *Memory) ListImportLogs(_ context.Context, limit int) ([]billing.ImportLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]billing.ImportLog, len(m.imports))
	copy(out, m.imports)
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

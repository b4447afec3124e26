/*
aggregate.go - Ledger-to-metric monthly rollup

PURPOSE:
  Recomputes MonthlyMetric rows for a contract from its ledger. Runs after
  every sync so the metrics always agree with the ledger, including after
  ledger corrections.

GUARANTEE:
  Metrics are a pure function of (current ledger, correction rules). They
  are replaced wholesale, never incrementally patched, so they cannot drift.

CORRECTION:
  When the contract configures correction tiers, hours are summed per
  ticket per month and corrected per ticket BEFORE the monthly sum. Two
  20-minute tickets in one month bill as 2 x 0.5h, not correction(0.66h).

EVENTS CONTRACTS:
  Ticket-count billing: the metric counts distinct issues per month instead
  of summing hours.
*/
package billing

import (
	"context"
	"sort"
)

// Aggregator rolls normalized worklog rows into per-month consumption.
type Aggregator struct {
	Ledger  LedgerStore
	Metrics MetricStore
}

func NewAggregator(ledger LedgerStore, metrics MetricStore) *Aggregator {
	return &Aggregator{Ledger: ledger, Metrics: metrics}
}

// Recompute rebuilds all monthly metrics for a contract from its ledger
// and persists them, replacing whatever was there.
func (a *Aggregator) Recompute(ctx context.Context, wp *WorkPackage) ([]MonthlyMetric, error) {
	rows, err := a.Ledger.ListForContract(ctx, wp.ID)
	if err != nil {
		return nil, err
	}

	metrics := ComputeMonthlyMetrics(wp, rows)
	if err := a.Metrics.ReplaceMetrics(ctx, wp.ID, metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

// ComputeMonthlyMetrics is the pure rollup, exposed for tests and read paths.
func ComputeMonthlyMetrics(wp *WorkPackage, rows []WorklogEntry) []MonthlyMetric {
	if wp.Type == ContractEvents {
		return countTicketsPerMonth(wp.ID, rows)
	}
	return sumHoursPerMonth(wp, rows)
}

func sumHoursPerMonth(wp *WorkPackage, rows []WorklogEntry) []MonthlyMetric {
	type bucket struct {
		month MonthKey
		issue string
	}

	perTicket := make(map[bucket]Hours)
	for _, row := range rows {
		k := bucket{month: MonthKey{Year: row.Year, Month: row.Month}, issue: row.IssueKey}
		perTicket[k] = perTicket[k].Add(row.Hours)
	}

	perMonth := make(map[MonthKey]Hours)
	for k, hours := range perTicket {
		if len(wp.CorrectionTiers) > 0 {
			hours = ApplyCorrection(hours, wp.CorrectionTiers)
		}
		perMonth[k.month] = perMonth[k.month].Add(hours)
	}

	return toMetrics(wp.ID, perMonth)
}

func countTicketsPerMonth(wpID WorkPackageID, rows []WorklogEntry) []MonthlyMetric {
	seen := make(map[MonthKey]map[string]bool)
	for _, row := range rows {
		mk := MonthKey{Year: row.Year, Month: row.Month}
		if seen[mk] == nil {
			seen[mk] = make(map[string]bool)
		}
		seen[mk][row.IssueKey] = true
	}

	perMonth := make(map[MonthKey]Hours)
	for mk, issues := range seen {
		perMonth[mk] = NewHoursFromInt(len(issues))
	}
	return toMetrics(wpID, perMonth)
}

func toMetrics(wpID WorkPackageID, perMonth map[MonthKey]Hours) []MonthlyMetric {
	metrics := make([]MonthlyMetric, 0, len(perMonth))
	for mk, hours := range perMonth {
		metrics = append(metrics, MonthlyMetric{
			WorkPackageID: wpID,
			Year:          mk.Year,
			Month:         mk.Month,
			ConsumedHours: hours,
		})
	}
	sort.Slice(metrics, func(i, j int) bool {
		a := MonthKey{Year: metrics[i].Year, Month: metrics[i].Month}
		b := MonthKey{Year: metrics[j].Year, Month: metrics[j].Month}
		return a.Before(b)
	})
	return metrics
}

/*
consumption.go - Period utilization percentages

PURPOSE:
  Combines contracted quantity, monthly consumption metrics, and
  regularizations into a period-level utilization view for dashboards.

DERIVED VIEW:
  The report is computed on every read and never persisted, so it always
  reflects the latest ledger and regularization state.

CALCULATION:
  monthlyContracted = TotalQuantity / monthCount
  consumed(month)   = metric(month) - sum(RETURN in month) + sum(MANUAL_CONSUMPTION in month)
  extraScope        = sum(EXCESS) + sum(SOBRANTE_ANTERIOR)
  percentage        = totalConsumed / (totalContracted + extraScope) * 100

SEE ALSO:
  - aggregate.go: Produces the MonthlyMetric inputs
  - regularization.go: Prices regularizations (a separate concern)
*/
package billing

import "github.com/shopspring/decimal"

// =============================================================================
// CONSUMPTION REPORT
// =============================================================================

type MonthConsumption struct {
	Year       int
	Month      int
	Contracted Hours
	Consumed   Hours
}

type ConsumptionReport struct {
	PeriodID            PeriodID
	TotalContracted     Hours
	TotalConsumed       Hours
	TotalRegularization Hours // EXCESS + carried-over scope additions
	Months              []MonthConsumption
	Percentage          decimal.Decimal
}

// ComputeConsumption builds the utilization report for one validity period.
// metrics and regs may contain rows outside the period; they are filtered
// here so callers can pass contract-wide slices.
func ComputeConsumption(period ValidityPeriod, metrics []MonthlyMetric, regs []Regularization) ConsumptionReport {
	months := period.Months()
	report := ConsumptionReport{
		PeriodID:        period.ID,
		TotalContracted: period.TotalQuantity,
	}
	if len(months) == 0 {
		return report
	}

	monthlyContracted := period.TotalQuantity.Div(decimal.NewFromInt(int64(len(months))))

	metricByMonth := make(map[MonthKey]Hours, len(metrics))
	for _, m := range metrics {
		metricByMonth[MonthKey{Year: m.Year, Month: m.Month}] = m.ConsumedHours
	}

	returns := make(map[MonthKey]Hours)
	manual := make(map[MonthKey]Hours)
	extraScope := ZeroHours()
	for _, r := range regs {
		if !period.Contains(r.Date) {
			continue
		}
		mk := r.Date.MonthKey()
		switch r.Type {
		case RegReturn:
			returns[mk] = returns[mk].Add(r.Quantity)
		case RegManualConsumption:
			manual[mk] = manual[mk].Add(r.Quantity)
		case RegExcess, RegCarryOver:
			extraScope = extraScope.Add(r.Quantity)
		}
	}

	totalConsumed := ZeroHours()
	for _, mk := range months {
		consumed := metricByMonth[mk].Sub(returns[mk]).Add(manual[mk])
		totalConsumed = totalConsumed.Add(consumed)
		report.Months = append(report.Months, MonthConsumption{
			Year:       mk.Year,
			Month:      int(mk.Month),
			Contracted: monthlyContracted,
			Consumed:   consumed,
		})
	}

	report.TotalConsumed = totalConsumed
	report.TotalRegularization = extraScope

	denominator := period.TotalQuantity.Add(extraScope)
	if denominator.IsZero() {
		return report
	}
	report.Percentage = totalConsumed.Value.
		Div(denominator.Value).
		Mul(decimal.NewFromInt(100))
	return report
}

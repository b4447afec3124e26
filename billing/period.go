package billing

import "time"

// =============================================================================
// VALIDITY PERIOD - a time-bounded slice of a contract
// =============================================================================

// ValidityPeriod carries the contracted quantity and rate for a date range.
// Periods of one contract must not overlap; the store has no constraint for
// this, so ValidatePeriods runs on every create/update.
type ValidityPeriod struct {
	ID            PeriodID
	WorkPackageID WorkPackageID
	Start         TimePoint
	End           TimePoint
	TotalQuantity Hours
	HourlyRate    Money
	Premium       bool
	PremiumPrice  Money

	// StrategyID references a SpecialRegularization. Empty means the
	// standard hourly rate applies.
	StrategyID StrategyID

	CreatedAt time.Time
}

// Contains reports whether t falls within [Start, End].
func (p ValidityPeriod) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Months enumerates the calendar months the period spans.
func (p ValidityPeriod) Months() []MonthKey { return MonthsIn(p.Start, p.End) }

// Validate checks internal consistency of a single period.
func (p ValidityPeriod) Validate() error {
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	if p.TotalQuantity.IsNegative() {
		return ErrInvalidPeriod
	}
	return nil
}

// Overlaps reports whether two periods share any day.
func (p ValidityPeriod) Overlaps(o ValidityPeriod) bool {
	return p.Start.BeforeOrEqual(o.End) && o.Start.BeforeOrEqual(p.End)
}

// =============================================================================
// PERIOD SET OPERATIONS
// =============================================================================

// ValidatePeriods checks that candidate can join existing without overlap.
// A period updating itself (same ID) is excluded from the check.
func ValidatePeriods(candidate ValidityPeriod, existing []ValidityPeriod) error {
	if err := candidate.Validate(); err != nil {
		return err
	}
	for _, p := range existing {
		if p.ID == candidate.ID {
			continue
		}
		if candidate.Overlaps(p) {
			return &PeriodOverlapError{Candidate: candidate.ID, Existing: p.ID}
		}
	}
	return nil
}

// CurrentPeriod returns the period whose range contains now, or nil.
// Non-overlap validation guarantees at most one match.
func CurrentPeriod(periods []ValidityPeriod, now TimePoint) *ValidityPeriod {
	for i := range periods {
		if periods[i].Contains(now) {
			return &periods[i]
		}
	}
	return nil
}

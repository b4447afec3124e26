/*
regularization.go - Billing amount calculation under rate strategies

PURPOSE:
  Computes the money amount of a billing regularization for a volume of
  hours, under one of three strategies:

    none              hours x standard rate
    RAPPEL            hours x matched-tier rate (whole volume at ONE rate)
    CONSULTANT_LEVEL  sum of per-author hours x level rate

RAPPEL SEMANTICS:
  The tier whose band contains the total volume sets the rate for the
  ENTIRE volume. This is not a marginal/bracket calculation: 60 hours under
  tiers [0-50 @ 40, 50+ @ 30] bills 60 x 30 = 1800, not 50x40 + 10x30.
  That is the contracted discount rule, confirmed against billing.

ERROR HANDLING:
  Strategy definitions are decoded and validated once at the store boundary.
  A configuration gap (hours matching no tier) falls back to the highest
  tier's rate rather than failing a billing run.

SEE ALSO:
  - types.go: SpecialRegularization, RappelTier, AuthorHours
  - consumption.go: Combines regularizations into utilization percentages
*/
package billing

import "sort"

// =============================================================================
// AMOUNT CALCULATION
// =============================================================================

// CalculateRegularizationAmount prices a volume of hours. byAuthor is only
// consulted by CONSULTANT_LEVEL strategies; other strategies price the total.
func CalculateRegularizationAmount(hours Hours, standardRate Money, strategy *SpecialRegularization, byAuthor []AuthorHours) Money {
	if strategy == nil {
		return hours.AtRate(standardRate)
	}

	switch strategy.Type {
	case StrategyRappel:
		return rappelAmount(hours, strategy.RappelTiers, standardRate)
	case StrategyConsultantLevel:
		return consultantLevelAmount(byAuthor, strategy)
	default:
		return hours.AtRate(standardRate)
	}
}

func rappelAmount(hours Hours, tiers []RappelTier, standardRate Money) Money {
	if len(tiers) == 0 {
		return hours.AtRate(standardRate)
	}

	sorted := make([]RappelTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinHours.LessThan(sorted[j].MinHours)
	})

	for _, tier := range sorted {
		if tier.MinHours.LessThanOrEqual(hours) && (tier.MaxHours == nil || hours.LessThanOrEqual(*tier.MaxHours)) {
			return hours.AtRate(tier.Rate)
		}
	}

	// Configuration gap: bill the whole volume at the highest tier's rate.
	return hours.AtRate(sorted[len(sorted)-1].Rate)
}

func consultantLevelAmount(byAuthor []AuthorHours, strategy *SpecialRegularization) Money {
	total := ZeroMoney()
	for _, ah := range byAuthor {
		rate, ok := strategy.LevelRates[ah.Level]
		if !ok {
			rate = strategy.DefaultRate
		}
		total = total.Add(ah.Hours.AtRate(rate))
	}
	return total
}

// =============================================================================
// STRATEGY VALIDATION - runs once, when a strategy is created or decoded
// =============================================================================

// ValidateStrategy checks a strategy definition. RAPPEL tiers must be
// non-overlapping and cover [0, inf): the first tier starts at zero, each
// bounded tier's max is the next tier's min, and the last tier is unbounded.
func ValidateStrategy(s *SpecialRegularization) error {
	switch s.Type {
	case StrategyRappel:
		return validateRappelTiers(s.RappelTiers)
	case StrategyConsultantLevel:
		if len(s.LevelRates) == 0 {
			return ErrInvalidStrategy
		}
		for _, rate := range s.LevelRates {
			if rate.IsNegative() {
				return ErrInvalidStrategy
			}
		}
		return nil
	default:
		return ErrInvalidStrategy
	}
}

func validateRappelTiers(tiers []RappelTier) error {
	if len(tiers) == 0 {
		return ErrInvalidStrategy
	}

	sorted := make([]RappelTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinHours.LessThan(sorted[j].MinHours)
	})

	if !sorted[0].MinHours.IsZero() {
		return ErrInvalidStrategy
	}
	for i, tier := range sorted {
		if tier.Rate.IsNegative() {
			return ErrInvalidStrategy
		}
		last := i == len(sorted)-1
		if last {
			if tier.MaxHours != nil {
				return ErrInvalidStrategy
			}
			continue
		}
		if tier.MaxHours == nil {
			return ErrInvalidStrategy
		}
		if !sorted[i+1].MinHours.Equal(*tier.MaxHours) {
			return ErrInvalidStrategy
		}
	}
	return nil
}

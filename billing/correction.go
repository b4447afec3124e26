/*
correction.go - Minimum billable increment correction

PURPOSE:
  Pads short tickets up to a minimum billable unit before their hours count
  toward consumption. A 20-minute ticket bills as 30 minutes; a one-hour
  ticket bills as 1.25 hours. Contracts opt in via WorkPackage.CorrectionTiers.

SEMANTICS:
  Tiers are an ordered list of {Max, Type, Value}. The first tier whose Max
  is >= the reported hours applies (upper bound is INCLUSIVE: a value exactly
  at a boundary uses that tier, not the next). ADD tiers pad, FIXED tiers
  replace. Hours above every tier maximum pass through unchanged.

ROUNDING:
  One decimal place, half away from zero (0.85 -> 0.9).

SEE ALSO:
  - aggregate.go: Applies correction per ticket before summing
*/
package billing

// =============================================================================
// CORRECTION TIERS
// =============================================================================

type CorrectionType string

const (
	CorrectionAdd   CorrectionType = "ADD"   // pad reported hours by Value
	CorrectionFixed CorrectionType = "FIXED" // bill exactly Value
)

type CorrectionTier struct {
	Max   Hours
	Type  CorrectionType
	Value Hours
}

// DefaultCorrectionTiers is the standard AM padding policy: anything up to
// half an hour bills as half an hour, short tickets get a quarter hour,
// longer ones half an hour, and past a full day no padding applies.
func DefaultCorrectionTiers() []CorrectionTier {
	return []CorrectionTier{
		{Max: NewHours(0.5), Type: CorrectionFixed, Value: NewHours(0.5)},
		{Max: NewHours(4), Type: CorrectionAdd, Value: NewHours(0.25)},
		{Max: NewHours(8), Type: CorrectionAdd, Value: NewHours(0.5)},
	}
}

// ApplyCorrection transforms raw reported hours into billable hours.
// Tier upper bounds are inclusive; hours exceeding all maxima are returned
// unchanged.
func ApplyCorrection(reported Hours, tiers []CorrectionTier) Hours {
	for _, tier := range tiers {
		if reported.LessThanOrEqual(tier.Max) {
			switch tier.Type {
			case CorrectionFixed:
				return tier.Value
			case CorrectionAdd:
				return reported.Add(tier.Value).Round1()
			}
		}
	}
	return reported
}

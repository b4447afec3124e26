package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amflow/billing-engine/billing"
)

func period(id string, start, end billing.TimePoint) billing.ValidityPeriod {
	return billing.ValidityPeriod{
		ID:            billing.PeriodID(id),
		WorkPackageID: "wp-1",
		Start:         start,
		End:           end,
		TotalQuantity: billing.NewHours(100),
	}
}

// =============================================================================
// OVERLAP VALIDATION TESTS
// =============================================================================

func TestValidatePeriods_RejectsOverlap(t *testing.T) {
	// GIVEN: An existing period covering the first half of 2025
	// WHEN: Adding a period that starts inside it
	// THEN: The overlap is rejected with both period ids

	existing := []billing.ValidityPeriod{
		period("p-1", billing.NewTimePoint(2025, time.January, 1), billing.NewTimePoint(2025, time.June, 30)),
	}
	candidate := period("p-2", billing.NewTimePoint(2025, time.June, 30), billing.NewTimePoint(2025, time.December, 31))

	err := billing.ValidatePeriods(candidate, existing)

	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrPeriodOverlap)
	var overlap *billing.PeriodOverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, billing.PeriodID("p-2"), overlap.Candidate)
	assert.Equal(t, billing.PeriodID("p-1"), overlap.Existing)
}

func TestValidatePeriods_AdjacentPeriodsAllowed(t *testing.T) {
	// Back-to-back periods (one ends the day before the next starts) are fine.
	existing := []billing.ValidityPeriod{
		period("p-1", billing.NewTimePoint(2025, time.January, 1), billing.NewTimePoint(2025, time.June, 30)),
	}
	candidate := period("p-2", billing.NewTimePoint(2025, time.July, 1), billing.NewTimePoint(2025, time.December, 31))

	assert.NoError(t, billing.ValidatePeriods(candidate, existing))
}

func TestValidatePeriods_UpdateSkipsSelf(t *testing.T) {
	// GIVEN: An update to an existing period (same id)
	// WHEN: Validating against the stored set that includes the old version
	// THEN: The period does not collide with itself

	existing := []billing.ValidityPeriod{
		period("p-1", billing.NewTimePoint(2025, time.January, 1), billing.NewTimePoint(2025, time.June, 30)),
	}
	update := period("p-1", billing.NewTimePoint(2025, time.January, 1), billing.NewTimePoint(2025, time.July, 31))

	assert.NoError(t, billing.ValidatePeriods(update, existing))
}

func TestValidatePeriods_MalformedPeriod(t *testing.T) {
	backwards := period("p-1", billing.NewTimePoint(2025, time.June, 1), billing.NewTimePoint(2025, time.January, 1))
	assert.ErrorIs(t, billing.ValidatePeriods(backwards, nil), billing.ErrInvalidPeriod)

	negative := period("p-2", billing.NewTimePoint(2025, time.January, 1), billing.NewTimePoint(2025, time.June, 1))
	negative.TotalQuantity = billing.NewHours(-10)
	assert.ErrorIs(t, billing.ValidatePeriods(negative, nil), billing.ErrInvalidPeriod)
}

// =============================================================================
// CURRENT PERIOD AND MONTH MATH
// =============================================================================

func TestCurrentPeriod(t *testing.T) {
	periods := []billing.ValidityPeriod{
		period("p-1", billing.NewTimePoint(2024, time.January, 1), billing.NewTimePoint(2024, time.December, 31)),
		period("p-2", billing.NewTimePoint(2025, time.January, 1), billing.NewTimePoint(2025, time.December, 31)),
	}

	current := billing.CurrentPeriod(periods, billing.NewTimePoint(2025, time.March, 15))
	require.NotNil(t, current)
	assert.Equal(t, billing.PeriodID("p-2"), current.ID)

	assert.Nil(t, billing.CurrentPeriod(periods, billing.NewTimePoint(2026, time.March, 15)))
}

func TestPeriodMonths(t *testing.T) {
	// A period from mid-November to mid-February spans four calendar months.
	p := period("p-1", billing.NewTimePoint(2024, time.November, 15), billing.NewTimePoint(2025, time.February, 10))

	months := p.Months()

	require.Len(t, months, 4)
	assert.Equal(t, billing.MonthKey{Year: 2024, Month: time.November}, months[0])
	assert.Equal(t, billing.MonthKey{Year: 2025, Month: time.February}, months[3])
}

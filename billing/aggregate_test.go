package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amflow/billing-engine/billing"
	"github.com/amflow/billing-engine/billing/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func row(issue string, year int, month time.Month, hours float64) billing.WorklogEntry {
	return billing.WorklogEntry{
		ID:            issue + month.String(),
		WorkPackageID: "wp-1",
		PeriodID:      "p-1",
		IssueKey:      issue,
		IssueType:     "Incidencia",
		Hours:         billing.NewHours(hours),
		Year:          year,
		Month:         month,
	}
}

func supportContract(tiers []billing.CorrectionTier) *billing.WorkPackage {
	return &billing.WorkPackage{
		ID:              "wp-1",
		Name:            "ACME support",
		Type:            billing.ContractSupport,
		JiraProjects:    []string{"ACME"},
		CorrectionTiers: tiers,
	}
}

// =============================================================================
// MONTHLY ROLLUP TESTS
// =============================================================================

func TestComputeMonthlyMetrics_SumsPerMonth(t *testing.T) {
	rows := []billing.WorklogEntry{
		row("ACME-1", 2025, time.January, 2),
		row("ACME-2", 2025, time.January, 3),
		row("ACME-3", 2025, time.February, 4),
	}

	metrics := billing.ComputeMonthlyMetrics(supportContract(nil), rows)

	require.Len(t, metrics, 2)
	assert.Equal(t, "5", metrics[0].ConsumedHours.String())
	assert.Equal(t, time.January, metrics[0].Month)
	assert.Equal(t, "4", metrics[1].ConsumedHours.String())
}

func TestComputeMonthlyMetrics_CorrectionPerTicketNotPerMonth(t *testing.T) {
	// GIVEN: Two 20-minute tickets in one month, fixed 0.5h minimum
	// WHEN: Rolling up
	// THEN: Each ticket is corrected individually: 2 x 0.5 = 1h,
	//       not correction(0.67h) = 0.5h

	tiers := []billing.CorrectionTier{
		{Max: billing.NewHours(0.5), Type: billing.CorrectionFixed, Value: billing.NewHours(0.5)},
	}
	rows := []billing.WorklogEntry{
		row("ACME-1", 2025, time.March, 0.33),
		row("ACME-2", 2025, time.March, 0.33),
	}

	metrics := billing.ComputeMonthlyMetrics(supportContract(tiers), rows)

	require.Len(t, metrics, 1)
	assert.Equal(t, "1", metrics[0].ConsumedHours.String())
}

func TestComputeMonthlyMetrics_TicketSummedBeforeCorrection(t *testing.T) {
	// GIVEN: Two worklogs of 0.3h on the SAME ticket in the same month
	// WHEN: Rolling up with the fixed 0.5h minimum
	// THEN: The ticket's 0.6h total exceeds the tier, so it passes through:
	//       one ticket, 0.6h, not 2 x 0.5h

	tiers := []billing.CorrectionTier{
		{Max: billing.NewHours(0.5), Type: billing.CorrectionFixed, Value: billing.NewHours(0.5)},
	}
	rows := []billing.WorklogEntry{
		row("ACME-1", 2025, time.March, 0.3),
		{ID: "second", WorkPackageID: "wp-1", PeriodID: "p-1", IssueKey: "ACME-1",
			Hours: billing.NewHours(0.3), Year: 2025, Month: time.March},
	}

	metrics := billing.ComputeMonthlyMetrics(supportContract(tiers), rows)

	require.Len(t, metrics, 1)
	assert.Equal(t, "0.6", metrics[0].ConsumedHours.String())
}

func TestComputeMonthlyMetrics_EventsContractCountsDistinctTickets(t *testing.T) {
	// GIVEN: An events contract with three rows over two distinct issues
	// WHEN: Rolling up
	// THEN: The metric counts issues, not hours

	wp := &billing.WorkPackage{ID: "wp-1", Type: billing.ContractEvents}
	rows := []billing.WorklogEntry{
		row("ACME-1", 2025, time.May, 0),
		row("ACME-2", 2025, time.May, 0),
		{ID: "dup", WorkPackageID: "wp-1", IssueKey: "ACME-1", Year: 2025, Month: time.May},
	}

	metrics := billing.ComputeMonthlyMetrics(wp, rows)

	require.Len(t, metrics, 1)
	assert.Equal(t, "2", metrics[0].ConsumedHours.String())
}

func TestAggregator_RecomputeReplacesMetrics(t *testing.T) {
	// GIVEN: A contract with stale metrics for a month no longer in the ledger
	// WHEN: Recomputing after the ledger shrank
	// THEN: The stale month disappears; metrics mirror the ledger exactly

	ctx := context.Background()
	mem := store.NewMemory()
	wp := supportContract(nil)
	require.NoError(t, mem.SaveWorkPackage(ctx, wp))

	require.NoError(t, mem.ReplaceForPeriod(ctx, wp.ID, "p-1", []billing.WorklogEntry{
		row("ACME-1", 2025, time.January, 2),
		row("ACME-2", 2025, time.February, 3),
	}))

	agg := billing.NewAggregator(mem, mem)
	_, err := agg.Recompute(ctx, wp)
	require.NoError(t, err)

	// Shrink the ledger to January only and recompute.
	require.NoError(t, mem.ReplaceForPeriod(ctx, wp.ID, "p-1", []billing.WorklogEntry{
		row("ACME-1", 2025, time.January, 2),
	}))
	_, err = agg.Recompute(ctx, wp)
	require.NoError(t, err)

	metrics, err := mem.ListMetrics(ctx, wp.ID)
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, time.January, metrics[0].Month)
	assert.Equal(t, "2", metrics[0].ConsumedHours.String())
}

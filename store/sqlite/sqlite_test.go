package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amflow/billing-engine/billing"
	"github.com/amflow/billing-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testContract(id string) *billing.WorkPackage {
	return &billing.WorkPackage{
		ID:                   billing.WorkPackageID(id),
		ClientRef:            "client-1",
		Name:                 "ACME support",
		Type:                 billing.ContractSupport,
		JiraProjects:         []string{"ACME", "ACME2"},
		TempoAccountKey:      "ACME-CO",
		IncludeEvolutivo:     true,
		EvolutivoBillingMode: "Bolsa de horas",
		StandardIssueTypes:   []string{"Incidencia", "Consulta"},
		CorrectionTiers:      billing.DefaultCorrectionTiers(),
	}
}

func testPeriod(id, wpID string, start, end billing.TimePoint) *billing.ValidityPeriod {
	return &billing.ValidityPeriod{
		ID:            billing.PeriodID(id),
		WorkPackageID: billing.WorkPackageID(wpID),
		Start:         start,
		End:           end,
		TotalQuantity: billing.NewHours(120),
		HourlyRate:    billing.NewMoney(45),
	}
}

func testRow(id, wpID, periodID, issue string, month time.Month, hours float64) billing.WorklogEntry {
	return billing.WorklogEntry{
		ID:            id,
		WorkPackageID: billing.WorkPackageID(wpID),
		PeriodID:      billing.PeriodID(periodID),
		IssueKey:      issue,
		IssueType:     "Incidencia",
		BillingMode:   "Bolsa de horas",
		Hours:         billing.NewHours(hours),
		Year:          2025,
		Month:         month,
		Author:        "acc-1",
	}
}

// =============================================================================
// CONTRACT ROUND-TRIP TESTS
// =============================================================================

func TestWorkPackage_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	wp := testContract("wp-1")
	require.NoError(t, store.SaveWorkPackage(ctx, wp))

	got, err := store.GetWorkPackage(ctx, "wp-1")
	require.NoError(t, err)

	assert.Equal(t, wp.Name, got.Name)
	assert.Equal(t, wp.JiraProjects, got.JiraProjects)
	assert.Equal(t, wp.StandardIssueTypes, got.StandardIssueTypes)
	assert.True(t, got.IncludeEvolutivo)
	assert.Equal(t, "Bolsa de horas", got.EvolutivoBillingMode)
	require.Len(t, got.CorrectionTiers, 3)
	assert.Equal(t, "0.5", got.CorrectionTiers[0].Max.String())
	assert.Equal(t, billing.CorrectionFixed, got.CorrectionTiers[0].Type)
	assert.True(t, got.LastSyncedAt.IsZero(), "never synced")
}

func TestWorkPackage_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetWorkPackage(context.Background(), "ghost")
	assert.ErrorIs(t, err, billing.ErrContractNotFound)
}

func TestTouchSynced_AdvancesWatermark(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveWorkPackage(ctx, testContract("wp-1")))

	at := time.Date(2025, time.June, 1, 3, 0, 0, 0, time.UTC)
	require.NoError(t, store.TouchSynced(ctx, "wp-1", at))

	got, err := store.GetWorkPackage(ctx, "wp-1")
	require.NoError(t, err)
	assert.True(t, got.LastSyncedAt.Equal(at))

	assert.ErrorIs(t, store.TouchSynced(ctx, "ghost", at), billing.ErrContractNotFound)
}

func TestListStaleWorkPackages_NeverSyncedFirst(t *testing.T) {
	// GIVEN: One freshly synced, one stale, one never-synced contract
	// WHEN: Listing stale contracts with a cutoff between the two syncs
	// THEN: Never-synced leads, fresh is excluded

	store := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"wp-fresh", "wp-old", "wp-new"} {
		require.NoError(t, store.SaveWorkPackage(ctx, testContract(id)))
	}
	require.NoError(t, store.TouchSynced(ctx, "wp-fresh", time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, store.TouchSynced(ctx, "wp-old", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))

	cutoff := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	stale, err := store.ListStaleWorkPackages(ctx, cutoff, 10)
	require.NoError(t, err)

	require.Len(t, stale, 2)
	assert.Equal(t, billing.WorkPackageID("wp-new"), stale[0].ID)
	assert.Equal(t, billing.WorkPackageID("wp-old"), stale[1].ID)
}

// =============================================================================
// PERIOD TESTS
// =============================================================================

func TestSavePeriod_RejectsOverlap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveWorkPackage(ctx, testContract("wp-1")))

	require.NoError(t, store.SavePeriod(ctx, testPeriod("p-1", "wp-1",
		billing.NewTimePoint(2025, time.January, 1), billing.NewTimePoint(2025, time.June, 30))))

	err := store.SavePeriod(ctx, testPeriod("p-2", "wp-1",
		billing.NewTimePoint(2025, time.June, 1), billing.NewTimePoint(2025, time.December, 31)))
	assert.ErrorIs(t, err, billing.ErrPeriodOverlap)

	// Updating p-1 itself is not an overlap.
	update := testPeriod("p-1", "wp-1",
		billing.NewTimePoint(2025, time.January, 1), billing.NewTimePoint(2025, time.July, 31))
	assert.NoError(t, store.SavePeriod(ctx, update))
}

func TestSavePeriod_ConcurrentOverlapRejected(t *testing.T) {
	// GIVEN: Two overlapping periods saved from concurrent goroutines
	// WHEN: Both race through validation
	// THEN: Exactly one lands; validation and insert share one write lock,
	//       so neither can validate against a stale snapshot

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveWorkPackage(ctx, testContract("wp-1")))

	a := testPeriod("p-a", "wp-1",
		billing.NewTimePoint(2025, time.January, 1), billing.NewTimePoint(2025, time.June, 30))
	b := testPeriod("p-b", "wp-1",
		billing.NewTimePoint(2025, time.June, 1), billing.NewTimePoint(2025, time.December, 31))

	errs := make(chan error, 2)
	for _, p := range []*billing.ValidityPeriod{a, b} {
		p := p
		go func() { errs <- store.SavePeriod(ctx, p) }()
	}

	var rejected int
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			assert.ErrorIs(t, err, billing.ErrPeriodOverlap)
			rejected++
		}
	}
	assert.Equal(t, 1, rejected, "exactly one of the racing saves wins")

	periods, err := store.ListPeriods(ctx, "wp-1")
	require.NoError(t, err)
	assert.Len(t, periods, 1)
}

func TestPeriod_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveWorkPackage(ctx, testContract("wp-1")))

	p := testPeriod("p-1", "wp-1",
		billing.NewTimePoint(2025, time.January, 1), billing.NewTimePoint(2025, time.December, 31))
	p.Premium = true
	p.PremiumPrice = billing.NewMoney(500)
	p.StrategyID = "rappel-1"
	require.NoError(t, store.SavePeriod(ctx, p))

	got, err := store.GetPeriod(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", got.Start.String())
	assert.Equal(t, "120", got.TotalQuantity.String())
	assert.Equal(t, "45", got.HourlyRate.String())
	assert.True(t, got.Premium)
	assert.Equal(t, "500", got.PremiumPrice.String())
	assert.Equal(t, billing.StrategyID("rappel-1"), got.StrategyID)

	_, err = store.GetPeriod(ctx, "ghost")
	assert.ErrorIs(t, err, billing.ErrPeriodNotFound)
}

// =============================================================================
// LEDGER TESTS
// =============================================================================

func TestReplaceForPeriod_SwapsAtomically(t *testing.T) {
	// GIVEN: A period with two ledger rows
	// WHEN: Replacing with a single different row
	// THEN: Only the new row remains; other periods are untouched

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceForPeriod(ctx, "wp-1", "p-1", []billing.WorklogEntry{
		testRow("r1", "wp-1", "p-1", "ACME-1", time.January, 2),
		testRow("r2", "wp-1", "p-1", "ACME-2", time.February, 3),
	}))
	require.NoError(t, store.ReplaceForPeriod(ctx, "wp-1", "p-2", []billing.WorklogEntry{
		testRow("r3", "wp-1", "p-2", "ACME-3", time.July, 1),
	}))

	require.NoError(t, store.ReplaceForPeriod(ctx, "wp-1", "p-1", []billing.WorklogEntry{
		testRow("r4", "wp-1", "p-1", "ACME-9", time.March, 5),
	}))

	rows, err := store.ListForPeriod(ctx, "wp-1", "p-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ACME-9", rows[0].IssueKey)
	assert.Equal(t, "5", rows[0].Hours.String())
	assert.Equal(t, time.March, rows[0].Month)

	all, err := store.ListForContract(ctx, "wp-1")
	require.NoError(t, err)
	assert.Len(t, all, 2, "p-2 rows survive the p-1 replace")
}

func TestReplaceForPeriod_EmptyClearsPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceForPeriod(ctx, "wp-1", "p-1", []billing.WorklogEntry{
		testRow("r1", "wp-1", "p-1", "ACME-1", time.January, 2),
	}))
	require.NoError(t, store.ReplaceForPeriod(ctx, "wp-1", "p-1", nil))

	rows, err := store.ListForPeriod(ctx, "wp-1", "p-1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestHasEntry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceForPeriod(ctx, "wp-1", "p-1", []billing.WorklogEntry{
		testRow("r1", "wp-1", "p-1", "ACME-7", time.March, 2),
	}))

	ok, err := store.HasEntry(ctx, "wp-1", "ACME-7", billing.MonthKey{Year: 2025, Month: time.March})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.HasEntry(ctx, "wp-1", "ACME-7", billing.MonthKey{Year: 2025, Month: time.April})
	require.NoError(t, err)
	assert.False(t, ok, "same ticket, different month")

	ok, err = store.HasEntry(ctx, "wp-2", "ACME-7", billing.MonthKey{Year: 2025, Month: time.March})
	require.NoError(t, err)
	assert.False(t, ok, "same ticket, different contract")
}

// =============================================================================
// METRIC TESTS
// =============================================================================

func TestReplaceMetrics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceMetrics(ctx, "wp-1", []billing.MonthlyMetric{
		{WorkPackageID: "wp-1", Year: 2025, Month: time.January, ConsumedHours: billing.NewHours(10)},
		{WorkPackageID: "wp-1", Year: 2025, Month: time.February, ConsumedHours: billing.NewHours(12.5)},
	}))

	// Recompute after the ledger shrank: February disappears.
	require.NoError(t, store.ReplaceMetrics(ctx, "wp-1", []billing.MonthlyMetric{
		{WorkPackageID: "wp-1", Year: 2025, Month: time.January, ConsumedHours: billing.NewHours(8)},
	}))

	metrics, err := store.ListMetrics(ctx, "wp-1")
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, time.January, metrics[0].Month)
	assert.Equal(t, "8", metrics[0].ConsumedHours.String())
}

// =============================================================================
// REGULARIZATION AND STRATEGY TESTS
// =============================================================================

func TestSaveRegularization_ManualRequiresTicket(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.SaveRegularization(ctx, &billing.Regularization{
		ID:            "reg-1",
		WorkPackageID: "wp-1",
		Date:          billing.NewTimePoint(2025, time.March, 5),
		Type:          billing.RegManualConsumption,
		Quantity:      billing.NewHours(2),
	})
	assert.ErrorIs(t, err, billing.ErrMissingTicketRef)

	err = store.SaveRegularization(ctx, &billing.Regularization{
		ID:            "reg-1",
		WorkPackageID: "wp-1",
		Date:          billing.NewTimePoint(2025, time.March, 5),
		Type:          billing.RegManualConsumption,
		Quantity:      billing.NewHours(2),
		TicketRef:     "ACME-7",
	})
	assert.NoError(t, err)

	regs, err := store.ListRegularizations(ctx, "wp-1")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "ACME-7", regs[0].TicketRef)
	assert.Equal(t, "2025-03-05", regs[0].Date.String())
}

func TestStrategy_RoundTripAndDeleteGuard(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	max := billing.NewHours(50)
	strategy := &billing.SpecialRegularization{
		ID:   "rappel-1",
		Name: "Volume discount",
		Type: billing.StrategyRappel,
		RappelTiers: []billing.RappelTier{
			{MinHours: billing.NewHours(0), MaxHours: &max, Rate: billing.NewMoney(40)},
			{MinHours: billing.NewHours(50), Rate: billing.NewMoney(30)},
		},
	}
	require.NoError(t, store.SaveStrategy(ctx, strategy))

	got, err := store.GetStrategy(ctx, "rappel-1")
	require.NoError(t, err)
	require.Len(t, got.RappelTiers, 2)
	require.NotNil(t, got.RappelTiers[0].MaxHours)
	assert.Equal(t, "50", got.RappelTiers[0].MaxHours.String())
	assert.Nil(t, got.RappelTiers[1].MaxHours)

	// Reference the strategy from a period, then try to delete it.
	require.NoError(t, store.SaveWorkPackage(ctx, testContract("wp-1")))
	p := testPeriod("p-1", "wp-1",
		billing.NewTimePoint(2025, time.January, 1), billing.NewTimePoint(2025, time.December, 31))
	p.StrategyID = "rappel-1"
	require.NoError(t, store.SavePeriod(ctx, p))

	err = store.DeleteStrategy(ctx, "rappel-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrStrategyInUse)
	var inUse *billing.StrategyInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, []billing.PeriodID{"p-1"}, inUse.Periods)

	// Detach and retry.
	p.StrategyID = ""
	require.NoError(t, store.SavePeriod(ctx, p))
	require.NoError(t, store.DeleteStrategy(ctx, "rappel-1"))

	_, err = store.GetStrategy(ctx, "rappel-1")
	assert.ErrorIs(t, err, billing.ErrStrategyNotFound)
}

func TestSaveStrategy_ValidatesDefinition(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveStrategy(context.Background(), &billing.SpecialRegularization{
		ID:   "bad",
		Type: billing.StrategyRappel,
		RappelTiers: []billing.RappelTier{
			{MinHours: billing.NewHours(10), Rate: billing.NewMoney(40)},
		},
	})
	assert.ErrorIs(t, err, billing.ErrInvalidStrategy)
}

// =============================================================================
// IMPORT LOG TESTS
// =============================================================================

func TestImportLogs_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, started := range []time.Time{
		time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC),
	} {
		require.NoError(t, store.AppendImportLog(ctx, billing.ImportLog{
			ID:            string(rune('a' + i)),
			WorkPackageID: "wp-1",
			StartedAt:     started,
			CompletedAt:   started.Add(time.Minute),
			Processed:     10,
			TotalHours:    billing.NewHours(12),
			Success:       true,
		}))
	}

	logs, err := store.ListImportLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.True(t, logs[0].StartedAt.After(logs[1].StartedAt))
	assert.Equal(t, "12", logs[0].TotalHours.String())

	logs, err = store.ListImportLogs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amflow/billing-engine/billing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func hoursPtr(v float64) *billing.Hours {
	h := billing.NewHours(v)
	return &h
}

func rappelStrategy() *billing.SpecialRegularization {
	return &billing.SpecialRegularization{
		ID:   "rappel-1",
		Name: "Volume discount",
		Type: billing.StrategyRappel,
		RappelTiers: []billing.RappelTier{
			{MinHours: billing.NewHours(0), MaxHours: hoursPtr(50), Rate: billing.NewMoney(40)},
			{MinHours: billing.NewHours(50), Rate: billing.NewMoney(30)},
		},
	}
}

// =============================================================================
// RAPPEL STRATEGY TESTS
// =============================================================================

func TestRappel_WholeVolumeAtMatchedTier(t *testing.T) {
	// GIVEN: Tiers [0-50 @ 40, 50+ @ 30]
	// WHEN: Pricing 60 hours
	// THEN: The ENTIRE volume bills at the 50+ rate: 60 x 30 = 1800,
	//       not 50x40 + 10x30 = 2300

	amount := billing.CalculateRegularizationAmount(
		billing.NewHours(60), billing.NewMoney(45), rappelStrategy(), nil)

	assert.Equal(t, "1800", amount.String())
}

func TestRappel_LowVolumeUsesFirstTier(t *testing.T) {
	// GIVEN: Tiers [0-50 @ 40, 50+ @ 30]
	// WHEN: Pricing 20 hours
	// THEN: 20 x 40 = 800

	amount := billing.CalculateRegularizationAmount(
		billing.NewHours(20), billing.NewMoney(45), rappelStrategy(), nil)

	assert.Equal(t, "800", amount.String())
}

func TestRappel_BoundaryVolumeMatchesBoundedTier(t *testing.T) {
	// GIVEN: Tiers [0-50 @ 40, 50+ @ 30]
	// WHEN: Pricing exactly 50 hours
	// THEN: The first tier's inclusive max applies: 50 x 40 = 2000

	amount := billing.CalculateRegularizationAmount(
		billing.NewHours(50), billing.NewMoney(45), rappelStrategy(), nil)

	assert.Equal(t, "2000", amount.String())
}

func TestRappel_GapFallsBackToHighestTier(t *testing.T) {
	// GIVEN: A misconfigured tier set with a hole between 50 and 80
	// WHEN: Pricing 60 hours (matches no tier)
	// THEN: The whole volume bills at the highest tier's rate instead of
	//       failing the billing run

	strategy := &billing.SpecialRegularization{
		Type: billing.StrategyRappel,
		RappelTiers: []billing.RappelTier{
			{MinHours: billing.NewHours(0), MaxHours: hoursPtr(50), Rate: billing.NewMoney(40)},
			{MinHours: billing.NewHours(80), Rate: billing.NewMoney(25)},
		},
	}

	amount := billing.CalculateRegularizationAmount(
		billing.NewHours(60), billing.NewMoney(45), strategy, nil)

	assert.Equal(t, "1500", amount.String(), "60 x 25 at the highest tier")
}

func TestRappel_NoTiersUsesStandardRate(t *testing.T) {
	strategy := &billing.SpecialRegularization{Type: billing.StrategyRappel}

	amount := billing.CalculateRegularizationAmount(
		billing.NewHours(10), billing.NewMoney(45), strategy, nil)

	assert.Equal(t, "450", amount.String())
}

// =============================================================================
// CONSULTANT LEVEL STRATEGY TESTS
// =============================================================================

func TestConsultantLevel_PerAuthorRates(t *testing.T) {
	// GIVEN: Senior bills at 60, junior at 35, unknown levels at 45
	// WHEN: Pricing 10 senior + 20 junior + 5 unclassified hours
	// THEN: 10x60 + 20x35 + 5x45 = 1525

	strategy := &billing.SpecialRegularization{
		Type: billing.StrategyConsultantLevel,
		LevelRates: map[string]billing.Money{
			"senior": billing.NewMoney(60),
			"junior": billing.NewMoney(35),
		},
		DefaultRate: billing.NewMoney(45),
	}

	byAuthor := []billing.AuthorHours{
		{Author: "ana", Level: "senior", Hours: billing.NewHours(10)},
		{Author: "luis", Level: "junior", Hours: billing.NewHours(20)},
		{Author: "temp", Level: "contractor", Hours: billing.NewHours(5)},
	}

	amount := billing.CalculateRegularizationAmount(
		billing.NewHours(35), billing.NewMoney(50), strategy, byAuthor)

	assert.Equal(t, "1525", amount.String())
}

func TestNoStrategy_StandardRate(t *testing.T) {
	amount := billing.CalculateRegularizationAmount(
		billing.NewHours(12.5), billing.NewMoney(40), nil, nil)

	assert.Equal(t, "500", amount.String())
}

// =============================================================================
// STRATEGY VALIDATION TESTS
// =============================================================================

func TestValidateStrategy_Rappel(t *testing.T) {
	cases := []struct {
		name  string
		tiers []billing.RappelTier
		valid bool
	}{
		{
			"contiguous tiers covering zero to infinity",
			[]billing.RappelTier{
				{MinHours: billing.NewHours(0), MaxHours: hoursPtr(50), Rate: billing.NewMoney(40)},
				{MinHours: billing.NewHours(50), Rate: billing.NewMoney(30)},
			},
			true,
		},
		{
			"first tier must start at zero",
			[]billing.RappelTier{
				{MinHours: billing.NewHours(10), Rate: billing.NewMoney(40)},
			},
			false,
		},
		{
			"gap between tiers",
			[]billing.RappelTier{
				{MinHours: billing.NewHours(0), MaxHours: hoursPtr(50), Rate: billing.NewMoney(40)},
				{MinHours: billing.NewHours(60), Rate: billing.NewMoney(30)},
			},
			false,
		},
		{
			"last tier must be unbounded",
			[]billing.RappelTier{
				{MinHours: billing.NewHours(0), MaxHours: hoursPtr(50), Rate: billing.NewMoney(40)},
			},
			false,
		},
		{
			"negative rate",
			[]billing.RappelTier{
				{MinHours: billing.NewHours(0), Rate: billing.NewMoney(-5)},
			},
			false,
		},
		{
			"no tiers at all",
			nil,
			false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := billing.ValidateStrategy(&billing.SpecialRegularization{
				Type:        billing.StrategyRappel,
				RappelTiers: tc.tiers,
			})
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, billing.ErrInvalidStrategy)
			}
		})
	}
}

func TestValidateStrategy_ConsultantLevel(t *testing.T) {
	// Empty rate tables and negative rates are configuration errors.
	err := billing.ValidateStrategy(&billing.SpecialRegularization{
		Type: billing.StrategyConsultantLevel,
	})
	assert.ErrorIs(t, err, billing.ErrInvalidStrategy)

	err = billing.ValidateStrategy(&billing.SpecialRegularization{
		Type:       billing.StrategyConsultantLevel,
		LevelRates: map[string]billing.Money{"senior": billing.NewMoney(-1)},
	})
	assert.ErrorIs(t, err, billing.ErrInvalidStrategy)

	err = billing.ValidateStrategy(&billing.SpecialRegularization{
		Type:       billing.StrategyConsultantLevel,
		LevelRates: map[string]billing.Money{"senior": billing.NewMoney(60)},
	})
	assert.NoError(t, err)
}

func TestValidateStrategy_UnknownType(t *testing.T) {
	err := billing.ValidateStrategy(&billing.SpecialRegularization{Type: "DISCOUNT"})
	assert.ErrorIs(t, err, billing.ErrInvalidStrategy)
}

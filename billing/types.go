/*
Package billing provides the core consumption and regularization engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking client
  support contracts ("work packages"): the normalized ledger of billable
  hours, monthly consumption metrics, billing regularizations, and the
  correction/rate strategies applied on top of them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours/Money: decimal-backed quantities (never float64 in business logic)
  - WorkPackage: a billable support contract with its Jira/Tempo bindings
  - WorklogEntry: one normalized ledger row derived from external trackers
  - MonthlyMetric: consumed hours per contract per month
  - Regularization: a manual billing adjustment
  - SpecialRegularization: a reusable rate strategy (rappel, consultant level)

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere money or hours are involved
  2. Replaceability: ledger rows are fully replaceable per contract+period,
     so re-running a sync can never duplicate hours
  3. Derived views: metrics are recomputed from the ledger, consumption
     percentages are computed at read time and never persisted
  4. Typed configuration: strategies and correction tiers are decoded once
     at the store boundary into typed values, never re-parsed downstream

SEE ALSO:
  - period.go: Validity periods and month math
  - correction.go: Minimum-billable-increment correction tiers
  - regularization.go: Rate strategy engine
  - consumption.go: Period utilization percentages
  - aggregate.go: Ledger-to-metric rollup
  - store.go: Persistence interfaces
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// QUANTITIES - decimal-backed hours and money
// =============================================================================

// Hours is a quantity of billable time.
type Hours struct {
	Value decimal.Decimal
}

func NewHours(v float64) Hours        { return Hours{Value: decimal.NewFromFloat(v)} }
func NewHoursFromInt(v int) Hours     { return Hours{Value: decimal.NewFromInt(int64(v))} }
func HoursFromSeconds(s int64) Hours  { return Hours{Value: decimal.NewFromInt(s).Div(decimal.NewFromInt(3600))} }
func ZeroHours() Hours                { return Hours{Value: decimal.Zero} }

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (h Hours) Add(o Hours) Hours              { return Hours{Value: h.Value.Add(o.Value)} }
func (h Hours) Sub(o Hours) Hours              { return Hours{Value: h.Value.Sub(o.Value)} }
func (h Hours) Mul(s decimal.Decimal) Hours    { return Hours{Value: h.Value.Mul(s)} }
func (h Hours) Div(s decimal.Decimal) Hours    { return Hours{Value: h.Value.Div(s)} }
func (h Hours) Neg() Hours                     { return Hours{Value: h.Value.Neg()} }
func (h Hours) IsZero() bool                   { return h.Value.IsZero() }
func (h Hours) IsNegative() bool               { return h.Value.IsNegative() }
func (h Hours) IsPositive() bool               { return h.Value.IsPositive() }
func (h Hours) GreaterThan(o Hours) bool       { return h.Value.GreaterThan(o.Value) }
func (h Hours) LessThan(o Hours) bool          { return h.Value.LessThan(o.Value) }
func (h Hours) LessThanOrEqual(o Hours) bool   { return h.Value.LessThanOrEqual(o.Value) }
func (h Hours) Equal(o Hours) bool             { return h.Value.Equal(o.Value) }
func (h Hours) String() string                 { return h.Value.String() }

// Round1 rounds to one decimal place, half away from zero. All reported
// hours are rounded this way before they count toward consumption.
func (h Hours) Round1() Hours { return Hours{Value: h.Value.Round(1)} }

// Hours cross JSON boundaries as decimal strings ("12.5"), never as floats.
func (h Hours) MarshalJSON() ([]byte, error)  { return []byte(`"` + h.Value.String() + `"`), nil }
func (h *Hours) UnmarshalJSON(b []byte) error { return h.Value.UnmarshalJSON(b) }

// AtRate converts hours to money at an hourly rate.
func (h Hours) AtRate(rate Money) Money { return Money{Value: h.Value.Mul(rate.Value)} }

// Money is a billable amount. Currency is contract-scoped and implicit.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(v float64) Money        { return Money{Value: decimal.NewFromFloat(v)} }
func ZeroMoney() Money                { return Money{Value: decimal.Zero} }
func (m Money) Add(o Money) Money     { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) IsNegative() bool      { return m.Value.IsNegative() }
func (m Money) Equal(o Money) bool    { return m.Value.Equal(o.Value) }
func (m Money) String() string        { return m.Value.String() }

func (m Money) MarshalJSON() ([]byte, error)  { return []byte(`"` + m.Value.String() + `"`), nil }
func (m *Money) UnmarshalJSON(b []byte) error { return m.Value.UnmarshalJSON(b) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkPackageID string
type PeriodID string
type RegularizationID string
type StrategyID string

// =============================================================================
// WORK PACKAGE - a billable support contract
// =============================================================================

type ContractType string

const (
	ContractSupport ContractType = "support" // standard AM support, hours-based billing
	ContractEvents  ContractType = "events"  // ticket-count billing, independent of Tempo
)

type WorkPackage struct {
	ID              WorkPackageID
	ClientRef       string
	Name            string
	Type            ContractType
	JiraProjects    []string
	TempoAccountKey string

	// Evolutivo (change-request) inclusion rules. When IncludeEvolutivo is
	// set, evolutivo issues count toward consumption but only under the
	// configured billing mode.
	IncludeEvolutivo     bool
	EvolutivoBillingMode string

	// IncludeTimeAndMaterials pulls T&M-mode worklogs into the ledger.
	IncludeTimeAndMaterials bool

	// StandardIssueTypes are the issue types always included (e.g. Incident,
	// Service Request). Empty means the engine defaults apply.
	StandardIssueTypes []string

	// CorrectionTiers pad short tickets up to a minimum billable unit before
	// they count toward consumption. Nil disables correction.
	CorrectionTiers []CorrectionTier

	// LastSyncedAt is the backfill watermark. Zero means never synced.
	LastSyncedAt time.Time

	CreatedAt time.Time
}

// MatchesProject reports whether a Jira project key belongs to this contract.
func (wp *WorkPackage) MatchesProject(projectKey string) bool {
	for _, p := range wp.JiraProjects {
		if p == projectKey {
			return true
		}
	}
	return false
}

// =============================================================================
// WORKLOG ENTRY - one normalized ledger row
// =============================================================================

// WorklogEntry is a row in the billable-hours ledger, derived entirely from
// external tracker responses. Rows are replaceable per (contract, period):
// sync replaces the whole slice atomically, so the invariant "an issue's
// hours appear exactly once per month" holds by construction.
type WorklogEntry struct {
	ID            string
	WorkPackageID WorkPackageID
	PeriodID      PeriodID
	IssueKey      string
	IssueType     string
	BillingMode   string
	Hours         Hours
	Year          int
	Month         time.Month
	Author        string
	AuthorLevel   string
	CreatedAt     time.Time
}

// =============================================================================
// MONTHLY METRIC - consumed hours per contract per month
// =============================================================================

// MonthlyMetric is always a pure function of the current ledger plus the
// contract's correction rules. It is recomputed wholesale, never patched.
type MonthlyMetric struct {
	WorkPackageID WorkPackageID
	Year          int
	Month         time.Month
	ConsumedHours Hours
}

// =============================================================================
// REGULARIZATION - manual billing adjustments
// =============================================================================

type RegularizationType string

const (
	// RegExcess adds to the billable scope of the period.
	RegExcess RegularizationType = "EXCESS"
	// RegReturn subtracts from consumed hours in its month.
	RegReturn RegularizationType = "RETURN"
	// RegManualConsumption records hours for work the tracker sync did not
	// capture. Must reference a ticket; becomes a duplicate once the same
	// ticket+month shows up in the synced ledger.
	RegManualConsumption RegularizationType = "MANUAL_CONSUMPTION"
	// RegCarryOver credits leftover quantity from a previous period.
	RegCarryOver RegularizationType = "SOBRANTE_ANTERIOR"
)

type Regularization struct {
	ID            RegularizationID
	WorkPackageID WorkPackageID
	Date          TimePoint
	Type          RegularizationType
	Quantity      Hours
	TicketRef     string // required for MANUAL_CONSUMPTION
	Description   string
	CreatedAt     time.Time
}

// =============================================================================
// SPECIAL REGULARIZATION - reusable rate strategies
// =============================================================================

type StrategyType string

const (
	StrategyRappel          StrategyType = "RAPPEL"
	StrategyConsultantLevel StrategyType = "CONSULTANT_LEVEL"
)

// RappelTier is one volume band. MaxHours nil means unbounded.
type RappelTier struct {
	MinHours Hours
	MaxHours *Hours
	Rate     Money
}

// SpecialRegularization is a named, reusable rate strategy attached to
// validity periods by reference. Deleting one that is still referenced is
// rejected by the store.
type SpecialRegularization struct {
	ID   StrategyID
	Name string
	Type StrategyType

	// RAPPEL: ordered tiers, non-overlapping, covering [0, inf).
	RappelTiers []RappelTier

	// CONSULTANT_LEVEL: hourly rate per consultant level.
	LevelRates  map[string]Money
	DefaultRate Money
}

// AuthorHours is the per-consultant rollup the consultant-level strategy
// prices individually.
type AuthorHours struct {
	Author string
	Level  string
	Hours  Hours
}

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

QUANTITIES:
  Hours and money cross the API as decimal strings ("12.5"), never as
  floats. Parsing happens in handlers; DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - billing/types.go: The domain model behind them
*/
package api

import (
	"github.com/amflow/billing-engine/billing"
)

// =============================================================================
// WORK PACKAGES
// =============================================================================

// WorkPackageDTO represents a support contract in API responses.
type WorkPackageDTO struct {
	ID                      string   `json:"id"`
	ClientRef               string   `json:"client_ref"`
	Name                    string   `json:"name"`
	Type                    string   `json:"type"`
	JiraProjects            []string `json:"jira_projects"`
	TempoAccountKey         string   `json:"tempo_account_key"`
	IncludeEvolutivo        bool     `json:"include_evolutivo"`
	EvolutivoBillingMode    string   `json:"evolutivo_billing_mode,omitempty"`
	IncludeTimeAndMaterials bool     `json:"include_time_and_materials"`
	StandardIssueTypes      []string `json:"standard_issue_types,omitempty"`
	CorrectionTiers         []CorrectionTierDTO `json:"correction_tiers,omitempty"`
	LastSyncedAt            string   `json:"last_synced_at,omitempty"`
	CreatedAt               string   `json:"created_at,omitempty"`
}

// CreateWorkPackageRequest is the request to create or update a contract.
type CreateWorkPackageRequest struct {
	ID                      string              `json:"id"`
	ClientRef               string              `json:"client_ref"`
	Name                    string              `json:"name"`
	Type                    string              `json:"type"`
	JiraProjects            []string            `json:"jira_projects"`
	TempoAccountKey         string              `json:"tempo_account_key"`
	IncludeEvolutivo        bool                `json:"include_evolutivo"`
	EvolutivoBillingMode    string              `json:"evolutivo_billing_mode"`
	IncludeTimeAndMaterials bool                `json:"include_time_and_materials"`
	StandardIssueTypes      []string            `json:"standard_issue_types"`
	CorrectionTiers         []CorrectionTierDTO `json:"correction_tiers"`
}

// CorrectionTierDTO is one minimum-billable-increment band.
type CorrectionTierDTO struct {
	Max   string `json:"max"`
	Type  string `json:"type"` // "ADD" or "FIXED"
	Value string `json:"value"`
}

// =============================================================================
// VALIDITY PERIODS
// =============================================================================

// PeriodDTO represents a validity period in API responses.
type PeriodDTO struct {
	ID            string `json:"id"`
	WorkPackageID string `json:"work_package_id"`
	Start         string `json:"start"`
	End           string `json:"end"`
	TotalQuantity string `json:"total_quantity"`
	HourlyRate    string `json:"hourly_rate"`
	Premium       bool   `json:"premium"`
	PremiumPrice  string `json:"premium_price,omitempty"`
	StrategyID    string `json:"strategy_id,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// CreatePeriodRequest is the request to create a validity period.
type CreatePeriodRequest struct {
	ID            string `json:"id"`
	Start         string `json:"start"` // 2006-01-02
	End           string `json:"end"`
	TotalQuantity string `json:"total_quantity"`
	HourlyRate    string `json:"hourly_rate"`
	Premium       bool   `json:"premium"`
	PremiumPrice  string `json:"premium_price"`
	StrategyID    string `json:"strategy_id"`
}

// =============================================================================
// REGULARIZATIONS
// =============================================================================

// RegularizationDTO represents a manual billing adjustment.
type RegularizationDTO struct {
	ID            string `json:"id"`
	WorkPackageID string `json:"work_package_id"`
	Date          string `json:"date"`
	Type          string `json:"type"`
	Quantity      string `json:"quantity"`
	TicketRef     string `json:"ticket_ref,omitempty"`
	Description   string `json:"description,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// CreateRegularizationRequest is the request to record an adjustment.
type CreateRegularizationRequest struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Quantity    string `json:"quantity"`
	TicketRef   string `json:"ticket_ref"`
	Description string `json:"description"`
}

// =============================================================================
// STRATEGIES (special regularizations)
// =============================================================================

// RappelTierDTO is one volume band of a rappel strategy. A null max means
// the band is unbounded.
type RappelTierDTO struct {
	MinHours string  `json:"min_hours"`
	MaxHours *string `json:"max_hours,omitempty"`
	Rate     string  `json:"rate"`
}

// StrategyDTO represents a reusable rate strategy.
type StrategyDTO struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	RappelTiers []RappelTierDTO   `json:"rappel_tiers,omitempty"`
	LevelRates  map[string]string `json:"level_rates,omitempty"`
	DefaultRate string            `json:"default_rate,omitempty"`
}

// CreateStrategyRequest is the request to create a strategy.
type CreateStrategyRequest struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	RappelTiers []RappelTierDTO   `json:"rappel_tiers"`
	LevelRates  map[string]string `json:"level_rates"`
	DefaultRate string            `json:"default_rate"`
}

// QuoteRequest asks for the billed amount of a volume of hours under a
// period's rate strategy.
type QuoteRequest struct {
	Hours    string           `json:"hours"`
	ByAuthor []AuthorHoursDTO `json:"by_author,omitempty"`
}

type AuthorHoursDTO struct {
	Author string `json:"author"`
	Level  string `json:"level"`
	Hours  string `json:"hours"`
}

// QuoteDTO is the priced result.
type QuoteDTO struct {
	PeriodID string `json:"period_id"`
	Hours    string `json:"hours"`
	Amount   string `json:"amount"`
	Strategy string `json:"strategy,omitempty"`
}

// =============================================================================
// CONSUMPTION AND METRICS
// =============================================================================

// MonthConsumptionDTO is one month of a period's utilization report.
type MonthConsumptionDTO struct {
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Contracted string `json:"contracted"`
	Consumed   string `json:"consumed"`
}

// ConsumptionDTO is a period-level utilization report.
type ConsumptionDTO struct {
	PeriodID            string                `json:"period_id"`
	TotalContracted     string                `json:"total_contracted"`
	TotalConsumed       string                `json:"total_consumed"`
	TotalRegularization string                `json:"total_regularization"`
	Percentage          string                `json:"percentage"`
	Months              []MonthConsumptionDTO `json:"months"`
}

// MetricDTO is one month of consumed hours (or ticket count for events
// contracts).
type MetricDTO struct {
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	ConsumedHours string `json:"consumed_hours"`
}

// ImportLogDTO is one sync run in the audit trail.
type ImportLogDTO struct {
	ID            string `json:"id"`
	WorkPackageID string `json:"work_package_id"`
	StartedAt     string `json:"started_at"`
	CompletedAt   string `json:"completed_at"`
	Processed     int    `json:"processed"`
	Errored       int    `json:"errored"`
	TotalHours    string `json:"total_hours"`
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// DTO CONVERSION HELPERS
// =============================================================================

func toWorkPackageDTO(wp billing.WorkPackage) WorkPackageDTO {
	dto := WorkPackageDTO{
		ID:                      string(wp.ID),
		ClientRef:               wp.ClientRef,
		Name:                    wp.Name,
		Type:                    string(wp.Type),
		JiraProjects:            wp.JiraProjects,
		TempoAccountKey:         wp.TempoAccountKey,
		IncludeEvolutivo:        wp.IncludeEvolutivo,
		EvolutivoBillingMode:    wp.EvolutivoBillingMode,
		IncludeTimeAndMaterials: wp.IncludeTimeAndMaterials,
		StandardIssueTypes:      wp.StandardIssueTypes,
	}
	for _, t := range wp.CorrectionTiers {
		dto.CorrectionTiers = append(dto.CorrectionTiers, CorrectionTierDTO{
			Max:   t.Max.String(),
			Type:  string(t.Type),
			Value: t.Value.String(),
		})
	}
	if !wp.LastSyncedAt.IsZero() {
		dto.LastSyncedAt = wp.LastSyncedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if !wp.CreatedAt.IsZero() {
		dto.CreatedAt = wp.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return dto
}

func toPeriodDTO(p billing.ValidityPeriod) PeriodDTO {
	dto := PeriodDTO{
		ID:            string(p.ID),
		WorkPackageID: string(p.WorkPackageID),
		Start:         p.Start.String(),
		End:           p.End.String(),
		TotalQuantity: p.TotalQuantity.String(),
		HourlyRate:    p.HourlyRate.String(),
		Premium:       p.Premium,
		StrategyID:    string(p.StrategyID),
	}
	if !p.PremiumPrice.Value.IsZero() {
		dto.PremiumPrice = p.PremiumPrice.String()
	}
	if !p.CreatedAt.IsZero() {
		dto.CreatedAt = p.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return dto
}

func toRegularizationDTO(r billing.Regularization) RegularizationDTO {
	dto := RegularizationDTO{
		ID:            string(r.ID),
		WorkPackageID: string(r.WorkPackageID),
		Date:          r.Date.String(),
		Type:          string(r.Type),
		Quantity:      r.Quantity.String(),
		TicketRef:     r.TicketRef,
		Description:   r.Description,
	}
	if !r.CreatedAt.IsZero() {
		dto.CreatedAt = r.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return dto
}

func toStrategyDTO(s billing.SpecialRegularization) StrategyDTO {
	dto := StrategyDTO{
		ID:   string(s.ID),
		Name: s.Name,
		Type: string(s.Type),
	}
	for _, t := range s.RappelTiers {
		tier := RappelTierDTO{
			MinHours: t.MinHours.String(),
			Rate:     t.Rate.String(),
		}
		if t.MaxHours != nil {
			max := t.MaxHours.String()
			tier.MaxHours = &max
		}
		dto.RappelTiers = append(dto.RappelTiers, tier)
	}
	if len(s.LevelRates) > 0 {
		dto.LevelRates = make(map[string]string, len(s.LevelRates))
		for level, rate := range s.LevelRates {
			dto.LevelRates[level] = rate.String()
		}
		dto.DefaultRate = s.DefaultRate.String()
	}
	return dto
}

func toConsumptionDTO(report billing.ConsumptionReport) ConsumptionDTO {
	dto := ConsumptionDTO{
		PeriodID:            string(report.PeriodID),
		TotalContracted:     report.TotalContracted.String(),
		TotalConsumed:       report.TotalConsumed.String(),
		TotalRegularization: report.TotalRegularization.String(),
		Percentage:          report.Percentage.StringFixed(2),
	}
	for _, m := range report.Months {
		dto.Months = append(dto.Months, MonthConsumptionDTO{
			Year:       m.Year,
			Month:      m.Month,
			Contracted: m.Contracted.String(),
			Consumed:   m.Consumed.String(),
		})
	}
	return dto
}

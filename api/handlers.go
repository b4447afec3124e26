/*
handlers.go - HTTP API handlers for the billing engine

PURPOSE:
  Exposes the consumption and regularization engine via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Work packages:
    GET    /api/workpackages                     List contracts
    POST   /api/workpackages                     Create/update contract
    GET    /api/workpackages/{id}                Get contract
    GET    /api/workpackages/{id}/periods        List validity periods
    POST   /api/workpackages/{id}/periods        Create validity period
    GET    /api/workpackages/{id}/metrics        Monthly consumption metrics
    GET    /api/workpackages/{id}/periods/{pid}/consumption
                                                 Period utilization report
    POST   /api/workpackages/{id}/periods/{pid}/quote
                                                 Price hours under the
                                                 period's rate strategy

  Sync:
    POST   /api/workpackages/{id}/sync           Full contract resync
    POST   /api/cron/backfill                    Incremental batch (cron)
    GET    /api/imports                          Sync audit trail

  Regularizations:
    GET    /api/workpackages/{id}/regularizations
    POST   /api/workpackages/{id}/regularizations
    DELETE /api/regularizations/{id}

  Strategies:
    GET    /api/strategies                       List rate strategies
    POST   /api/strategies                       Create rate strategy
    GET    /api/strategies/{id}
    DELETE /api/strategies/{id}                  409 while referenced

  Maintenance:
    POST   /api/workpackages/{id}/maintenance/manual-duplicates
                                                 ?dryRun=true to report only

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Bad cron secret
  - 404: Resource not found
  - 409: Conflict (overlap, strategy in use, sync already running)
  - 502: Tracker failure during sync
  - 500: Internal errors

AUTHENTICATION:
  Only the sync and cron endpoints are authenticated (bearer CronSecret);
  the portal sits behind the company SSO proxy.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - cron.go: Scheduled backfill driver
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/amflow/billing-engine/billing"
	"github.com/amflow/billing-engine/syncer"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        billing.SyncStore
	Orchestrator *syncer.Orchestrator
	Log          zerolog.Logger

	// CronSecret authenticates scheduled callers of the sync endpoints.
	// Empty disables the check (local development).
	CronSecret string

	// BackfillBatch is the number of contracts one cron invocation syncs.
	BackfillBatch int
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(store billing.SyncStore, orch *syncer.Orchestrator, log zerolog.Logger) *Handler {
	return &Handler{
		Store:         store,
		Orchestrator:  orch,
		Log:           log,
		BackfillBatch: 5,
	}
}

// =============================================================================
// WORK PACKAGE HANDLERS
// =============================================================================

// ListWorkPackages returns all contracts.
func (h *Handler) ListWorkPackages(w http.ResponseWriter, r *http.Request) {
	wps, err := h.Store.ListWorkPackages(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list work packages", err)
		return
	}

	dtos := make([]WorkPackageDTO, len(wps))
	for i, wp := range wps {
		dtos[i] = toWorkPackageDTO(wp)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateWorkPackage creates or updates a contract.
func (h *Handler) CreateWorkPackage(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkPackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || len(req.JiraProjects) == 0 {
		writeError(w, http.StatusBadRequest, "name and jira_projects are required", nil)
		return
	}

	contractType := billing.ContractType(req.Type)
	if contractType == "" {
		contractType = billing.ContractSupport
	}
	if contractType != billing.ContractSupport && contractType != billing.ContractEvents {
		writeError(w, http.StatusBadRequest, "type must be support or events", nil)
		return
	}

	wp := &billing.WorkPackage{
		ID:                      billing.WorkPackageID(orUUID(req.ID)),
		ClientRef:               req.ClientRef,
		Name:                    req.Name,
		Type:                    contractType,
		JiraProjects:            req.JiraProjects,
		TempoAccountKey:         req.TempoAccountKey,
		IncludeEvolutivo:        req.IncludeEvolutivo,
		EvolutivoBillingMode:    req.EvolutivoBillingMode,
		IncludeTimeAndMaterials: req.IncludeTimeAndMaterials,
		StandardIssueTypes:      req.StandardIssueTypes,
		CreatedAt:               time.Now().UTC(),
	}
	for _, t := range req.CorrectionTiers {
		wp.CorrectionTiers = append(wp.CorrectionTiers, billing.CorrectionTier{
			Max:   billing.Hours{Value: billing.MustParseDecimal(t.Max)},
			Type:  billing.CorrectionType(t.Type),
			Value: billing.Hours{Value: billing.MustParseDecimal(t.Value)},
		})
	}

	if err := h.Store.SaveWorkPackage(r.Context(), wp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save work package", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkPackageDTO(*wp))
}

// GetWorkPackage returns a single contract.
func (h *Handler) GetWorkPackage(w http.ResponseWriter, r *http.Request) {
	wp, err := h.Store.GetWorkPackage(r.Context(), billing.WorkPackageID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get work package", err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkPackageDTO(*wp))
}

// =============================================================================
// VALIDITY PERIOD HANDLERS
// =============================================================================

// ListPeriods returns a contract's validity periods, ordered by start date.
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Store.ListPeriods(r.Context(), billing.WorkPackageID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list periods", err)
		return
	}

	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toPeriodDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePeriod creates a validity period. Overlap with the contract's other
// periods is rejected with 409.
func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	wpID := billing.WorkPackageID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetWorkPackage(r.Context(), wpID); err != nil {
		writeDomainError(w, "Failed to get work package", err)
		return
	}

	var req CreatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := parseDate(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return
	}
	end, err := parseDate(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date", err)
		return
	}
	quantity, err := decimal.NewFromString(req.TotalQuantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid total_quantity", err)
		return
	}
	rate, err := decimal.NewFromString(req.HourlyRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hourly_rate", err)
		return
	}

	if req.StrategyID != "" {
		if _, err := h.Store.GetStrategy(r.Context(), billing.StrategyID(req.StrategyID)); err != nil {
			writeDomainError(w, "Failed to resolve strategy", err)
			return
		}
	}

	period := &billing.ValidityPeriod{
		ID:            billing.PeriodID(orUUID(req.ID)),
		WorkPackageID: wpID,
		Start:         start,
		End:           end,
		TotalQuantity: billing.Hours{Value: quantity},
		HourlyRate:    billing.Money{Value: rate},
		Premium:       req.Premium,
		StrategyID:    billing.StrategyID(req.StrategyID),
		CreatedAt:     time.Now().UTC(),
	}
	if req.PremiumPrice != "" {
		price, err := decimal.NewFromString(req.PremiumPrice)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid premium_price", err)
			return
		}
		period.PremiumPrice = billing.Money{Value: price}
	}

	if err := h.Store.SavePeriod(r.Context(), period); err != nil {
		writeDomainError(w, "Failed to save period", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPeriodDTO(*period))
}

// =============================================================================
// CONSUMPTION AND METRIC HANDLERS
// =============================================================================

// GetConsumption builds the utilization report for one validity period.
// Computed on every read; never persisted.
func (h *Handler) GetConsumption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wpID := billing.WorkPackageID(chi.URLParam(r, "id"))

	period, err := h.Store.GetPeriod(ctx, billing.PeriodID(chi.URLParam(r, "pid")))
	if err != nil {
		writeDomainError(w, "Failed to get period", err)
		return
	}
	if period.WorkPackageID != wpID {
		writeError(w, http.StatusNotFound, "Period does not belong to work package", nil)
		return
	}

	metrics, err := h.Store.ListMetrics(ctx, wpID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list metrics", err)
		return
	}
	regs, err := h.Store.ListRegularizations(ctx, wpID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list regularizations", err)
		return
	}

	report := billing.ComputeConsumption(*period, metrics, regs)
	writeJSON(w, http.StatusOK, toConsumptionDTO(report))
}

// GetMetrics returns the contract's monthly metrics.
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.Store.ListMetrics(r.Context(), billing.WorkPackageID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list metrics", err)
		return
	}

	dtos := make([]MetricDTO, len(metrics))
	for i, m := range metrics {
		dtos[i] = MetricDTO{
			Year:          m.Year,
			Month:         int(m.Month),
			ConsumedHours: m.ConsumedHours.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// QuoteRegularization prices a volume of hours under the period's rate
// strategy (standard rate when the period has none).
func (h *Handler) QuoteRegularization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wpID := billing.WorkPackageID(chi.URLParam(r, "id"))

	period, err := h.Store.GetPeriod(ctx, billing.PeriodID(chi.URLParam(r, "pid")))
	if err != nil {
		writeDomainError(w, "Failed to get period", err)
		return
	}
	if period.WorkPackageID != wpID {
		writeError(w, http.StatusNotFound, "Period does not belong to work package", nil)
		return
	}

	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	hours, err := decimal.NewFromString(req.Hours)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hours", err)
		return
	}

	var strategy *billing.SpecialRegularization
	if period.StrategyID != "" {
		strategy, err = h.Store.GetStrategy(ctx, period.StrategyID)
		if err != nil {
			writeDomainError(w, "Failed to resolve strategy", err)
			return
		}
	}

	byAuthor := make([]billing.AuthorHours, 0, len(req.ByAuthor))
	for _, a := range req.ByAuthor {
		byAuthor = append(byAuthor, billing.AuthorHours{
			Author: a.Author,
			Level:  a.Level,
			Hours:  billing.Hours{Value: billing.MustParseDecimal(a.Hours)},
		})
	}

	amount := billing.CalculateRegularizationAmount(
		billing.Hours{Value: hours}, period.HourlyRate, strategy, byAuthor)

	dto := QuoteDTO{
		PeriodID: string(period.ID),
		Hours:    hours.String(),
		Amount:   amount.String(),
	}
	if strategy != nil {
		dto.Strategy = string(strategy.Type)
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// SYNC HANDLERS
// =============================================================================

// SyncWorkPackage runs a full resynchronization of one contract.
// POST /api/workpackages/{id}/sync?debug=true&windowDays=30
func (h *Handler) SyncWorkPackage(w http.ResponseWriter, r *http.Request) {
	if !h.authorizedCron(r) {
		writeError(w, http.StatusUnauthorized, "Invalid cron secret", nil)
		return
	}

	opts := syncer.SyncOptions{
		Debug: r.URL.Query().Get("debug") == "true",
	}
	if days := r.URL.Query().Get("windowDays"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid windowDays", err)
			return
		}
		opts.WindowDays = n
	}

	result, err := h.Orchestrator.Sync(r.Context(), billing.WorkPackageID(chi.URLParam(r, "id")), opts)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrSyncInProgress):
			writeError(w, http.StatusConflict, "Sync already running for this contract", err)
		case errors.Is(err, billing.ErrNoActivePeriod):
			writeError(w, http.StatusConflict, "Contract has no validity periods", err)
		case billing.IsNotFound(err):
			writeError(w, http.StatusNotFound, "Work package not found", err)
		case errors.Is(err, billing.ErrUnauthorized):
			writeError(w, http.StatusBadGateway, "Tracker rejected credentials", err)
		default:
			writeError(w, http.StatusInternalServerError, "Sync failed", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CronBackfill syncs one batch of stale contracts. Scheduled callers keep
// invoking it until it stops reporting more work.
func (h *Handler) CronBackfill(w http.ResponseWriter, r *http.Request) {
	if !h.authorizedCron(r) {
		writeError(w, http.StatusUnauthorized, "Invalid cron secret", nil)
		return
	}

	result, err := h.Orchestrator.Backfill(r.Context(), h.BackfillBatch)
	if err != nil {
		// The result carries the error detail; cron treats non-200 as retry.
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListImportLogs returns the most recent sync runs.
func (h *Handler) ListImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	logs, err := h.Store.ListImportLogs(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list import logs", err)
		return
	}

	dtos := make([]ImportLogDTO, len(logs))
	for i, entry := range logs {
		dtos[i] = ImportLogDTO{
			ID:            entry.ID,
			WorkPackageID: string(entry.WorkPackageID),
			StartedAt:     entry.StartedAt.Format(time.RFC3339),
			CompletedAt:   entry.CompletedAt.Format(time.RFC3339),
			Processed:     entry.Processed,
			Errored:       entry.Errored,
			TotalHours:    entry.TotalHours.String(),
			Success:       entry.Success,
			Message:       entry.Message,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) authorizedCron(r *http.Request) bool {
	if h.CronSecret == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+h.CronSecret
}

// =============================================================================
// REGULARIZATION HANDLERS
// =============================================================================

// ListRegularizations returns a contract's manual adjustments.
func (h *Handler) ListRegularizations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.Store.ListRegularizations(r.Context(), billing.WorkPackageID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list regularizations", err)
		return
	}

	dtos := make([]RegularizationDTO, len(regs))
	for i, reg := range regs {
		dtos[i] = toRegularizationDTO(reg)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRegularization records a manual billing adjustment.
func (h *Handler) CreateRegularization(w http.ResponseWriter, r *http.Request) {
	wpID := billing.WorkPackageID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetWorkPackage(r.Context(), wpID); err != nil {
		writeDomainError(w, "Failed to get work package", err)
		return
	}

	var req CreateRegularizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quantity", err)
		return
	}

	switch billing.RegularizationType(req.Type) {
	case billing.RegExcess, billing.RegReturn, billing.RegManualConsumption, billing.RegCarryOver:
	default:
		writeError(w, http.StatusBadRequest, "Unknown regularization type", nil)
		return
	}

	reg := &billing.Regularization{
		ID:            billing.RegularizationID(uuid.NewString()),
		WorkPackageID: wpID,
		Date:          date,
		Type:          billing.RegularizationType(req.Type),
		Quantity:      billing.Hours{Value: quantity},
		TicketRef:     req.TicketRef,
		Description:   req.Description,
		CreatedAt:     time.Now().UTC(),
	}

	if err := h.Store.SaveRegularization(r.Context(), reg); err != nil {
		writeDomainError(w, "Failed to save regularization", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRegularizationDTO(*reg))
}

// DeleteRegularization removes a manual adjustment.
func (h *Handler) DeleteRegularization(w http.ResponseWriter, r *http.Request) {
	id := billing.RegularizationID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteRegularization(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete regularization", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// STRATEGY HANDLERS
// =============================================================================

// ListStrategies returns all rate strategies.
func (h *Handler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	strategies, err := h.Store.ListStrategies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list strategies", err)
		return
	}

	dtos := make([]StrategyDTO, len(strategies))
	for i, s := range strategies {
		dtos[i] = toStrategyDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateStrategy creates a rate strategy. The definition is validated here,
// once; the billing engine trusts stored strategies.
func (h *Handler) CreateStrategy(w http.ResponseWriter, r *http.Request) {
	var req CreateStrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	strategy := &billing.SpecialRegularization{
		ID:   billing.StrategyID(orUUID(req.ID)),
		Name: req.Name,
		Type: billing.StrategyType(req.Type),
	}
	for _, t := range req.RappelTiers {
		tier := billing.RappelTier{
			MinHours: billing.Hours{Value: billing.MustParseDecimal(t.MinHours)},
			Rate:     billing.Money{Value: billing.MustParseDecimal(t.Rate)},
		}
		if t.MaxHours != nil {
			max := billing.Hours{Value: billing.MustParseDecimal(*t.MaxHours)}
			tier.MaxHours = &max
		}
		strategy.RappelTiers = append(strategy.RappelTiers, tier)
	}
	if len(req.LevelRates) > 0 {
		strategy.LevelRates = make(map[string]billing.Money, len(req.LevelRates))
		for level, rate := range req.LevelRates {
			strategy.LevelRates[level] = billing.Money{Value: billing.MustParseDecimal(rate)}
		}
		strategy.DefaultRate = billing.Money{Value: billing.MustParseDecimal(req.DefaultRate)}
	}

	if err := h.Store.SaveStrategy(r.Context(), strategy); err != nil {
		writeDomainError(w, "Failed to save strategy", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStrategyDTO(*strategy))
}

// GetStrategy returns one rate strategy.
func (h *Handler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	strategy, err := h.Store.GetStrategy(r.Context(), billing.StrategyID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get strategy", err)
		return
	}
	writeJSON(w, http.StatusOK, toStrategyDTO(*strategy))
}

// DeleteStrategy removes a strategy. 409 while any validity period still
// references it.
func (h *Handler) DeleteStrategy(w http.ResponseWriter, r *http.Request) {
	id := billing.StrategyID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteStrategy(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete strategy", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// MAINTENANCE HANDLERS
// =============================================================================

// CleanManualDuplicates finds (and with dryRun=false deletes) manual
// consumption entries whose ticket+month now exists in the synced ledger.
func (h *Handler) CleanManualDuplicates(w http.ResponseWriter, r *http.Request) {
	wpID := billing.WorkPackageID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetWorkPackage(r.Context(), wpID); err != nil {
		writeDomainError(w, "Failed to get work package", err)
		return
	}

	dryRun := r.URL.Query().Get("dryRun") != "false"
	result, err := syncer.CleanDuplicateManualConsumptions(r.Context(), h.Store, wpID, dryRun)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Duplicate cleanup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case billing.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, billing.ErrPeriodOverlap) || errors.Is(err, billing.ErrStrategyInUse):
		writeError(w, http.StatusConflict, message, err)
	case billing.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func parseDate(s string) (billing.TimePoint, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return billing.TimePoint{}, err
	}
	return billing.DateOf(t), nil
}

func orUUID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

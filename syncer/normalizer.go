/*
normalizer.go - Raw tracker payloads to canonical ledger rows

PURPOSE:
  Maps raw Jira issues and Tempo worklogs into billing.WorklogEntry rows
  and decides which worklogs are attributable to a contract.

RULES:
  - hours = timeSpentSeconds / 3600, decimal division
  - billing mode comes from a {value: string} custom field option; absent
    or malformed fields fall back to the default category and never fail
    the batch
  - month/year come from the WORKLOG start date, not the issue created
    date (worklogs often post in a later month)
  - a worklog belongs to a contract only if (a) its issue passed the
    contract's type/billing-mode filter and (b) its contract-tag attribute
    matches the contract identifier; a missing tag falls back to
    project-key matching

ATTRIBUTION RISK:
  The project-key fallback can over- or under-attribute when several
  contracts share a Jira project. Known limitation pending a business
  decision; the tag filter log lines exist to diagnose exactly this.
*/
package syncer

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amflow/billing-engine/billing"
	"github.com/amflow/billing-engine/tracker"
)

const (
	// BillingModeDefault is the category used when the custom field is
	// absent or malformed.
	BillingModeDefault = "Bolsa de horas"

	// ContractTagAttribute is the Tempo attribute key identifying the
	// owning contract on a worklog.
	ContractTagAttribute = "_Cliente_"
)

// =============================================================================
// FIELD EXTRACTION
// =============================================================================

// customFieldOption is the {value} shape of Jira select custom fields.
type customFieldOption struct {
	Value string `json:"value"`
}

// BillingModeOf extracts the billing mode from an issue, falling back to
// the default category on absent or malformed fields.
func BillingModeOf(issue tracker.Issue) string {
	raw := issue.Fields.BillingMode
	if len(raw) == 0 {
		return BillingModeDefault
	}
	var opt customFieldOption
	if err := json.Unmarshal(raw, &opt); err != nil || strings.TrimSpace(opt.Value) == "" {
		return BillingModeDefault
	}
	return opt.Value
}

// =============================================================================
// ATTRIBUTION
// =============================================================================

// AttributableToContract applies the contract-tag rule: a present tag must
// match the contract identifier; an absent tag defers to project-key
// membership of the worklog's issue project.
func AttributableToContract(wl tracker.Worklog, issue tracker.Issue, wp *billing.WorkPackage) bool {
	if tag, ok := wl.Attributes.Get(ContractTagAttribute); ok {
		return strings.EqualFold(strings.TrimSpace(tag), wp.TempoAccountKey)
	}
	return wp.MatchesProject(issue.Fields.Project.Key)
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// NormalizeWorklog builds a ledger row from a worklog and its owning issue.
// Returns false when the worklog's start date cannot be parsed; the caller
// logs and skips rather than failing the batch.
func NormalizeWorklog(wl tracker.Worklog, issue tracker.Issue, wp *billing.WorkPackage, periodID billing.PeriodID) (billing.WorklogEntry, bool) {
	start, err := time.Parse("2006-01-02", wl.StartDate)
	if err != nil {
		return billing.WorklogEntry{}, false
	}

	return billing.WorklogEntry{
		ID:            uuid.NewString(),
		WorkPackageID: wp.ID,
		PeriodID:      periodID,
		IssueKey:      issue.Key,
		IssueType:     issue.Fields.IssueType.Name,
		BillingMode:   BillingModeOf(issue),
		Hours:         billing.HoursFromSeconds(wl.TimeSpentSeconds),
		Year:          start.Year(),
		Month:         start.Month(),
		Author:        wl.Author.AccountID,
		CreatedAt:     time.Now().UTC(),
	}, true
}

// NormalizeIssueTicket builds a zero-hour ledger row for an issue alone.
// Events contracts bill by ticket count, so every in-range ticket gets a
// row even without worklogs; month comes from the issue created date.
func NormalizeIssueTicket(issue tracker.Issue, wp *billing.WorkPackage, periodID billing.PeriodID) (billing.WorklogEntry, bool) {
	created, err := time.Parse("2006-01-02T15:04:05.000-0700", issue.Fields.Created)
	if err != nil {
		// Jira also emits date-only created fields in some projections.
		created, err = time.Parse("2006-01-02", issue.Fields.Created)
		if err != nil {
			return billing.WorklogEntry{}, false
		}
	}

	return billing.WorklogEntry{
		ID:            uuid.NewString(),
		WorkPackageID: wp.ID,
		PeriodID:      periodID,
		IssueKey:      issue.Key,
		IssueType:     issue.Fields.IssueType.Name,
		BillingMode:   BillingModeOf(issue),
		Hours:         billing.ZeroHours(),
		Year:          created.Year(),
		Month:         created.Month(),
		CreatedAt:     time.Now().UTC(),
	}, true
}

package syncer_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amflow/billing-engine/billing"
	"github.com/amflow/billing-engine/syncer"
	"github.com/amflow/billing-engine/tracker"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func issueWithMode(key, issueType, mode string) tracker.Issue {
	issue := tracker.Issue{
		ID:  "10001",
		Key: key,
		Fields: tracker.IssueFields{
			IssueType: tracker.NamedField{Name: issueType},
			Project:   tracker.KeyedField{Key: "ACME"},
		},
	}
	if mode != "" {
		raw, _ := json.Marshal(map[string]string{"value": mode})
		issue.Fields.BillingMode = raw
	}
	return issue
}

func worklog(id int64, seconds int64, start string, tags ...tracker.WorklogAttribute) tracker.Worklog {
	return tracker.Worklog{
		TempoWorklogID:   id,
		Issue:            tracker.WorklogIssue{ID: 10001, Key: "ACME-1"},
		TimeSpentSeconds: seconds,
		StartDate:        start,
		Author:           tracker.WorklogAuthor{AccountID: "acc-1", DisplayName: "Ana"},
		Attributes:       tracker.WorklogAttributes{Values: tags},
	}
}

func acmeContract() *billing.WorkPackage {
	return &billing.WorkPackage{
		ID:              "wp-1",
		Name:            "ACME support",
		Type:            billing.ContractSupport,
		JiraProjects:    []string{"ACME"},
		TempoAccountKey: "ACME-CO",
	}
}

// =============================================================================
// BILLING MODE EXTRACTION
// =============================================================================

func TestBillingModeOf(t *testing.T) {
	// Present option value wins; anything absent or malformed falls back to
	// the default category instead of failing the batch.

	assert.Equal(t, "Tarifa plana", syncer.BillingModeOf(issueWithMode("ACME-1", "Incidencia", "Tarifa plana")))
	assert.Equal(t, syncer.BillingModeDefault, syncer.BillingModeOf(issueWithMode("ACME-1", "Incidencia", "")))

	malformed := issueWithMode("ACME-1", "Incidencia", "")
	malformed.Fields.BillingMode = json.RawMessage(`"not an option"`)
	assert.Equal(t, syncer.BillingModeDefault, syncer.BillingModeOf(malformed))

	blank := issueWithMode("ACME-1", "Incidencia", "   ")
	assert.Equal(t, syncer.BillingModeDefault, syncer.BillingModeOf(blank))
}

// =============================================================================
// ATTRIBUTION
// =============================================================================

func TestAttributableToContract_TagMatch(t *testing.T) {
	wp := acmeContract()
	issue := issueWithMode("ACME-1", "Incidencia", "")

	tagged := worklog(1, 3600, "2025-03-10",
		tracker.WorklogAttribute{Key: syncer.ContractTagAttribute, Value: "acme-co "})
	assert.True(t, syncer.AttributableToContract(tagged, issue, wp),
		"tag match is case-insensitive and trimmed")

	other := worklog(2, 3600, "2025-03-10",
		tracker.WorklogAttribute{Key: syncer.ContractTagAttribute, Value: "OTHER-CO"})
	assert.False(t, syncer.AttributableToContract(other, issue, wp))
}

func TestAttributableToContract_MissingTagFallsBackToProject(t *testing.T) {
	wp := acmeContract()
	issue := issueWithMode("ACME-1", "Incidencia", "")

	untagged := worklog(3, 3600, "2025-03-10")
	assert.True(t, syncer.AttributableToContract(untagged, issue, wp))

	foreign := issueWithMode("OTHER-9", "Incidencia", "")
	foreign.Fields.Project = tracker.KeyedField{Key: "OTHER"}
	assert.False(t, syncer.AttributableToContract(untagged, foreign, wp))
}

// =============================================================================
// NORMALIZATION
// =============================================================================

func TestNormalizeWorklog(t *testing.T) {
	// GIVEN: A 90-minute worklog posted in April on a March-created issue
	// WHEN: Normalizing
	// THEN: Hours = 1.5 and the month comes from the WORKLOG start date

	wp := acmeContract()
	issue := issueWithMode("ACME-1", "Incidencia", "Tarifa plana")
	wl := worklog(7, 5400, "2025-04-02")

	entry, ok := syncer.NormalizeWorklog(wl, issue, wp, "p-1")

	require.True(t, ok)
	assert.Equal(t, "1.5", entry.Hours.String())
	assert.Equal(t, 2025, entry.Year)
	assert.Equal(t, time.April, entry.Month)
	assert.Equal(t, "ACME-1", entry.IssueKey)
	assert.Equal(t, "Tarifa plana", entry.BillingMode)
	assert.Equal(t, "acc-1", entry.Author)
	assert.NotEmpty(t, entry.ID)
}

func TestNormalizeWorklog_BadStartDate(t *testing.T) {
	wp := acmeContract()
	_, ok := syncer.NormalizeWorklog(worklog(8, 3600, "02/04/2025"), issueWithMode("ACME-1", "Incidencia", ""), wp, "p-1")
	assert.False(t, ok)
}

func TestNormalizeIssueTicket(t *testing.T) {
	// Events contracts bill by ticket count: zero hours, month from the
	// issue created date.

	wp := acmeContract()
	wp.Type = billing.ContractEvents

	issue := issueWithMode("ACME-5", "Incidencia", "")
	issue.Fields.Created = "2025-02-14T09:30:00.000+0100"

	entry, ok := syncer.NormalizeIssueTicket(issue, wp, "p-1")

	require.True(t, ok)
	assert.True(t, entry.Hours.IsZero())
	assert.Equal(t, 2025, entry.Year)
	assert.Equal(t, time.February, entry.Month)
}

func TestNormalizeIssueTicket_DateOnlyCreated(t *testing.T) {
	wp := acmeContract()
	issue := issueWithMode("ACME-6", "Incidencia", "")
	issue.Fields.Created = "2025-02-14"

	entry, ok := syncer.NormalizeIssueTicket(issue, wp, "p-1")

	require.True(t, ok)
	assert.Equal(t, time.February, entry.Month)
}

package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/amflow/billing-engine/billing"
	"github.com/amflow/billing-engine/config"
)

// =============================================================================
// JIRA ISSUE SEARCH - cursor-paginated
// =============================================================================

// Issue is the bounded projection the engine consumes. Custom fields stay
// raw; the syncer decodes them with its own fallback rules.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

type IssueFields struct {
	IssueType            NamedField      `json:"issuetype"`
	Project              KeyedField      `json:"project"`
	Created              string          `json:"created"`
	TimeOriginalEstimate *int64          `json:"timeoriginalestimate"`
	BillingMode          json.RawMessage `json:"-"`
}

type NamedField struct {
	Name string `json:"name"`
}

type KeyedField struct {
	Key string `json:"key"`
}

// SearchPage is one cursor page of issue search results.
type SearchPage struct {
	Issues        []Issue `json:"issues"`
	NextPageToken string  `json:"nextPageToken"`
	IsLast        bool    `json:"isLast"`
}

// JiraClient talks to the Jira Cloud search API.
type JiraClient struct {
	baseURL string
	token   string

	// BillingModeField is the customfield id carrying the billing mode
	// option, e.g. "customfield_10234".
	BillingModeField string

	http Doer
	log  zerolog.Logger
}

func NewJiraClient(cfg config.Config, log zerolog.Logger) *JiraClient {
	return &JiraClient{
		baseURL:          strings.TrimRight(cfg.JiraBaseURL, "/"),
		token:            cfg.JiraToken,
		BillingModeField: "customfield_10234",
		http:             &http.Client{Timeout: cfg.HTTPTimeout},
		log:              log,
	}
}

// WithDoer swaps the HTTP client. Tests use this to inject fakes.
func (c *JiraClient) WithDoer(d Doer) *JiraClient {
	c.http = d
	return c
}

// SearchIssues fetches one page of issues matching jql. Pass the previous
// page's NextPageToken to continue; empty token starts from the beginning.
// The caller drives the cursor until IsLast.
func (c *JiraClient) SearchIssues(ctx context.Context, jql, pageToken string, maxResults int) (*SearchPage, error) {
	if c.baseURL == "" {
		return nil, billing.ErrUnauthorized
	}

	body := map[string]any{
		"jql":        jql,
		"maxResults": maxResults,
		"fields": []string{
			"issuetype", "project", "created", "timeoriginalestimate", c.BillingModeField,
		},
	}
	if pageToken != "" {
		body["nextPageToken"] = pageToken
	}

	// Decode twice: once into the typed page, once into raw fields to pull
	// the configurable billing-mode custom field out of each issue.
	var raw struct {
		Issues []struct {
			ID     string                     `json:"id"`
			Key    string                     `json:"key"`
			Fields map[string]json.RawMessage `json:"fields"`
		} `json:"issues"`
		NextPageToken string `json:"nextPageToken"`
		IsLast        bool   `json:"isLast"`
	}

	url := c.baseURL + "/rest/api/3/search/jql"
	if err := doJSON(ctx, c.http, c.log, http.MethodPost, url, c.token, body, &raw); err != nil {
		return nil, err
	}

	page := &SearchPage{NextPageToken: raw.NextPageToken, IsLast: raw.IsLast}
	for _, ri := range raw.Issues {
		issue := Issue{ID: ri.ID, Key: ri.Key}
		if f, ok := ri.Fields["issuetype"]; ok {
			_ = json.Unmarshal(f, &issue.Fields.IssueType)
		}
		if f, ok := ri.Fields["project"]; ok {
			_ = json.Unmarshal(f, &issue.Fields.Project)
		}
		if f, ok := ri.Fields["created"]; ok {
			_ = json.Unmarshal(f, &issue.Fields.Created)
		}
		if f, ok := ri.Fields["timeoriginalestimate"]; ok {
			_ = json.Unmarshal(f, &issue.Fields.TimeOriginalEstimate)
		}
		if f, ok := ri.Fields[c.BillingModeField]; ok {
			issue.Fields.BillingMode = f
		}
		page.Issues = append(page.Issues, issue)
	}
	return page, nil
}

// =============================================================================
// JQL CONSTRUCTION
// =============================================================================

// BuildContractJQL builds the server-side filter for one contract window:
// issues in the contract's projects, created within the window, matching
// either a standard issue type or (evolutivo AND its billing mode).
func BuildContractJQL(projects, standardTypes []string, evolutivo bool, evolutivoMode, billingModeFieldName string, from, to billing.TimePoint) string {
	var b strings.Builder
	b.WriteString("project IN (")
	b.WriteString(quoteJoin(projects))
	b.WriteString(") AND created >= \"")
	b.WriteString(from.String())
	b.WriteString("\" AND created <= \"")
	b.WriteString(to.String())
	b.WriteString("\" AND (")

	b.WriteString("issuetype IN (")
	b.WriteString(quoteJoin(standardTypes))
	b.WriteString(")")

	if evolutivo {
		b.WriteString(" OR (issuetype = \"Evolutivo\" AND \"")
		b.WriteString(billingModeFieldName)
		b.WriteString("\" = \"")
		b.WriteString(evolutivoMode)
		b.WriteString("\")")
	}
	b.WriteString(")")
	return b.String()
}

func quoteJoin(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "\"" + v + "\""
	}
	return strings.Join(quoted, ", ")
}

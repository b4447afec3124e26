package tracker

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/amflow/billing-engine/billing"
	"github.com/amflow/billing-engine/config"
)

// =============================================================================
// TEMPO WORKLOG SEARCH - offset-paginated
// =============================================================================

// Worklog is one Tempo worklog row. Duration is seconds-based; attributes
// are free-form key/value tags (the contract tag rides in here).
type Worklog struct {
	TempoWorklogID   int64             `json:"tempoWorklogId"`
	Issue            WorklogIssue      `json:"issue"`
	TimeSpentSeconds int64             `json:"timeSpentSeconds"`
	StartDate        string            `json:"startDate"`
	Author           WorklogAuthor     `json:"author"`
	Attributes       WorklogAttributes `json:"attributes"`
}

type WorklogIssue struct {
	ID  int64  `json:"id"`
	Key string `json:"key"`
}

type WorklogAuthor struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

type WorklogAttributes struct {
	Values []WorklogAttribute `json:"values"`
}

type WorklogAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Get returns the attribute value for key, and whether it was present.
func (a WorklogAttributes) Get(key string) (string, bool) {
	for _, v := range a.Values {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// TempoClient talks to the Tempo worklog search API.
type TempoClient struct {
	baseURL string
	token   string
	http    Doer
	log     zerolog.Logger
}

func NewTempoClient(cfg config.Config, log zerolog.Logger) *TempoClient {
	return &TempoClient{
		baseURL: strings.TrimRight(cfg.TempoBaseURL, "/"),
		token:   cfg.TempoToken,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		log:     log,
	}
}

func (c *TempoClient) WithDoer(d Doer) *TempoClient {
	c.http = d
	return c
}

// SearchWorklogs fetches one offset page of worklogs for the given issue
// ids within [from, to]. The caller advances offset by limit until a page
// comes back shorter than limit.
func (c *TempoClient) SearchWorklogs(ctx context.Context, from, to billing.TimePoint, issueIDs []int64, offset, limit int) ([]Worklog, error) {
	if c.baseURL == "" {
		return nil, billing.ErrUnauthorized
	}

	body := map[string]any{
		"from": from.String(),
		"to":   to.String(),
	}
	if len(issueIDs) > 0 {
		body["issueIds"] = issueIDs
	}

	var out struct {
		Results []Worklog `json:"results"`
	}
	url := fmt.Sprintf("%s/4/worklogs/search?offset=%d&limit=%d", c.baseURL, offset, limit)
	if err := doJSON(ctx, c.http, c.log, http.MethodPost, url, c.token, body, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

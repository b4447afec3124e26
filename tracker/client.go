/*
Package tracker provides thin clients for the external time-tracking APIs:
Jira issue search (cursor-paginated) and Tempo worklog search
(offset-paginated).

PURPOSE:
  These clients own transport concerns only: auth headers, timeouts,
  retry with backoff, pagination tokens, and typed payload decoding.
  Attribution and filtering semantics live in the syncer package.

RETRY POLICY:
  Up to three attempts with exponential backoff on network errors, 429
  and 5xx. 401/403 are fatal (billing.ErrUnauthorized) and never retried:
  bad credentials won't get better. Other 4xx fail immediately.

TESTING:
  Both clients accept any Doer, so tests inject fakes without a network.
*/
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/amflow/billing-engine/billing"
)

// Doer abstracts *http.Client for tests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	maxAttempts  = 3
	retryBaseDur = 300 * time.Millisecond
)

// doJSON performs one authorized JSON request with retry on transient
// failures, decoding the response body into out.
func doJSON(ctx context.Context, client Doer, log zerolog.Logger, method, url, token string, body any, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBaseDur * time.Duration(1<<(attempt-1))):
			}
		}

		var r io.Reader
		if payload != nil {
			r = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, r)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", billing.ErrTransient, err)
			log.Warn().Err(err).Int("attempt", attempt+1).Str("url", url).Msg("tracker: request failed")
			continue
		}

		b, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: %v", billing.ErrTransient, readErr)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: status=%d body=%s", billing.ErrUnauthorized, resp.StatusCode, truncate(b))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("%w: status=%d body=%s", billing.ErrTransient, resp.StatusCode, truncate(b))
			log.Warn().Int("status", resp.StatusCode).Int("attempt", attempt+1).Str("url", url).Msg("tracker: retryable status")
			continue
		case resp.StatusCode >= 300:
			return fmt.Errorf("tracker api status=%d body=%s", resp.StatusCode, truncate(b))
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(b, out); err != nil {
			return fmt.Errorf("tracker: decode response: %w", err)
		}
		return nil
	}
	return lastErr
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200]
	}
	return s
}

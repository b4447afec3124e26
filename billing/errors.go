/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All engine error types in one place. Other packages wrap these with
  additional context and test against them with errors.Is().

ERROR CATEGORIES:
  1. Contract/period errors - Data model invariant violations
  2. Strategy errors - Rate strategy configuration problems
  3. Sync errors - Transient vs fatal tracker failures

SEE ALSO:
  - period.go: Uses period errors
  - regularization.go: Uses strategy errors
  - syncer: Wraps sync errors per chunk
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrContractNotFound is returned when a referenced work package doesn't exist.
	ErrContractNotFound = errors.New("work package not found")

	// ErrPeriodNotFound is returned when a referenced validity period doesn't exist.
	ErrPeriodNotFound = errors.New("validity period not found")

	// ErrNoActivePeriod is returned when a contract has no period containing now.
	ErrNoActivePeriod = errors.New("no active validity period")

	// ErrInvalidPeriod is returned when a period is malformed (end before start,
	// negative quantity).
	ErrInvalidPeriod = errors.New("invalid validity period")

	// ErrPeriodOverlap is returned when validity periods of one contract overlap.
	ErrPeriodOverlap = errors.New("validity periods overlap")

	// ErrStrategyNotFound is returned when a referenced strategy doesn't exist.
	ErrStrategyNotFound = errors.New("special regularization not found")

	// ErrStrategyInUse is returned when deleting a strategy still referenced
	// by a validity period.
	ErrStrategyInUse = errors.New("special regularization is in use")

	// ErrInvalidStrategy is returned when a strategy definition is malformed
	// (overlapping rappel tiers, gaps at zero, negative rates).
	ErrInvalidStrategy = errors.New("invalid special regularization")

	// ErrMissingTicketRef is returned when a MANUAL_CONSUMPTION regularization
	// has no ticket reference.
	ErrMissingTicketRef = errors.New("manual consumption requires a ticket reference")

	// ErrSyncInProgress is returned when a sync for the same contract is
	// already running.
	ErrSyncInProgress = errors.New("sync already in progress for contract")

	// ErrUnauthorized is returned on missing or bad credentials. Fatal: no
	// partial processing is attempted past this point.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransient marks retryable tracker failures (network, 5xx, rate limit).
	ErrTransient = errors.New("transient tracker error")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PeriodOverlapError reports which two periods collide.
type PeriodOverlapError struct {
	Candidate PeriodID
	Existing  PeriodID
}

func (e *PeriodOverlapError) Error() string {
	return fmt.Sprintf("validity period %s overlaps existing period %s", e.Candidate, e.Existing)
}

func (e *PeriodOverlapError) Unwrap() error { return ErrPeriodOverlap }

// StrategyInUseError reports the periods still referencing a strategy.
type StrategyInUseError struct {
	StrategyID StrategyID
	Periods    []PeriodID
}

func (e *StrategyInUseError) Error() string {
	return fmt.Sprintf("special regularization %s is referenced by %d validity period(s)", e.StrategyID, len(e.Periods))
}

func (e *StrategyInUseError) Unwrap() error { return ErrStrategyInUse }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrPeriodOverlap) ||
		errors.Is(err, ErrInvalidStrategy) ||
		errors.Is(err, ErrStrategyInUse) ||
		errors.Is(err, ErrMissingTicketRef)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrPeriodNotFound) ||
		errors.Is(err, ErrStrategyNotFound)
}

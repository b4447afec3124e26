/*
maintenance.go - Manual-consumption duplicate cleanup

PURPOSE:
  A MANUAL_CONSUMPTION regularization records hours for work the tracker
  sync could not see. Once the same ticket+month appears in the synced
  ledger, the manual entry double-counts those hours. This pass finds such
  stale entries and, depending on the mode, reports or deletes them.

MODES:
  Dry-run: report duplicates without touching them (default for callers).
  Live:    delete the duplicates and report what was removed.
*/
package syncer

import (
	"context"

	"github.com/amflow/billing-engine/billing"
)

// DuplicateManual describes one stale manual-consumption entry.
type DuplicateManual struct {
	Regularization billing.Regularization `json:"regularization"`
	TicketRef      string                 `json:"ticketRef"`
	Month          string                 `json:"month"`
}

// MaintenanceResult reports a cleanup pass.
type MaintenanceResult struct {
	DryRun     bool              `json:"dryRun"`
	Duplicates []DuplicateManual `json:"duplicates"`
	Deleted    int               `json:"deleted"`
}

// FindDuplicateManualConsumptions returns MANUAL_CONSUMPTION entries whose
// (ticket, month) now exists in the synced ledger for the contract.
func FindDuplicateManualConsumptions(ctx context.Context, store billing.SyncStore, wpID billing.WorkPackageID) ([]DuplicateManual, error) {
	regs, err := store.ListRegularizations(ctx, wpID)
	if err != nil {
		return nil, err
	}

	var dups []DuplicateManual
	for _, r := range regs {
		if r.Type != billing.RegManualConsumption || r.TicketRef == "" {
			continue
		}
		month := r.Date.MonthKey()
		exists, err := store.HasEntry(ctx, wpID, r.TicketRef, month)
		if err != nil {
			return nil, err
		}
		if exists {
			dups = append(dups, DuplicateManual{
				Regularization: r,
				TicketRef:      r.TicketRef,
				Month:          month.String(),
			})
		}
	}
	return dups, nil
}

// CleanDuplicateManualConsumptions runs the cleanup pass. With dryRun set
// the duplicates are only reported; otherwise they are deleted.
func CleanDuplicateManualConsumptions(ctx context.Context, store billing.SyncStore, wpID billing.WorkPackageID, dryRun bool) (*MaintenanceResult, error) {
	dups, err := FindDuplicateManualConsumptions(ctx, store, wpID)
	if err != nil {
		return nil, err
	}

	result := &MaintenanceResult{DryRun: dryRun, Duplicates: dups}
	if dryRun {
		return result, nil
	}

	for _, d := range dups {
		if err := store.DeleteRegularization(ctx, d.Regularization.ID); err != nil {
			return result, err
		}
		result.Deleted++
	}
	return result, nil
}

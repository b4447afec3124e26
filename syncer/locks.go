package syncer

import (
	"sync"

	"github.com/amflow/billing-engine/billing"
)

// =============================================================================
// CONTRACT LOCKS - serialize syncs of the same contract
// =============================================================================

// lockRegistry gives each contract an exclusive sync slot. Different
// contracts sync in parallel; a second sync of the same contract is
// rejected rather than queued, so a manual debug run and the cron driver
// cannot interleave writes to one ledger.
type lockRegistry struct {
	mu   sync.Mutex
	busy map[billing.WorkPackageID]bool
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{busy: make(map[billing.WorkPackageID]bool)}
}

// acquire returns false if the contract is already syncing.
func (r *lockRegistry) acquire(id billing.WorkPackageID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy[id] {
		return false
	}
	r.busy[id] = true
	return true
}

func (r *lockRegistry) release(id billing.WorkPackageID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.busy, id)
}

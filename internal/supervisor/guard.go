package supervisor

import "sync"

// The process-wide construction guard. Exactly one supervisor may exist
// per process; the slot is claimed at construction and never released.
var (
	guardMu      sync.Mutex
	guardClaimed bool
)

func claimProcessSlot() error {
	guardMu.Lock()
	defer guardMu.Unlock()

	if guardClaimed {
		return ErrAlreadyInitialized
	}
	guardClaimed = true
	return nil
}

func releaseProcessSlot() {
	guardMu.Lock()
	defer guardMu.Unlock()
	guardClaimed = false
}

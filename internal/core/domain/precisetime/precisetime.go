// Package precisetime defines the PreciseTime contract: the
// offset-corrected monotonic clock source backing every created_at /
// updated_at / last_sync_time value in the system. A background
// probe keeps the offset current; on isolated networks the offset stays
// zero and results remain monotonic per process.
package precisetime

import "time"

// Source is consumed by Store, PromptManager, and SyncEngine wherever
// they need "now()" instead of the raw wall clock.
type Source interface {
	// Now returns local monotonic time corrected by the last-probed
	// offset.
	Now() time.Time
	// Start begins the background probe loop; Stop cancels it.
	Start()
	Stop()
}

// Package sync defines the SyncEngine contract: bidirectional eventual
// reconciliation of the Prompt root entity between a local Store and a
// remote Store. Only active when both backends are configured.
package sync

import "context"

// Result is the output of Engine.Sync.
type Result struct {
	Pulled        int
	InsertedLocal int
	UpdatedLocal  int
	Pushed        int
}

// Engine reconciles Prompt rows only — PromptVersions are immutable and
// always inserted via the standard create path, never mutated by sync.
type Engine interface {
	Sync(ctx context.Context) (*Result, error)
}

// Package sync implements sync.Engine: bidirectional last-writer-wins
// reconciliation of the Prompt root entity between a local and a
// remote Store. Follows a worker-loop structure
// generalized from a fire-and-forget job to a two-directional
// read-then-write reconciliation pass.
package sync

import (
	"context"
	"log/slog"
	"strconv"

	promptDomain "brokle/internal/core/domain/prompt"
	syncDomain "brokle/internal/core/domain/sync"
	"brokle/internal/infrastructure/precisetime"
)

const lastSyncTimeKey = "last_sync_time"

// Engine reconciles local and remote Prompt rows only; PromptVersions
// are immutable and never touched here.
type Engine struct {
	local  promptDomain.Store
	remote promptDomain.Store
	clock  *precisetime.HTTPSource
	logger *slog.Logger
}

// NewEngine builds a SyncEngine. Callers should only construct and run
// this when both backends are configured.
func NewEngine(local, remote promptDomain.Store, clock *precisetime.HTTPSource, logger *slog.Logger) *Engine {
	return &Engine{local: local, remote: remote, clock: clock, logger: logger}
}

func (e *Engine) Sync(ctx context.Context) (*syncDomain.Result, error) {
	result := &syncDomain.Result{}

	lastSyncStr, found, err := e.local.GetAppConfig(ctx, lastSyncTimeKey)
	if err != nil {
		return nil, err
	}
	var since int64
	if found {
		since, _ = strconv.ParseInt(lastSyncStr, 10, 64)
	}

	now := e.clock.Now()

	if err := e.pull(ctx, since, result); err != nil {
		return nil, err
	}
	if err := e.push(ctx, since, result); err != nil {
		return nil, err
	}

	if err := e.local.SetAppConfig(ctx, lastSyncTimeKey, strconv.FormatInt(now.UnixNano(), 10)); err != nil {
		return nil, err
	}

	return result, nil
}

func (e *Engine) pull(ctx context.Context, since int64, result *syncDomain.Result) error {
	remotePrompts, err := e.remote.ListPromptsUpdatedSince(ctx, since)
	if err != nil {
		return err
	}
	result.Pulled = len(remotePrompts)

	for _, rp := range remotePrompts {
		localPrompt, err := e.local.GetPromptByName(ctx, rp.Name)
		if err != nil && !promptDomain.IsNotFound(err) {
			return err
		}
		if localPrompt == nil {
			if err := e.local.UpsertPromptRoot(ctx, &rp); err != nil {
				return err
			}
			result.InsertedLocal++
			continue
		}
		if rp.UpdatedAt.After(localPrompt.UpdatedAt) {
			rp.ID = localPrompt.ID
			if err := e.local.UpsertPromptRoot(ctx, &rp); err != nil {
				return err
			}
			result.UpdatedLocal++
		}
	}
	return nil
}

func (e *Engine) push(ctx context.Context, since int64, result *syncDomain.Result) error {
	localPrompts, err := e.local.ListPromptsUpdatedSince(ctx, since)
	if err != nil {
		return err
	}

	for _, lp := range localPrompts {
		remotePrompt, err := e.remote.GetPromptByName(ctx, lp.Name)
		if err != nil && !promptDomain.IsNotFound(err) {
			return err
		}
		if remotePrompt != nil && remotePrompt.UpdatedAt.After(lp.UpdatedAt) {
			// Remote is newer; this prompt was already reconciled in pull().
			continue
		}
		if err := e.remote.UpsertPromptRoot(ctx, &lp); err != nil {
			return err
		}
		result.Pushed++
	}
	return nil
}

package prompt

import (
	"context"
	"errors"
	"log/slog"
	"time"

	promptDomain "brokle/internal/core/domain/prompt"
)

// updateItem is one pending entry in the UpdateQueue: an update request
// plus the result slot its future completes.
type updateItem struct {
	ctx        context.Context
	req        promptDomain.UpdateRequest
	resultSlot chan updateResult
}

type updateResult struct {
	res *promptDomain.CreateResult
	err error
}

// UpdateQueue is a bounded FIFO of pending version-creating updates, each
// carrying a result future. A single long-lived worker drains the
// queue serially, which is the mechanism that makes optimistic locking
// coherent under concurrent writers while update() still appears
// asynchronous to its caller.
//
// Follows a buffered-channel-plus-single-goroutine worker pattern,
// generalized from fire-and-forget notifications (N worker goroutines,
// silent drop on full queue) to request/future semantics via a
// per-item result channel: this queue runs exactly one worker
// (serialization is the whole point) and enqueue fails fast with
// QueueFull instead of silently dropping.
type UpdateQueue struct {
	logger  *slog.Logger
	manager promptDomain.PromptManager
	timeout time.Duration

	items chan *updateItem
	quit  chan struct{}
	done  chan struct{}
}

// NewUpdateQueue builds an UpdateQueue with the given capacity and
// per-item execution timeout (system-wide default of 30s).
func NewUpdateQueue(manager promptDomain.PromptManager, capacity int, timeout time.Duration, logger *slog.Logger) *UpdateQueue {
	if capacity <= 0 {
		capacity = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &UpdateQueue{
		logger:  logger,
		manager: manager,
		timeout: timeout,
		items:   make(chan *updateItem, capacity),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start spawns the single worker goroutine.
func (q *UpdateQueue) Start() {
	go q.worker()
}

// Stop signals the worker to drain and exit; pending items have their
// result slots completed with Cancelled.
func (q *UpdateQueue) Stop() {
	close(q.quit)
	<-q.done
}

// Enqueue fails fast with ErrQueueFull if the queue is at capacity,
// otherwise blocks until the worker completes the item (or ctx is
// cancelled).
func (q *UpdateQueue) Enqueue(ctx context.Context, req promptDomain.UpdateRequest) (*promptDomain.CreateResult, error) {
	item := &updateItem{ctx: ctx, req: req, resultSlot: make(chan updateResult, 1)}

	select {
	case q.items <- item:
	default:
		return nil, promptDomain.ErrQueueFull
	}

	select {
	case res := <-item.resultSlot:
		return res.res, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *UpdateQueue) worker() {
	defer close(q.done)
	for {
		// Check quit first so a pending item is never picked over shutdown.
		select {
		case <-q.quit:
			q.drainOnShutdown()
			return
		default:
		}
		select {
		case item := <-q.items:
			q.process(item)
		case <-q.quit:
			q.drainOnShutdown()
			return
		}
	}
}

func (q *UpdateQueue) drainOnShutdown() {
	for {
		select {
		case item := <-q.items:
			item.resultSlot <- updateResult{err: promptDomain.ErrCancelled}
		default:
			return
		}
	}
}

// process executes one item, auto-rebasing exactly once as a minor bump
// if the worker observes an OptimisticLock failure: any other
// error propagates unmodified.
func (q *UpdateQueue) process(item *updateItem) {
	ctx, cancel := context.WithTimeout(item.ctx, q.timeout)
	defer cancel()

	res, err := q.manager.ExecuteUpdate(ctx, item.req)
	var lockErr *promptDomain.OptimisticLockError
	if err != nil && errors.As(err, &lockErr) {
		q.logger.Warn("update queue: optimistic lock conflict, rebasing once as minor bump",
			"name", item.req.Name, "expected", lockErr.Expected, "actual", lockErr.Actual)
		rebased := item.req
		rebased.ExpectedVersionNumber = lockErr.Actual
		rebased.Fields.VersionType = promptDomain.VersionMinor
		res, err = q.manager.ExecuteUpdate(ctx, rebased)
	}

	item.resultSlot <- updateResult{res: res, err: err}
}

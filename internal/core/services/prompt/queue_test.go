package prompt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	promptDomain "brokle/internal/core/domain/prompt"
)

// fakeManager is a hand-rolled promptDomain.PromptManager stub: queue_test
// only exercises UpdateQueue's own serialization/rebase/shutdown behavior,
// not Manager's algorithm, so a scripted ExecuteUpdate is enough.
type fakeManager struct {
	mu            sync.Mutex
	calls         []promptDomain.UpdateRequest
	executeUpdate func(req promptDomain.UpdateRequest) (*promptDomain.CreateResult, error)
}

func (f *fakeManager) Create(ctx context.Context, req promptDomain.CreateRequest) (*promptDomain.CreateResult, error) {
	return nil, nil
}
func (f *fakeManager) Update(ctx context.Context, req promptDomain.UpdateRequest) (*promptDomain.CreateResult, error) {
	return nil, nil
}
func (f *fakeManager) Delete(ctx context.Context, name string, version string) error { return nil }
func (f *fakeManager) Activate(ctx context.Context, name, version string) error      { return nil }
func (f *fakeManager) Get(ctx context.Context, req promptDomain.GetRequest) (*promptDomain.RenderedOutput, error) {
	return nil, nil
}
func (f *fakeManager) Search(ctx context.Context, req promptDomain.SearchRequest) (*promptDomain.SearchResult, error) {
	return nil, nil
}
func (f *fakeManager) CreatePrinciple(ctx context.Context, req promptDomain.CreatePrincipleRequest) (*promptDomain.PrincipleResult, error) {
	return nil, nil
}

func (f *fakeManager) ExecuteUpdate(ctx context.Context, req promptDomain.UpdateRequest) (*promptDomain.CreateResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.executeUpdate(req)
}

func (f *fakeManager) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestUpdateQueue_EnqueueReturnsWorkerResult(t *testing.T) {
	fm := &fakeManager{executeUpdate: func(req promptDomain.UpdateRequest) (*promptDomain.CreateResult, error) {
		return &promptDomain.CreateResult{Version: "1.1"}, nil
	}}
	q := NewUpdateQueue(fm, 4, time.Second, testLogger())
	q.Start()
	defer q.Stop()

	res, err := q.Enqueue(context.Background(), promptDomain.UpdateRequest{Name: "greet", ExpectedVersionNumber: 1})
	require.NoError(t, err)
	assert.Equal(t, "1.1", res.Version)
}

func TestUpdateQueue_RebasesOnceOnOptimisticLockConflict(t *testing.T) {
	attempt := 0
	fm := &fakeManager{executeUpdate: func(req promptDomain.UpdateRequest) (*promptDomain.CreateResult, error) {
		attempt++
		if attempt == 1 {
			return nil, promptDomain.NewOptimisticLockError("greet", req.ExpectedVersionNumber, 5)
		}
		return &promptDomain.CreateResult{Version: "5.1"}, nil
	}}
	q := NewUpdateQueue(fm, 4, time.Second, testLogger())
	q.Start()
	defer q.Stop()

	res, err := q.Enqueue(context.Background(), promptDomain.UpdateRequest{Name: "greet", ExpectedVersionNumber: 3})
	require.NoError(t, err)
	assert.Equal(t, "5.1", res.Version)
	require.Equal(t, 2, fm.callCount())
	assert.Equal(t, 5, fm.calls[1].ExpectedVersionNumber, "the rebased retry must target the observed actual version")
	assert.Equal(t, promptDomain.VersionMinor, fm.calls[1].Fields.VersionType)
}

func TestUpdateQueue_SecondConflictPropagatesAfterOneRebase(t *testing.T) {
	fm := &fakeManager{executeUpdate: func(req promptDomain.UpdateRequest) (*promptDomain.CreateResult, error) {
		return nil, promptDomain.NewOptimisticLockError("greet", req.ExpectedVersionNumber, 9)
	}}
	q := NewUpdateQueue(fm, 4, time.Second, testLogger())
	q.Start()
	defer q.Stop()

	_, err := q.Enqueue(context.Background(), promptDomain.UpdateRequest{Name: "greet", ExpectedVersionNumber: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, promptDomain.ErrOptimisticLock)
	assert.Equal(t, 2, fm.callCount(), "only one rebase attempt is made")
}

func TestUpdateQueue_EnqueueFailsFastWhenAtCapacity(t *testing.T) {
	block := make(chan struct{})
	fm := &fakeManager{executeUpdate: func(req promptDomain.UpdateRequest) (*promptDomain.CreateResult, error) {
		<-block
		return &promptDomain.CreateResult{Version: "1.0"}, nil
	}}
	q := NewUpdateQueue(fm, 1, time.Second, testLogger())
	q.Start()
	defer func() {
		close(block)
		q.Stop()
	}()

	// Fill the single worker slot with a blocked call, then fill the
	// capacity-1 buffered channel, then observe the next enqueue fail fast.
	go q.Enqueue(context.Background(), promptDomain.UpdateRequest{Name: "a"})
	require.Eventually(t, func() bool { return fm.callCount() >= 1 }, time.Second, time.Millisecond)

	go q.Enqueue(context.Background(), promptDomain.UpdateRequest{Name: "b"})
	time.Sleep(20 * time.Millisecond) // let "b" land in the buffered channel

	_, err := q.Enqueue(context.Background(), promptDomain.UpdateRequest{Name: "c"})
	assert.ErrorIs(t, err, promptDomain.ErrQueueFull)
}

func TestUpdateQueue_StopCancelsPendingItems(t *testing.T) {
	block := make(chan struct{})
	fm := &fakeManager{executeUpdate: func(req promptDomain.UpdateRequest) (*promptDomain.CreateResult, error) {
		<-block
		return &promptDomain.CreateResult{Version: "1.0"}, nil
	}}
	q := NewUpdateQueue(fm, 2, time.Second, testLogger())
	q.Start()

	go q.Enqueue(context.Background(), promptDomain.UpdateRequest{Name: "a"})
	require.Eventually(t, func() bool { return fm.callCount() >= 1 }, time.Second, time.Millisecond)

	resultCh := make(chan error, 1)
	go func() {
		_, err := q.Enqueue(context.Background(), promptDomain.UpdateRequest{Name: "b"})
		resultCh <- err
	}()
	time.Sleep(20 * time.Millisecond) // let "b" land in the queue behind the blocked worker

	stopDone := make(chan struct{})
	go func() {
		q.Stop()
		close(stopDone)
	}()
	close(block) // unblock the in-flight "a" so the worker can observe quit and drain "b"
	<-stopDone

	select {
	case err := <-resultCh:
		assert.ErrorIs(t, err, promptDomain.ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("pending item was never cancelled")
	}
}

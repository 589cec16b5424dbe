package sync

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	promptDomain "brokle/internal/core/domain/prompt"
	"brokle/internal/infrastructure/precisetime"
	promptRepo "brokle/internal/infrastructure/repository/prompt"
	"brokle/pkg/ulid"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newStore(t *testing.T) promptDomain.Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, promptRepo.Migrate(db))
	return promptRepo.NewStore(db, testLogger())
}

func newTestClock() *precisetime.HTTPSource {
	return precisetime.NewHTTPSource("", time.Hour, testLogger())
}

func TestEngine_PullInsertsNewRemotePrompts(t *testing.T) {
	local := newStore(t)
	remote := newStore(t)
	ctx := context.Background()

	remotePrompt := &promptDomain.Prompt{ID: ulid.New().String(), Name: "greet", Content: "hi", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, remote.InsertPrompt(ctx, remotePrompt))

	e := NewEngine(local, remote, newTestClock(), testLogger())
	result, err := e.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pulled)
	assert.Equal(t, 1, result.InsertedLocal)
	assert.Equal(t, 0, result.UpdatedLocal)

	got, err := local.GetPromptByName(ctx, "greet")
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Content)
}

func TestEngine_PushInsertsNewLocalPromptsToRemote(t *testing.T) {
	local := newStore(t)
	remote := newStore(t)
	ctx := context.Background()

	localPrompt := &promptDomain.Prompt{ID: ulid.New().String(), Name: "farewell", Content: "bye", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, local.InsertPrompt(ctx, localPrompt))

	e := NewEngine(local, remote, newTestClock(), testLogger())
	result, err := e.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pushed)

	got, err := remote.GetPromptByName(ctx, "farewell")
	require.NoError(t, err)
	assert.Equal(t, "bye", got.Content)
}

func TestEngine_LastWriterWinsPrefersNewerUpdatedAt(t *testing.T) {
	local := newStore(t)
	remote := newStore(t)
	ctx := context.Background()

	id := ulid.New().String()
	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	require.NoError(t, local.InsertPrompt(ctx, &promptDomain.Prompt{ID: id, Name: "shared", Content: "local-version", CreatedAt: older, UpdatedAt: older}))
	require.NoError(t, remote.InsertPrompt(ctx, &promptDomain.Prompt{ID: ulid.New().String(), Name: "shared", Content: "remote-version", CreatedAt: newer, UpdatedAt: newer}))

	e := NewEngine(local, remote, newTestClock(), testLogger())
	result, err := e.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.UpdatedLocal, "the newer remote content must overwrite the older local row")

	got, err := local.GetPromptByName(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "remote-version", got.Content)
}

func TestEngine_SecondSyncWithNoChangesIsIdempotent(t *testing.T) {
	local := newStore(t)
	remote := newStore(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, remote.InsertPrompt(ctx, &promptDomain.Prompt{ID: ulid.New().String(), Name: "greet", Content: "hi", CreatedAt: now, UpdatedAt: now}))

	e := NewEngine(local, remote, newTestClock(), testLogger())
	_, err := e.Sync(ctx)
	require.NoError(t, err)

	result, err := e.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.InsertedLocal)
	assert.Equal(t, 0, result.UpdatedLocal)
	assert.Equal(t, 0, result.Pushed)
}

func TestEngine_RowWrittenInSameInstantAsWatermarkIsNotReSynced(t *testing.T) {
	local := newStore(t)
	remote := newStore(t)
	ctx := context.Background()

	watermark := time.Now()
	require.NoError(t, local.SetAppConfig(ctx, lastSyncTimeKey, strconv.FormatInt(watermark.UnixNano(), 10)))
	require.NoError(t, remote.InsertPrompt(ctx, &promptDomain.Prompt{ID: ulid.New().String(), Name: "greet", Content: "hi", CreatedAt: watermark, UpdatedAt: watermark}))

	e := NewEngine(local, remote, newTestClock(), testLogger())
	result, err := e.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Pulled, "a row stamped exactly at the watermark must not be re-pulled")
	assert.Equal(t, 0, result.InsertedLocal)
}

package prompt

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	promptDomain "brokle/internal/core/domain/prompt"
	promptRepo "brokle/internal/infrastructure/repository/prompt"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// fakeClock is a deterministic, manually-advanced precisetime.Source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Start() {}
func (c *fakeClock) Stop()  {}

// fakeEmbedder returns a deterministic bag-of-words style vector so search
// tests can assert exact similarity ordering without a real model.
type fakeEmbedder struct {
	dim int
}

func (e *fakeEmbedder) Dimension(ctx context.Context) (int, error) { return e.dim, nil }

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, e.dim)
	for _, r := range text {
		v[int(r)%e.dim]++
	}
	return v, nil
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := e.Embed(context.Background(), t)
		out[i] = v
	}
	return out, nil
}

func setupManager(t *testing.T) (*Manager, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, promptRepo.Migrate(db))

	store := promptRepo.NewStore(db, testLogger())
	m := NewManager(store, nil, &fakeEmbedder{dim: 8}, nil, newFakeClock(), NewRenderer(), false, testLogger())
	return m, db
}

func basicCreateRequest(name string) promptDomain.CreateRequest {
	return promptDomain.CreateRequest{
		Name:        name,
		Description: "a friendly greeting prompt",
		Roles: []promptDomain.RoleInput{
			{RoleType: promptDomain.RoleSystem, Content: "You are helpful.", Order: 0},
			{RoleType: promptDomain.RoleUser, Content: "Hello {name}.", Order: 1},
		},
	}
}

func TestManager_Create_FirstVersionIsOnePointZero(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	result, err := m.Create(ctx, basicCreateRequest("greet"))
	require.NoError(t, err)
	assert.Equal(t, "1.0", result.Version)
	assert.NotEmpty(t, result.PromptID)
	assert.NotEmpty(t, result.VersionID)
}

func TestManager_Create_MinorThenMajorBumpSequence(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	first, err := m.Create(ctx, basicCreateRequest("greet"))
	require.NoError(t, err)
	assert.Equal(t, "1.0", first.Version)

	minorReq := basicCreateRequest("greet")
	minorReq.VersionType = promptDomain.VersionMinor
	second, err := m.Create(ctx, minorReq)
	require.NoError(t, err)
	assert.Equal(t, "1.1", second.Version)

	majorReq := basicCreateRequest("greet")
	majorReq.VersionType = promptDomain.VersionMajor
	third, err := m.Create(ctx, majorReq)
	require.NoError(t, err)
	assert.Equal(t, "2.0", third.Version)

	out, err := m.Get(ctx, promptDomain.GetRequest{Name: "greet"})
	require.NoError(t, err)
	assert.Equal(t, "2.0", out.Version(), "is_latest must point at the newest version exclusively")
}

func TestManager_Update_OptimisticLockRejectsStaleExpectedVersion(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, basicCreateRequest("greet"))
	require.NoError(t, err)

	_, err = m.ExecuteUpdate(ctx, promptDomain.UpdateRequest{
		Name:                  "greet",
		ExpectedVersionNumber: 0, // stale: actual is 1
		Fields:                basicCreateRequest("greet"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, promptDomain.ErrOptimisticLock)
}

func TestManager_ExecuteUpdate_SucceedsWithCorrectExpectedVersion(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	created, err := m.Create(ctx, basicCreateRequest("greet"))
	require.NoError(t, err)
	_ = created

	result, err := m.ExecuteUpdate(ctx, promptDomain.UpdateRequest{
		Name:                  "greet",
		ExpectedVersionNumber: 1,
		Fields:                basicCreateRequest("greet"),
	})
	require.NoError(t, err)
	assert.Equal(t, "1.1", result.Version)
}

func TestManager_Get_RendersRolesWithSubstitution(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, basicCreateRequest("greet"))
	require.NoError(t, err)

	out, err := m.Get(ctx, promptDomain.GetRequest{Name: "greet", TemplateVars: map[string]string{"name": "Ada"}})
	require.NoError(t, err)
	require.Len(t, out.Messages, 2)
	assert.Equal(t, "Hello Ada.", out.Messages[1].Content)
}

func TestManager_Get_ResolvesPrincipleLatestSentinel(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	_, err := m.CreatePrinciple(ctx, promptDomain.CreatePrincipleRequest{Name: "safety", Content: "be safe v1", IsActive: true, IsLatest: true})
	require.NoError(t, err)
	_, err = m.CreatePrinciple(ctx, promptDomain.CreatePrincipleRequest{Name: "safety", Content: "be safe v2", IsActive: true, IsLatest: true})
	require.NoError(t, err)

	req := basicCreateRequest("greet")
	req.PrincipleRefs = []promptDomain.PrincipleRefInput{{PrincipleName: "safety", RefVersion: "latest"}}
	_, err = m.Create(ctx, req)
	require.NoError(t, err)

	out, err := m.Get(ctx, promptDomain.GetRequest{Name: "greet"})
	require.NoError(t, err)
	require.NotEmpty(t, out.Messages)
	assert.Equal(t, "[Principle] be safe v2", out.Messages[0].Content)
}

func TestManager_Get_DanglingPrincipleRefFailsAtCreateTime(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	req := basicCreateRequest("greet")
	req.PrincipleRefs = []promptDomain.PrincipleRefInput{{PrincipleName: "nonexistent", RefVersion: "latest"}}
	_, err := m.Create(ctx, req)
	require.Error(t, err)
	assert.True(t, promptDomain.IsValidation(err))
}

func TestManager_Search_TagFilterRequiresAllTags(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	first := basicCreateRequest("greet")
	first.Tags = []string{"alpha", "beta"}
	_, err := m.Create(ctx, first)
	require.NoError(t, err)

	second := basicCreateRequest("farewell")
	second.Tags = []string{"alpha"}
	_, err = m.Create(ctx, second)
	require.NoError(t, err)

	result, err := m.Search(ctx, promptDomain.SearchRequest{Tags: []string{"alpha", "beta"}, Logic: promptDomain.LogicAND})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "greet", result.Items[0].Name)
}

func TestManager_Delete_RejectsDeletingLastActiveVersion(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, basicCreateRequest("greet"))
	require.NoError(t, err)

	err = m.Delete(ctx, "greet", "")
	assert.ErrorIs(t, err, promptDomain.ErrDeleteLastActive)
}

func TestManager_Delete_DeactivatesNamedVersionWhenAnotherRemainsActive(t *testing.T) {
	m, db := setupManager(t)
	ctx := context.Background()

	first, err := m.Create(ctx, basicCreateRequest("greet"))
	require.NoError(t, err)
	minorReq := basicCreateRequest("greet")
	minorReq.VersionType = promptDomain.VersionMinor
	_, err = m.Create(ctx, minorReq)
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, "greet", "1.0"))

	var v promptDomain.PromptVersion
	require.NoError(t, db.First(&v, "id = ?", first.VersionID).Error)
	assert.False(t, v.IsActive, "the named version must be deactivated")

	out, err := m.Get(ctx, promptDomain.GetRequest{Name: "greet"})
	require.NoError(t, err)
	assert.Equal(t, "1.1", out.Version())
}

func TestManager_Activate_AlwaysPromotesChosenVersionToLatest(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, basicCreateRequest("greet"))
	require.NoError(t, err)
	minorReq := basicCreateRequest("greet")
	minorReq.VersionType = promptDomain.VersionMinor
	_, err = m.Create(ctx, minorReq)
	require.NoError(t, err)

	require.NoError(t, m.Activate(ctx, "greet", "1.0"))

	out, err := m.Get(ctx, promptDomain.GetRequest{Name: "greet"})
	require.NoError(t, err)
	assert.Equal(t, "1.0", out.Version(), "activate always promotes, regardless of version_number ordering")
}

func TestManager_Create_InvalidNameRejected(t *testing.T) {
	m, _ := setupManager(t)
	_, err := m.Create(context.Background(), promptDomain.CreateRequest{Name: "has spaces", Description: "x"})
	assert.ErrorIs(t, err, promptDomain.ErrInvalidName)
}

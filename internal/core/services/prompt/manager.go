package prompt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	cacheDomain "brokle/internal/core/domain/cache"
	"brokle/internal/core/domain/embedding"
	promptDomain "brokle/internal/core/domain/prompt"
	"brokle/internal/core/domain/vector"
	"brokle/internal/core/domain/precisetime"
	"brokle/pkg/pagination"
	"brokle/pkg/pointers"
	"brokle/pkg/ulid"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Manager implements promptDomain.PromptManager: create / update /
// delete / activate / get / search / create_principle, wiring together the
// Store, VectorIndex, EmbeddingProvider, Cache, PreciseTime, and
// TemplateRenderer components. Update enqueues onto an UpdateQueue that is
// wired in after construction via SetQueue, since the queue's worker itself
// calls back into ExecuteUpdate — the two types are mutually dependent and
// this setter breaks the construction cycle without an interface seam that
// would otherwise exist purely to satisfy Go's initialization order.
type Manager struct {
	store         promptDomain.Store
	vectorIndex   vector.Index
	embedder      embedding.Provider
	cache         cacheDomain.Cache
	clock         precisetime.Source
	renderer      promptDomain.TemplateRenderer
	vectorEnabled bool
	queue         *UpdateQueue
	logger        *slog.Logger
}

// NewManager builds the orchestrator. Call SetQueue once the UpdateQueue
// has been constructed around this Manager.
func NewManager(
	store promptDomain.Store,
	vectorIndex vector.Index,
	embedder embedding.Provider,
	cache cacheDomain.Cache,
	clock precisetime.Source,
	renderer promptDomain.TemplateRenderer,
	vectorEnabled bool,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		store:         store,
		vectorIndex:   vectorIndex,
		embedder:      embedder,
		cache:         cache,
		clock:         clock,
		renderer:      renderer,
		vectorEnabled: vectorEnabled,
		logger:        logger,
	}
}

// SetQueue wires the UpdateQueue this Manager.Update enqueues against.
func (m *Manager) SetQueue(q *UpdateQueue) {
	m.queue = q
}

// Create upserts the Prompt root, computes the next version,
// embeds the description, persists the version graph, flips latest, and
// invalidates the cache, all in one Store transaction.
func (m *Manager) Create(ctx context.Context, req promptDomain.CreateRequest) (*promptDomain.CreateResult, error) {
	return m.createInternal(ctx, req)
}

// Update enqueues onto the UpdateQueue and blocks for the worker's result,
// so update() appears synchronous to the caller even though serialization
// happens through the queue.
func (m *Manager) Update(ctx context.Context, req promptDomain.UpdateRequest) (*promptDomain.CreateResult, error) {
	if m.queue == nil {
		return nil, fmt.Errorf("prompt manager: update queue not configured")
	}
	return m.queue.Enqueue(ctx, req)
}

// ExecuteUpdate is the UpdateQueue worker's entry point: it verifies the
// optimistic-lock precondition, then runs the same algorithm as Create.
func (m *Manager) ExecuteUpdate(ctx context.Context, req promptDomain.UpdateRequest) (*promptDomain.CreateResult, error) {
	p, err := m.store.GetPromptByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	info, err := m.store.GetLatestVersionInfo(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	actual := 0
	if info != nil {
		actual = info.VersionNumber
	}
	if actual != req.ExpectedVersionNumber {
		return nil, promptDomain.NewOptimisticLockError(req.Name, req.ExpectedVersionNumber, actual)
	}

	fields := req.Fields
	fields.Name = req.Name
	return m.createInternal(ctx, fields)
}

func (m *Manager) createInternal(ctx context.Context, req promptDomain.CreateRequest) (*promptDomain.CreateResult, error) {
	if err := validateName(req.Name); err != nil {
		return nil, err
	}
	versionType := req.VersionType
	switch versionType {
	case "":
		versionType = promptDomain.VersionMinor
	case promptDomain.VersionMajor, promptDomain.VersionMinor:
	default:
		return nil, promptDomain.ErrInvalidVersionType
	}

	vec := m.embedDescription(ctx, req.Description)

	var result promptDomain.CreateResult
	err := m.store.WithinTransaction(ctx, func(ctx context.Context) error {
		now := m.clock.Now()

		p, err := m.store.GetPromptByName(ctx, req.Name)
		if err != nil && !promptDomain.IsNotFound(err) {
			return err
		}
		if p == nil {
			p = &promptDomain.Prompt{ID: ulid.New().String(), Name: req.Name, Content: req.Description, CreatedAt: now, UpdatedAt: now}
			if err := m.store.InsertPrompt(ctx, p); err != nil {
				return err
			}
		}

		info, err := m.store.GetLatestVersionInfo(ctx, p.ID)
		if err != nil {
			return err
		}
		newVersion, versionNumber, err := nextVersion(info, versionType)
		if err != nil {
			return err
		}

		versionID := ulid.New().String()
		v := &promptDomain.PromptVersion{
			ID:            versionID,
			PromptID:      p.ID,
			Version:       newVersion,
			VersionNumber: versionNumber,
			Description:   req.Description,
			IsActive:      true,
			IsLatest:      true,
			ChangeLog:     req.ChangeLog,
			CreatedAt:     now,
		}
		if err := m.store.InsertVersion(ctx, v); err != nil {
			return err
		}

		roles := make([]promptDomain.NewRoleInput, 0, len(req.Roles))
		for _, r := range req.Roles {
			roles = append(roles, promptDomain.NewRoleInput{
				RoleType: r.RoleType, Content: r.Content, Order: r.Order, TemplateVariables: r.TemplateVariables,
			})
		}
		if err := m.store.InsertRoles(ctx, versionID, roles); err != nil {
			return err
		}

		if err := m.store.InsertLLMConfig(ctx, versionID, toLLMConfigInput(req.LLMConfig)); err != nil {
			return err
		}

		for _, t := range req.Tags {
			tagID, err := m.store.UpsertTag(ctx, t)
			if err != nil {
				return err
			}
			if err := m.store.InsertPromptTag(ctx, versionID, tagID); err != nil {
				return err
			}
		}

		order := 0
		referenced := make(map[string]bool, len(req.PrincipleRefs))
		for _, ref := range req.PrincipleRefs {
			if err := m.store.InsertPrincipleRef(ctx, versionID, promptDomain.NewPrincipleRefInput{
				PrincipleName: ref.PrincipleName, RefVersion: ref.RefVersion, Order: order,
			}); err != nil {
				return err
			}
			referenced[ref.PrincipleName] = true
			order++
		}

		if req.ClientType != "" {
			clientID, err := m.store.UpsertClient(ctx, req.ClientType)
			if err != nil {
				return err
			}
			if err := m.store.InsertClientMapping(ctx, versionID, clientID); err != nil {
				return err
			}

			defaults, err := m.store.GetClientDefaultPrinciples(ctx, req.ClientType)
			if err != nil {
				return err
			}
			for _, d := range defaults {
				if referenced[d.PrincipleName] {
					continue
				}
				if err := m.store.InsertPrincipleRef(ctx, versionID, promptDomain.NewPrincipleRefInput{
					PrincipleName: d.PrincipleName, RefVersion: d.Version, Order: order,
				}); err != nil {
					return err
				}
				referenced[d.PrincipleName] = true
				order++
			}
		}

		if err := m.store.ClearLatestFlag(ctx, p.ID, versionID); err != nil {
			return err
		}

		syncHash := sha256Hex(req.Description)
		if err := m.store.UpdatePromptRoot(ctx, p.ID, req.Description, syncHash, false); err != nil {
			return err
		}

		if m.vectorEnabled {
			if err := m.vectorIndex.Upsert(ctx, versionID, vec); err != nil {
				return errors.Join(vector.ErrIndex, err)
			}
		}

		result = promptDomain.CreateResult{PromptID: p.ID, VersionID: versionID, Version: newVersion}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.invalidateCache(ctx, req.Name)
	return &result, nil
}

// Delete deactivates versions rather than removing rows: a specific
// version is deactivated and its vector removed unless it is the
// prompt's only active version; with no version given, every active
// version but the best candidate (current is_latest, else newest) is
// deactivated.
func (m *Manager) Delete(ctx context.Context, name string, version string) error {
	err := m.store.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := m.store.GetPromptByName(ctx, name)
		if err != nil {
			return err
		}
		versions, err := m.store.ListVersionsOf(ctx, p.ID)
		if err != nil {
			return err
		}

		active := make([]promptDomain.VersionSummary, 0, len(versions))
		for _, v := range versions {
			if v.IsActive {
				active = append(active, v)
			}
		}

		if version != "" {
			var target *promptDomain.VersionSummary
			for i := range active {
				if active[i].Version == version {
					target = &active[i]
					break
				}
			}
			if target == nil {
				return promptDomain.NewVersionNotFoundError(name, version)
			}
			if len(active) <= 1 {
				return promptDomain.ErrDeleteLastActive
			}
			return m.deactivateVersion(ctx, target.VersionID)
		}

		if len(active) == 0 {
			return promptDomain.NewVersionNotFoundError(name, "any active version")
		}
		if len(active) == 1 {
			return promptDomain.ErrDeleteLastActive
		}

		// ListVersionsOf orders by version_number DESC, so active[0] is the
		// newest; prefer the current is_latest version if one exists.
		keep := active[0]
		for _, v := range active {
			if v.IsLatest {
				keep = v
				break
			}
		}
		for _, v := range active {
			if v.VersionID == keep.VersionID {
				continue
			}
			if err := m.deactivateVersion(ctx, v.VersionID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.invalidateCache(ctx, name)
	return nil
}

func (m *Manager) deactivateVersion(ctx context.Context, versionID string) error {
	if err := m.store.SetActiveLatest(ctx, versionID, false, false); err != nil {
		return err
	}
	if m.vectorEnabled {
		if err := m.vectorIndex.Delete(ctx, versionID); err != nil {
			return errors.Join(vector.ErrIndex, err)
		}
	}
	return nil
}

// Activate always promotes the chosen version to latest — there is no
// set_as_latest parameter on this method.
func (m *Manager) Activate(ctx context.Context, name, version string) error {
	err := m.store.WithinTransaction(ctx, func(ctx context.Context) error {
		full, err := m.store.LoadFullVersion(ctx, name, version)
		if err != nil {
			return err
		}
		versions, err := m.store.ListVersionsOf(ctx, full.Prompt.ID)
		if err != nil {
			return err
		}
		for _, v := range versions {
			if v.VersionID == full.Version.ID {
				continue
			}
			if err := m.store.SetActiveLatest(ctx, v.VersionID, false, false); err != nil {
				return err
			}
		}
		return m.store.SetActiveLatest(ctx, full.Version.ID, true, true)
	})
	if err != nil {
		return err
	}
	m.invalidateCache(ctx, name)
	return nil
}

// Get performs a cache lookup, aggregate load, principle +
// role rendering, parameter overlay, and shape-dependent output.
func (m *Manager) Get(ctx context.Context, req promptDomain.GetRequest) (*promptDomain.RenderedOutput, error) {
	key := cacheKey(req.Name, req.Version)
	if m.cache != nil {
		if cached, ok, err := m.cache.Get(ctx, key); err == nil && ok {
			if out, derr := decodeRenderedOutput(cached); derr == nil {
				return &out, nil
			}
		}
	}

	full, err := m.store.LoadFullVersion(ctx, req.Name, req.Version)
	if err != nil {
		return nil, err
	}

	messages := make([]promptDomain.Message, 0, len(full.Principles)+len(full.Roles))
	sortedPrinciples := append([]promptDomain.ResolvedPrinciple(nil), full.Principles...)
	sort.SliceStable(sortedPrinciples, func(i, j int) bool { return sortedPrinciples[i].Order < sortedPrinciples[j].Order })
	for _, p := range sortedPrinciples {
		messages = append(messages, promptDomain.Message{Role: promptDomain.RoleSystem, Content: "[Principle] " + p.Content})
	}
	for _, r := range full.Roles {
		rendered, err := m.renderer.Render(r.Content, req.TemplateVars, r.TemplateVariables.Data)
		if err != nil {
			return nil, err
		}
		messages = append(messages, promptDomain.Message{Role: r.RoleType, Content: rendered})
	}

	format := req.OutputFormat
	if format == "" {
		format = promptDomain.FormatFormatted
	}

	var outParams *promptDomain.LLMParameters
	if format == promptDomain.FormatOpenAI || format == promptDomain.FormatBoth {
		outParams = buildLLMParameters(full.LLMConfig, req.RuntimeParams)
	}

	output := promptDomain.NewRenderedOutput(format, messages, outParams, full.Version.Version)

	if m.cache != nil {
		if encoded, jerr := encodeRenderedOutput(output); jerr == nil {
			if err := m.cache.Set(ctx, key, encoded); err != nil {
				m.logger.Warn("cache: failed to store rendered output", "key", key, "error", err)
			}
		}
	}

	return &output, nil
}

// Search combines a vector/keyword candidate set
// with a tag candidate set under the requested logic, then paginates
// through Store.SearchCandidates.
func (m *Manager) Search(ctx context.Context, req promptDomain.SearchRequest) (*promptDomain.SearchResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = pagination.DefaultPageSize
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	logic := req.Logic
	if logic == "" {
		logic = promptDomain.LogicAND
	}
	versionFilter := req.VersionFilter
	if versionFilter == "" {
		versionFilter = promptDomain.VersionFilterLatest
	}

	similarity := map[string]float64{}
	haveQuery := req.Query != ""
	var vOrK map[string]bool

	if haveQuery {
		var vSet map[string]bool
		if m.vectorEnabled {
			if vec, err := m.embedder.Embed(ctx, req.Query); err != nil {
				m.logger.Warn("search: embedding failed, degrading to keyword search", "error", err)
			} else if matches, serr := m.vectorIndex.Search(ctx, vec, limit*2); serr != nil {
				m.logger.Warn("search: vector search failed, degrading to keyword search", "error", serr)
			} else if len(matches) > 0 {
				vSet = make(map[string]bool, len(matches))
				for _, mt := range matches {
					vSet[mt.VersionID] = true
					similarity[mt.VersionID] = mt.Similarity
				}
			}
		}
		if len(vSet) > 0 {
			vOrK = vSet
		} else {
			ids, err := m.store.SearchVersionsByKeyword(ctx, req.Query)
			if err != nil {
				return nil, err
			}
			vOrK = toSet(ids)
		}
	}

	haveTags := len(req.Tags) > 0
	var tSet map[string]bool
	if haveTags {
		ids, err := m.store.SearchVersionsWithAllTags(ctx, req.Tags)
		if err != nil {
			return nil, err
		}
		tSet = toSet(ids)
	}

	var candidateIDs []string
	restrict := true
	switch {
	case haveQuery && haveTags:
		if logic == promptDomain.LogicAND {
			candidateIDs = setKeys(intersectSet(vOrK, tSet))
		} else {
			candidateIDs = setKeys(unionSet(vOrK, tSet))
		}
	case haveQuery:
		candidateIDs = setKeys(vOrK)
	case haveTags:
		candidateIDs = setKeys(tSet)
	default:
		restrict = false
	}

	if restrict && len(candidateIDs) == 0 {
		return &promptDomain.SearchResult{Total: 0, Items: []promptDomain.SearchResultItem{}}, nil
	}

	opts := promptDomain.SearchCandidateOptions{
		IDs:               candidateIDs,
		RestrictByIDs:     restrict,
		VersionFilter:     versionFilter,
		SpecificVersion:   req.SpecificVersion,
		Limit:             limit,
		Offset:            offset,
		OrderBySimilarity: len(similarity) > 0,
		Similarity:        similarity,
	}

	candidates, err := m.store.SearchCandidates(ctx, opts)
	if err != nil {
		return nil, err
	}

	if opts.OrderBySimilarity {
		sort.SliceStable(candidates, func(i, j int) bool {
			return pointers.DerefFloat64(candidates[i].Similarity) > pointers.DerefFloat64(candidates[j].Similarity)
		})
	}

	items := make([]promptDomain.SearchResultItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, promptDomain.SearchResultItem{
			PromptID: c.PromptID, Name: c.Name, Version: c.Version, Description: c.Description,
			Tags: c.Tags, Similarity: c.Similarity, CreatedAt: c.CreatedAt,
		})
	}

	// SearchCandidates paginates internally without reporting a total row
	// count; when the candidate set is id-restricted, Total is the number
	// of candidate ids, counted before the is_active/version filter, so it
	// can exceed the rows that filter admits. Without a restriction (the
	// "listing" case), Total is the returned page size.
	total := len(items)
	if restrict {
		total = len(candidateIDs)
	}

	return &promptDomain.SearchResult{Total: total, Items: items}, nil
}

// CreatePrinciple creates or appends a
// version of a PrinciplePrompt under the same MAJOR.MINOR rules as create,
// scoped by name instead of prompt_id.
func (m *Manager) CreatePrinciple(ctx context.Context, req promptDomain.CreatePrincipleRequest) (*promptDomain.PrincipleResult, error) {
	if err := validateName(req.Name); err != nil {
		return nil, err
	}

	var result promptDomain.PrincipleResult
	err := m.store.WithinTransaction(ctx, func(ctx context.Context) error {
		now := m.clock.Now()

		info, err := m.store.GetLatestPrincipleInfo(ctx, req.Name)
		if err != nil {
			return err
		}
		newVersion, _, err := nextVersion(info, promptDomain.VersionMinor)
		if err != nil {
			return err
		}

		id := ulid.New().String()
		pr := &promptDomain.PrinciplePrompt{
			ID: id, Name: req.Name, Version: newVersion, Content: req.Content,
			IsActive: req.IsActive, IsLatest: req.IsLatest, CreatedAt: now,
		}
		if err := m.store.InsertPrinciple(ctx, pr); err != nil {
			return err
		}
		if req.IsLatest {
			if err := m.store.ClearPrincipleLatestFlag(ctx, req.Name, id); err != nil {
				return err
			}
		}

		result = promptDomain.PrincipleResult{PrincipleID: id, Name: req.Name, Version: newVersion}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (m *Manager) embedDescription(ctx context.Context, description string) []float32 {
	if !m.vectorEnabled {
		return nil
	}
	vec, err := m.embedder.Embed(ctx, description)
	if err == nil {
		return vec
	}
	m.logger.Warn("embedding providers exhausted, substituting zero vector", "error", err)
	dim, derr := m.embedder.Dimension(ctx)
	if derr != nil || dim <= 0 {
		dim = embedding.DefaultDimension
	}
	return make([]float32, dim)
}

func (m *Manager) invalidateCache(ctx context.Context, name string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Delete(ctx, cacheKey(name, "")); err != nil {
		m.logger.Warn("cache: failed to invalidate latest key", "name", name, "error", err)
	}
	if err := m.cache.InvalidatePattern(ctx, fmt.Sprintf("prompt:%s:", name)); err != nil {
		m.logger.Warn("cache: failed to invalidate pattern", "name", name, "error", err)
	}
}

func cacheKey(name, version string) string {
	if version == "" {
		version = "latest"
	}
	return fmt.Sprintf("prompt:%s:v%s", name, version)
}

// cachedOutput is RenderedOutput's cache-serialization shape. RenderedOutput
// keeps its source version behind a method, not an exported field, so
// this wrapper round-trips it through the cache explicitly.
type cachedOutput struct {
	Format   promptDomain.OutputFormat   `json:"format"`
	Messages []promptDomain.Message      `json:"messages"`
	Params   *promptDomain.LLMParameters `json:"params,omitempty"`
	Version  string                      `json:"version"`
}

func encodeRenderedOutput(o promptDomain.RenderedOutput) (string, error) {
	b, err := json.Marshal(cachedOutput{Format: o.Format, Messages: o.Messages, Params: o.Params, Version: o.Version()})
	return string(b), err
}

func decodeRenderedOutput(s string) (promptDomain.RenderedOutput, error) {
	var wrapped cachedOutput
	if err := json.Unmarshal([]byte(s), &wrapped); err != nil {
		return promptDomain.RenderedOutput{}, err
	}
	return promptDomain.NewRenderedOutput(wrapped.Format, wrapped.Messages, wrapped.Params, wrapped.Version), nil
}

func validateName(name string) error {
	if name == "" || len(name) > 200 || !namePattern.MatchString(name) {
		return promptDomain.ErrInvalidName
	}
	return nil
}

// nextVersion derives the next version string and number: no prior
// version -> "1.0"; major bump -> "{major+1}.0"; else
// "{major}.{minor+1}". version_number is info.VersionNumber+1, or 1 when
// info is nil (PrinciplePrompt callers, which carry no version_number
// field, pass back and ignore the second return value).
func nextVersion(info *promptDomain.LatestVersionInfo, versionType promptDomain.VersionType) (string, int, error) {
	if info == nil {
		return "1.0", 1, nil
	}
	major, minor, err := parseVersionString(info.Version)
	if err != nil {
		return "", 0, err
	}
	if versionType == promptDomain.VersionMajor {
		major++
		minor = 0
	} else {
		minor++
	}
	return fmt.Sprintf("%d.%d", major, minor), info.VersionNumber + 1, nil
}

func parseVersionString(v string) (int, int, error) {
	parts := strings.SplitN(v, ".", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed version string %q", v)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed version string %q: %w", v, err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed version string %q: %w", v, err)
	}
	return major, minor, nil
}

func toLLMConfigInput(in *promptDomain.LLMConfigInput) promptDomain.NewLLMConfigInput {
	out := promptDomain.NewLLMConfigInput{
		Model:            "gpt-3.5-turbo",
		Temperature:      promptDomain.NewDecimalField(0.7),
		MaxTokens:        1000,
		TopP:             promptDomain.NewDecimalField(1.0),
		FrequencyPenalty: promptDomain.NewDecimalField(0),
		PresencePenalty:  promptDomain.NewDecimalField(0),
	}
	if in == nil {
		return out
	}
	if in.Model != "" {
		out.Model = in.Model
	}
	if in.Temperature != nil {
		out.Temperature = promptDomain.NewDecimalField(*in.Temperature)
	}
	if in.MaxTokens != nil {
		out.MaxTokens = *in.MaxTokens
	}
	if in.TopP != nil {
		out.TopP = promptDomain.NewDecimalField(*in.TopP)
	}
	out.TopK = in.TopK
	if in.FrequencyPenalty != nil {
		out.FrequencyPenalty = promptDomain.NewDecimalField(*in.FrequencyPenalty)
	}
	if in.PresencePenalty != nil {
		out.PresencePenalty = promptDomain.NewDecimalField(*in.PresencePenalty)
	}
	out.StopSequences = in.StopSequences
	out.OtherParams = in.OtherParams
	return out
}

func buildLLMParameters(cfg *promptDomain.LLMConfig, runtime *promptDomain.LLMConfigInput) *promptDomain.LLMParameters {
	params := &promptDomain.LLMParameters{
		Model: "gpt-3.5-turbo", Temperature: 0.7, MaxTokens: 1000, TopP: 1.0,
		FrequencyPenalty: 0, PresencePenalty: 0,
	}
	if cfg != nil {
		params.Model = cfg.Model
		params.Temperature = cfg.Temperature.Float64()
		params.MaxTokens = cfg.MaxTokens
		params.TopP = cfg.TopP.Float64()
		params.TopK = cfg.TopK
		params.FrequencyPenalty = cfg.FrequencyPenalty.Float64()
		params.PresencePenalty = cfg.PresencePenalty.Float64()
		params.StopSequences = cfg.StopSequences.Data
		params.OtherParams = cfg.OtherParams.Data
	}
	if runtime != nil {
		if runtime.Model != "" {
			params.Model = runtime.Model
		}
		params.Temperature = pointers.CoalesceFloat64(runtime.Temperature, &params.Temperature)
		params.TopP = pointers.CoalesceFloat64(runtime.TopP, &params.TopP)
		params.FrequencyPenalty = pointers.CoalesceFloat64(runtime.FrequencyPenalty, &params.FrequencyPenalty)
		params.PresencePenalty = pointers.CoalesceFloat64(runtime.PresencePenalty, &params.PresencePenalty)
		params.MaxTokens = int(pointers.CoalesceInt64(int64Ptr(runtime.MaxTokens), int64(params.MaxTokens)))
		if runtime.TopK != nil {
			params.TopK = runtime.TopK
		}
		if runtime.StopSequences != nil {
			params.StopSequences = runtime.StopSequences
		}
		if runtime.OtherParams != nil {
			params.OtherParams = runtime.OtherParams
		}
	}
	return params
}

func int64Ptr(v *int) *int64 {
	if v == nil {
		return nil
	}
	i := int64(*v)
	return &i
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func setKeys(s map[string]bool) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

func unionSet(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

func intersectSet(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

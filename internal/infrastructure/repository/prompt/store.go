// Package prompt implements prompt.Store on top of GORM. The same
// struct backs both the Embedded (SQLite) and Hosted (Postgres)
// realizations — both are GORM dialects and every query here is
// dialect-neutral, so a single adapter serves both.
package prompt

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"brokle/internal/core/domain/common"
	promptDomain "brokle/internal/core/domain/prompt"
	"brokle/internal/infrastructure/database"
	"brokle/internal/infrastructure/shared"
	pkgerrors "brokle/pkg/errors"
	"brokle/pkg/ulid"
)

// gormStore is the Store realization shared by the Embedded and Hosted
// backends. Follows a context-scoped repository pattern (shared.GetDB/
// InjectTx context-scoped transactions, one struct per aggregate root).
type gormStore struct {
	db     *gorm.DB
	logger *slog.Logger
	common.Transactor
}

// NewStore builds a Store over an already-connected GORM handle. The
// caller is responsible for having run Migrate against the same db.
func NewStore(db *gorm.DB, logger *slog.Logger) promptDomain.Store {
	return &gormStore{db: db, logger: logger, Transactor: database.NewTransactor(db)}
}

func (s *gormStore) tx(ctx context.Context) *gorm.DB {
	return shared.GetDB(ctx, s.db).WithContext(ctx)
}

func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if pkgerrors.IsDatabaseUniqueViolation(err) || pkgerrors.IsDatabaseForeignKeyViolation(err) {
		return errors.Join(promptDomain.ErrStoreConflict, err)
	}
	return errors.Join(promptDomain.ErrStoreTransient, err)
}

func (s *gormStore) GetPromptByName(ctx context.Context, name string) (*promptDomain.Prompt, error) {
	var p promptDomain.Prompt
	err := s.tx(ctx).Where("name = ? AND is_deleted = ?", name, false).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, promptDomain.NewPromptNotFoundError(name)
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return &p, nil
}

func (s *gormStore) GetLatestVersionInfo(ctx context.Context, promptID string) (*promptDomain.LatestVersionInfo, error) {
	var v promptDomain.PromptVersion
	err := s.tx(ctx).Where("prompt_id = ? AND is_latest = ?", promptID, true).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return &promptDomain.LatestVersionInfo{VersionID: v.ID, Version: v.Version, VersionNumber: v.VersionNumber}, nil
}

func (s *gormStore) ListVersionsOf(ctx context.Context, promptID string) ([]promptDomain.VersionSummary, error) {
	var versions []promptDomain.PromptVersion
	if err := s.tx(ctx).Where("prompt_id = ?", promptID).Order("version_number DESC").Find(&versions).Error; err != nil {
		return nil, wrapStoreErr(err)
	}
	out := make([]promptDomain.VersionSummary, 0, len(versions))
	for _, v := range versions {
		out = append(out, promptDomain.VersionSummary{
			VersionID:     v.ID,
			Version:       v.Version,
			VersionNumber: v.VersionNumber,
			IsActive:      v.IsActive,
			IsLatest:      v.IsLatest,
			CreatedAt:     v.CreatedAt.Unix(),
		})
	}
	return out, nil
}

func (s *gormStore) InsertPrompt(ctx context.Context, p *promptDomain.Prompt) error {
	return wrapStoreErr(s.tx(ctx).Create(p).Error)
}

func (s *gormStore) InsertVersion(ctx context.Context, v *promptDomain.PromptVersion) error {
	return wrapStoreErr(s.tx(ctx).Create(v).Error)
}

func (s *gormStore) InsertRoles(ctx context.Context, versionID string, roles []promptDomain.NewRoleInput) error {
	if len(roles) == 0 {
		return nil
	}
	rows := make([]promptDomain.PromptRole, 0, len(roles))
	for _, r := range roles {
		rows = append(rows, promptDomain.PromptRole{
			ID:                ulid.New().String(),
			VersionID:         versionID,
			RoleType:          r.RoleType,
			Content:           r.Content,
			Order:             r.Order,
			TemplateVariables: toJSONType(r.TemplateVariables),
		})
	}
	return wrapStoreErr(s.tx(ctx).Create(&rows).Error)
}

func (s *gormStore) InsertLLMConfig(ctx context.Context, versionID string, cfg promptDomain.NewLLMConfigInput) error {
	row := promptDomain.LLMConfig{
		ID:               ulid.New().String(),
		VersionID:        versionID,
		Model:            cfg.Model,
		Temperature:      cfg.Temperature,
		MaxTokens:        cfg.MaxTokens,
		TopP:             cfg.TopP,
		TopK:             cfg.TopK,
		FrequencyPenalty: cfg.FrequencyPenalty,
		PresencePenalty:  cfg.PresencePenalty,
		StopSequences:    toJSONTypeSlice(cfg.StopSequences),
		OtherParams:      toJSONTypeMap(cfg.OtherParams),
	}
	return wrapStoreErr(s.tx(ctx).Create(&row).Error)
}

func (s *gormStore) UpsertTag(ctx context.Context, name string) (string, error) {
	var tag promptDomain.Tag
	err := s.tx(ctx).Where("name = ?", name).First(&tag).Error
	if err == nil {
		return tag.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", wrapStoreErr(err)
	}
	tag = promptDomain.Tag{ID: ulid.New().String(), Name: name}
	if err := s.tx(ctx).Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&tag).Error; err != nil {
		return "", wrapStoreErr(err)
	}
	if tag.ID == "" {
		if err := s.tx(ctx).Where("name = ?", name).First(&tag).Error; err != nil {
			return "", wrapStoreErr(err)
		}
	}
	return tag.ID, nil
}

func (s *gormStore) InsertPromptTag(ctx context.Context, versionID, tagID string) error {
	row := promptDomain.PromptTag{VersionID: versionID, TagID: tagID}
	return wrapStoreErr(s.tx(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error)
}

func (s *gormStore) InsertPrincipleRef(ctx context.Context, versionID string, ref promptDomain.NewPrincipleRefInput) error {
	var pr promptDomain.PrinciplePrompt
	err := s.resolvePrincipleRefTx(ctx, ref.PrincipleName, ref.RefVersion, &pr)
	if err != nil {
		return err
	}
	row := promptDomain.PrincipleRef{
		VersionID:   versionID,
		PrincipleID: pr.ID,
		RefVersion:  ref.RefVersion,
		Order:       ref.Order,
	}
	return wrapStoreErr(s.tx(ctx).Create(&row).Error)
}

func (s *gormStore) UpsertClient(ctx context.Context, clientType string) (string, error) {
	var c promptDomain.LLMClient
	err := s.tx(ctx).Where("name = ?", clientType).First(&c).Error
	if err == nil {
		return c.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", wrapStoreErr(err)
	}
	c = promptDomain.LLMClient{ID: ulid.New().String(), Name: clientType}
	if err := s.tx(ctx).Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&c).Error; err != nil {
		return "", wrapStoreErr(err)
	}
	if c.ID == "" {
		if err := s.tx(ctx).Where("name = ?", clientType).First(&c).Error; err != nil {
			return "", wrapStoreErr(err)
		}
	}
	return c.ID, nil
}

func (s *gormStore) InsertClientMapping(ctx context.Context, versionID, clientID string) error {
	row := promptDomain.ClientMapping{VersionID: versionID, ClientID: clientID}
	return wrapStoreErr(s.tx(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error)
}

func (s *gormStore) ClearLatestFlag(ctx context.Context, promptID string, exceptVersionID string) error {
	q := s.tx(ctx).Model(&promptDomain.PromptVersion{}).Where("prompt_id = ?", promptID)
	if exceptVersionID != "" {
		q = q.Where("id <> ?", exceptVersionID)
	}
	return wrapStoreErr(q.Update("is_latest", false).Error)
}

func (s *gormStore) SetActiveLatest(ctx context.Context, versionID string, active, latest bool) error {
	return wrapStoreErr(s.tx(ctx).Model(&promptDomain.PromptVersion{}).
		Where("id = ?", versionID).
		Updates(map[string]any{"is_active": active, "is_latest": latest}).Error)
}

func (s *gormStore) GetVersionByID(ctx context.Context, versionID string) (*promptDomain.PromptVersion, error) {
	var v promptDomain.PromptVersion
	err := s.tx(ctx).Where("id = ?", versionID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, promptDomain.ErrVersionNotFound
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return &v, nil
}

func (s *gormStore) LoadFullVersion(ctx context.Context, name, versionOrLatest string) (*promptDomain.FullVersion, error) {
	var p promptDomain.Prompt
	if err := s.tx(ctx).Where("name = ? AND is_deleted = ?", name, false).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, promptDomain.NewPromptNotFoundError(name)
		}
		return nil, wrapStoreErr(err)
	}

	q := s.tx(ctx).Where("prompt_id = ?", p.ID)
	if versionOrLatest == "" || versionOrLatest == "latest" {
		q = q.Where("is_latest = ?", true)
	} else {
		q = q.Where("version = ?", versionOrLatest)
	}

	var v promptDomain.PromptVersion
	if err := q.First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, promptDomain.NewVersionNotFoundError(name, versionOrLatest)
		}
		return nil, wrapStoreErr(err)
	}

	var roles []promptDomain.PromptRole
	if err := s.tx(ctx).Where("version_id = ?", v.ID).Order("\"order\" ASC").Find(&roles).Error; err != nil {
		return nil, wrapStoreErr(err)
	}

	var llmConfig *promptDomain.LLMConfig
	var cfg promptDomain.LLMConfig
	if err := s.tx(ctx).Where("version_id = ?", v.ID).First(&cfg).Error; err == nil {
		llmConfig = &cfg
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wrapStoreErr(err)
	}

	var refs []promptDomain.PrincipleRef
	if err := s.tx(ctx).Preload("Principle").Where("version_id = ?", v.ID).Order("\"order\" ASC").Find(&refs).Error; err != nil {
		return nil, wrapStoreErr(err)
	}
	principles := make([]promptDomain.ResolvedPrinciple, 0, len(refs))
	for _, r := range refs {
		if r.Principle == nil {
			continue
		}
		principles = append(principles, promptDomain.ResolvedPrinciple{
			Order:   r.Order,
			Name:    r.Principle.Name,
			Version: r.Principle.Version,
			Content: r.Principle.Content,
		})
	}

	var tags []promptDomain.Tag
	if err := s.tx(ctx).Joins("JOIN prompt_tags pt ON pt.tag_id = tags.id").Where("pt.version_id = ?", v.ID).Find(&tags).Error; err != nil {
		return nil, wrapStoreErr(err)
	}
	tagNames := make([]string, 0, len(tags))
	for _, t := range tags {
		tagNames = append(tagNames, t.Name)
	}

	var mappings []promptDomain.ClientMapping
	if err := s.tx(ctx).Where("version_id = ?", v.ID).Find(&mappings).Error; err != nil {
		return nil, wrapStoreErr(err)
	}
	clientIDs := make([]string, 0, len(mappings))
	for _, m := range mappings {
		clientIDs = append(clientIDs, m.ClientID)
	}

	return &promptDomain.FullVersion{
		Prompt:     p,
		Version:    v,
		Roles:      roles,
		LLMConfig:  llmConfig,
		Principles: principles,
		TagNames:   tagNames,
		ClientIDs:  clientIDs,
	}, nil
}

func (s *gormStore) SearchVersionsWithAllTags(ctx context.Context, tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	var ids []string
	err := s.tx(ctx).Model(&promptDomain.PromptTag{}).
		Select("prompt_tags.version_id").
		Joins("JOIN tags ON tags.id = prompt_tags.tag_id").
		Where("tags.name IN ?", tags).
		Group("prompt_tags.version_id").
		Having("COUNT(DISTINCT tags.name) = ?", len(tags)).
		Pluck("prompt_tags.version_id", &ids).Error
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return ids, nil
}

func (s *gormStore) SearchVersionsByKeyword(ctx context.Context, keyword string) ([]string, error) {
	like := "%" + strings.ToLower(keyword) + "%"
	var ids []string
	err := s.tx(ctx).Model(&promptDomain.PromptVersion{}).
		Joins("JOIN prompts ON prompts.id = prompt_versions.prompt_id").
		Where("LOWER(prompts.name) LIKE ? OR LOWER(prompt_versions.description) LIKE ?", like, like).
		Pluck("prompt_versions.id", &ids).Error
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return ids, nil
}

func (s *gormStore) SearchCandidates(ctx context.Context, opts promptDomain.SearchCandidateOptions) ([]promptDomain.SearchCandidate, error) {
	q := s.tx(ctx).Model(&promptDomain.PromptVersion{}).
		Select("prompt_versions.id AS version_id, prompt_versions.version, prompt_versions.description, prompt_versions.created_at, prompts.id AS prompt_id, prompts.name").
		Joins("JOIN prompts ON prompts.id = prompt_versions.prompt_id AND prompts.is_deleted = false")

	switch opts.VersionFilter {
	case promptDomain.VersionFilterLatest:
		q = q.Where("prompt_versions.is_latest = ?", true)
	case promptDomain.VersionFilterSpecific:
		q = q.Where("prompt_versions.version = ?", opts.SpecificVersion)
	default: // all / empty
		q = q.Where("prompt_versions.is_active = ?", true)
	}

	if opts.RestrictByIDs {
		if len(opts.IDs) == 0 {
			return nil, nil
		}
		q = q.Where("prompt_versions.id IN ?", opts.IDs)
	}

	type row struct {
		VersionID   string
		PromptID    string
		Name        string
		Version     string
		Description string
		CreatedAt   int64
	}
	var rows []row
	if err := q.Order("prompt_versions.created_at DESC").Offset(opts.Offset).Limit(opts.Limit).Find(&rows).Error; err != nil {
		return nil, wrapStoreErr(err)
	}

	out := make([]promptDomain.SearchCandidate, 0, len(rows))
	for _, r := range rows {
		var tagNames []string
		s.tx(ctx).Model(&promptDomain.Tag{}).
			Joins("JOIN prompt_tags pt ON pt.tag_id = tags.id").
			Where("pt.version_id = ?", r.VersionID).
			Pluck("tags.name", &tagNames)

		cand := promptDomain.SearchCandidate{
			PromptID:    r.PromptID,
			Name:        r.Name,
			Version:     r.Version,
			Description: r.Description,
			VersionID:   r.VersionID,
			Tags:        tagNames,
			CreatedAt:   r.CreatedAt,
		}
		if opts.OrderBySimilarity {
			if sim, ok := opts.Similarity[r.VersionID]; ok {
				simCopy := sim
				cand.Similarity = &simCopy
			}
		}
		out = append(out, cand)
	}
	return out, nil
}

func (s *gormStore) UpdatePromptRoot(ctx context.Context, promptID string, content, syncHash string, isDeleted bool) error {
	return wrapStoreErr(s.tx(ctx).Model(&promptDomain.Prompt{}).Where("id = ?", promptID).
		Updates(map[string]any{"content": content, "sync_hash": syncHash, "is_deleted": isDeleted}).Error)
}

func (s *gormStore) resolvePrincipleRefTx(ctx context.Context, name, refVersion string, out *promptDomain.PrinciplePrompt) error {
	q := s.tx(ctx).Where("name = ?", name)
	if refVersion == "" || refVersion == "latest" {
		q = q.Where("is_latest = ?", true)
	} else {
		q = q.Where("version = ?", refVersion)
	}
	err := q.First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return promptDomain.NewPrincipleRefNotFoundError(name, refVersion)
	}
	return wrapStoreErr(err)
}

func (s *gormStore) ResolvePrincipleRef(ctx context.Context, name, refVersion string) (*promptDomain.PrinciplePrompt, error) {
	var pr promptDomain.PrinciplePrompt
	if err := s.resolvePrincipleRefTx(ctx, name, refVersion, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

func (s *gormStore) GetClientDefaultPrinciples(ctx context.Context, clientType string) ([]promptDomain.DefaultPrincipleRef, error) {
	var c promptDomain.LLMClient
	err := s.tx(ctx).Where("name = ?", clientType).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return c.DefaultPrinciples.Data, nil
}

func (s *gormStore) InsertPrinciple(ctx context.Context, pr *promptDomain.PrinciplePrompt) error {
	return wrapStoreErr(s.tx(ctx).Create(pr).Error)
}

func (s *gormStore) GetLatestPrincipleInfo(ctx context.Context, name string) (*promptDomain.LatestVersionInfo, error) {
	var pr promptDomain.PrinciplePrompt
	err := s.tx(ctx).Where("name = ? AND is_latest = ?", name, true).First(&pr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return &promptDomain.LatestVersionInfo{VersionID: pr.ID, Version: pr.Version}, nil
}

func (s *gormStore) ClearPrincipleLatestFlag(ctx context.Context, name string, exceptID string) error {
	q := s.tx(ctx).Model(&promptDomain.PrinciplePrompt{}).Where("name = ?", name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	return wrapStoreErr(q.Update("is_latest", false).Error)
}

func (s *gormStore) DeleteVectorRecord(ctx context.Context, versionID string) error {
	return wrapStoreErr(s.tx(ctx).Exec("DELETE FROM vector_records WHERE version_id = ?", versionID).Error)
}

func (s *gormStore) GetAppConfig(ctx context.Context, key string) (string, bool, error) {
	var row promptDomain.AppConfig
	err := s.tx(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapStoreErr(err)
	}
	return row.Value, true, nil
}

func (s *gormStore) SetAppConfig(ctx context.Context, key, value string) error {
	row := promptDomain.AppConfig{Key: key, Value: value}
	return wrapStoreErr(s.tx(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error)
}

// ListPromptsUpdatedSince returns rows strictly newer than since, a
// UnixNano watermark. Strict (not inclusive) so that a row written in
// the same instant a prior sync() completed is not re-pulled/re-pushed
// by the next no-op sync().
func (s *gormStore) ListPromptsUpdatedSince(ctx context.Context, since int64) ([]promptDomain.Prompt, error) {
	var rows []promptDomain.Prompt
	if err := s.tx(ctx).Where("updated_at > ?", time.Unix(0, since)).Find(&rows).Error; err != nil {
		return nil, wrapStoreErr(err)
	}
	return rows, nil
}

func (s *gormStore) UpsertPromptRoot(ctx context.Context, p *promptDomain.Prompt) error {
	return wrapStoreErr(s.tx(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "content", "sync_hash", "updated_at", "is_deleted"}),
	}).Create(p).Error)
}

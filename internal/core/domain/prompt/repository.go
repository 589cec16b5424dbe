package prompt

import (
	"context"
)

// LatestVersionInfo is the thin projection get_latest_version_info
// returns: just enough to run the optimistic-lock check and compute the
// next version string without loading the full aggregate.
type LatestVersionInfo struct {
	VersionID     string
	Version       string
	VersionNumber int
}

// VersionSummary is one row of list_versions_of: the version string and
// its active/latest flags, without the full role/principle/config graph.
type VersionSummary struct {
	VersionID     string
	Version       string
	VersionNumber int
	IsActive      bool
	IsLatest      bool
	CreatedAt     int64
}

// NewRoleInput, NewPrincipleRefInput, and NewLLMConfigInput are the
// Store-facing shapes PromptManager.create assembles from a create
// request, deliberately separate from the persisted entities so the
// Store never has to guess which IDs are pre-assigned by the caller.
type NewRoleInput struct {
	RoleType          RoleType
	Content           string
	Order             int
	TemplateVariables TemplateVariables
}

type NewPrincipleRefInput struct {
	PrincipleName string
	RefVersion    string
	Order         int
}

type NewLLMConfigInput struct {
	Model            string
	Temperature      DecimalField
	MaxTokens        int
	TopP             DecimalField
	TopK             *int
	FrequencyPenalty DecimalField
	PresencePenalty  DecimalField
	StopSequences    []string
	OtherParams      map[string]any
}

// Store provides transactional CRUD over the entity graph. Two
// realizations share this contract: an Embedded (SQLite) backend and a
// Hosted (Postgres) backend. One transaction is used per write
// operation; GORM commits or rolls back based on the callback's
// returned error, so there is no separate handle to close.
type Store interface {
	// WithinTransaction runs fn with a context carrying a transactional
	// DB handle; fn's returned error triggers rollback.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	GetPromptByName(ctx context.Context, name string) (*Prompt, error)
	GetLatestVersionInfo(ctx context.Context, promptID string) (*LatestVersionInfo, error)
	ListVersionsOf(ctx context.Context, promptID string) ([]VersionSummary, error)

	InsertPrompt(ctx context.Context, p *Prompt) error
	InsertVersion(ctx context.Context, v *PromptVersion) error
	InsertRoles(ctx context.Context, versionID string, roles []NewRoleInput) error
	InsertLLMConfig(ctx context.Context, versionID string, cfg NewLLMConfigInput) error
	UpsertTag(ctx context.Context, name string) (tagID string, err error)
	InsertPromptTag(ctx context.Context, versionID, tagID string) error
	InsertPrincipleRef(ctx context.Context, versionID string, ref NewPrincipleRefInput) error
	UpsertClient(ctx context.Context, clientType string) (clientID string, err error)
	InsertClientMapping(ctx context.Context, versionID, clientID string) error

	ClearLatestFlag(ctx context.Context, promptID string, exceptVersionID string) error
	SetActiveLatest(ctx context.Context, versionID string, active, latest bool) error

	LoadFullVersion(ctx context.Context, name, versionOrLatest string) (*FullVersion, error)
	GetVersionByID(ctx context.Context, versionID string) (*PromptVersion, error)

	// SearchVersionsWithAllTags returns only version ids whose tag set is
	// a superset of tags (AND-of-tags semantics).
	SearchVersionsWithAllTags(ctx context.Context, tags []string) ([]string, error)
	// SearchVersionsByKeyword is the case-insensitive substring fallback
	// over prompt name and version description.
	SearchVersionsByKeyword(ctx context.Context, keyword string) ([]string, error)

	// SearchCandidates lists version ids (and their metadata) matching
	// is_active/version_filter, optionally restricted to an id set; used
	// by PromptManager.search to assemble the final page.
	SearchCandidates(ctx context.Context, opts SearchCandidateOptions) ([]SearchCandidate, error)

	UpdatePromptRoot(ctx context.Context, promptID string, content, syncHash string, isDeleted bool) error

	// ResolvePrincipleRef resolves a principle name plus a ref_version
	// (a concrete version or "latest") to a PrinciplePrompt row.
	ResolvePrincipleRef(ctx context.Context, name, refVersion string) (*PrinciplePrompt, error)
	GetClientDefaultPrinciples(ctx context.Context, clientType string) ([]DefaultPrincipleRef, error)

	InsertPrinciple(ctx context.Context, pr *PrinciplePrompt) error
	GetLatestPrincipleInfo(ctx context.Context, name string) (*LatestVersionInfo, error)
	ClearPrincipleLatestFlag(ctx context.Context, name string, exceptID string) error

	// DeleteVectorRecord removes the vector record for a version, used
	// by delete() per invariant 4.
	DeleteVectorRecord(ctx context.Context, versionID string) error

	// AppConfig
	GetAppConfig(ctx context.Context, key string) (string, bool, error)
	SetAppConfig(ctx context.Context, key, value string) error

	// Prompts/PromptVersions touched by SyncEngine. since is a UnixNano
	// watermark; only rows with updated_at strictly after it are returned.
	ListPromptsUpdatedSince(ctx context.Context, since int64) ([]Prompt, error)
	UpsertPromptRoot(ctx context.Context, p *Prompt) error
}

// SearchCandidateOptions narrows SearchCandidates to the version filter
// and optional id restriction computed by PromptManager.search.
type SearchCandidateOptions struct {
	IDs           []string // nil means "no id restriction"
	RestrictByIDs bool
	VersionFilter VersionFilter
	SpecificVersion string
	Limit         int
	Offset        int
	OrderBySimilarity bool
	Similarity    map[string]float64 // version_id -> similarity, when OrderBySimilarity
}

// SearchCandidate is one row of the final search() page.
type SearchCandidate struct {
	PromptID    string
	Name        string
	Version     string
	Description string
	VersionID   string
	Tags        []string
	Similarity  *float64
	CreatedAt   int64
}

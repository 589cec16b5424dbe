package prompt

import "context"

// RoleInput is one role in a create/update request, prior to
// persistence.
type RoleInput struct {
	RoleType          RoleType
	Content           string
	Order             int
	TemplateVariables TemplateVariables
}

// PrincipleRefInput is one requested principle reference in a
// create/update request.
type PrincipleRefInput struct {
	PrincipleName string
	RefVersion    string // concrete "MAJOR.MINOR" or "latest"
}

// LLMConfigInput is the requested sampling configuration in a
// create/update request; nil fields take the documented defaults.
type LLMConfigInput struct {
	Model            string
	Temperature      *float64
	MaxTokens        *int
	TopP             *float64
	TopK             *int
	FrequencyPenalty *float64
	PresencePenalty  *float64
	StopSequences    []string
	OtherParams      map[string]any
}

// CreateRequest is the input to PromptManager.Create.
type CreateRequest struct {
	Name          string
	Description   string
	Roles         []RoleInput
	VersionType   VersionType
	Tags          []string
	LLMConfig     *LLMConfigInput
	ClientType    string
	PrincipleRefs []PrincipleRefInput
	ChangeLog     string
}

// CreateResult is the output of PromptManager.Create/execute_update.
type CreateResult struct {
	PromptID  string
	VersionID string
	Version   string
}

// UpdateRequest wraps a CreateRequest with the optimistic-lock
// precondition PromptManager.Update enqueues against the UpdateQueue.
type UpdateRequest struct {
	Name                  string
	ExpectedVersionNumber int
	Fields                CreateRequest
}

// GetRequest is the input to PromptManager.Get.
type GetRequest struct {
	Name           string
	Version        string // "" means latest
	OutputFormat   OutputFormat
	TemplateVars   map[string]string
	RuntimeParams  *LLMConfigInput
}

// Message is one entry of a rendered output's message list: either a
// resolved principle (role=system, content prefixed "[Principle] ") or a
// rendered role.
type Message struct {
	Role    RoleType `json:"role"`
	Content string   `json:"content"`
}

// LLMParameters is the base-llm-parameters shape get() builds from
// LLMConfig, overlaid with RuntimeParams.
type LLMParameters struct {
	Model            string         `json:"model"`
	Temperature      float64        `json:"temperature"`
	MaxTokens        int            `json:"max_tokens"`
	TopP             float64        `json:"top_p"`
	TopK             *int           `json:"top_k,omitempty"`
	FrequencyPenalty float64        `json:"frequency_penalty"`
	PresencePenalty  float64        `json:"presence_penalty"`
	StopSequences    []string       `json:"stop,omitempty"`
	OtherParams      map[string]any `json:"other_params,omitempty"`
}

// RenderedOutput is the tagged variant get() returns, shaped per
// OutputFormat. Version() exposes the source version string through a
// method rather than a field visible only in the "both" case.
type RenderedOutput struct {
	Format   OutputFormat   `json:"format"`
	Messages []Message      `json:"messages"`
	Params   *LLMParameters `json:"params,omitempty"`
	version  string
}

func NewRenderedOutput(format OutputFormat, messages []Message, params *LLMParameters, version string) RenderedOutput {
	return RenderedOutput{Format: format, Messages: messages, Params: params, version: version}
}

// Version returns the source version string; populated for every
// format, but only meaningfully surfaced to API callers in "both" shape.
func (r RenderedOutput) Version() string { return r.version }

// SearchRequest is the input to PromptManager.Search.
type SearchRequest struct {
	Query           string
	Tags            []string
	Logic           SearchLogic
	VersionFilter   VersionFilter
	SpecificVersion string
	Limit           int
	Offset          int
}

// SearchResultItem is one row of SearchResult.Items.
type SearchResultItem struct {
	PromptID    string   `json:"prompt_id"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Similarity  *float64 `json:"similarity,omitempty"`
	CreatedAt   int64    `json:"created_at"`
}

// SearchResult is the output of PromptManager.Search.
type SearchResult struct {
	Total int                `json:"total"`
	Items []SearchResultItem `json:"items"`
}

// CreatePrincipleRequest is the input to PromptManager.CreatePrinciple.
type CreatePrincipleRequest struct {
	Name     string
	Content  string
	IsActive bool
	IsLatest bool
}

// PrincipleResult is the output of PromptManager.CreatePrinciple.
type PrincipleResult struct {
	PrincipleID string
	Name        string
	Version     string
}

// SyncResult is the output of SyncEngine.Sync.
type SyncResult struct {
	Pulled        int `json:"pulled"`
	InsertedLocal int `json:"inserted_local"`
	UpdatedLocal  int `json:"updated_local"`
	Pushed        int `json:"pushed"`
}

// PromptManager is the orchestrator: create / update / delete / activate
// / get / search / create_principle. Update is asynchronous —
// it enqueues to the UpdateQueue and returns once the queued item
// completes (the future is awaited internally so callers see a normal
// blocking call).
type PromptManager interface {
	Create(ctx context.Context, req CreateRequest) (*CreateResult, error)
	Update(ctx context.Context, req UpdateRequest) (*CreateResult, error)
	Delete(ctx context.Context, name string, version string) error
	Activate(ctx context.Context, name, version string) error
	Get(ctx context.Context, req GetRequest) (*RenderedOutput, error)
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
	CreatePrinciple(ctx context.Context, req CreatePrincipleRequest) (*PrincipleResult, error)

	// executeUpdate is the UpdateQueue worker's entry point: it runs the
	// create algorithm against a caller-supplied name, enforcing the
	// expected_version_number check first. Exported on the interface (not
	// just the concrete type) so the queue package can depend only on
	// this interface, not the service package.
	ExecuteUpdate(ctx context.Context, req UpdateRequest) (*CreateResult, error)
}

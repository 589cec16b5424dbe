// Package prompt provides the prompt management domain model: the entity
// graph (Prompt/PromptVersion/PromptRole/LLMConfig/Tag/PrinciplePrompt/
// LLMClient), the Store and PromptManager contracts, and the template
// dialect types used to render a version into a message list.
package prompt

import (
	"time"

	"gorm.io/datatypes"
)

// RoleType identifies the slot a PromptRole occupies in the rendered
// message list.
type RoleType string

const (
	RoleSystem    RoleType = "system"
	RoleUser      RoleType = "user"
	RoleAssistant RoleType = "assistant"
	RolePrinciple RoleType = "principle"
)

// VersionType selects whether a new version bumps the major or minor
// component of the previous version string.
type VersionType string

const (
	VersionMajor VersionType = "major"
	VersionMinor VersionType = "minor"
)

// VersionFilter narrows search() to a subset of a prompt's versions.
type VersionFilter string

const (
	VersionFilterLatest   VersionFilter = "latest"
	VersionFilterAll      VersionFilter = "all"
	VersionFilterSpecific VersionFilter = "specific"
)

// SearchLogic combines the vector/keyword candidate set with the tag
// candidate set in search().
type SearchLogic string

const (
	LogicAND SearchLogic = "AND"
	LogicOR  SearchLogic = "OR"
)

// OutputFormat selects the shape get() returns.
type OutputFormat string

const (
	FormatOpenAI    OutputFormat = "openai"
	FormatFormatted OutputFormat = "formatted"
	FormatBoth      OutputFormat = "both"
)

// Prompt is the identity of a named, long-lived prompt. The mutable
// fields here (content/sync_hash/updated_at) mirror the latest version's
// description for SyncEngine reconciliation; the version history itself
// lives in PromptVersion and is never touched by sync.
type Prompt struct {
	ID        string `gorm:"primaryKey;type:text"`
	Name      string `gorm:"uniqueIndex;type:text;not null"`
	Content   string `gorm:"type:text"`
	SyncHash  string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
	IsDeleted bool `gorm:"not null;default:false"`
}

func (Prompt) TableName() string { return "prompts" }

// PromptVersion is one immutable snapshot of a Prompt. Only IsActive and
// IsLatest ever change after insert.
type PromptVersion struct {
	ID            string `gorm:"primaryKey;type:text"`
	PromptID      string `gorm:"index;type:text;not null"`
	Version       string `gorm:"type:text;not null"`
	VersionNumber int    `gorm:"not null"`
	Description   string `gorm:"type:text"`
	IsActive      bool   `gorm:"not null;default:true"`
	IsLatest      bool   `gorm:"not null;default:true"`
	ChangeLog     string `gorm:"type:text"`
	CreatedAt     time.Time

	Roles         []PromptRole    `gorm:"foreignKey:VersionID"`
	LLMConfig     *LLMConfig      `gorm:"foreignKey:VersionID"`
	PrincipleRefs []PrincipleRef  `gorm:"foreignKey:VersionID"`
	ClientMapping []ClientMapping `gorm:"foreignKey:VersionID"`
	Tags          []Tag           `gorm:"many2many:prompt_tags;joinForeignKey:VersionID;joinReferences:TagID"`
}

func (PromptVersion) TableName() string { return "prompt_versions" }

// TemplateVariables is the per-role map of variable name to its
// required/default overlay, persisted as a JSON column.
type TemplateVariables map[string]VariableDef

// VariableDef describes one named template variable's binding rules for
// TemplateRenderer.
type VariableDef struct {
	Required   bool   `json:"required,omitempty"`
	Default    string `json:"default,omitempty"`
	HasDefault bool   `json:"has_default,omitempty"`
}

// PromptRole is one ordered message slot attached to a version.
type PromptRole struct {
	ID                string                                `gorm:"primaryKey;type:text"`
	VersionID         string                                `gorm:"index;type:text;not null"`
	RoleType          RoleType                              `gorm:"type:text;not null"`
	Content           string                                `gorm:"type:text"`
	Order             int                                   `gorm:"not null"`
	TemplateVariables datatypes.JSONType[TemplateVariables] `gorm:"type:text"`
}

func (PromptRole) TableName() string { return "prompt_roles" }

// LLMConfig is the 1:1 sampling configuration attached to a version.
// Numeric sampling fields use decimal.Decimal (not float64) so that
// round-tripping through JSON and comparing during optimistic-lock
// rebases never observes binary float drift.
type LLMConfig struct {
	ID               string                              `gorm:"primaryKey;type:text"`
	VersionID        string                              `gorm:"uniqueIndex;type:text;not null"`
	Model            string                              `gorm:"type:text;not null"`
	Temperature      DecimalField                        `gorm:"type:text"`
	MaxTokens        int                                 `gorm:"not null"`
	TopP             DecimalField                        `gorm:"type:text"`
	TopK             *int
	FrequencyPenalty DecimalField                        `gorm:"type:text"`
	PresencePenalty  DecimalField                        `gorm:"type:text"`
	StopSequences    datatypes.JSONType[[]string]        `gorm:"type:text"`
	OtherParams      datatypes.JSONType[map[string]any]  `gorm:"type:text"`
}

func (LLMConfig) TableName() string { return "llm_configs" }

// Tag is a uniquely named label. Creation is idempotent: upsert_tag
// looks up by name first and only inserts when absent.
type Tag struct {
	ID        string `gorm:"primaryKey;type:text"`
	Name      string `gorm:"uniqueIndex;type:text;not null"`
	CreatedAt time.Time
}

func (Tag) TableName() string { return "tags" }

// PromptTag is the many-to-many join between a version and a tag.
type PromptTag struct {
	VersionID string `gorm:"primaryKey;type:text"`
	TagID     string `gorm:"primaryKey;type:text"`
}

func (PromptTag) TableName() string { return "prompt_tags" }

// PrinciplePrompt is reusable guideline text carrying its own
// name+version+is_latest history, independent of Prompt.
type PrinciplePrompt struct {
	ID        string `gorm:"primaryKey;type:text"`
	Name      string `gorm:"index;type:text;not null"`
	Version   string `gorm:"type:text;not null"`
	Content   string `gorm:"type:text"`
	IsActive  bool   `gorm:"not null;default:true"`
	IsLatest  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
}

func (PrinciplePrompt) TableName() string { return "principle_prompts" }

// PrincipleRef is an ordered reference from a PromptVersion to a
// PrinciplePrompt. RefVersion carries either a concrete "MAJOR.MINOR"
// string or the sentinel "latest", resolved eagerly at read time.
type PrincipleRef struct {
	VersionID   string `gorm:"primaryKey;type:text"`
	PrincipleID string `gorm:"primaryKey;type:text"`
	RefVersion  string `gorm:"type:text;not null"`
	Order       int    `gorm:"not null"`

	Principle *PrinciplePrompt `gorm:"foreignKey:PrincipleID"`
}

func (PrincipleRef) TableName() string { return "version_principle_refs" }

// DefaultPrincipleRef names one principle a client wants merged in by
// default, at its requested ref_version.
type DefaultPrincipleRef struct {
	PrincipleName string `json:"principle_name"`
	Version       string `json:"version"`
}

// LLMClient is a named consumer profile carrying a default, ordered set
// of principle references merged into every version mapped to it.
type LLMClient struct {
	ID                string                                    `gorm:"primaryKey;type:text"`
	Name              string                                    `gorm:"uniqueIndex;type:text;not null"`
	DefaultPrinciples datatypes.JSONType[[]DefaultPrincipleRef] `gorm:"type:text"`
}

func (LLMClient) TableName() string { return "llm_clients" }

// ClientMapping links a PromptVersion to a client whose defaults should
// be merged in.
type ClientMapping struct {
	VersionID string `gorm:"primaryKey;type:text"`
	ClientID  string `gorm:"primaryKey;type:text"`
}

func (ClientMapping) TableName() string { return "version_client_mapping" }

// AppConfig is a simple key/value row, used for last_sync_time and other
// process-level bookkeeping that must outlive a single run.
type AppConfig struct {
	Key   string `gorm:"primaryKey;type:text"`
	Value string `gorm:"type:text"`
}

func (AppConfig) TableName() string { return "app_config" }

// FullVersion is the tagged-record aggregate Store.LoadFullVersion
// returns: roles sorted by Order, principles resolved and sorted by ref
// Order, the 1:1 LLMConfig, and client mapping IDs. Preferring one
// aggregate load over many small lookups, following a repository
// style.
type FullVersion struct {
	Prompt     Prompt
	Version    PromptVersion
	Roles      []PromptRole
	LLMConfig  *LLMConfig
	Principles []ResolvedPrinciple
	TagNames   []string
	ClientIDs  []string
}

// ResolvedPrinciple carries a PrincipleRef's Order alongside the
// PrinciplePrompt content it was resolved to.
type ResolvedPrinciple struct {
	Order   int
	Name    string
	Version string
	Content string
}

package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	promptDomain "brokle/internal/core/domain/prompt"
	"brokle/pkg/response"
	"brokle/pkg/validator"
)

var validRoleTypes = []string{
	string(promptDomain.RoleSystem),
	string(promptDomain.RoleUser),
	string(promptDomain.RoleAssistant),
	string(promptDomain.RolePrinciple),
}

// validateCreateBody runs the field checks ShouldBindJSON's struct tags
// can't express: version_type/role_type enum membership and a role
// list that isn't empty. The name/description length and character
// rules belong to PromptManager.createInternal, which is the
// authoritative validator once roles and enums are known-good.
func validateCreateBody(b createPromptBody) error {
	v := validator.New()
	if len(b.Roles) == 0 {
		v.Required("roles", nil, "at least one role is required")
	}
	v.Conditional(b.VersionType != "", func(v *validator.Validator) *validator.Validator {
		return v.OneOf("version_type", b.VersionType, []string{string(promptDomain.VersionMajor), string(promptDomain.VersionMinor)})
	})
	for i, r := range b.Roles {
		v.OneOf(fmt.Sprintf("roles[%d].role_type", i), r.RoleType, validRoleTypes)
	}
	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// llmConfigBody mirrors LLMConfigInput with JSON tags; nil pointer
// fields are left unset so createInternal's defaulting chain applies.
type llmConfigBody struct {
	Model            string         `json:"model"`
	Temperature      *float64       `json:"temperature"`
	MaxTokens        *int           `json:"max_tokens"`
	TopP             *float64       `json:"top_p"`
	TopK             *int           `json:"top_k"`
	FrequencyPenalty *float64       `json:"frequency_penalty"`
	PresencePenalty  *float64       `json:"presence_penalty"`
	StopSequences    []string       `json:"stop"`
	OtherParams      map[string]any `json:"other_params"`
}

func (b *llmConfigBody) toInput() *promptDomain.LLMConfigInput {
	if b == nil {
		return nil
	}
	return &promptDomain.LLMConfigInput{
		Model:            b.Model,
		Temperature:      b.Temperature,
		MaxTokens:        b.MaxTokens,
		TopP:             b.TopP,
		TopK:             b.TopK,
		FrequencyPenalty: b.FrequencyPenalty,
		PresencePenalty:  b.PresencePenalty,
		StopSequences:    b.StopSequences,
		OtherParams:      b.OtherParams,
	}
}

type roleBody struct {
	RoleType          string                              `json:"role_type"`
	Content           string                              `json:"content"`
	Order             int                                 `json:"order"`
	TemplateVariables map[string]promptDomain.VariableDef `json:"template_variables"`
}

type principleRefBody struct {
	PrincipleName string `json:"principle_name"`
	RefVersion    string `json:"ref_version"`
}

// createPromptBody is the request body for POST /prompts.
type createPromptBody struct {
	Name          string             `json:"name" binding:"required"`
	Description   string             `json:"description"`
	Roles         []roleBody         `json:"roles" binding:"required"`
	VersionType   string             `json:"version_type"`
	Tags          []string           `json:"tags"`
	LLMConfig     *llmConfigBody     `json:"llm_config"`
	ClientType    string             `json:"client_type"`
	PrincipleRefs []principleRefBody `json:"principle_refs"`
	ChangeLog     string             `json:"change_log"`
}

func (b createPromptBody) toCreateRequest() promptDomain.CreateRequest {
	roles := make([]promptDomain.RoleInput, len(b.Roles))
	for i, r := range b.Roles {
		vars := promptDomain.TemplateVariables(r.TemplateVariables)
		roles[i] = promptDomain.RoleInput{
			RoleType:          promptDomain.RoleType(r.RoleType),
			Content:           r.Content,
			Order:             r.Order,
			TemplateVariables: vars,
		}
	}

	refs := make([]promptDomain.PrincipleRefInput, len(b.PrincipleRefs))
	for i, r := range b.PrincipleRefs {
		refs[i] = promptDomain.PrincipleRefInput{PrincipleName: r.PrincipleName, RefVersion: r.RefVersion}
	}

	return promptDomain.CreateRequest{
		Name:          b.Name,
		Description:   b.Description,
		Roles:         roles,
		VersionType:   promptDomain.VersionType(b.VersionType),
		Tags:          b.Tags,
		LLMConfig:     b.LLMConfig.toInput(),
		ClientType:    b.ClientType,
		PrincipleRefs: refs,
		ChangeLog:     b.ChangeLog,
	}
}

// CreatePrompt handles POST /api/v1/prompts.
func (h *Handler) CreatePrompt(c *gin.Context) {
	var body createPromptBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	if err := validateCreateBody(body); err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	result, err := h.manager.Create(c.Request.Context(), body.toCreateRequest())
	if err != nil {
		h.logger.Error("create prompt failed", "name", body.Name, "error", err)
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdatePrompt handles PUT /api/v1/prompts/:name.
func (h *Handler) UpdatePrompt(c *gin.Context) {
	name := c.Param("name")

	var body createPromptBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	if err := validateCreateBody(body); err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	expected, err := strconv.Atoi(c.Query("expected_version_number"))
	if err != nil {
		response.BadRequest(c, "expected_version_number is required", err.Error())
		return
	}

	fields := body.toCreateRequest()
	fields.Name = name

	result, err := h.manager.Update(c.Request.Context(), promptDomain.UpdateRequest{
		Name:                  name,
		ExpectedVersionNumber: expected,
		Fields:                fields,
	})
	if err != nil {
		h.logger.Error("update prompt failed", "name", name, "error", err)
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeletePrompt handles DELETE /api/v1/prompts/:name.
func (h *Handler) DeletePrompt(c *gin.Context) {
	name := c.Param("name")
	version := c.Query("version")

	if err := h.manager.Delete(c.Request.Context(), name, version); err != nil {
		h.logger.Error("delete prompt failed", "name", name, "error", err)
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ActivatePromptVersion handles POST /api/v1/prompts/:name/versions/:version/activate.
func (h *Handler) ActivatePromptVersion(c *gin.Context) {
	name := c.Param("name")
	version := c.Param("version")

	if err := h.manager.Activate(c.Request.Context(), name, version); err != nil {
		h.logger.Error("activate prompt version failed", "name", name, "version", version, "error", err)
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"name": name, "version": version, "activated": true})
}

// GetPrompt handles GET /api/v1/prompts/:name.
func (h *Handler) GetPrompt(c *gin.Context) {
	name := c.Param("name")

	req := promptDomain.GetRequest{
		Name:         name,
		Version:      c.Query("version"),
		OutputFormat: promptDomain.OutputFormat(c.DefaultQuery("format", string(promptDomain.FormatOpenAI))),
	}

	if vars := c.QueryMap("vars"); len(vars) > 0 {
		req.TemplateVars = vars
	}

	out, err := h.manager.Get(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("get prompt failed", "name", name, "error", err)
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"format":   out.Format,
		"messages": out.Messages,
		"params":   out.Params,
		"version":  out.Version(),
	})
}

// SearchPrompts handles GET /api/v1/prompts.
func (h *Handler) SearchPrompts(c *gin.Context) {
	req := promptDomain.SearchRequest{
		Query: c.Query("q"),
		Logic: promptDomain.SearchLogic(c.DefaultQuery("logic", string(promptDomain.LogicAND))),
	}
	if tags := c.Query("tags"); tags != "" {
		req.Tags = strings.Split(tags, ",")
	}

	params := response.ParsePaginationParams(c.Query("limit"), c.Query("offset"))
	req.Limit = params.Limit
	req.Offset = params.GetOffset()

	result, err := h.manager.Search(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("search prompts failed", "error", err)
		response.Error(c, err)
		return
	}

	pag := response.NewPagination(params.Page, params.Limit, int64(result.Total))
	response.SuccessWithPagination(c, result.Items, pag)
}

// CreatePrinciple handles POST /api/v1/principles.
func (h *Handler) CreatePrinciple(c *gin.Context) {
	var body struct {
		Name     string `json:"name" binding:"required"`
		Content  string `json:"content" binding:"required"`
		IsActive bool   `json:"is_active"`
		IsLatest bool   `json:"is_latest"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	result, err := h.manager.CreatePrinciple(c.Request.Context(), promptDomain.CreatePrincipleRequest{
		Name:     body.Name,
		Content:  body.Content,
		IsActive: body.IsActive,
		IsLatest: body.IsLatest,
	})
	if err != nil {
		h.logger.Error("create principle failed", "name", body.Name, "error", err)
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Sync handles POST /api/v1/sync; returns 503 if no hosted backend is
// configured for this process.
func (h *Handler) Sync(c *gin.Context) {
	if h.syncer == nil {
		response.ServiceUnavailable(c, "sync is not configured: no hosted backend is set")
		return
	}

	result, err := h.syncer.Sync(c.Request.Context())
	if err != nil {
		h.logger.Error("sync failed", "error", err)
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

package response

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "brokle/pkg/errors"
	"brokle/pkg/pagination"
)

// APIResponse is the standard envelope every handler in cmd/server
// returns.
type APIResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
	Success bool        `json:"success"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Type    string `json:"type,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

type Meta struct {
	Pagination *Pagination `json:"pagination,omitempty"`
	RequestID  string      `json:"request_id,omitempty"`
	Timestamp  string      `json:"timestamp,omitempty"`
	Version    string      `json:"version,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: getMeta(c)})
}

func SuccessWithPagination(c *gin.Context, data interface{}, pag *Pagination) {
	meta := getMeta(c)
	meta.Pagination = pag
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: meta})
}

func SuccessWithStatus(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, APIResponse{Success: true, Data: data, Meta: getMeta(c)})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data, Meta: getMeta(c)})
}

func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: data, Meta: getMeta(c)})
}

// NoContent returns a 204 response; RFC 7231 §6.3.5 forbids a body.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error renders err through the AppError taxonomy, falling back to a
// generic 500 for unclassified errors.
func Error(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	apiError := &APIError{
		Code:    string(appErrors.InternalError),
		Message: "internal server error",
		Type:    string(appErrors.InternalError),
	}

	if appErr, ok := appErrors.IsAppError(err); ok {
		statusCode = appErr.StatusCode
		apiError = &APIError{
			Code:    string(appErr.Type),
			Message: appErr.Message,
			Details: appErr.Details,
			Type:    string(appErr.Type),
		}
	}

	c.JSON(statusCode, APIResponse{Success: false, Error: apiError, Meta: getMeta(c)})
}

func ErrorWithStatus(c *gin.Context, statusCode int, code, message, details string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message, Details: details},
		Meta:    getMeta(c),
	})
}

func BadRequest(c *gin.Context, message, details string) {
	ErrorWithStatus(c, http.StatusBadRequest, string(appErrors.ValidationError), message, details)
}

func NotFound(c *gin.Context, resource string) {
	ErrorWithStatus(c, http.StatusNotFound, string(appErrors.NotFoundError), resource+" not found", "")
}

func Conflict(c *gin.Context, message string) {
	ErrorWithStatus(c, http.StatusConflict, string(appErrors.StoreConflictType), message, "")
}

func InternalServerError(c *gin.Context, message string) {
	if message == "" {
		message = "internal server error"
	}
	ErrorWithStatus(c, http.StatusInternalServerError, string(appErrors.InternalError), message, "")
}

func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "update queue is at capacity"
	}
	ErrorWithStatus(c, http.StatusTooManyRequests, string(appErrors.QueueFullType), message, "")
}

func ServiceUnavailable(c *gin.Context, message string) {
	if message == "" {
		message = "store temporarily unavailable"
	}
	ErrorWithStatus(c, http.StatusServiceUnavailable, string(appErrors.StoreTransientType), message, "")
}

// NewPagination builds offset-pagination metadata, clamping limit to a
// supported page size.
func NewPagination(page, limit int, total int64) *Pagination {
	if !pagination.IsValidPageSize(limit) {
		limit = pagination.DefaultPageSize
	}
	totalPages := pagination.CalculateTotalPages(total, limit)
	return &Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// ParsePaginationParams parses limit/offset query strings into a
// pagination.Params, clamped to safe bounds.
func ParsePaginationParams(limitStr, offsetStr string) pagination.Params {
	params := pagination.Params{Limit: pagination.DefaultPageSize}

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && pagination.IsValidPageSize(l) {
			params.Limit = l
		}
	}
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			params.Page = o/params.Limit + 1
		}
	}
	if params.Page < 1 {
		params.Page = 1
	}

	if err := params.Validate(); err != nil {
		if params.GetOffset() > pagination.MaxOffset {
			params.Page = pagination.MaxOffset / params.Limit
		}
		if params.Page < 1 {
			params.Page = 1
		}
	}

	return params
}

func getMeta(c *gin.Context) *Meta {
	meta := &Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "v1",
	}
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			meta.RequestID = id
		}
	}
	return meta
}

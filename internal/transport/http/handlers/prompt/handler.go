// Package prompt holds the gin handlers that bind the HTTP API onto
// PromptManager. One Handler struct carrying its dependencies, methods
// split across files by concern.
package prompt

import (
	"log/slog"

	promptDomain "brokle/internal/core/domain/prompt"
	"brokle/internal/core/domain/sync"
)

// Handler contains every prompt-related HTTP handler.
type Handler struct {
	logger  *slog.Logger
	manager promptDomain.PromptManager
	syncer  sync.Engine // nil when no hosted backend is configured
}

// NewHandler builds a Handler. syncer may be nil.
func NewHandler(logger *slog.Logger, manager promptDomain.PromptManager, syncer sync.Engine) *Handler {
	return &Handler{logger: logger, manager: manager, syncer: syncer}
}

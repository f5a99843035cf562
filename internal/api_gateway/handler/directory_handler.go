package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/payfast/payfast-core/internal/directory"
	"github.com/payfast/payfast-core/internal/domain/account"
)

// DirectoryHandler handles HTTP requests for payment address lookups
type DirectoryHandler struct {
	resolver directory.Resolver
	logger   *slog.Logger
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(logger *slog.Logger, resolver directory.Resolver) *DirectoryHandler {
	return &DirectoryHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// Lookup resolves a payment address. An address with no matching account is
// still a 200: the response carries resolved=false and a placeholder name,
// mirroring what the processor will see at execution time.
func (h *DirectoryHandler) Lookup(c *gin.Context) {
	address := c.Param("address")

	resolution, err := h.resolver.Resolve(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, account.ErrInvalidAddress) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to resolve payment address", "address", address, "error", err)
		RespondInternalError(c)
		return
	}

	response := DirectoryResponse{
		Resolved:    resolution.Resolved,
		Address:     resolution.Address,
		DisplayName: resolution.DisplayName,
		AvatarURL:   resolution.AvatarURL,
	}
	if resolution.Resolved {
		response.AccountID = resolution.AccountID.String()
	}

	RespondOK(c, response)
}

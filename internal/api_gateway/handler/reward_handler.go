package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payfast/payfast-core/internal/api_gateway/middleware"
	"github.com/payfast/payfast-core/internal/api_gateway/service"
	"github.com/payfast/payfast-core/internal/domain/account"
)

// RewardHandler handles HTTP requests for scratch-card reward credits
type RewardHandler struct {
	rewardService service.RewardService
	logger        *slog.Logger
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(logger *slog.Logger, rewardService service.RewardService) *RewardHandler {
	return &RewardHandler{
		rewardService: rewardService,
		logger:        logger,
	}
}

// Grant credits a random bonus to the account and returns the amount and
// updated balance
func (h *RewardHandler) Grant(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid account ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	amount, balance, err := h.rewardService.GrantReward(c.Request.Context(), id, middleware.GetCorrelationID(c))
	if err != nil {
		var accNotFound account.ErrAccountNotFound
		if errors.As(err, &accNotFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to grant reward", "account_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, RewardResponse{
		AccountID: id.String(),
		Amount:    fromMinorUnits(amount),
		Balance:   fromMinorUnits(balance),
	})
}

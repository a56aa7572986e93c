package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sourcehire/talent-api/internal/dto"
	"github.com/sourcehire/talent-api/internal/models"
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
	"github.com/sourcehire/talent-api/pkg/response"
)

type creditService interface {
	Balance(ctx context.Context, ownerID string) (*models.CreditAccount, error)
	Rollover(ctx context.Context) (int, error)
}

// CreditHandler exposes credit account endpoints.
type CreditHandler struct {
	service creditService
}

// NewCreditHandler builds a new handler.
func NewCreditHandler(service creditService) *CreditHandler {
	return &CreditHandler{service: service}
}

// Balance godoc
// @Summary Get the caller's credit balance
// @Tags Credits
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /credits [get]
func (h *CreditHandler) Balance(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	account, err := h.service.Balance(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}

// Rollover godoc
// @Summary Reset period usage on accounts whose billing period ended
// @Tags Credits
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /credits/rollover [post]
func (h *CreditHandler) Rollover(c *gin.Context) {
	rolled, err := h.service.Rollover(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.RolloverResponse{AccountsRolled: rolled}, nil)
}

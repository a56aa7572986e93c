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

type unlockService interface {
	Status(ctx context.Context, ownerID, resumeID string) (*dto.UnlockStatusResponse, error)
	Reveal(ctx context.Context, ownerID, resumeID string) (*models.RevealedData, error)
	Unlock(ctx context.Context, ownerID string, req *dto.UnlockRequest) (*dto.UnlockResult, error)
	BulkUnlock(ctx context.Context, ownerID string, req *dto.BulkUnlockRequest) (*dto.BulkUnlockResponse, error)
}

// UnlockHandler exposes the credit-gated resume reveal endpoints.
type UnlockHandler struct {
	service unlockService
}

// NewUnlockHandler builds a new handler.
func NewUnlockHandler(service unlockService) *UnlockHandler {
	return &UnlockHandler{service: service}
}

// Unlock godoc
// @Summary Unlock one resume, spending a credit unless already unlocked
// @Tags Unlocks
// @Accept json
// @Produce json
// @Param payload body dto.UnlockRequest true "Unlock payload"
// @Success 200 {object} response.Envelope
// @Router /unlocks [post]
func (h *UnlockHandler) Unlock(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid unlock payload"))
		return
	}
	result, err := h.service.Unlock(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// BulkUnlock godoc
// @Summary Unlock several resumes in one request
// @Tags Unlocks
// @Accept json
// @Produce json
// @Param payload body dto.BulkUnlockRequest true "Bulk unlock payload"
// @Success 200 {object} response.Envelope
// @Router /unlocks/bulk [post]
func (h *UnlockHandler) BulkUnlock(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.BulkUnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk unlock payload"))
		return
	}
	result, err := h.service.BulkUnlock(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Status godoc
// @Summary Check whether a resume is unlocked for the caller
// @Tags Unlocks
// @Produce json
// @Param resumeId path string true "Resume ID"
// @Success 200 {object} response.Envelope
// @Router /resumes/{resumeId}/status [get]
func (h *UnlockHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status, err := h.service.Status(c.Request.Context(), claims.UserID, c.Param("resumeId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Reveal godoc
// @Summary Get the private data snapshotted on the caller's active grant
// @Tags Unlocks
// @Produce json
// @Param resumeId path string true "Resume ID"
// @Success 200 {object} response.Envelope
// @Router /resumes/{resumeId}/reveal [get]
func (h *UnlockHandler) Reveal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	revealed, err := h.service.Reveal(c.Request.Context(), claims.UserID, c.Param("resumeId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, revealed, nil)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sourcehire/talent-api/internal/dto"
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
	"github.com/sourcehire/talent-api/pkg/response"
)

type transferService interface {
	Transfer(ctx context.Context, ownerID, sourceBucketID string, req *dto.TransferRequest) (*dto.TransferResponse, error)
	BulkRemove(ctx context.Context, ownerID, bucketID string, req *dto.BulkRemoveRequest) (*dto.BulkRemoveResponse, error)
}

// TransferHandler exposes item transfer and bulk removal endpoints.
type TransferHandler struct {
	service transferService
}

// NewTransferHandler builds a new handler.
func NewTransferHandler(service transferService) *TransferHandler {
	return &TransferHandler{service: service}
}

// Transfer godoc
// @Summary Move or copy items into another bucket
// @Tags Buckets
// @Accept json
// @Produce json
// @Param bucketId path string true "Source bucket ID"
// @Param payload body dto.TransferRequest true "Transfer payload"
// @Success 200 {object} response.Envelope
// @Router /buckets/{bucketId}/transfer [post]
func (h *TransferHandler) Transfer(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transfer payload"))
		return
	}
	result, err := h.service.Transfer(c.Request.Context(), claims.UserID, c.Param("bucketId"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// BulkRemove godoc
// @Summary Remove several items from a bucket
// @Tags Buckets
// @Accept json
// @Produce json
// @Param bucketId path string true "Bucket ID"
// @Param payload body dto.BulkRemoveRequest true "Item ids"
// @Success 200 {object} response.Envelope
// @Router /buckets/{bucketId}/items/bulk-remove [post]
func (h *TransferHandler) BulkRemove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.BulkRemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid remove payload"))
		return
	}
	result, err := h.service.BulkRemove(c.Request.Context(), claims.UserID, c.Param("bucketId"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

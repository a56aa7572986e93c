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

type searchService interface {
	Search(ctx context.Context, ownerID string, req *dto.SearchRequest) (*dto.SearchResponse, *models.Pagination, error)
	Rerun(ctx context.Context, ownerID, savedSearchID string, page, pageSize int) (*dto.SearchResponse, *models.Pagination, error)
	History(ctx context.Context, ownerID string, query dto.HistoryQuery) ([]models.SavedSearch, *models.Pagination, error)
	Trend(ctx context.Context, ownerID, savedSearchID string) (*dto.TrendResponse, error)
	Delete(ctx context.Context, ownerID, savedSearchID string) error
}

// SearchHandler exposes resume search and search history endpoints.
type SearchHandler struct {
	service searchService
}

// NewSearchHandler builds a new handler.
func NewSearchHandler(service searchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// Search godoc
// @Summary Search resumes and record the execution in history
// @Tags Search
// @Accept json
// @Produce json
// @Param payload body dto.SearchRequest true "Search filters"
// @Success 200 {object} response.Envelope
// @Router /search [post]
func (h *SearchHandler) Search(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid search payload"))
		return
	}
	result, pagination, err := h.service.Search(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, pagination)
}

// History godoc
// @Summary List the caller's saved searches, most recently used first
// @Tags Search
// @Produce json
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /search/history [get]
func (h *SearchHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.HistoryQuery{Page: intQuery(c, "page"), PageSize: intQuery(c, "pageSize")}
	rows, pagination, err := h.service.History(c.Request.Context(), claims.UserID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Rerun godoc
// @Summary Replay a saved search with its stored filters
// @Tags Search
// @Produce json
// @Param searchId path string true "Saved search ID"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /search/history/{searchId}/rerun [post]
func (h *SearchHandler) Rerun(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, pagination, err := h.service.Rerun(c.Request.Context(), claims.UserID, c.Param("searchId"),
		intQuery(c, "page"), intQuery(c, "pageSize"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, pagination)
}

// Trend godoc
// @Summary Get the result-count series for a saved search
// @Tags Search
// @Produce json
// @Param searchId path string true "Saved search ID"
// @Success 200 {object} response.Envelope
// @Router /search/history/{searchId}/trend [get]
func (h *SearchHandler) Trend(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	trend, err := h.service.Trend(c.Request.Context(), claims.UserID, c.Param("searchId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trend, nil)
}

// Delete godoc
// @Summary Delete a saved search and its samples
// @Tags Search
// @Param searchId path string true "Saved search ID"
// @Success 204
// @Router /search/history/{searchId} [delete]
func (h *SearchHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("searchId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

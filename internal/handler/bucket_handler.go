package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sourcehire/talent-api/internal/dto"
	"github.com/sourcehire/talent-api/internal/models"
	"github.com/sourcehire/talent-api/internal/service"
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
	"github.com/sourcehire/talent-api/pkg/response"
)

type bucketService interface {
	Create(ctx context.Context, ownerID string, req *dto.CreateBucketRequest) (*models.Bucket, error)
	Get(ctx context.Context, ownerID, bucketID string) (*models.Bucket, error)
	List(ctx context.Context, ownerID string, query dto.BucketListQuery) ([]models.Bucket, *models.Pagination, error)
	Update(ctx context.Context, ownerID, bucketID string, req *dto.UpdateBucketRequest) (*models.Bucket, error)
	Delete(ctx context.Context, ownerID, bucketID string) error
	AddItems(ctx context.Context, ownerID, bucketID string, req *dto.AddItemsRequest) (*dto.AddItemsResponse, error)
	UpdateItem(ctx context.Context, ownerID, bucketID, itemID string, req *dto.UpdateItemRequest) (*models.BucketItem, error)
	Reorder(ctx context.Context, ownerID, bucketID string, req *dto.ReorderRequest) error
	ListItems(ctx context.Context, ownerID, bucketID string, query dto.BucketItemQuery) ([]dto.BucketItemView, *models.Pagination, error)
	Activity(ctx context.Context, ownerID, bucketID string, query dto.ActivityQuery) ([]models.ActivityEntry, error)
}

type exportService interface {
	ExportBucket(ctx context.Context, ownerID, bucketID, format string) (*service.ExportFile, error)
}

// BucketHandler exposes bucket and bucket-item endpoints.
type BucketHandler struct {
	service bucketService
	exports exportService
}

// NewBucketHandler builds a new handler.
func NewBucketHandler(service bucketService, exports exportService) *BucketHandler {
	return &BucketHandler{service: service, exports: exports}
}

// Create godoc
// @Summary Create a bucket
// @Tags Buckets
// @Accept json
// @Produce json
// @Param payload body dto.CreateBucketRequest true "Bucket payload"
// @Success 201 {object} response.Envelope
// @Router /buckets [post]
func (h *BucketHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bucket payload"))
		return
	}
	bucket, err := h.service.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, bucket)
}

// List godoc
// @Summary List the caller's buckets in display order
// @Tags Buckets
// @Produce json
// @Param includeArchived query bool false "Include archived buckets"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /buckets [get]
func (h *BucketHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.BucketListQuery{
		IncludeArchived: c.Query("includeArchived") == "true",
		Page:            intQuery(c, "page"),
		PageSize:        intQuery(c, "pageSize"),
	}
	buckets, pagination, err := h.service.List(c.Request.Context(), claims.UserID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, buckets, pagination)
}

// Get godoc
// @Summary Get one bucket
// @Tags Buckets
// @Produce json
// @Param bucketId path string true "Bucket ID"
// @Success 200 {object} response.Envelope
// @Router /buckets/{bucketId} [get]
func (h *BucketHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	bucket, err := h.service.Get(c.Request.Context(), claims.UserID, c.Param("bucketId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bucket, nil)
}

// Update godoc
// @Summary Update bucket metadata (rename, recolor, archive)
// @Tags Buckets
// @Accept json
// @Produce json
// @Param bucketId path string true "Bucket ID"
// @Param payload body dto.UpdateBucketRequest true "Bucket patch"
// @Success 200 {object} response.Envelope
// @Router /buckets/{bucketId} [patch]
func (h *BucketHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bucket payload"))
		return
	}
	bucket, err := h.service.Update(c.Request.Context(), claims.UserID, c.Param("bucketId"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bucket, nil)
}

// Delete godoc
// @Summary Delete a bucket with its items and activity
// @Tags Buckets
// @Param bucketId path string true "Bucket ID"
// @Success 204
// @Router /buckets/{bucketId} [delete]
func (h *BucketHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("bucketId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddItems godoc
// @Summary Add resumes to a bucket
// @Tags Buckets
// @Accept json
// @Produce json
// @Param bucketId path string true "Bucket ID"
// @Param payload body dto.AddItemsRequest true "Resume ids"
// @Success 200 {object} response.Envelope
// @Router /buckets/{bucketId}/items [post]
func (h *BucketHandler) AddItems(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AddItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid add items payload"))
		return
	}
	result, err := h.service.AddItems(c.Request.Context(), claims.UserID, c.Param("bucketId"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListItems godoc
// @Summary List a bucket's items with unlock status
// @Tags Buckets
// @Produce json
// @Param bucketId path string true "Bucket ID"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Param sortBy query string false "display_order or added_at"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /buckets/{bucketId}/items [get]
func (h *BucketHandler) ListItems(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.BucketItemQuery{
		Page:      intQuery(c, "page"),
		PageSize:  intQuery(c, "pageSize"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	items, pagination, err := h.service.ListItems(c.Request.Context(), claims.UserID, c.Param("bucketId"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// UpdateItem godoc
// @Summary Update notes, rating or status on a bucket item
// @Tags Buckets
// @Accept json
// @Produce json
// @Param bucketId path string true "Bucket ID"
// @Param itemId path string true "Item ID"
// @Param payload body dto.UpdateItemRequest true "Item patch"
// @Success 200 {object} response.Envelope
// @Router /buckets/{bucketId}/items/{itemId} [patch]
func (h *BucketHandler) UpdateItem(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid item payload"))
		return
	}
	item, err := h.service.UpdateItem(c.Request.Context(), claims.UserID, c.Param("bucketId"), c.Param("itemId"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Reorder godoc
// @Summary Replace the bucket's item ordering
// @Tags Buckets
// @Accept json
// @Produce json
// @Param bucketId path string true "Bucket ID"
// @Param payload body dto.ReorderRequest true "Complete desired ordering"
// @Success 204
// @Router /buckets/{bucketId}/items/order [put]
func (h *BucketHandler) Reorder(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reorder payload"))
		return
	}
	if err := h.service.Reorder(c.Request.Context(), claims.UserID, c.Param("bucketId"), &req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Activity godoc
// @Summary List the bucket's newest activity entries
// @Tags Buckets
// @Produce json
// @Param bucketId path string true "Bucket ID"
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /buckets/{bucketId}/activity [get]
func (h *BucketHandler) Activity(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.service.Activity(c.Request.Context(), claims.UserID, c.Param("bucketId"),
		dto.ActivityQuery{Limit: intQuery(c, "limit")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Export godoc
// @Summary Download the bucket's items as CSV or PDF
// @Tags Buckets
// @Produce octet-stream
// @Param bucketId path string true "Bucket ID"
// @Param format query string true "csv or pdf"
// @Success 200
// @Router /buckets/{bucketId}/export [get]
func (h *BucketHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	file, err := h.exports.ExportBucket(c.Request.Context(), claims.UserID, c.Param("bucketId"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

func intQuery(c *gin.Context, key string) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return value
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcehire/talent-api/internal/dto"
	"github.com/sourcehire/talent-api/internal/middleware"
	"github.com/sourcehire/talent-api/internal/models"
	"github.com/sourcehire/talent-api/internal/service"
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
)

type bucketServiceMock struct {
	bucket       *models.Bucket
	bucketErr    error
	buckets      []models.Bucket
	addResp      *dto.AddItemsResponse
	addErr       error
	item         *models.BucketItem
	reorderErr   error
	views        []dto.BucketItemView
	entries      []models.ActivityEntry
	deleteErr    error
	lastQuery    dto.BucketListQuery
	createCalled bool
}

func (m *bucketServiceMock) Create(ctx context.Context, ownerID string, req *dto.CreateBucketRequest) (*models.Bucket, error) {
	m.createCalled = true
	return m.bucket, m.bucketErr
}

func (m *bucketServiceMock) Get(ctx context.Context, ownerID, bucketID string) (*models.Bucket, error) {
	return m.bucket, m.bucketErr
}

func (m *bucketServiceMock) List(ctx context.Context, ownerID string, query dto.BucketListQuery) ([]models.Bucket, *models.Pagination, error) {
	m.lastQuery = query
	return m.buckets, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(m.buckets)}, nil
}

func (m *bucketServiceMock) Update(ctx context.Context, ownerID, bucketID string, req *dto.UpdateBucketRequest) (*models.Bucket, error) {
	return m.bucket, m.bucketErr
}

func (m *bucketServiceMock) Delete(ctx context.Context, ownerID, bucketID string) error {
	return m.deleteErr
}

func (m *bucketServiceMock) AddItems(ctx context.Context, ownerID, bucketID string, req *dto.AddItemsRequest) (*dto.AddItemsResponse, error) {
	return m.addResp, m.addErr
}

func (m *bucketServiceMock) UpdateItem(ctx context.Context, ownerID, bucketID, itemID string, req *dto.UpdateItemRequest) (*models.BucketItem, error) {
	return m.item, nil
}

func (m *bucketServiceMock) Reorder(ctx context.Context, ownerID, bucketID string, req *dto.ReorderRequest) error {
	return m.reorderErr
}

func (m *bucketServiceMock) ListItems(ctx context.Context, ownerID, bucketID string, query dto.BucketItemQuery) ([]dto.BucketItemView, *models.Pagination, error) {
	return m.views, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(m.views)}, nil
}

func (m *bucketServiceMock) Activity(ctx context.Context, ownerID, bucketID string, query dto.ActivityQuery) ([]models.ActivityEntry, error) {
	return m.entries, nil
}

type exportServiceMock struct {
	file *service.ExportFile
	err  error
}

func (m *exportServiceMock) ExportBucket(ctx context.Context, ownerID, bucketID, format string) (*service.ExportFile, error) {
	return m.file, m.err
}

func recruiterContext(t *testing.T, method, target string, body []byte) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "owner-1", Role: models.RoleRecruiter})
	return w, c
}

func TestBucketHandlerCreate(t *testing.T) {
	mockSvc := &bucketServiceMock{bucket: &models.Bucket{ID: "bucket-1", Name: "Frontend"}}
	handler := NewBucketHandler(mockSvc, &exportServiceMock{})

	payload, _ := json.Marshal(dto.CreateBucketRequest{Name: "Frontend"})
	w, c := recruiterContext(t, http.MethodPost, "/buckets", payload)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.createCalled)
}

func TestBucketHandlerCreateConflict(t *testing.T) {
	mockSvc := &bucketServiceMock{bucketErr: appErrors.ErrConflict}
	handler := NewBucketHandler(mockSvc, &exportServiceMock{})

	payload, _ := json.Marshal(dto.CreateBucketRequest{Name: "Frontend"})
	w, c := recruiterContext(t, http.MethodPost, "/buckets", payload)

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestBucketHandlerListIncludeArchived(t *testing.T) {
	mockSvc := &bucketServiceMock{buckets: []models.Bucket{{ID: "bucket-1"}}}
	handler := NewBucketHandler(mockSvc, &exportServiceMock{})

	w, c := recruiterContext(t, http.MethodGet, "/buckets?includeArchived=true&page=2", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.lastQuery.IncludeArchived)
	assert.Equal(t, 2, mockSvc.lastQuery.Page)
}

func TestBucketHandlerDelete(t *testing.T) {
	handler := NewBucketHandler(&bucketServiceMock{}, &exportServiceMock{})

	w, c := recruiterContext(t, http.MethodDelete, "/buckets/bucket-1", nil)
	c.Params = gin.Params{{Key: "bucketId", Value: "bucket-1"}}

	handler.Delete(c)
	// c.Status alone does not flush to the recorder outside a gin engine.
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestBucketHandlerReorderConflict(t *testing.T) {
	mockSvc := &bucketServiceMock{reorderErr: appErrors.ErrConflict}
	handler := NewBucketHandler(mockSvc, &exportServiceMock{})

	payload, _ := json.Marshal(dto.ReorderRequest{ItemIDs: []string{"item-1"}, Version: 1})
	w, c := recruiterContext(t, http.MethodPut, "/buckets/bucket-1/items/order", payload)
	c.Params = gin.Params{{Key: "bucketId", Value: "bucket-1"}}

	handler.Reorder(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestBucketHandlerAddItemsMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBucketHandler(&bucketServiceMock{}, &exportServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/buckets/bucket-1/items", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.AddItems(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBucketHandlerExport(t *testing.T) {
	exports := &exportServiceMock{file: &service.ExportFile{
		Content:     []byte("Position,Name\n1,A. L.\n"),
		ContentType: "text/csv",
		Filename:    "frontend.csv",
	}}
	handler := NewBucketHandler(&bucketServiceMock{}, exports)

	w, c := recruiterContext(t, http.MethodGet, "/buckets/bucket-1/export?format=csv", nil)
	c.Params = gin.Params{{Key: "bucketId", Value: "bucket-1"}}

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "frontend.csv")
}

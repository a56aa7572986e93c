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
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
)

type unlockServiceMock struct {
	statusResp   *dto.UnlockStatusResponse
	statusErr    error
	revealResp   *models.RevealedData
	revealErr    error
	unlockResp   *dto.UnlockResult
	unlockErr    error
	bulkResp     *dto.BulkUnlockResponse
	bulkErr      error
	unlockCalled bool
	lastOwner    string
	lastResume   string
}

func (m *unlockServiceMock) Status(ctx context.Context, ownerID, resumeID string) (*dto.UnlockStatusResponse, error) {
	m.lastOwner = ownerID
	m.lastResume = resumeID
	return m.statusResp, m.statusErr
}

func (m *unlockServiceMock) Reveal(ctx context.Context, ownerID, resumeID string) (*models.RevealedData, error) {
	m.lastOwner = ownerID
	m.lastResume = resumeID
	return m.revealResp, m.revealErr
}

func (m *unlockServiceMock) Unlock(ctx context.Context, ownerID string, req *dto.UnlockRequest) (*dto.UnlockResult, error) {
	m.unlockCalled = true
	m.lastOwner = ownerID
	return m.unlockResp, m.unlockErr
}

func (m *unlockServiceMock) BulkUnlock(ctx context.Context, ownerID string, req *dto.BulkUnlockRequest) (*dto.BulkUnlockResponse, error) {
	m.lastOwner = ownerID
	return m.bulkResp, m.bulkErr
}

func TestUnlockHandlerUnlock(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &unlockServiceMock{
		unlockResp: &dto.UnlockResult{ResumeID: "resume-1", Outcome: dto.UnlockOutcomeUnlocked},
	}
	handler := NewUnlockHandler(mockSvc)

	payload, _ := json.Marshal(dto.UnlockRequest{ResumeID: "resume-1", Source: models.UnlockSourceSearch})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/unlocks", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "owner-1", Role: models.RoleRecruiter})

	handler.Unlock(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.unlockCalled)
	assert.Equal(t, "owner-1", mockSvc.lastOwner)
}

func TestUnlockHandlerUnlockMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &unlockServiceMock{}
	handler := NewUnlockHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/unlocks", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Unlock(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, mockSvc.unlockCalled)
}

func TestUnlockHandlerUnlockInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewUnlockHandler(&unlockServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/unlocks", bytes.NewBufferString(`{"resumeId":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "owner-1", Role: models.RoleRecruiter})

	handler.Unlock(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnlockHandlerUnlockInsufficientCredits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &unlockServiceMock{unlockErr: appErrors.ErrInsufficientCredits}
	handler := NewUnlockHandler(mockSvc)

	payload, _ := json.Marshal(dto.UnlockRequest{ResumeID: "resume-1", Source: models.UnlockSourceSearch})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/unlocks", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "owner-1", Role: models.RoleRecruiter})

	handler.Unlock(c)
	require.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestUnlockHandlerRevealLocked(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &unlockServiceMock{revealErr: appErrors.ErrForbidden}
	handler := NewUnlockHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/resumes/resume-1/reveal", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "resumeId", Value: "resume-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "owner-1", Role: models.RoleRecruiter})

	handler.Reveal(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "resume-1", mockSvc.lastResume)
}

func TestUnlockHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &unlockServiceMock{
		statusResp: &dto.UnlockStatusResponse{ResumeID: "resume-1", Unlocked: true},
	}
	handler := NewUnlockHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/resumes/resume-1/status", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "resumeId", Value: "resume-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "owner-1", Role: models.RoleRecruiter})

	handler.Status(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "owner-1", mockSvc.lastOwner)
}

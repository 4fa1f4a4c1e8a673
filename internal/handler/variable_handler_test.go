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

	"github.com/oliveandembers/backoffice-api/internal/dto"
	"github.com/oliveandembers/backoffice-api/internal/middleware"
	"github.com/oliveandembers/backoffice-api/internal/models"
	appErrors "github.com/oliveandembers/backoffice-api/pkg/errors"
)

type variableServiceMock struct {
	listResp   []dto.VariableItem
	getResp    *dto.VariableItem
	getErr     error
	updateResp *dto.UpdateVariableResponse
	updateErr  error
	lastActor  string
}

func (m *variableServiceMock) List(ctx context.Context, category models.VariableCategory) ([]dto.VariableItem, error) {
	return m.listResp, nil
}

func (m *variableServiceMock) Get(ctx context.Context, category models.VariableCategory, key string) (*dto.VariableItem, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.getResp, nil
}

func (m *variableServiceMock) Update(ctx context.Context, category models.VariableCategory, key string, req dto.UpdateVariableRequest, actor string) (*dto.UpdateVariableResponse, error) {
	m.lastActor = actor
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.updateResp, nil
}

func newVariableTestContext(t *testing.T, method, target string, payload interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, target, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestVariableHandlerUpdateCommitted(t *testing.T) {
	mock := &variableServiceMock{updateResp: &dto.UpdateVariableResponse{
		Variable: &dto.VariableItem{Category: "travel", Key: "MAX_TRAVEL_KM", Value: "120", Type: "NUMBER"},
	}}
	handler := NewVariableHandler(mock)

	c, w := newVariableTestContext(t, http.MethodPut, "/variables/travel/MAX_TRAVEL_KM",
		dto.UpdateVariableRequest{Value: "120"})
	c.Params = gin.Params{{Key: "category", Value: "travel"}, {Key: "key", Value: "MAX_TRAVEL_KM"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})

	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff-1", mock.lastActor)
}

func TestVariableHandlerUpdateGatedReturnsAccepted(t *testing.T) {
	mock := &variableServiceMock{updateResp: &dto.UpdateVariableResponse{
		Approval: &dto.ApprovalItem{ID: "req-1", Status: "PENDING"},
		Gated:    true,
	}}
	handler := NewVariableHandler(mock)

	c, w := newVariableTestContext(t, http.MethodPut, "/variables/pricing/BASE_PRICE_PER_PERSON",
		dto.UpdateVariableRequest{Value: "80", Reason: "seasonal adjustment"})
	c.Params = gin.Params{{Key: "category", Value: "pricing"}, {Key: "key", Value: "BASE_PRICE_PER_PERSON"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})

	handler.Update(c)
	require.Equal(t, http.StatusAccepted, w.Code)

	var envelope struct {
		Data dto.UpdateVariableResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Gated)
	require.NotNil(t, envelope.Data.Approval)
	assert.Equal(t, "req-1", envelope.Data.Approval.ID)
}

func TestVariableHandlerUpdateInvalidBody(t *testing.T) {
	handler := NewVariableHandler(&variableServiceMock{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/variables/pricing/X", bytes.NewReader([]byte(`{`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVariableHandlerGetNotFound(t *testing.T) {
	mock := &variableServiceMock{getErr: appErrors.ErrNotFound}
	handler := NewVariableHandler(mock)

	c, w := newVariableTestContext(t, http.MethodGet, "/variables/pricing/NOPE", nil)
	c.Params = gin.Params{{Key: "category", Value: "pricing"}, {Key: "key", Value: "NOPE"}}

	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

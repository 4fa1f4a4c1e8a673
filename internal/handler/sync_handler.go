package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oliveandembers/backoffice-api/internal/dto"
	"github.com/oliveandembers/backoffice-api/internal/models"
	appErrors "github.com/oliveandembers/backoffice-api/pkg/errors"
	"github.com/oliveandembers/backoffice-api/pkg/response"
)

type syncService interface {
	AutoSync(ctx context.Context, sources []string, dryRun bool, actor string) ([]models.SyncOperationResult, error)
	ForceSync(ctx context.Context, sources []string, dryRun bool, actor string) ([]models.SyncOperationResult, error)
	GetDiff(ctx context.Context, sources []string) ([]models.SyncDiff, error)
	GetStatus(ctx context.Context) ([]models.SourceSyncStatus, error)
	GetHistory(ctx context.Context, filter models.SyncHistoryFilter) ([]models.SyncHistoryEntry, *models.Pagination, error)
	GetHealth(ctx context.Context) (*models.SyncHealth, error)
}

// SyncHandler exposes baseline synchronization endpoints.
type SyncHandler struct {
	service syncService
}

// NewSyncHandler builds a new handler.
func NewSyncHandler(service syncService) *SyncHandler {
	return &SyncHandler{service: service}
}

// Auto godoc
// @Summary Run auto sync
// @Description Applies additions and corrections from code baselines. Never deletes store keys.
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body dto.SyncRequest false "Source selection"
// @Success 200 {object} response.Envelope
// @Router /sync/auto [post]
func (h *SyncHandler) Auto(c *gin.Context) {
	req, ok := bindSyncRequest(c)
	if !ok {
		return
	}
	results, err := h.service.AutoSync(c.Request.Context(), req.Sources, req.DryRun, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Force godoc
// @Summary Run force sync
// @Description Makes the store match the baselines exactly, deleting keys complete sources no longer declare.
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body dto.SyncRequest false "Source selection"
// @Success 200 {object} response.Envelope
// @Router /sync/force [post]
func (h *SyncHandler) Force(c *gin.Context) {
	req, ok := bindSyncRequest(c)
	if !ok {
		return
	}
	results, err := h.service.ForceSync(c.Request.Context(), req.Sources, req.DryRun, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Diff godoc
// @Summary Show pending differences
// @Tags Sync
// @Produce json
// @Param source query string false "Limit to one source"
// @Success 200 {object} response.Envelope
// @Router /sync/diff [get]
func (h *SyncHandler) Diff(c *gin.Context) {
	var sources []string
	if source := c.Query("source"); source != "" {
		sources = []string{source}
	}
	diffs, err := h.service.GetDiff(c.Request.Context(), sources)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, diffs, nil)
}

// Status godoc
// @Summary Last sync per source
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sync/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	statuses, err := h.service.GetStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses, nil)
}

// History godoc
// @Summary List past sync runs
// @Tags Sync
// @Produce json
// @Param source query string false "Filter by source"
// @Param sync_type query string false "Filter by type (AUTO or FORCE)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sync/history [get]
func (h *SyncHandler) History(c *gin.Context) {
	filter := models.SyncHistoryFilter{
		Source:   c.Query("source"),
		SyncType: models.SyncType(c.Query("sync_type")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	entries, pagination, err := h.service.GetHistory(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Health godoc
// @Summary Sync engine health
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sync/health [get]
func (h *SyncHandler) Health(c *gin.Context) {
	health, err := h.service.GetHealth(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	response.JSON(c, status, health, nil)
}

func bindSyncRequest(c *gin.Context) (dto.SyncRequest, bool) {
	var req dto.SyncRequest
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sync payload"))
		return req, false
	}
	return req, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

package handler

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/oliveandembers/backoffice-api/internal/dto"
	"github.com/oliveandembers/backoffice-api/internal/models"
	"github.com/oliveandembers/backoffice-api/pkg/response"
)

type reportService interface {
	GenerateSyncHistory(ctx context.Context, format string, filter models.SyncHistoryFilter) (*dto.ReportLink, error)
	GenerateVariables(ctx context.Context, format string) (*dto.ReportLink, error)
	Open(token string) (*os.File, error)
}

// ReportHandler exposes report generation and token-based downloads.
type ReportHandler struct {
	service reportService
}

// NewReportHandler builds a new handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// SyncHistory godoc
// @Summary Generate a sync history report
// @Tags Reports
// @Produce json
// @Param format query string false "csv or pdf"
// @Param source query string false "Filter by source"
// @Param sync_type query string false "Filter by type"
// @Success 200 {object} response.Envelope
// @Router /reports/sync-history [get]
func (h *ReportHandler) SyncHistory(c *gin.Context) {
	filter := models.SyncHistoryFilter{
		Source:   c.Query("source"),
		SyncType: models.SyncType(c.Query("sync_type")),
	}
	link, err := h.service.GenerateSyncHistory(c.Request.Context(), c.Query("format"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Variables godoc
// @Summary Generate a config snapshot report
// @Tags Reports
// @Produce json
// @Param format query string false "csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /reports/variables [get]
func (h *ReportHandler) Variables(c *gin.Context) {
	link, err := h.service.GenerateVariables(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Download streams a generated report. The signed token is the only
// credential, so links can be shared with the owner's accountant.
func (h *ReportHandler) Download(c *gin.Context) {
	file, err := h.service.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	name := filepath.Base(file.Name())
	contentType := "text/csv"
	if filepath.Ext(name) == ".pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oliveandembers/backoffice-api/internal/dto"
	"github.com/oliveandembers/backoffice-api/internal/models"
	appErrors "github.com/oliveandembers/backoffice-api/pkg/errors"
	"github.com/oliveandembers/backoffice-api/pkg/response"
)

type approvalService interface {
	Submit(ctx context.Context, req dto.CreateApprovalRequest, requesterID string) (*models.ApprovalRequest, error)
	Approve(ctx context.Context, id, resolverID, note string) (*models.ApprovalRequest, error)
	Reject(ctx context.Context, id, resolverID, reason string) (*models.ApprovalRequest, error)
	ListPending(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error)
}

// ApprovalHandler exposes the change approval workflow.
type ApprovalHandler struct {
	service approvalService
}

// NewApprovalHandler builds a new handler.
func NewApprovalHandler(service approvalService) *ApprovalHandler {
	return &ApprovalHandler{service: service}
}

// Create godoc
// @Summary Propose a config change
// @Tags Approvals
// @Accept json
// @Produce json
// @Param payload body dto.CreateApprovalRequest true "Change proposal"
// @Success 201 {object} response.Envelope
// @Router /approvals [post]
func (h *ApprovalHandler) Create(c *gin.Context) {
	var req dto.CreateApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}

	request, err := h.service.Submit(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewApprovalItem(*request))
}

// ListPending godoc
// @Summary List pending approval requests
// @Tags Approvals
// @Produce json
// @Param category query string false "Filter by category"
// @Param requester_id query string false "Filter by requester"
// @Success 200 {object} response.Envelope
// @Router /approvals/pending [get]
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	filter := models.ApprovalFilter{
		Category:    models.VariableCategory(c.Query("category")),
		RequesterID: c.Query("requester_id"),
	}
	requests, err := h.service.ListPending(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewApprovalItems(requests), nil)
}

// Approve godoc
// @Summary Approve a pending change
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Approval request ID"
// @Param payload body dto.ResolveApprovalRequest false "Reviewer note"
// @Success 200 {object} response.Envelope
// @Router /approvals/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	var req dto.ResolveApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolve payload"))
		return
	}

	request, err := h.service.Approve(c.Request.Context(), c.Param("id"), actorID(c), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewApprovalItem(*request), nil)
}

// Reject godoc
// @Summary Reject a pending change
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Approval request ID"
// @Param payload body dto.ResolveApprovalRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Router /approvals/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	var req dto.ResolveApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolve payload"))
		return
	}

	request, err := h.service.Reject(c.Request.Context(), c.Param("id"), actorID(c), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewApprovalItem(*request), nil)
}

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

type variableService interface {
	List(ctx context.Context, category models.VariableCategory) ([]dto.VariableItem, error)
	Get(ctx context.Context, category models.VariableCategory, key string) (*dto.VariableItem, error)
	Update(ctx context.Context, category models.VariableCategory, key string, req dto.UpdateVariableRequest, actor string) (*dto.UpdateVariableResponse, error)
}

// VariableHandler exposes config variable endpoints.
type VariableHandler struct {
	service variableService
}

// NewVariableHandler builds a new handler.
func NewVariableHandler(service variableService) *VariableHandler {
	return &VariableHandler{service: service}
}

// List godoc
// @Summary List config variables
// @Tags Variables
// @Produce json
// @Param category query string false "Filter by category"
// @Success 200 {object} response.Envelope
// @Router /variables [get]
func (h *VariableHandler) List(c *gin.Context) {
	category := models.VariableCategory(c.Query("category"))
	items, err := h.service.List(c.Request.Context(), category)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get a config variable
// @Tags Variables
// @Produce json
// @Param category path string true "Variable category"
// @Param key path string true "Variable key"
// @Success 200 {object} response.Envelope
// @Router /variables/{category}/{key} [get]
func (h *VariableHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), models.VariableCategory(c.Param("category")), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Update godoc
// @Summary Update a config variable
// @Description Critical and high priority categories return a pending approval request instead of a committed value.
// @Tags Variables
// @Accept json
// @Produce json
// @Param category path string true "Variable category"
// @Param key path string true "Variable key"
// @Param payload body dto.UpdateVariableRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /variables/{category}/{key} [put]
func (h *VariableHandler) Update(c *gin.Context) {
	var req dto.UpdateVariableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid variable payload"))
		return
	}

	result, err := h.service.Update(c.Request.Context(),
		models.VariableCategory(c.Param("category")), c.Param("key"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if result.Gated {
		status = http.StatusAccepted
	}
	response.JSON(c, status, result, nil)
}

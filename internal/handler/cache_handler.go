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

type cacheService interface {
	Invalidate(ctx context.Context, category models.VariableCategory, key string) error
}

// CacheHandler exposes the manual cache invalidation endpoint used by
// operators after out-of-band data fixes.
type CacheHandler struct {
	service cacheService
}

// NewCacheHandler builds a new handler.
func NewCacheHandler(service cacheService) *CacheHandler {
	return &CacheHandler{service: service}
}

// Invalidate godoc
// @Summary Invalidate cached config
// @Tags Cache
// @Accept json
// @Produce json
// @Param payload body dto.InvalidateCacheRequest false "Scope selection"
// @Success 204
// @Router /cache/invalidate [post]
func (h *CacheHandler) Invalidate(c *gin.Context) {
	var req dto.InvalidateCacheRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cache payload"))
			return
		}
	}

	category := models.VariableCategory(req.Category)
	if category != "" && !category.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown category: "+req.Category))
		return
	}

	if err := h.service.Invalidate(c.Request.Context(), category, req.Key); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

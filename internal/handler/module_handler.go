package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edukite/catalog-api/internal/service"
	appErrors "github.com/edukite/catalog-api/pkg/errors"
	"github.com/edukite/catalog-api/pkg/pagination"
	"github.com/edukite/catalog-api/pkg/response"
)

// ModuleHandler exposes the module composite endpoints. A module is served
// and mutated together with its content rows and their media.
type ModuleHandler struct {
	composites *service.ModuleCompositeService
	bounds     pagination.Bounds
}

// NewModuleHandler constructs ModuleHandler.
func NewModuleHandler(composites *service.ModuleCompositeService, bounds pagination.Bounds) *ModuleHandler {
	return &ModuleHandler{composites: composites, bounds: bounds}
}

// List returns a window of module rows without their subtrees.
func (h *ModuleHandler) List(c *gin.Context) {
	params, err := pageParams(c, h.bounds)
	if err != nil {
		response.Error(c, err)
		return
	}
	modules, meta, err := h.composites.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, modules, &meta)
}

// Get returns the assembled composite for one module.
func (h *ModuleHandler) Get(c *gin.Context) {
	composite, err := h.composites.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, composite, nil)
}

// Create builds a module subtree in one transaction.
func (h *ModuleHandler) Create(c *gin.Context) {
	var req service.CreateModuleCompositeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	composite, err := h.composites.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, composite)
}

// Update mutates a module subtree in one transaction.
func (h *ModuleHandler) Update(c *gin.Context) {
	var req service.UpdateModuleCompositeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	composite, err := h.composites.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, composite, nil)
}

// Delete tears down a module subtree in one transaction.
func (h *ModuleHandler) Delete(c *gin.Context) {
	deleted, err := h.composites.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !deleted {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "module not found"))
		return
	}
	response.NoContent(c)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edukite/catalog-api/internal/models"
	"github.com/edukite/catalog-api/internal/service"
	appErrors "github.com/edukite/catalog-api/pkg/errors"
	"github.com/edukite/catalog-api/pkg/pagination"
	"github.com/edukite/catalog-api/pkg/response"
)

// TrackHandler exposes track endpoints.
type TrackHandler struct {
	tracks *service.TrackService
	bounds pagination.Bounds
}

// NewTrackHandler constructs TrackHandler.
func NewTrackHandler(tracks *service.TrackService, bounds pagination.Bounds) *TrackHandler {
	return &TrackHandler{tracks: tracks, bounds: bounds}
}

// List returns a window of tracks.
func (h *TrackHandler) List(c *gin.Context) {
	params, err := pageParams(c, h.bounds)
	if err != nil {
		response.Error(c, err)
		return
	}
	tracks, meta, err := h.tracks.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tracks, &meta)
}

// Get returns one track by public id.
func (h *TrackHandler) Get(c *gin.Context) {
	track, err := h.tracks.Get(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, track, nil)
}

// Create registers a new track.
func (h *TrackHandler) Create(c *gin.Context) {
	var req service.CreateTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	track, err := h.tracks.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, track)
}

// Update applies a partial update to a track.
func (h *TrackHandler) Update(c *gin.Context) {
	var patch models.TrackPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	track, err := h.tracks.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, track, nil)
}

// Delete soft-deletes a track.
func (h *TrackHandler) Delete(c *gin.Context) {
	if err := h.tracks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Restore reverses a soft delete.
func (h *TrackHandler) Restore(c *gin.Context) {
	track, err := h.tracks.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, track, nil)
}

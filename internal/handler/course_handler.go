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

// CourseHandler exposes course endpoints.
type CourseHandler struct {
	courses *service.CourseService
	bounds  pagination.Bounds
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService, bounds pagination.Bounds) *CourseHandler {
	return &CourseHandler{courses: courses, bounds: bounds}
}

// List returns a window of courses, optionally filtered by track.
func (h *CourseHandler) List(c *gin.Context) {
	params, err := pageParams(c, h.bounds)
	if err != nil {
		response.Error(c, err)
		return
	}
	courses, meta, err := h.courses.List(c.Request.Context(), c.Query("track_id"), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, &meta)
}

// Get returns one course by public id.
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create registers a new course under an existing track.
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update applies a partial update to a course.
func (h *CourseHandler) Update(c *gin.Context) {
	var patch models.CoursePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete soft-deletes a course.
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edukite/catalog-api/internal/service"
	appErrors "github.com/edukite/catalog-api/pkg/errors"
	"github.com/edukite/catalog-api/pkg/pagination"
	"github.com/edukite/catalog-api/pkg/response"
)

// NewsletterHandler exposes newsletter subscription endpoints.
type NewsletterHandler struct {
	newsletter *service.NewsletterService
	bounds     pagination.Bounds
}

// NewNewsletterHandler constructs NewsletterHandler.
func NewNewsletterHandler(newsletter *service.NewsletterService, bounds pagination.Bounds) *NewsletterHandler {
	return &NewsletterHandler{newsletter: newsletter, bounds: bounds}
}

// List returns a window of active subscribers.
func (h *NewsletterHandler) List(c *gin.Context) {
	params, err := pageParams(c, h.bounds)
	if err != nil {
		response.Error(c, err)
		return
	}
	subscribers, meta, err := h.newsletter.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subscribers, &meta)
}

// Get returns one subscriber by public id.
func (h *NewsletterHandler) Get(c *gin.Context) {
	subscriber, err := h.newsletter.Get(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subscriber, nil)
}

// Subscribe registers an email address, reviving a past subscription when one
// exists instead of duplicating it.
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	var req service.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subscriber, err := h.newsletter.Subscribe(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subscriber)
}

// Unsubscribe deactivates a subscription.
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	if err := h.newsletter.Unsubscribe(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

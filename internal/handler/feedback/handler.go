package feedback

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediqo/booking-api/internal/handler"
	"github.com/mediqo/booking-api/internal/middleware"
	"github.com/mediqo/booking-api/internal/model"
	"github.com/mediqo/booking-api/internal/service/feedback"
)

type Handler struct {
	service *feedback.Service
}

func NewHandler(service *feedback.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/feedback")
	{
		group.POST("", h.Submit)
		group.GET("", h.List)
	}
}

func (h *Handler) Submit(c *gin.Context) {
	var req model.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	entry, err := h.service.Submit(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(entry))
}

func (h *Handler) List(c *gin.Context) {
	entries, err := h.service.ListForUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}

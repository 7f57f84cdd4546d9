package doctor

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediqo/booking-api/internal/handler"
	"github.com/mediqo/booking-api/internal/model"
	"github.com/mediqo/booking-api/internal/service/doctor"
)

type Handler struct {
	service *doctor.Service
}

func NewHandler(service *doctor.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.Search)
		doctors.GET("/:id", h.Get)
	}
}

func (h *Handler) Search(c *gin.Context) {
	filters := &model.DoctorFilters{
		Specialty: c.Query("specialty"),
		Location:  c.Query("location"),
	}

	if rating := c.Query("rating"); rating != "" {
		minRating, err := strconv.ParseFloat(rating, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid rating"))
			return
		}
		filters.MinRating = minRating
	}

	doctors, err := h.service.Search(c.Request.Context(), filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctors))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

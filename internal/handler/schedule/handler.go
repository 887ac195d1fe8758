package schedule

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/service/schedule"
)

type Handler struct {
	service schedule.ScheduleServicer
}

func NewHandler(service schedule.ScheduleServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/clinics/:id/schedule", h.GetSchedule)
	r.PUT("/clinics/:id/schedule", h.UpdateSchedule)
	r.GET("/schedule/default", h.GetDefaultSchedule)
	r.PUT("/schedule/default", h.UpdateDefaultSchedule)
}

func (h *Handler) GetSchedule(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid clinic ID"})
		return
	}

	cfg, err := h.service.Get(c.Request.Context(), clinicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": cfg})
}

func (h *Handler) GetDefaultSchedule(c *gin.Context) {
	cfg, err := h.service.GetDefault(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": cfg})
}

func (h *Handler) UpdateSchedule(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid clinic ID"})
		return
	}
	h.saveSchedule(c, &clinicID)
}

func (h *Handler) UpdateDefaultSchedule(c *gin.Context) {
	h.saveSchedule(c, nil)
}

func (h *Handler) saveSchedule(c *gin.Context, clinicID *uuid.UUID) {
	var req model.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	cfg := &model.ScheduleConfig{
		ClinicID: clinicID,
		Days:     make(map[time.Weekday]model.DaySchedule, len(req.Days)),
		Policy:   req.Policy,
	}
	for _, day := range req.Days {
		cfg.Days[day.Weekday] = day
	}

	if err := h.service.Save(c.Request.Context(), cfg); err != nil {
		if errors.Is(err, schedule.ErrInvalidConfig) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"status": "error", "message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": cfg})
}

package appointment

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/internal/service/booking"
)

type Handler struct {
	service *booking.Service
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/clinics/:id/availability", h.GetAvailability)
	r.POST("/appointments/validate", h.ValidateSlot)
	r.POST("/appointments", h.CreateAppointment)
	r.POST("/appointments/recurring", h.CreateRecurringAppointment)
	r.GET("/appointments", h.ListAppointments)
	r.POST("/appointments/:id/cancel", h.CancelAppointment)
}

func (h *Handler) GetAvailability(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid clinic ID"})
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid date, expected YYYY-MM-DD"})
		return
	}

	var excludeID *uuid.UUID
	if raw := c.Query("exclude_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid exclude ID"})
			return
		}
		excludeID = &id
	}

	slots, err := h.service.GetAvailability(c.Request.Context(), clinicID, date, time.Now(), excludeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": slots})
}

type validateSlotRequest struct {
	ClinicID        uuid.UUID  `json:"clinic_id" binding:"required"`
	StartTime       time.Time  `json:"start_time" binding:"required"`
	DurationMinutes int        `json:"duration_minutes" binding:"required,gt=0"`
	ExcludeID       *uuid.UUID `json:"exclude_id"`
}

func (h *Handler) ValidateSlot(c *gin.Context) {
	var req validateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	verdict, err := h.service.ValidateSlot(c.Request.Context(), req.ClinicID, req.StartTime, req.DurationMinutes, req.ExcludeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": verdict})
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	appt, err := h.service.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		h.writeBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": appt})
}

func (h *Handler) CreateRecurringAppointment(c *gin.Context) {
	var req model.CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	appts, err := h.service.CreateRecurringBooking(c.Request.Context(), &req)
	if err != nil {
		h.writeBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": appts})
}

func (h *Handler) ListAppointments(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Query("clinic_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid clinic ID"})
		return
	}

	filters := &model.AppointmentFilters{ClinicID: clinicID}

	if raw := c.Query("patient_id"); raw != "" {
		patientID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid patient ID"})
			return
		}
		filters.PatientID = patientID
	}

	if status := c.Query("status"); status != "" {
		filters.Status = model.AppointmentStatus(status)
	}

	if raw := c.Query("start_date"); raw != "" {
		startDate, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid start date"})
			return
		}
		filters.StartDate = startDate
	}

	if raw := c.Query("end_date"); raw != "" {
		endDate, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid end date"})
			return
		}
		filters.EndDate = endDate
	}

	appts, err := h.service.ListAppointments(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": appts})
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if err := h.service.CancelBooking(c.Request.Context(), id, req.Reason); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "appointment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// writeBookingError maps recoverable booking outcomes to 409 so clients
// prompt the user to pick another slot.
func (h *Handler) writeBookingError(c *gin.Context, err error) {
	var unavailable *booking.SlotUnavailableError
	if errors.As(err, &unavailable) {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "message": err.Error(), "data": unavailable.Verdict})
		return
	}

	var rejected *booking.SeriesRejectedError
	if errors.As(err, &rejected) {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "message": err.Error(), "data": rejected.Series})
		return
	}

	if errors.Is(err, repository.ErrSlotTaken) {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "slot no longer available"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
}

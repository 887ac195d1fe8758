package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

type AppointmentKind string

const (
	AppointmentKindSession  AppointmentKind = "session"
	AppointmentKindBlocked  AppointmentKind = "blocked"
	AppointmentKindPersonal AppointmentKind = "personal"
)

type Appointment struct {
	Base
	ClinicID        uuid.UUID         `db:"clinic_id" json:"clinic_id"`
	PatientID       uuid.UUID         `db:"patient_id" json:"patient_id"`
	ServiceID       uuid.UUID         `db:"service_id" json:"service_id"`
	StartTime       time.Time         `db:"start_time" json:"start_time"`
	DurationMinutes int               `db:"duration_minutes" json:"duration_minutes"`
	Status          AppointmentStatus `db:"status" json:"status"`
	Kind            AppointmentKind   `db:"kind" json:"kind"`
	SeriesID        *uuid.UUID        `db:"series_id" json:"series_id,omitempty"`
	Notes           string            `db:"notes" json:"notes,omitempty"`
	CancelReason    *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

func (a *Appointment) Duration() time.Duration {
	return time.Duration(a.DurationMinutes) * time.Minute
}

func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(a.Duration())
}

// Blocks reports whether the appointment participates in conflict
// checks. Cancelled appointments never block a slot.
func (a *Appointment) Blocks() bool {
	return a.Status != AppointmentStatusCancelled
}

type CreateAppointmentRequest struct {
	ClinicID        uuid.UUID       `json:"clinic_id" binding:"required"`
	PatientID       uuid.UUID       `json:"patient_id" binding:"required"`
	ServiceID       uuid.UUID       `json:"service_id"`
	StartTime       time.Time       `json:"start_time" binding:"required"`
	DurationMinutes int             `json:"duration_minutes" binding:"required,gt=0"`
	Kind            AppointmentKind `json:"kind"`
	Notes           string          `json:"notes"`
	Contact         ContactInfo     `json:"contact"`
}

type CreateRecurringRequest struct {
	CreateAppointmentRequest
	Recurrence Recurrence `json:"recurrence" binding:"required"`
}

type AppointmentFilters struct {
	ClinicID  uuid.UUID
	PatientID uuid.UUID
	Status    AppointmentStatus
	StartDate time.Time
	EndDate   time.Time
}

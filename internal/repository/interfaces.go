package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

// ErrSlotTaken is returned when the store's uniqueness backstop on
// (clinic_id, start_time) rejects a write that raced past validation.
// Callers surface it as a recoverable "slot no longer available" and
// must not auto-retry with a different time.
var ErrSlotTaken = errors.New("slot already taken")

// ErrNotFound is returned for lookups of missing rows.
var ErrNotFound = errors.New("not found")

type (
	// ScheduleConfigRepository stores per-clinic weekly schedules. A
	// row with a NULL clinic id is the global default.
	ScheduleConfigRepository interface {
		Get(ctx context.Context, clinicID uuid.UUID) (*model.ScheduleConfig, error)
		GetDefault(ctx context.Context) (*model.ScheduleConfig, error)
		Upsert(ctx context.Context, cfg *model.ScheduleConfig) error
	}

	// AppointmentRepository owns appointment persistence. ListByDateRange
	// returns the snapshot the scheduling core validates against; it
	// includes cancelled rows so the core remains the single authority
	// on which statuses block a slot.
	AppointmentRepository interface {
		Create(ctx context.Context, appt *model.Appointment) error
		CreateBatch(ctx context.Context, appts []*model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appt *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		ListByDateRange(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]*model.Appointment, error)
	}
)

package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/pkg/validator"
)

// WorkflowState is one step of the external-facing booking sequence.
type WorkflowState string

const (
	StateSelectService  WorkflowState = "select_service"
	StateSelectDateTime WorkflowState = "select_date_time"
	StateEnterDetails   WorkflowState = "enter_details"
	StateSubmitted      WorkflowState = "submitted"
	StateFailed         WorkflowState = "failed"
)

// ErrInvalidTransition is returned when a workflow method is called in
// a state that does not permit it.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// Workflow drives one booking session through service selection, slot
// selection and contact entry, re-validating the chosen slot
// synchronously at submit time. A lost race sends the workflow back to
// slot selection with every entered contact field preserved. Not safe
// for concurrent use; hold one Workflow per booking session.
type Workflow struct {
	svc      *Service
	validate validator.Validator

	state    WorkflowState
	clinicID uuid.UUID

	patientID       uuid.UUID
	serviceID       *uuid.UUID
	durationMinutes int

	date *time.Time
	slot *time.Time

	contact    model.ContactInfo
	recurrence *model.Recurrence

	// lastReason holds the rejection that bounced the workflow back to
	// slot selection, for surfacing to the user.
	lastReason string
}

func NewWorkflow(svc *Service, clinicID, patientID uuid.UUID) *Workflow {
	return &Workflow{
		svc:       svc,
		validate:  validator.New(),
		state:     StateSelectService,
		clinicID:  clinicID,
		patientID: patientID,
	}
}

func (w *Workflow) State() WorkflowState { return w.state }

// LastReason is the rejection reason from the most recent failed
// submit, empty when none.
func (w *Workflow) LastReason() string { return w.lastReason }

// Contact returns the entered contact details; preserved across a
// recoverable submit failure.
func (w *Workflow) Contact() model.ContactInfo { return w.contact }

// SelectService records the chosen service and advances to slot
// selection.
func (w *Workflow) SelectService(serviceID uuid.UUID, durationMinutes int) error {
	if w.state != StateSelectService {
		return fmt.Errorf("%w: select service in state %s", ErrInvalidTransition, w.state)
	}
	if durationMinutes <= 0 {
		return fmt.Errorf("service duration must be positive, got %d", durationMinutes)
	}
	w.serviceID = &serviceID
	w.durationMinutes = durationMinutes
	w.state = StateSelectDateTime
	return nil
}

// SelectDate records the chosen date. Availability is date-dependent,
// so changing the date always clears the chosen time.
func (w *Workflow) SelectDate(date time.Time) error {
	if w.state != StateSelectDateTime && w.state != StateEnterDetails {
		return fmt.Errorf("%w: select date in state %s", ErrInvalidTransition, w.state)
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	if w.date == nil || !w.date.Equal(day) {
		w.slot = nil
	}
	w.date = &day
	w.state = StateSelectDateTime
	return nil
}

// SelectTime records the chosen slot and advances to contact entry.
func (w *Workflow) SelectTime(slot time.Time) error {
	if w.state != StateSelectDateTime {
		return fmt.Errorf("%w: select time in state %s", ErrInvalidTransition, w.state)
	}
	if w.date == nil {
		return fmt.Errorf("select a date before a time")
	}
	if !sameDate(*w.date, slot) {
		return fmt.Errorf("slot %s is not on the selected date %s", slot.Format(time.RFC3339), w.date.Format("2006-01-02"))
	}
	w.slot = &slot
	w.state = StateEnterDetails
	return nil
}

// SetRecurrence marks the booking as a recurring series. Call before
// Submit; a nil recurrence books a single appointment.
func (w *Workflow) SetRecurrence(rec *model.Recurrence) error {
	if rec != nil {
		if err := rec.Validate(); err != nil {
			return err
		}
	}
	w.recurrence = rec
	return nil
}

// Back moves one step backward. Backward transitions are always
// permitted and clear nothing ahead of the target state.
func (w *Workflow) Back() error {
	switch w.state {
	case StateEnterDetails:
		w.state = StateSelectDateTime
	case StateSelectDateTime:
		w.state = StateSelectService
	default:
		return fmt.Errorf("%w: back in state %s", ErrInvalidTransition, w.state)
	}
	return nil
}

// Submit validates the contact details structurally, re-validates the
// chosen slot against a freshly fetched snapshot and persists the
// booking. A slot lost to a concurrent writer is recoverable: the
// workflow returns to slot selection with the entered details intact.
// A repository failure is terminal for the session.
func (w *Workflow) Submit(ctx context.Context, contact model.ContactInfo) ([]*model.Appointment, error) {
	if w.state != StateEnterDetails {
		return nil, fmt.Errorf("%w: submit in state %s", ErrInvalidTransition, w.state)
	}
	if w.slot == nil {
		return nil, fmt.Errorf("no slot selected")
	}

	// Keep the details regardless of the outcome; a recoverable
	// failure must not discard user input.
	w.contact = contact
	if err := w.validate.Validate(&contact); err != nil {
		return nil, fmt.Errorf("invalid contact details: %w", err)
	}

	req := &model.CreateAppointmentRequest{
		ClinicID:        w.clinicID,
		PatientID:       w.patientID,
		StartTime:       *w.slot,
		DurationMinutes: w.durationMinutes,
		Kind:            model.AppointmentKindSession,
		Notes:           contact.Notes,
		Contact:         contact,
	}
	if w.serviceID != nil {
		req.ServiceID = *w.serviceID
	}

	created, err := w.create(ctx, req)
	if err != nil {
		if recoverable(err) {
			w.lastReason = err.Error()
			w.slot = nil
			w.state = StateSelectDateTime
			return nil, err
		}
		w.state = StateFailed
		return nil, err
	}

	w.lastReason = ""
	w.state = StateSubmitted
	return created, nil
}

func (w *Workflow) create(ctx context.Context, req *model.CreateAppointmentRequest) ([]*model.Appointment, error) {
	if w.recurrence == nil {
		appt, err := w.svc.CreateBooking(ctx, req)
		if err != nil {
			return nil, err
		}
		return []*model.Appointment{appt}, nil
	}

	recurring := &model.CreateRecurringRequest{
		CreateAppointmentRequest: *req,
		Recurrence:               *w.recurrence,
	}
	return w.svc.CreateRecurringBooking(ctx, recurring)
}

// recoverable distinguishes "pick another slot" outcomes from real
// failures.
func recoverable(err error) bool {
	var unavailable *SlotUnavailableError
	if errors.As(err, &unavailable) {
		return true
	}
	var rejected *SeriesRejectedError
	if errors.As(err, &rejected) {
		return true
	}
	return errors.Is(err, repository.ErrSlotTaken)
}

func sameDate(day, t time.Time) bool {
	y1, m1, d1 := day.Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

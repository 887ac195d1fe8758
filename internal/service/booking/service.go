package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/internal/scheduling"
	"github.com/jwalitptl/clinic-scheduler/internal/service/schedule"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

// SlotUnavailableError is the recoverable outcome of a booking attempt:
// the candidate failed validation, the user should pick another slot.
type SlotUnavailableError struct {
	Verdict scheduling.Verdict
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("slot unavailable: %s", e.Verdict)
}

// SeriesRejectedError wraps a series validation failure; nothing was
// persisted.
type SeriesRejectedError struct {
	Series *scheduling.SeriesError
}

func (e *SeriesRejectedError) Error() string {
	return e.Series.Error()
}

// Service composes the pure scheduling core with the schedule resolver
// and the appointment store. The correctness strategy is optimistic
// check-then-write: every create re-validates against a freshly fetched
// snapshot immediately before the write, and the store's uniqueness
// backstop closes the remaining window. The service never retries a
// lost race on the caller's behalf.
type Service struct {
	repo      repository.AppointmentRepository
	schedules schedule.ScheduleServicer
	metrics   *metrics.Metrics
}

func NewService(repo repository.AppointmentRepository, schedules schedule.ScheduleServicer, m *metrics.Metrics) *Service {
	return &Service{
		repo:      repo,
		schedules: schedules,
		metrics:   m,
	}
}

// GetAvailability returns the per-slot availability view for a date.
func (s *Service) GetAvailability(ctx context.Context, clinicID uuid.UUID, date, now time.Time, excludeID *uuid.UUID) ([]model.SlotStatus, error) {
	cfg, err := s.schedules.Get(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schedule: %w", err)
	}

	snapshot, err := s.snapshotForDate(ctx, clinicID, date)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	statuses := scheduling.ComputeAvailability(date, cfg, snapshot, now, excludeID)
	if s.metrics != nil {
		s.metrics.AvailabilityLatency.Observe(time.Since(started).Seconds())
	}
	return statuses, nil
}

// ValidateSlot runs the conflict validator against a fresh snapshot.
func (s *Service) ValidateSlot(ctx context.Context, clinicID uuid.UUID, start time.Time, durationMinutes int, excludeID *uuid.UUID) (scheduling.Verdict, error) {
	cfg, err := s.schedules.Get(ctx, clinicID)
	if err != nil {
		return scheduling.Verdict{}, fmt.Errorf("failed to resolve schedule: %w", err)
	}

	snapshot, err := s.snapshotForDate(ctx, clinicID, start)
	if err != nil {
		return scheduling.Verdict{}, err
	}

	duration := time.Duration(durationMinutes) * time.Minute
	return scheduling.Validate(start, duration, cfg, snapshot, excludeID), nil
}

// CreateBooking persists a single appointment after a final synchronous
// re-validation. A verdict rejection or a store-level race loss are
// recoverable outcomes, not failures.
func (s *Service) CreateBooking(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	verdict, err := s.ValidateSlot(ctx, req.ClinicID, req.StartTime, req.DurationMinutes, nil)
	if err != nil {
		return nil, err
	}
	if !verdict.Valid {
		s.countConflict(string(verdict.Reason))
		return nil, &SlotUnavailableError{Verdict: verdict}
	}

	appt := s.buildAppointment(req, nil)
	if err := s.repo.Create(ctx, appt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			// A concurrent writer won between the snapshot read and
			// the insert; the store's verdict is authoritative.
			s.countConflict("slot_taken")
			return nil, err
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	if s.metrics != nil {
		s.metrics.BookingsCreated.WithLabelValues(string(appt.Kind)).Inc()
	}
	return appt, nil
}

// ExpandSeries returns the candidate occurrences of a recurring request
// without validating or persisting anything.
func (s *Service) ExpandSeries(base time.Time, rec model.Recurrence) ([]time.Time, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return scheduling.Expand(base, rec.Frequency, rec.Count), nil
}

// ValidateSeries expands the series and validates every occurrence
// against one immutable snapshot, all-or-nothing.
func (s *Service) ValidateSeries(ctx context.Context, clinicID uuid.UUID, base time.Time, durationMinutes int, rec model.Recurrence) ([]time.Time, error) {
	occurrences, err := s.ExpandSeries(base, rec)
	if err != nil {
		return nil, err
	}

	cfg, err := s.schedules.Get(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schedule: %w", err)
	}

	snapshot, err := s.snapshotForSeries(ctx, clinicID, occurrences, durationMinutes)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(durationMinutes) * time.Minute
	if seriesErr := scheduling.ValidateSeries(occurrences, duration, cfg, snapshot); seriesErr != nil {
		if s.metrics != nil {
			s.metrics.SeriesRejected.Inc()
		}
		return nil, &SeriesRejectedError{Series: seriesErr}
	}
	return occurrences, nil
}

// CreateRecurringBooking validates the whole series and then persists
// it through a single batch write. If the repository cannot make the
// batch atomic and reports a partial failure, the compensation path
// cancels whatever was created.
func (s *Service) CreateRecurringBooking(ctx context.Context, req *model.CreateRecurringRequest) ([]*model.Appointment, error) {
	occurrences, err := s.ValidateSeries(ctx, req.ClinicID, req.StartTime, req.DurationMinutes, req.Recurrence)
	if err != nil {
		return nil, err
	}

	seriesID := uuid.New()
	appointments := make([]*model.Appointment, 0, len(occurrences))
	for _, start := range occurrences {
		occReq := req.CreateAppointmentRequest
		occReq.StartTime = start
		appointments = append(appointments, s.buildAppointment(&occReq, &seriesID))
	}

	if err := s.repo.CreateBatch(ctx, appointments); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			s.countConflict("slot_taken")
			return nil, err
		}
		s.compensateSeries(ctx, req.ClinicID, seriesID, occurrences, req.DurationMinutes)
		return nil, fmt.Errorf("failed to create recurring appointments: %w", err)
	}

	if s.metrics != nil {
		s.metrics.BookingsCreated.WithLabelValues(string(model.AppointmentKindSession)).Add(float64(len(appointments)))
	}
	return appointments, nil
}

// CancelBooking retires an appointment. Already-cancelled and completed
// appointments cannot be cancelled.
func (s *Service) CancelBooking(ctx context.Context, id uuid.UUID, reason string) error {
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get appointment: %w", err)
	}

	if appt.Status == model.AppointmentStatusCancelled {
		return fmt.Errorf("appointment is already cancelled")
	}
	if appt.Status == model.AppointmentStatusCompleted {
		return fmt.Errorf("cannot cancel a completed appointment")
	}

	appt.Status = model.AppointmentStatusCancelled
	appt.CancelReason = &reason

	if err := s.repo.Update(ctx, appt); err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}

	if s.metrics != nil {
		s.metrics.BookingsCancelled.Inc()
	}
	return nil
}

func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) buildAppointment(req *model.CreateAppointmentRequest, seriesID *uuid.UUID) *model.Appointment {
	kind := req.Kind
	if kind == "" {
		kind = model.AppointmentKindSession
	}
	appt := &model.Appointment{
		ClinicID:        req.ClinicID,
		PatientID:       req.PatientID,
		ServiceID:       req.ServiceID,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Status:          model.AppointmentStatusScheduled,
		Kind:            kind,
		SeriesID:        seriesID,
		Notes:           req.Notes,
	}
	appt.ID = uuid.New()
	return appt
}

// snapshotForDate fetches the appointments whose body intersects the
// candidate's calendar day.
func (s *Service) snapshotForDate(ctx context.Context, clinicID uuid.UUID, at time.Time) ([]*model.Appointment, error) {
	dayStart := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	snapshot, err := s.repo.ListByDateRange(ctx, clinicID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointment snapshot: %w", err)
	}
	return snapshot, nil
}

// snapshotForSeries fetches one immutable snapshot covering every
// occurrence of the series.
func (s *Service) snapshotForSeries(ctx context.Context, clinicID uuid.UUID, occurrences []time.Time, durationMinutes int) ([]*model.Appointment, error) {
	if len(occurrences) == 0 {
		return nil, nil
	}
	first := occurrences[0]
	last := occurrences[len(occurrences)-1]
	from := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, first.Location())
	to := last.Add(time.Duration(durationMinutes) * time.Minute)

	snapshot, err := s.repo.ListByDateRange(ctx, clinicID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointment snapshot: %w", err)
	}
	return snapshot, nil
}

// compensateSeries cancels any occurrences a non-transactional
// repository managed to persist before failing. Best effort: a
// compensation failure is logged, never propagated over the original
// error.
func (s *Service) compensateSeries(ctx context.Context, clinicID, seriesID uuid.UUID, occurrences []time.Time, durationMinutes int) {
	persisted, err := s.snapshotForSeries(ctx, clinicID, occurrences, durationMinutes)
	if err != nil {
		log.Error().Err(err).Str("series_id", seriesID.String()).Msg("series compensation: failed to list persisted occurrences")
		return
	}

	reason := "series creation failed"
	for _, appt := range persisted {
		if appt.SeriesID == nil || *appt.SeriesID != seriesID {
			continue
		}
		appt.Status = model.AppointmentStatusCancelled
		appt.CancelReason = &reason
		if err := s.repo.Update(ctx, appt); err != nil {
			log.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("series compensation: failed to cancel occurrence")
		}
	}
}

func (s *Service) countConflict(reason string) {
	if s.metrics != nil {
		s.metrics.BookingConflicts.WithLabelValues(reason).Inc()
	}
}

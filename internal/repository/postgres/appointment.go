package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

const uniqueViolation = "23505"

// slotTakenErr maps the unique index on (clinic_id, start_time) to the
// repository-level race-loss outcome.
func slotTakenErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return repository.ErrSlotTaken
	}
	return err
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) (err error) {
	start := time.Now()
	defer func() { observe(r.metrics, "appointment_create", start, err) }()

	query := `
		INSERT INTO appointments (
			id, clinic_id, patient_id, service_id,
			start_time, duration_minutes, status, kind,
			series_id, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	_, err = r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.ClinicID,
		appointment.PatientID,
		appointment.ServiceID,
		appointment.StartTime,
		appointment.DurationMinutes,
		appointment.Status,
		appointment.Kind,
		appointment.SeriesID,
		appointment.Notes,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		if mapped := slotTakenErr(err); errors.Is(mapped, repository.ErrSlotTaken) {
			return mapped
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// CreateBatch inserts a recurring series inside a single transaction;
// either every occurrence is persisted or none is.
func (r *appointmentRepository) CreateBatch(ctx context.Context, appointments []*model.Appointment) (err error) {
	start := time.Now()
	defer func() { observe(r.metrics, "appointment_create_batch", start, err) }()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO appointments (
			id, clinic_id, patient_id, service_id,
			start_time, duration_minutes, status, kind,
			series_id, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	now := time.Now()
	for _, appointment := range appointments {
		if appointment.ID == uuid.Nil {
			appointment.ID = uuid.New()
		}
		appointment.CreatedAt = now
		appointment.UpdatedAt = now

		_, err := tx.ExecContext(ctx, query,
			appointment.ID,
			appointment.ClinicID,
			appointment.PatientID,
			appointment.ServiceID,
			appointment.StartTime,
			appointment.DurationMinutes,
			appointment.Status,
			appointment.Kind,
			appointment.SeriesID,
			appointment.Notes,
			appointment.CreatedAt,
			appointment.UpdatedAt,
		)
		if err != nil {
			if mapped := slotTakenErr(err); errors.Is(mapped, repository.ErrSlotTaken) {
				return mapped
			}
			return fmt.Errorf("failed to create appointment batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit appointment batch: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (_ *model.Appointment, err error) {
	start := time.Now()
	defer func() { observe(r.metrics, "appointment_get", start, err) }()

	query := `
		SELECT id, clinic_id, patient_id, service_id,
			   start_time, duration_minutes, status, kind,
			   series_id, notes, cancel_reason, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err = r.db.GetContext(ctx, &appointment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) (err error) {
	start := time.Now()
	defer func() { observe(r.metrics, "appointment_update", start, err) }()

	query := `
		UPDATE appointments
		SET start_time = $1, duration_minutes = $2, status = $3,
			notes = $4, cancel_reason = $5, updated_at = $6
		WHERE id = $7
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.StartTime,
		appointment.DurationMinutes,
		appointment.Status,
		appointment.Notes,
		appointment.CancelReason,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) (_ []*model.Appointment, err error) {
	start := time.Now()
	defer func() { observe(r.metrics, "appointment_list", start, err) }()

	query := `
		SELECT id, clinic_id, patient_id, service_id,
			   start_time, duration_minutes, status, kind,
			   series_id, notes, cancel_reason, created_at, updated_at
		FROM appointments
		WHERE clinic_id = $1
	`
	args := []interface{}{filters.ClinicID}
	argCount := 2

	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	if !filters.StartDate.IsZero() {
		query += fmt.Sprintf(" AND start_time >= $%d", argCount)
		args = append(args, filters.StartDate)
		argCount++
	}

	if !filters.EndDate.IsZero() {
		query += fmt.Sprintf(" AND start_time < $%d", argCount)
		args = append(args, filters.EndDate)
		argCount++
	}

	query += " ORDER BY start_time ASC"

	var appointments []*model.Appointment
	err = r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// ListByDateRange returns every appointment whose body intersects
// [from, to), cancelled rows included; the scheduling core decides
// which statuses block.
func (r *appointmentRepository) ListByDateRange(ctx context.Context, clinicID uuid.UUID, from, to time.Time) (_ []*model.Appointment, err error) {
	start := time.Now()
	defer func() { observe(r.metrics, "appointment_list_range", start, err) }()

	query := `
		SELECT id, clinic_id, patient_id, service_id,
			   start_time, duration_minutes, status, kind,
			   series_id, notes, cancel_reason, created_at, updated_at
		FROM appointments
		WHERE clinic_id = $1
		AND start_time < $3
		AND start_time + (duration_minutes * interval '1 minute') > $2
		ORDER BY start_time ASC
	`
	var appointments []*model.Appointment
	err = r.db.SelectContext(ctx, &appointments, query, clinicID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments by date range: %w", err)
	}
	return appointments, nil
}

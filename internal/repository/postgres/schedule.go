package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

// scheduleConfigRow is the storage shape: the per-weekday schedules and
// the session policy live in JSONB columns since they are read and
// written as a unit.
type scheduleConfigRow struct {
	ID        uuid.UUID  `db:"id"`
	ClinicID  *uuid.UUID `db:"clinic_id"`
	Days      []byte     `db:"days"`
	Policy    []byte     `db:"policy"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (row *scheduleConfigRow) toModel() (*model.ScheduleConfig, error) {
	var days []model.DaySchedule
	if err := json.Unmarshal(row.Days, &days); err != nil {
		return nil, fmt.Errorf("failed to decode schedule days: %w", err)
	}
	var policy model.SessionPolicy
	if err := json.Unmarshal(row.Policy, &policy); err != nil {
		return nil, fmt.Errorf("failed to decode session policy: %w", err)
	}

	cfg := &model.ScheduleConfig{
		ClinicID: row.ClinicID,
		Days:     make(map[time.Weekday]model.DaySchedule, len(days)),
		Policy:   policy,
	}
	cfg.ID = row.ID
	cfg.CreatedAt = row.CreatedAt
	cfg.UpdatedAt = row.UpdatedAt
	for _, d := range days {
		cfg.Days[d.Weekday] = d
	}
	return cfg, nil
}

func encodeDays(cfg *model.ScheduleConfig) ([]byte, error) {
	days := make([]model.DaySchedule, 0, len(cfg.Days))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if d, ok := cfg.Days[wd]; ok {
			days = append(days, d)
		}
	}
	return json.Marshal(days)
}

func (r *scheduleConfigRepository) Get(ctx context.Context, clinicID uuid.UUID) (_ *model.ScheduleConfig, err error) {
	start := time.Now()
	defer func() { observe(r.metrics, "schedule_get", start, err) }()

	query := `
		SELECT id, clinic_id, days, policy, created_at, updated_at
		FROM schedule_configs
		WHERE clinic_id = $1
	`
	var row scheduleConfigRow
	err = r.db.GetContext(ctx, &row, query, clinicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get schedule config: %w", err)
	}
	return row.toModel()
}

func (r *scheduleConfigRepository) GetDefault(ctx context.Context) (_ *model.ScheduleConfig, err error) {
	start := time.Now()
	defer func() { observe(r.metrics, "schedule_get_default", start, err) }()

	query := `
		SELECT id, clinic_id, days, policy, created_at, updated_at
		FROM schedule_configs
		WHERE clinic_id IS NULL
	`
	var row scheduleConfigRow
	err = r.db.GetContext(ctx, &row, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get default schedule config: %w", err)
	}
	return row.toModel()
}

func (r *scheduleConfigRepository) Upsert(ctx context.Context, cfg *model.ScheduleConfig) (err error) {
	start := time.Now()
	defer func() { observe(r.metrics, "schedule_upsert", start, err) }()

	days, err := encodeDays(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode schedule days: %w", err)
	}
	policy, err := json.Marshal(cfg.Policy)
	if err != nil {
		return fmt.Errorf("failed to encode session policy: %w", err)
	}

	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	cfg.UpdatedAt = time.Now()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = cfg.UpdatedAt
	}

	// Partial unique indexes cover both the per-clinic row and the
	// single NULL-clinic default row.
	query := `
		INSERT INTO schedule_configs (id, clinic_id, days, policy, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (clinic_id) WHERE clinic_id IS NOT NULL
		DO UPDATE SET days = EXCLUDED.days, policy = EXCLUDED.policy, updated_at = EXCLUDED.updated_at
	`
	if cfg.ClinicID == nil {
		query = `
		INSERT INTO schedule_configs (id, clinic_id, days, policy, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ((clinic_id IS NULL)) WHERE clinic_id IS NULL
		DO UPDATE SET days = EXCLUDED.days, policy = EXCLUDED.policy, updated_at = EXCLUDED.updated_at
	`
	}

	_, err = r.db.ExecContext(ctx, query,
		cfg.ID,
		cfg.ClinicID,
		days,
		policy,
		cfg.CreatedAt,
		cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert schedule config: %w", err)
	}
	return nil
}

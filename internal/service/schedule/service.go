package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

const defaultCacheKey = "default"

// ErrInvalidConfig wraps config-time validation failures so callers can
// map them to a client error.
var ErrInvalidConfig = errors.New("invalid schedule config")

type ScheduleServicer interface {
	Get(ctx context.Context, clinicID uuid.UUID) (model.ScheduleConfig, error)
	GetDefault(ctx context.Context) (model.ScheduleConfig, error)
	Save(ctx context.Context, cfg *model.ScheduleConfig) error
}

// Service resolves schedule configurations for the booking code.
// Schedules are read-mostly, so reads go through an in-process cache;
// Save invalidates. Resolution order is clinic row, stored default row,
// then model.DefaultScheduleConfig — the booking core always receives a
// concrete config and never resolves defaults itself.
type Service struct {
	repo  repository.ScheduleConfigRepository
	cache *cache.Cache
}

func NewService(repo repository.ScheduleConfigRepository, cacheTTL time.Duration) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(cacheTTL, 2*cacheTTL),
	}
}

func (s *Service) Get(ctx context.Context, clinicID uuid.UUID) (model.ScheduleConfig, error) {
	key := clinicID.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(model.ScheduleConfig), nil
	}

	cfg, err := s.repo.Get(ctx, clinicID)
	if err == nil {
		s.cache.SetDefault(key, *cfg)
		return *cfg, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		// The store being unreachable must not take booking down;
		// serve the documented default and leave the cache cold.
		log.Warn().Err(err).Str("clinic_id", key).Msg("schedule config unavailable, using default")
		return s.GetDefault(ctx)
	}

	fallback, err := s.GetDefault(ctx)
	if err != nil {
		return model.DefaultScheduleConfig(), nil
	}
	s.cache.SetDefault(key, fallback)
	return fallback, nil
}

func (s *Service) GetDefault(ctx context.Context) (model.ScheduleConfig, error) {
	if cached, ok := s.cache.Get(defaultCacheKey); ok {
		return cached.(model.ScheduleConfig), nil
	}

	cfg, err := s.repo.GetDefault(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn().Err(err).Msg("default schedule config unavailable, using built-in")
		}
		return model.DefaultScheduleConfig(), nil
	}
	s.cache.SetDefault(defaultCacheKey, *cfg)
	return *cfg, nil
}

// Save validates and upserts a schedule configuration. Invalid
// schedules are rejected here and never reach booking code.
func (s *Service) Save(ctx context.Context, cfg *model.ScheduleConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return fmt.Errorf("failed to save schedule config: %w", err)
	}

	if cfg.ClinicID != nil {
		s.cache.Delete(cfg.ClinicID.String())
	} else {
		// Clinics without their own row resolve through the default,
		// so a default change invalidates everything.
		s.cache.Flush()
	}
	return nil
}

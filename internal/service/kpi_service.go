// internal/service/kpi_service.go
package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/farmakpi/backend-go/internal/cache"
	"github.com/farmakpi/backend-go/internal/domain"
	"github.com/farmakpi/backend-go/internal/repository"
)

// KpiService is the read-only surface the presentation layer talks to. It
// never mutates the store; cache failures degrade to repository reads.
type KpiService struct {
	repo  repository.KpiReadRepository
	cache cache.KpiCache
}

func NewKpiService(repo repository.KpiReadRepository, cacheImpl cache.KpiCache) *KpiService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopKpiCache()
	}
	return &KpiService{repo: repo, cache: cacheImpl}
}

// GetRecords returns the finalized, sorted record sequence for the period.
func (s *KpiService) GetRecords(ctx context.Context, period domain.Period) ([]domain.KpiRecord, error) {
	if records, ok, err := s.cache.GetRecords(ctx, period); err == nil && ok {
		return records, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("kpi: cache get records failed")
	}

	records, err := s.repo.GetRecords(ctx, period)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetRecords(ctx, period, records); err != nil {
		log.Warn().Err(err).Msg("kpi: cache set records failed")
	}

	return records, nil
}

func (s *KpiService) GetSummary(ctx context.Context, period domain.Period) (domain.KpiSummary, error) {
	return s.repo.GetSummary(ctx, period)
}

func (s *KpiService) GetAvailablePeriods(ctx context.Context, limit int) ([]domain.Period, error) {
	return s.repo.GetAvailablePeriods(ctx, limit)
}

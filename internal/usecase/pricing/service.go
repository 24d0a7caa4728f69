package pricing

import (
	"time"

	"partspricing/internal/ports"
)

const (
	// cacheTTLPrices bounds staleness of aggregated price views between
	// refreshes.
	cacheTTLPrices = 6 * time.Hour
	// cacheTTLSearch keeps live search results hot for a short window only.
	cacheTTLSearch = 30 * time.Minute

	// DefaultFreshness is the aggregation window when the caller does not
	// override it.
	DefaultFreshness = 24 * time.Hour

	searchLimitPerSource = 10
)

type Service struct {
	repo      ports.CatalogRepository
	uow       ports.UnitOfWork
	cache     ports.Cache
	drivers   ports.DriverRegistry
	publisher ports.RefreshPublisher
	freshness time.Duration

	now func() time.Time
}

// NewService wires the pricing usecases. Cache and publisher may be no-op
// adapters; freshness <= 0 falls back to the default window.
func NewService(
	repo ports.CatalogRepository,
	uow ports.UnitOfWork,
	cache ports.Cache,
	drivers ports.DriverRegistry,
	publisher ports.RefreshPublisher,
	freshness time.Duration,
) *Service {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &Service{
		repo:      repo,
		uow:       uow,
		cache:     cache,
		drivers:   drivers,
		publisher: publisher,
		freshness: freshness,
		now:       time.Now,
	}
}

func (s *Service) nowUTC() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

package service

import (
	"context"

	"github.com/devradar-app/devradar-backend/cache"
	"github.com/devradar-app/devradar-backend/config"
	"github.com/devradar-app/devradar-backend/model"

	log "github.com/sirupsen/logrus"
)

type AggregationService interface {
	GetAccounts(ctx context.Context) ([]model.EnrichedAccount, error)
	GetAccount(ctx context.Context, username string) (*model.ProfileDetail, error)
}

type aggregationService struct {
	discoveryService DiscoveryService
	enrichService    EnrichService
	budgetGuard      BudgetGuard
	resultCache      *cache.ResultCache
	config           config.Config
}

// the cache is injected so tests can substitute a fake and control the clock
func NewAggregationService(config config.Config, discoveryService DiscoveryService, enrichService EnrichService, budgetGuard BudgetGuard, resultCache *cache.ResultCache) AggregationService {
	return aggregationService{
		discoveryService: discoveryService,
		enrichService:    enrichService,
		budgetGuard:      budgetGuard,
		resultCache:      resultCache,
		config:           config,
	}
}

// GetAccounts serve the bulk listing: cache check, discovery, throttled enrichment, cache write
// the cache is only written after a fully successful cycle
func (s aggregationService) GetAccounts(ctx context.Context) ([]model.EnrichedAccount, error) {
	if cached, found := s.resultCache.Get(cache.BulkKey); found {
		log.Debug("bulk account listing served from cache")
		return cached.([]model.EnrichedAccount), nil
	}

	summaries, err := s.discoveryService.DiscoverAccounts(ctx)

	if err != nil {
		return []model.EnrichedAccount{}, err
	}

	accounts, err := s.enrichService.EnrichAccounts(ctx, summaries)

	if err != nil {
		return []model.EnrichedAccount{}, err
	}

	s.resultCache.Set(cache.BulkKey, accounts)
	return accounts, nil
}

// GetAccount serve the single account detail: cache check, budget gate, concurrent enrichment, cache write
// when the budget guard denies, no enrichment sub-fetch is issued at all
func (s aggregationService) GetAccount(ctx context.Context, username string) (*model.ProfileDetail, error) {
	key := cache.AccountKey(username)

	if cached, found := s.resultCache.Get(key); found {
		log.WithField("login", username).Debug("account detail served from cache")
		return cached.(*model.ProfileDetail), nil
	}

	if _, err := s.budgetGuard.CheckBudget(ctx, s.config.Github.MinBudget); err != nil {
		return nil, err
	}

	detail, err := s.enrichService.EnrichAccount(ctx, username)

	if err != nil {
		return nil, err
	}

	s.resultCache.Set(key, detail)
	return detail, nil
}

package service

import (
	"context"

	"github.com/devradar-app/devradar-backend/config"
	"github.com/devradar-app/devradar-backend/model"

	log "github.com/sirupsen/logrus"
)

type DiscoveryService interface {
	DiscoverAccounts(ctx context.Context) ([]model.AccountSummary, error)
}

type discoveryService struct {
	githubService GithubService
	config        config.Config
	pause         PauseFunc
}

func NewDiscoveryService(config config.Config, githubService GithubService) DiscoveryService {
	return discoveryService{
		githubService: githubService,
		config:        config,
		pause:         waitFor,
	}
}

// DiscoverAccounts fetch the accounts matching the configured search query, capped at MaxAccounts
// a single result probe first learns the total match count, then pages are fetched sequentially
// in strictly increasing page order with a fixed pause between them to stay under burst limits
// ordering is the upstream descending by followers order, never re-sorted here
func (s discoveryService) DiscoverAccounts(ctx context.Context) ([]model.AccountSummary, error) {
	if !s.githubService.ConsumeBudget(1) {
		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
		return []model.AccountSummary{}, model.NewRateLimitError(nil, nil)
	}

	probe, err := s.githubService.SearchAccountsPage(ctx, 1, 1)

	if err != nil {
		return []model.AccountSummary{}, err
	}

	total := probe.GetTotal()

	if total > s.config.Github.MaxAccounts {
		total = s.config.Github.MaxAccounts
	}

	if total == 0 {
		log.WithField("query", s.config.Github.SearchQuery).Info("no account match the configured search query")
		return []model.AccountSummary{}, nil
	}

	pageSize := s.config.Github.PageSize
	pageCount := (total + pageSize - 1) / pageSize

	// rate limit check: consume tokens/requests for every page up front
	// if there is not enought requests, return an error to avoid fetching only a part of the listing
	if !s.githubService.ConsumeBudget(pageCount) {
		log.WithField("pagesToLoad", pageCount).Warning("not enought requests in rate limiter to load all discovery pages")
		return []model.AccountSummary{}, model.NewRateLimitError(nil, nil)
	}

	log.WithFields(log.Fields{
		"query":      s.config.Github.SearchQuery,
		"totalFound": probe.GetTotal(),
		"clamped":    total,
		"pages":      pageCount,
	}).Info("fetch accounts matching the search query from github")

	accounts := make([]model.AccountSummary, 0, total)

	for page := 1; page <= pageCount; page++ {
		if page > 1 {
			if err := s.pause(ctx, s.config.Github.PageDelay()); err != nil {
				return []model.AccountSummary{}, err
			}
		}

		result, err := s.githubService.SearchAccountsPage(ctx, page, pageSize)

		if err != nil {
			// any page failure aborts the whole discovery, no partial bulk list
			return []model.AccountSummary{}, err
		}

		for _, user := range result.Users {
			if user == nil || user.Login == nil {
				log.Debug("account found with invalid information. skipped")
				continue
			}

			accounts = append(accounts, model.AccountSummary{
				Login:     user.GetLogin(),
				AvatarURL: user.GetAvatarURL(),
				HTMLURL:   user.GetHTMLURL(),
				ReposURL:  user.GetReposURL(),
				Followers: user.GetFollowers(),
			})

			if len(accounts) == total {
				return accounts, nil
			}
		}
	}

	return accounts, nil
}

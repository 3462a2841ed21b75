package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/devradar-app/devradar-backend/config"
	"github.com/devradar-app/devradar-backend/model"
	"github.com/google/go-github/v66/github"

	log "github.com/sirupsen/logrus"

	"golang.org/x/time/rate"
)

type GithubService interface {
	SearchAccountsPage(ctx context.Context, page int, perPage int) (*github.UsersSearchResult, error)
	GetProfile(ctx context.Context, username string) (*github.User, error)
	ListRepositories(ctx context.Context, username string) ([]*github.Repository, error)
	ListFollowers(ctx context.Context, username string, limit int) ([]*github.User, error)
	ListOrganizations(ctx context.Context, username string) ([]*github.Organization, error)
	ListRepositoryLanguages(ctx context.Context, owner string, repository string) (map[string]int, error)
	GetRateBudget(ctx context.Context) (*model.RateBudget, error)

	ConsumeBudget(requests int) bool
	HandleRequestErrors(err error) error
}

type githubService struct {
	githubClient      *github.Client
	githubRateLimiter *rate.Limiter
	config            config.Config
}

// the local rate limiter mirrors the github core limit
// it is seeded from the /rate_limit snapshot at startup and consumed before each batch of calls
// this keeps the limiter roughly right even if external requests are made with the same token
func NewGithubService(config config.Config, githubClient *github.Client, rateLimiter *rate.Limiter) GithubService {
	return githubService{
		githubClient:      githubClient,
		githubRateLimiter: rateLimiter,
		config:            config,
	}
}

// SearchAccountsPage fetch a single page of the fixed account search
// results are ordered by descending follower count as reported by github
func (s githubService) SearchAccountsPage(ctx context.Context, page int, perPage int) (*github.UsersSearchResult, error) {
	searchQuery := model.AccountSearchQuery{Query: s.config.Github.SearchQuery}

	result, _, err := s.githubClient.Search.Users(
		ctx,
		searchQuery.ToGithubQuery(),
		&github.SearchOptions{
			Sort:  "followers",
			Order: "desc",
			ListOptions: github.ListOptions{
				Page:    page,
				PerPage: perPage,
			},
		},
	)

	if err != nil {
		return nil, s.HandleRequestErrors(err)
	}

	return result, nil
}

func (s githubService) GetProfile(ctx context.Context, username string) (*github.User, error) {
	profile, _, err := s.githubClient.Users.Get(ctx, username)

	if err != nil {
		return nil, s.HandleRequestErrors(err)
	}

	return profile, nil
}

// ListRepositories fetch a single bounded page of owned repositories sorted by most recently pushed
// forks are filtered by the caller because the list endpoint has no non-fork filter
func (s githubService) ListRepositories(ctx context.Context, username string) ([]*github.Repository, error) {
	repos, _, err := s.githubClient.Repositories.ListByUser(
		ctx,
		username,
		&github.RepositoryListByUserOptions{
			Type:      "owner",
			Sort:      "pushed",
			Direction: "desc",
			ListOptions: github.ListOptions{
				Page:    1,
				PerPage: s.config.Github.ReposPerPage,
			},
		},
	)

	if err != nil {
		return nil, s.HandleRequestErrors(err)
	}

	return repos, nil
}

func (s githubService) ListFollowers(ctx context.Context, username string, limit int) ([]*github.User, error) {
	followers, _, err := s.githubClient.Users.ListFollowers(
		ctx,
		username,
		&github.ListOptions{
			Page:    1,
			PerPage: limit,
		},
	)

	if err != nil {
		return nil, s.HandleRequestErrors(err)
	}

	return followers, nil
}

func (s githubService) ListOrganizations(ctx context.Context, username string) ([]*github.Organization, error) {
	organizations, _, err := s.githubClient.Organizations.List(ctx, username, nil)

	if err != nil {
		return nil, s.HandleRequestErrors(err)
	}

	return organizations, nil
}

func (s githubService) ListRepositoryLanguages(ctx context.Context, owner string, repository string) (map[string]int, error) {
	languages, _, err := s.githubClient.Repositories.ListLanguages(ctx, owner, repository)

	if err != nil {
		return nil, s.HandleRequestErrors(err)
	}

	return languages, nil
}

// GetRateBudget issue a fresh lightweight budget query
// the snapshot is time sensitive so it must never be cached
func (s githubService) GetRateBudget(ctx context.Context) (*model.RateBudget, error) {
	rateLimits, _, err := s.githubClient.RateLimit.Get(ctx)

	if err != nil {
		return nil, s.HandleRequestErrors(err)
	}

	return &model.RateBudget{
		Remaining: rateLimits.Core.Remaining,
		Limit:     rateLimits.Core.Limit,
		ResetAt:   rateLimits.Core.Reset.Time,
	}, nil
}

// ConsumeBudget take the given number of requests from the local rate limiter
// callers must consume the whole batch up front to avoid loading data only partially
func (s githubService) ConsumeBudget(requests int) bool {
	return s.githubRateLimiter.AllowN(time.Now(), requests)
}

// HandleRequestErrors classify github request failures into the uniform error shape
// If error is a rate limit error, this function will update the local rate limiter to consume all available requests
// this can help us to keep the local rate limiter up to date
func (s githubService) HandleRequestErrors(err error) error {
	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		s.githubRateLimiter.AllowN(time.Now(), s.githubRateLimiter.Burst())

		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")

		resetAt := rateLimitErr.Rate.Reset.Time
		remaining := rateLimitErr.Rate.Remaining
		return model.NewRateLimitError(&resetAt, &remaining)
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		log.Warning("the Github secondary rate limit has been reached. wait before sending new requests")

		resetAt := time.Now().Add(abuseErr.GetRetryAfter())
		return model.NewRateLimitError(&resetAt, nil)
	}

	var responseErr *github.ErrorResponse
	if errors.As(err, &responseErr) && responseErr.Response != nil {
		switch {
		case responseErr.Response.StatusCode == http.StatusNotFound:
			return model.NewNotFoundError()

		case responseErr.Response.StatusCode == http.StatusForbidden || responseErr.Response.StatusCode == http.StatusTooManyRequests:
			if strings.Contains(strings.ToLower(responseErr.Message), "rate limit") {
				log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
				return model.NewRateLimitError(nil, nil)
			}

			log.WithError(err).Error("error catched when fetching data from github")
			return model.NewUnexpectedError()

		case responseErr.Response.StatusCode >= http.StatusInternalServerError:
			log.WithError(err).Error("github answered with a server error")
			return model.NewUpstreamUnavailableError()
		}

		log.WithError(err).Error("error catched when fetching data from github")
		return model.NewUnexpectedError()
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		log.WithError(err).Error("network error while reaching github")
		return model.NewUpstreamUnavailableError()
	}

	log.WithError(err).Error("error catched when fetching data from github")
	return model.NewUnexpectedError()
}

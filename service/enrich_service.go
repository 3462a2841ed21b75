package service

import (
	"context"
	"sort"

	"github.com/devradar-app/devradar-backend/config"
	"github.com/devradar-app/devradar-backend/model"
	"github.com/google/go-github/v66/github"

	"github.com/remeh/sizedwaitgroup"
	log "github.com/sirupsen/logrus"

	"golang.org/x/sync/errgroup"
)

type EnrichService interface {
	EnrichAccounts(ctx context.Context, summaries []model.AccountSummary) ([]model.EnrichedAccount, error)
	EnrichAccount(ctx context.Context, username string) (*model.ProfileDetail, error)

	FetchLanguagesForSingleRepository(ctx context.Context, username string, repo model.RepositoryRecord, swg *sizedwaitgroup.SizedWaitGroup, results chan<- model.RepositoryLanguages, errs chan<- error)
}

type enrichService struct {
	githubService GithubService
	config        config.Config
	pause         PauseFunc
}

func NewEnrichService(config config.Config, githubService GithubService) EnrichService {
	return enrichService{
		githubService: githubService,
		config:        config,
		pause:         waitFor,
	}
}

// EnrichAccounts augment every summary with its top languages, one account at a time
// with a fixed pause between accounts to respect the shared budget
// a failed account degrades to its summary fields with an empty language list
// it is never dropped from the output and never aborts the remaining accounts
func (s enrichService) EnrichAccounts(ctx context.Context, summaries []model.AccountSummary) ([]model.EnrichedAccount, error) {
	enriched := make([]model.EnrichedAccount, 0, len(summaries))

	for i, summary := range summaries {
		if i > 0 {
			if err := s.pause(ctx, s.config.Github.AccountDelay()); err != nil {
				return []model.EnrichedAccount{}, err
			}
		}

		account, err := s.enrichSummary(ctx, summary)

		if err != nil {
			log.WithFields(log.Fields{
				"login":  summary.Login,
				"reason": err.Error(),
			}).Warning("account enrichment failed. degraded to summary fields")

			enriched = append(enriched, model.EnrichedAccount{
				AccountSummary: summary,
				Languages:      []string{},
			})

			continue
		}

		enriched = append(enriched, account)
	}

	return enriched, nil
}

// enrichSummary fetch the full profile and a bounded page of repositories for one account
// languages are ranked by the number of repositories using them as primary language
func (s enrichService) enrichSummary(ctx context.Context, summary model.AccountSummary) (model.EnrichedAccount, error) {
	// one profile call and one repository listing call per account
	if !s.githubService.ConsumeBudget(2) {
		return model.EnrichedAccount{}, model.NewRateLimitError(nil, nil)
	}

	profile, err := s.githubService.GetProfile(ctx, summary.Login)

	if err != nil {
		return model.EnrichedAccount{}, err
	}

	repos, err := s.githubService.ListRepositories(ctx, summary.Login)

	if err != nil {
		return model.EnrichedAccount{}, err
	}

	// the search items carry no follower count, the profile is authoritative
	summary.Followers = profile.GetFollowers()

	if summary.AvatarURL == "" {
		summary.AvatarURL = profile.GetAvatarURL()
	}

	return model.EnrichedAccount{
		AccountSummary: summary,
		Languages:      topLanguagesByRepoCount(repos, s.config.Github.TopLanguages),
	}, nil
}

// EnrichAccount build the full profile detail for a single account
// profile, repositories, followers preview and organizations are fetched concurrently
// this mode has no partial failure isolation: any sub-fetch failure fails the whole request
func (s enrichService) EnrichAccount(ctx context.Context, username string) (*model.ProfileDetail, error) {
	if !s.githubService.ConsumeBudget(4) {
		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
		return nil, model.NewRateLimitError(nil, nil)
	}

	var profile *github.User
	var repos []*github.Repository
	var followers []*github.User
	var organizations []*github.Organization

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		var err error
		profile, err = s.githubService.GetProfile(groupCtx, username)
		return err
	})

	group.Go(func() error {
		var err error
		repos, err = s.githubService.ListRepositories(groupCtx, username)
		return err
	})

	group.Go(func() error {
		var err error
		followers, err = s.githubService.ListFollowers(groupCtx, username, s.config.Github.FollowersPreview)
		return err
	})

	group.Go(func() error {
		var err error
		organizations, err = s.githubService.ListOrganizations(groupCtx, username)
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	// keep only non fork repositories, already sorted by most recently pushed upstream
	records := make([]model.RepositoryRecord, 0, len(repos))
	totalContributions := 0

	for _, r := range repos {
		if r == nil || r.GetFork() {
			continue
		}

		records = append(records, toRepositoryRecord(r))
		totalContributions += r.GetStargazersCount() + r.GetForksCount()
	}

	sampled := records
	if len(sampled) > s.config.Github.SampledRepos {
		sampled = sampled[:s.config.Github.SampledRepos]
	}

	tally, err := s.fetchLanguageTally(ctx, username, sampled)

	if err != nil {
		return nil, err
	}

	detail := &model.ProfileDetail{
		AccountSummary: model.AccountSummary{
			Login:     profile.GetLogin(),
			AvatarURL: profile.GetAvatarURL(),
			HTMLURL:   profile.GetHTMLURL(),
			ReposURL:  profile.GetReposURL(),
			Followers: profile.GetFollowers(),
		},
		Name:               profile.Name,
		Bio:                profile.Bio,
		Location:           profile.Location,
		Blog:               profile.Blog,
		CreatedAt:          profile.GetCreatedAt().Time,
		Organizations:      toOrganizationRefs(organizations),
		FollowersPreview:   toFollowerRefs(followers),
		Repositories:       records,
		Languages:          tally.Sorted(),
		TotalContributions: totalContributions,
	}

	return detail, nil
}

// fetchLanguageTally fan out the per repository language byte maps and sum them per language
// launches are staggered to avoid bursting, results are merged order independently
func (s enrichService) fetchLanguageTally(ctx context.Context, username string, sampled []model.RepositoryRecord) (model.LanguageByteTally, error) {
	tally := model.LanguageByteTally{}

	if len(sampled) == 0 {
		return tally, nil
	}

	if !s.githubService.ConsumeBudget(len(sampled)) {
		log.WithField("repositoriesToLoad", len(sampled)).Warning("not enought requests in rate limiter to load languages for all repositories")
		return nil, model.NewRateLimitError(nil, nil)
	}

	swg := sizedwaitgroup.New(s.config.Tasks.MaxParallelTasksAllowed)

	results := make(chan model.RepositoryLanguages, len(sampled))
	errs := make(chan error, len(sampled))

	for i, repo := range sampled {
		if i > 0 {
			if err := s.pause(ctx, s.config.Github.Stagger()); err != nil {
				return nil, err
			}
		}

		swg.Add()
		go s.FetchLanguagesForSingleRepository(ctx, username, repo, &swg, results, errs)
	}

	// wait for all tasks to be finished
	log.Debug("waiting for all threads for loading repositories languages to be finished")
	swg.Wait()
	log.Debug("all threads for loading repositories languages finished")

	close(results)
	close(errs)

	if err := <-errs; err != nil {
		return nil, err
	}

	for result := range results {
		tally.Merge(result.Languages)
	}

	return tally, nil
}

// FetchLanguagesForSingleRepository get the language byte map for a specific repository
// It will add the results to a channel and use a goroutine
// note: we are not checking the rate limit in this function, because done in the parent function
// note: take care if you call this function from another function
func (s enrichService) FetchLanguagesForSingleRepository(ctx context.Context, username string, repo model.RepositoryRecord, swg *sizedwaitgroup.SizedWaitGroup, results chan<- model.RepositoryLanguages, errs chan<- error) {
	defer swg.Done()

	log.WithFields(log.Fields{
		"repositoryID": repo.ID,
		"repository":   repo.Name,
	}).Debug("fetch languages for repository")

	languages, err := s.githubService.ListRepositoryLanguages(ctx, username, repo.Name)

	if err != nil {
		errs <- err
		return
	}

	results <- model.RepositoryLanguages{RepositoryID: repo.ID, Languages: languages}
}

// topLanguagesByRepoCount rank languages by the number of repositories using them as primary language
// one increment per repository, not byte weighted. ties keep the first seen order
func topLanguagesByRepoCount(repos []*github.Repository, limit int) []string {
	counts := make(map[string]int)
	ranked := make([]string, 0)

	for _, r := range repos {
		if r == nil || r.GetFork() {
			continue
		}

		language := r.GetLanguage()

		if language == "" {
			continue
		}

		if _, seen := counts[language]; !seen {
			ranked = append(ranked, language)
		}

		counts[language]++
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}

func toRepositoryRecord(r *github.Repository) model.RepositoryRecord {
	record := model.RepositoryRecord{
		ID:          r.GetID(),
		Name:        r.GetName(),
		Description: r.Description,
		HTMLURL:     r.GetHTMLURL(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		Language:    r.Language,
		CreatedAt:   r.GetCreatedAt().Time,
		Topics:      r.Topics,
		Visibility:  r.GetVisibility(),
	}

	if r.PushedAt != nil {
		pushedAt := r.PushedAt.Time
		record.PushedAt = &pushedAt
	}

	if record.Topics == nil {
		record.Topics = []string{}
	}

	return record
}

func toOrganizationRefs(organizations []*github.Organization) []model.OrganizationRef {
	refs := make([]model.OrganizationRef, 0, len(organizations))

	for _, org := range organizations {
		if org == nil || org.Login == nil {
			continue
		}

		ref := model.OrganizationRef{
			Login:     org.GetLogin(),
			AvatarURL: org.GetAvatarURL(),
			HTMLURL:   org.GetHTMLURL(),
		}

		// the organizations listing omits the html url
		if ref.HTMLURL == "" {
			ref.HTMLURL = "https://github.com/" + ref.Login
		}

		refs = append(refs, ref)
	}

	return refs
}

func toFollowerRefs(followers []*github.User) []model.FollowerRef {
	refs := make([]model.FollowerRef, 0, len(followers))

	for _, follower := range followers {
		if follower == nil || follower.Login == nil {
			continue
		}

		refs = append(refs, model.FollowerRef{
			Login:     follower.GetLogin(),
			AvatarURL: follower.GetAvatarURL(),
			HTMLURL:   follower.GetHTMLURL(),
		})
	}

	return refs
}

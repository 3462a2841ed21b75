package service

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/devradar-app/devradar-backend/config"
	"github.com/devradar-app/devradar-backend/model"
	"github.com/google/go-github/v66/github"
	githubMock "github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func writeMockJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	if _, err := w.Write(githubMock.MustMarshal(v)); err != nil {
		t.Error("unable to configure mock http client")
	}
}

func repoWithLanguage(id int64, name string, language string, fork bool) *github.Repository {
	return &github.Repository{
		ID:       github.Int64(id),
		Name:     github.String(name),
		HTMLURL:  github.String("https://github.com/test/" + name),
		Language: github.String(language),
		Fork:     github.Bool(fork),
	}
}

// TestEnrichAccounts validates the bulk mode failure isolation and the language ranking
// given 3 accounts where sub-fetches for the second fail, the output still has 3 entries
// and the failed one degrades to its summary fields with an empty language list
func TestEnrichAccounts(t *testing.T) {
	summaries := []model.AccountSummary{
		{Login: "alice", AvatarURL: "https://avatars.test/alice", HTMLURL: "https://github.com/alice"},
		{Login: "bob", AvatarURL: "https://avatars.test/bob", HTMLURL: "https://github.com/bob"},
		{Login: "carol", AvatarURL: "https://avatars.test/carol", HTMLURL: "https://github.com/carol"},
	}

	// primary language counts for alice: Go 3, Rust 3, Python 1 with Rust seen first
	// the top-2 must be [Rust, Go], the tie broken by first seen order
	aliceRepos := []*github.Repository{
		repoWithLanguage(1, "rust-one", "Rust", false),
		repoWithLanguage(2, "go-one", "Go", false),
		repoWithLanguage(3, "rust-two", "Rust", false),
		repoWithLanguage(4, "go-two", "Go", false),
		repoWithLanguage(5, "py-one", "Python", false),
		repoWithLanguage(6, "rust-three", "Rust", false),
		repoWithLanguage(7, "go-three", "Go", false),
		repoWithLanguage(8, "fork-ts", "TypeScript", true), // forks never count
	}

	carolRepos := []*github.Repository{
		repoWithLanguage(9, "go-only", "Go", false),
	}

	mockedHTTPClient := githubMock.NewMockedHTTPClient(
		githubMock.WithRequestMatchHandler(
			githubMock.GetUsersByUsername,
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if strings.Contains(r.URL.Path, "bob") {
					githubMock.WriteError(w, http.StatusInternalServerError, "github went away")
					return
				}

				login := strings.TrimPrefix(r.URL.Path, "/users/")
				writeMockJSON(t, w, github.User{
					Login:     github.String(login),
					Followers: github.Int(42),
				})
			}),
		),
		githubMock.WithRequestMatchHandler(
			githubMock.GetUsersReposByUsername,
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if strings.Contains(r.URL.Path, "alice") {
					writeMockJSON(t, w, aliceRepos)
					return
				}

				writeMockJSON(t, w, carolRepos)
			}),
		),
	)

	conf := config.GetDefault()
	conf.Github.TopLanguages = 2
	conf.Github.AccountDelayMs = 0

	mockedRateLimiter := rate.NewLimiter(rate.Every(time.Hour), 60)
	mockedGithubClient := github.NewClient(mockedHTTPClient)
	githubSvc := NewGithubService(*conf, mockedGithubClient, mockedRateLimiter)
	svc := NewEnrichService(*conf, githubSvc)

	enriched, err := svc.EnrichAccounts(context.Background(), summaries)

	assert.NoError(t, err)
	assert.Len(t, enriched, 3)

	assert.Equal(t, "alice", enriched[0].Login)
	assert.Equal(t, []string{"Rust", "Go"}, enriched[0].Languages)
	assert.Equal(t, 42, enriched[0].Followers)

	// degraded row keeps the summary fields, is never dropped
	assert.Equal(t, model.EnrichedAccount{
		AccountSummary: summaries[1],
		Languages:      []string{},
	}, enriched[1])

	assert.Equal(t, "carol", enriched[2].Login)
	assert.Equal(t, []string{"Go"}, enriched[2].Languages)
}

// TestEnrichAccount validates the single account fan-out and the byte tally merge
func TestEnrichAccount(t *testing.T) {
	createdAt := time.Date(2015, 4, 12, 10, 0, 0, 0, time.UTC)

	repos := []*github.Repository{
		{
			ID:              github.Int64(1),
			Name:            github.String("repo-a"),
			HTMLURL:         github.String("https://github.com/alice/repo-a"),
			StargazersCount: github.Int(10),
			ForksCount:      github.Int(2),
			Language:        github.String("Go"),
			Fork:            github.Bool(false),
		},
		{
			ID:              github.Int64(2),
			Name:            github.String("repo-b"),
			HTMLURL:         github.String("https://github.com/alice/repo-b"),
			StargazersCount: github.Int(5),
			ForksCount:      github.Int(1),
			Language:        github.String("Go"),
			Fork:            github.Bool(false),
		},
		{
			ID:              github.Int64(3),
			Name:            github.String("fork-c"),
			StargazersCount: github.Int(100),
			Fork:            github.Bool(true), // excluded from records and contributions
		},
	}

	mockedHTTPClient := githubMock.NewMockedHTTPClient(
		githubMock.WithRequestMatchHandler(
			githubMock.GetUsersByUsername,
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeMockJSON(t, w, github.User{
					Login:     github.String("alice"),
					Name:      github.String("Alice"),
					AvatarURL: github.String("https://avatars.test/alice"),
					HTMLURL:   github.String("https://github.com/alice"),
					Followers: github.Int(42),
					CreatedAt: &github.Timestamp{Time: createdAt},
				})
			}),
		),
		githubMock.WithRequestMatchHandler(
			githubMock.GetUsersReposByUsername,
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeMockJSON(t, w, repos)
			}),
		),
		githubMock.WithRequestMatchHandler(
			githubMock.GetUsersFollowersByUsername,
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeMockJSON(t, w, []*github.User{
					{Login: github.String("fan-one"), AvatarURL: github.String("https://avatars.test/fan-one")},
					{Login: github.String("fan-two"), AvatarURL: github.String("https://avatars.test/fan-two")},
				})
			}),
		),
		githubMock.WithRequestMatchHandler(
			githubMock.GetUsersOrgsByUsername,
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeMockJSON(t, w, []*github.Organization{
					{Login: github.String("gophers"), AvatarURL: github.String("https://avatars.test/gophers")},
				})
			}),
		),
		githubMock.WithRequestMatchHandler(
			githubMock.GetReposLanguagesByOwnerByRepo,
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				// byte maps merge to {Go: 13, HTML: 5, CSS: 7} regardless of completion order
				if strings.Contains(r.URL.Path, "repo-a") {
					writeMockJSON(t, w, map[string]int{"Go": 10, "HTML": 5})
					return
				}

				writeMockJSON(t, w, map[string]int{"Go": 3, "CSS": 7})
			}),
		),
	)

	conf := config.GetDefault()
	conf.Github.StaggerMs = 0

	mockedRateLimiter := rate.NewLimiter(rate.Every(time.Hour), 60)
	mockedGithubClient := github.NewClient(mockedHTTPClient)
	githubSvc := NewGithubService(*conf, mockedGithubClient, mockedRateLimiter)
	svc := NewEnrichService(*conf, githubSvc)

	detail, err := svc.EnrichAccount(context.Background(), "alice")

	assert.NoError(t, err)
	assert.Equal(t, "alice", detail.Login)
	assert.Equal(t, 42, detail.Followers)
	assert.Equal(t, createdAt, detail.CreatedAt)

	// the fork is excluded everywhere
	assert.Len(t, detail.Repositories, 2)
	assert.Equal(t, "repo-a", detail.Repositories[0].Name)
	assert.Equal(t, 18, detail.TotalContributions)

	assert.Equal(t, []model.LanguageUsage{
		{Name: "Go", Bytes: 13},
		{Name: "CSS", Bytes: 7},
		{Name: "HTML", Bytes: 5},
	}, detail.Languages)

	assert.Equal(t, []model.FollowerRef{
		{Login: "fan-one", AvatarURL: "https://avatars.test/fan-one"},
		{Login: "fan-two", AvatarURL: "https://avatars.test/fan-two"},
	}, detail.FollowersPreview)

	assert.Equal(t, []model.OrganizationRef{
		{Login: "gophers", AvatarURL: "https://avatars.test/gophers", HTMLURL: "https://github.com/gophers"},
	}, detail.Organizations)
}

// TestEnrichAccountNotFound checks that an unknown account fails the whole request
func TestEnrichAccountNotFound(t *testing.T) {
	mockedHTTPClient := githubMock.NewMockedHTTPClient(
		githubMock.WithRequestMatchHandler(
			githubMock.GetUsersByUsername,
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				githubMock.WriteError(w, http.StatusNotFound, "Not Found")
			}),
		),
		githubMock.WithRequestMatchHandler(
			githubMock.GetUsersReposByUsername,
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeMockJSON(t, w, []*github.Repository{})
			}),
		),
		githubMock.WithRequestMatchHandler(
			githubMock.GetUsersFollowersByUsername,
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeMockJSON(t, w, []*github.User{})
			}),
		),
		githubMock.WithRequestMatchHandler(
			githubMock.GetUsersOrgsByUsername,
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeMockJSON(t, w, []*github.Organization{})
			}),
		),
	)

	conf := config.GetDefault()
	conf.Github.StaggerMs = 0

	mockedRateLimiter := rate.NewLimiter(rate.Every(time.Hour), 60)
	mockedGithubClient := github.NewClient(mockedHTTPClient)
	githubSvc := NewGithubService(*conf, mockedGithubClient, mockedRateLimiter)
	svc := NewEnrichService(*conf, githubSvc)

	detail, err := svc.EnrichAccount(context.Background(), "nobody")

	assert.Error(t, err)
	assert.EqualError(t, err, model.ErrCodeNotFound)
	assert.Nil(t, detail)
}

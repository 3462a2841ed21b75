package model

import (
	"sort"
	"time"
)

// AccountSummary is the bare account row produced by the discovery step
type AccountSummary struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
	HTMLURL   string `json:"htmlUrl"`
	ReposURL  string `json:"reposUrl"`
	Followers int    `json:"followers"`
}

// EnrichedAccount is an account summary augmented with its top languages
// a degraded account keeps the summary fields with an empty language list
type EnrichedAccount struct {
	AccountSummary
	Languages []string `json:"languages"`
}

// OrganizationRef is a bounded reference to an organization the account belongs to
type OrganizationRef struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
	HTMLURL   string `json:"htmlUrl"`
}

// FollowerRef is one entry of the bounded followers preview
type FollowerRef struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
	HTMLURL   string `json:"htmlUrl"`
}

// LanguageUsage is one language with its accumulated byte count
type LanguageUsage struct {
	Name  string `json:"name"`
	Bytes int    `json:"bytes"`
}

// ProfileDetail is the full single-account view
type ProfileDetail struct {
	AccountSummary
	Name               *string            `json:"name,omitempty"`
	Bio                *string            `json:"bio,omitempty"`
	Location           *string            `json:"location,omitempty"`
	Blog               *string            `json:"blog,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	Organizations      []OrganizationRef  `json:"organizations"`
	FollowersPreview   []FollowerRef      `json:"followersPreview"`
	Repositories       []RepositoryRecord `json:"repositories"`
	Languages          []LanguageUsage    `json:"languages"`
	TotalContributions int                `json:"totalContributions"`
}

// LanguageByteTally accumulates byte counts per language across sampled repositories
type LanguageByteTally map[string]int

// Merge adds another byte map into the tally
// summation is commutative so merge order does not matter
func (t LanguageByteTally) Merge(other map[string]int) {
	for lang, bytes := range other {
		t[lang] += bytes
	}
}

// Sorted finalizes the tally into a sequence ordered by descending byte count
// equal byte counts are ordered by name so the output is deterministic
func (t LanguageByteTally) Sorted() []LanguageUsage {
	usages := make([]LanguageUsage, 0, len(t))

	for lang, bytes := range t {
		usages = append(usages, LanguageUsage{Name: lang, Bytes: bytes})
	}

	sort.Slice(usages, func(i, j int) bool {
		if usages[i].Bytes != usages[j].Bytes {
			return usages[i].Bytes > usages[j].Bytes
		}

		return usages[i].Name < usages[j].Name
	})

	return usages
}

// RateBudget is a fresh snapshot of the upstream call budget
// never cached because the budget is time sensitive
type RateBudget struct {
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	ResetAt   time.Time `json:"resetAt"`
}

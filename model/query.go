package model

import "strings"

// AccountSearchQuery holds the fixed discovery query configured for the service
type AccountSearchQuery struct {
	Query string
}

// ToGithubQuery builds the qualified search string sent to the github search API
// the type:user qualifier is always enforced so organizations never leak into the listing
func (params AccountSearchQuery) ToGithubQuery() string {
	var githubQuery strings.Builder

	if !strings.Contains(params.Query, "type:") {
		githubQuery.WriteString("type:user ")
	}

	githubQuery.WriteString(params.Query)

	return strings.TrimSpace(githubQuery.String())
}

package model

import "time"

// RepositoryRecord is a read-only mapping of an upstream repository
// fields are renamed but sourced verbatim, nothing is mutated after fetch
type RepositoryRecord struct {
	ID          int64      `json:"-"` // ignored from json, only used internally to match language fetches
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"` // description can be nil for some repositories
	HTMLURL     string     `json:"htmlUrl"`
	Stars       int        `json:"stars"`
	Forks       int        `json:"forks"`
	Language    *string    `json:"language,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	PushedAt    *time.Time `json:"pushedAt,omitempty"`
	Topics      []string   `json:"topics"`
	Visibility  string     `json:"visibility"`
}

// RepositoryLanguages carries one repository language byte map through the fan-out channel
type RepositoryLanguages struct {
	RepositoryID int64
	Languages    map[string]int
}

// Package model defines the normalized record shapes the dashboard works
// with. Records are produced fresh per fetch and immutable once built; the
// raw GitHub wire types never leave the client/normalizer boundary.
package model

import "time"

// State is the effective pull request state shown on the dashboard.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
	StateMerged State = "merged"
	StateDraft  State = "draft"
)

// User identifies a GitHub account referenced by a pull request.
type User struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Label is a repository label. Color is a hex string without the leading '#'.
type Label struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
}

// RepoInfo is the repository summary embedded in each pull request.
type RepoInfo struct {
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Owner    string `json:"owner"`
}

// Repository is a normalized repository record.
type Repository struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	FullName      string    `json:"fullName"`
	Owner         string    `json:"owner"`
	Private       bool      `json:"isPrivate"`
	URL           string    `json:"url"`
	DefaultBranch string    `json:"defaultBranch"`
	OpenPRCount   int       `json:"openPRCount"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// PullRequest is a normalized pull request record.
type PullRequest struct {
	ID             int64      `json:"id"`
	Number         int        `json:"number"`
	Title          string     `json:"title"`
	State          State      `json:"state"`
	Author         User       `json:"author"`
	Repository     RepoInfo   `json:"repository"`
	Labels         []Label    `json:"labels"`
	Assignees      []string   `json:"assignees"`
	Reviewers      []string   `json:"reviewers"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
	MergedAt       *time.Time `json:"mergedAt,omitempty"`
	URL            string     `json:"url"`
	Comments       int        `json:"comments"`
	ReviewComments int        `json:"reviewComments"`
	Additions      int        `json:"additions"`
	Deletions      int        `json:"deletions"`
	ChangedFiles   int        `json:"changedFiles"`
	Draft          bool       `json:"isDraft"`
}

// RateLimit is a snapshot of the remote API rate limit.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// Package filter reduces a normalized pull request set by a conjunctive
// criteria set: AND across categories, OR within a category's membership
// test. An empty or absent field imposes no constraint.
package filter

import (
	"strconv"
	"strings"
	"time"

	"github.com/drewdunne/pullboard/internal/model"
)

// Criteria holds the active filters. Every field is independently optional.
type Criteria struct {
	Repositories []string      // match by repository fullName
	Labels       []string      // match by label name
	States       []model.State // match by effective state
	Assignees    []string      // match by assignee login
	Authors      []string      // match by author login
	Reviewers    []string      // match by requested reviewer login
	SearchQuery  string        // free text, see matchesSearch
	DateFrom     *time.Time    // CreatedAt lower bound
	DateTo       *time.Time    // CreatedAt upper bound
}

// Apply returns the subset of records satisfying all present criteria.
func Apply(records []model.PullRequest, c Criteria) []model.PullRequest {
	out := make([]model.PullRequest, 0, len(records))
	for _, pr := range records {
		if matches(pr, c) {
			out = append(out, pr)
		}
	}
	return out
}

func matches(pr model.PullRequest, c Criteria) bool {
	if len(c.States) > 0 && !containsState(c.States, pr.State) {
		return false
	}
	if len(c.Repositories) > 0 && !contains(c.Repositories, pr.Repository.FullName) {
		return false
	}
	if len(c.Labels) > 0 && !hasAnyLabel(pr.Labels, c.Labels) {
		return false
	}
	if len(c.Assignees) > 0 && !hasAnyLogin(pr.Assignees, c.Assignees) {
		return false
	}
	if len(c.Authors) > 0 && !contains(c.Authors, pr.Author.Login) {
		return false
	}
	if len(c.Reviewers) > 0 && !hasAnyLogin(pr.Reviewers, c.Reviewers) {
		return false
	}
	if c.SearchQuery != "" && !matchesSearch(pr, c.SearchQuery) {
		return false
	}
	if c.DateFrom != nil && pr.CreatedAt.Before(*c.DateFrom) {
		return false
	}
	if c.DateTo != nil && pr.CreatedAt.After(*c.DateTo) {
		return false
	}
	return true
}

// matchesSearch matches the query case-insensitively against the title or
// author login, or as a substring of the decimal pull request number. Any
// one match suffices.
func matchesSearch(pr model.PullRequest, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(pr.Title), q) {
		return true
	}
	if strings.Contains(strconv.Itoa(pr.Number), q) {
		return true
	}
	return strings.Contains(strings.ToLower(pr.Author.Login), q)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsState(set []model.State, v model.State) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func hasAnyLabel(labels []model.Label, names []string) bool {
	for _, l := range labels {
		if contains(names, l.Name) {
			return true
		}
	}
	return false
}

func hasAnyLogin(logins, wanted []string) bool {
	for _, l := range logins {
		if contains(wanted, l) {
			return true
		}
	}
	return false
}

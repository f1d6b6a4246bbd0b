// Package normalize maps GitHub wire-format records into the dashboard's
// stable internal shapes. Every mapping is a pure, total function: absent
// optional fields stay zero-valued, and no structurally valid input fails.
package normalize

import (
	"time"

	"github.com/google/go-github/v60/github"

	"github.com/drewdunne/pullboard/internal/model"
)

// User maps a GitHub account.
func User(u *github.User) model.User {
	return model.User{
		Login:     u.GetLogin(),
		AvatarURL: u.GetAvatarURL(),
		URL:       u.GetHTMLURL(),
	}
}

// Label maps a repository label.
func Label(l *github.Label) model.Label {
	return model.Label{
		ID:          l.GetID(),
		Name:        l.GetName(),
		Color:       l.GetColor(),
		Description: l.GetDescription(),
	}
}

// Labels maps a label list, preserving order.
func Labels(ls []*github.Label) []model.Label {
	out := make([]model.Label, len(ls))
	for i, l := range ls {
		out[i] = Label(l)
	}
	return out
}

// Repository maps a repository record. OpenPRCount comes from the open
// issues counter, which GitHub reports as issues plus pull requests.
func Repository(r *github.Repository) model.Repository {
	return model.Repository{
		ID:            r.GetID(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Owner:         r.GetOwner().GetLogin(),
		Private:       r.GetPrivate(),
		URL:           r.GetHTMLURL(),
		DefaultBranch: r.GetDefaultBranch(),
		OpenPRCount:   r.GetOpenIssuesCount(),
		LastUpdated:   r.GetUpdatedAt().Time,
	}
}

// Repositories maps a repository list, preserving order.
func Repositories(rs []*github.Repository) []model.Repository {
	out := make([]model.Repository, len(rs))
	for i, r := range rs {
		out[i] = Repository(r)
	}
	return out
}

// PullRequest maps a pull request record, deriving the effective state.
func PullRequest(pr *github.PullRequest) model.PullRequest {
	out := model.PullRequest{
		ID:             pr.GetID(),
		Number:         pr.GetNumber(),
		Title:          pr.GetTitle(),
		State:          effectiveState(pr),
		Labels:         prLabels(pr.Labels),
		Assignees:      logins(pr.Assignees),
		Reviewers:      logins(pr.RequestedReviewers),
		CreatedAt:      pr.GetCreatedAt().Time,
		UpdatedAt:      pr.GetUpdatedAt().Time,
		ClosedAt:       optionalTime(pr.ClosedAt),
		MergedAt:       optionalTime(pr.MergedAt),
		URL:            pr.GetHTMLURL(),
		Comments:       pr.GetComments(),
		ReviewComments: pr.GetReviewComments(),
		Additions:      pr.GetAdditions(),
		Deletions:      pr.GetDeletions(),
		ChangedFiles:   pr.GetChangedFiles(),
		Draft:          pr.GetDraft(),
	}

	if u := pr.User; u != nil {
		out.Author = User(u)
	}
	if repo := pr.GetBase().GetRepo(); repo != nil {
		out.Repository = model.RepoInfo{
			Name:     repo.GetName(),
			FullName: repo.GetFullName(),
			Owner:    repo.GetOwner().GetLogin(),
		}
	}

	return out
}

// effectiveState computes the displayed state with the precedence
// draft > merged > raw state. A draft pull request is reported as draft
// even when the remote data also carries a merge timestamp.
func effectiveState(pr *github.PullRequest) model.State {
	switch {
	case pr.GetDraft():
		return model.StateDraft
	case pr.MergedAt != nil:
		return model.StateMerged
	case pr.GetState() == "closed":
		return model.StateClosed
	default:
		return model.StateOpen
	}
}

func prLabels(ls []*github.Label) []model.Label {
	if ls == nil {
		return nil
	}
	return Labels(ls)
}

func logins(users []*github.User) []string {
	if users == nil {
		return nil
	}
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.GetLogin()
	}
	return out
}

func optionalTime(ts *github.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.Time
	return &t
}

// AggregateLabels merges label lists from multiple repositories, keyed by
// label name. The first occurrence of a name wins; later duplicates are
// discarded even when their color or id differ. Input order is preserved,
// so the result is deterministic in the caller's repository order.
func AggregateLabels(lists ...[]model.Label) []model.Label {
	seen := make(map[string]struct{})
	var out []model.Label
	for _, list := range lists {
		for _, l := range list {
			if _, ok := seen[l.Name]; ok {
				continue
			}
			seen[l.Name] = struct{}{}
			out = append(out, l)
		}
	}
	return out
}

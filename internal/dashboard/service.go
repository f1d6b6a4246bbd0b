// Package dashboard orchestrates the fetch pipeline: fan out across
// repositories, normalize the wire records, sort, filter, and optionally
// group for presentation.
package dashboard

import (
	"context"
	"sort"
	"sync"

	"github.com/google/go-github/v60/github"
	"go.uber.org/zap"

	"github.com/drewdunne/pullboard/internal/fanout"
	"github.com/drewdunne/pullboard/internal/filter"
	"github.com/drewdunne/pullboard/internal/gh"
	"github.com/drewdunne/pullboard/internal/group"
	"github.com/drewdunne/pullboard/internal/model"
	"github.com/drewdunne/pullboard/internal/normalize"
)

// RepoFailure records one repository that failed inside a batch.
type RepoFailure struct {
	Repo  string `json:"repo"`
	Error string `json:"error"`
}

// PullResult is the outcome of a multi-repository pull request fetch.
// A failed repository never fails the batch; it is reported in Failed
// alongside the successful subset.
type PullResult struct {
	Pulls  []model.PullRequest
	Failed []RepoFailure
}

// LabelResult is the outcome of a multi-repository label fetch.
type LabelResult struct {
	Labels []model.Label
	Failed []RepoFailure
}

// GroupedResult is a PullResult partitioned into label groups.
type GroupedResult struct {
	Grouped group.Grouped
	Failed  []RepoFailure
}

// Service runs the dashboard pipeline. Clients are cached per credential so
// rate-limit bookkeeping survives across requests for the same token.
type Service struct {
	log  *zap.Logger
	opts []gh.Option

	mu      sync.Mutex
	clients map[string]*gh.Client
}

// New creates a Service. Client options apply to every client the service
// creates (used to point at a fake API in tests).
func New(log *zap.Logger, opts ...gh.Option) *Service {
	return &Service{
		log:     log,
		opts:    opts,
		clients: make(map[string]*gh.Client),
	}
}

// ClientFor returns the cached client for a credential, creating it on
// first use. An empty token fails with gh.ErrMissingCredential before any
// network call.
func (s *Service) ClientFor(token string) (*gh.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[token]; ok {
		return c, nil
	}
	c, err := gh.NewClient(token, s.opts...)
	if err != nil {
		return nil, err
	}
	s.clients[token] = c
	return c, nil
}

// PullRequests fans out across refs, normalizes the results, sorts them by
// most recent update, and applies the filter criteria.
func (s *Service) PullRequests(ctx context.Context, token string, refs []gh.Ref, opts gh.PullRequestOptions, criteria filter.Criteria) (PullResult, error) {
	client, err := s.ClientFor(token)
	if err != nil {
		return PullResult{}, err
	}

	results := fanout.PullRequests(ctx, client, refs, opts)

	var out PullResult
	for _, r := range results {
		if r.Err != nil {
			s.log.Warn("repository fetch failed",
				zap.String("repo", r.Ref.String()),
				zap.Error(r.Err))
			out.Failed = append(out.Failed, RepoFailure{Repo: r.Ref.String(), Error: r.Err.Error()})
			continue
		}
		for _, raw := range r.Value {
			pr := normalize.PullRequest(raw)
			if pr.Repository.FullName == "" {
				// List responses sometimes omit the base repository.
				pr.Repository = model.RepoInfo{
					Name:     r.Ref.Name,
					FullName: r.Ref.String(),
					Owner:    r.Ref.Owner,
				}
			}
			out.Pulls = append(out.Pulls, pr)
		}
	}

	// Fan-out results arrive in completion order; recency is an explicit
	// downstream sort, never assumed from the join.
	sort.SliceStable(out.Pulls, func(i, j int) bool {
		return out.Pulls[i].UpdatedAt.After(out.Pulls[j].UpdatedAt)
	})

	out.Pulls = filter.Apply(out.Pulls, criteria)
	return out, nil
}

// GroupedPullRequests runs PullRequests and partitions the filtered set by
// the selected group labels. Available labels are aggregated from the same
// refs so prefix groups are detected against what the repositories define.
func (s *Service) GroupedPullRequests(ctx context.Context, token string, refs []gh.Ref, opts gh.PullRequestOptions, criteria filter.Criteria, selected []string) (GroupedResult, error) {
	pulls, err := s.PullRequests(ctx, token, refs, opts, criteria)
	if err != nil {
		return GroupedResult{}, err
	}
	labels, err := s.Labels(ctx, token, refs)
	if err != nil {
		return GroupedResult{}, err
	}

	return GroupedResult{
		Grouped: group.ByLabels(pulls.Pulls, labels.Labels, selected),
		Failed:  append(pulls.Failed, labels.Failed...),
	}, nil
}

// Labels fans out across refs and aggregates the label lists by name, first
// occurrence winning. Aggregation iterates in the caller's ref order, so
// the winner is deterministic regardless of completion order.
func (s *Service) Labels(ctx context.Context, token string, refs []gh.Ref) (LabelResult, error) {
	client, err := s.ClientFor(token)
	if err != nil {
		return LabelResult{}, err
	}

	results := fanout.Labels(ctx, client, refs, gh.ListOptions{PerPage: 100})

	byRef := make(map[gh.Ref]fanout.Result[[]*github.Label], len(results))
	for _, r := range results {
		byRef[r.Ref] = r
	}

	var out LabelResult
	lists := make([][]model.Label, 0, len(refs))
	for _, ref := range refs {
		r, ok := byRef[ref]
		if !ok {
			continue
		}
		if r.Err != nil {
			s.log.Warn("label fetch failed",
				zap.String("repo", ref.String()),
				zap.Error(r.Err))
			out.Failed = append(out.Failed, RepoFailure{Repo: ref.String(), Error: r.Err.Error()})
			continue
		}
		lists = append(lists, normalize.Labels(r.Value))
	}
	out.Labels = normalize.AggregateLabels(lists...)
	return out, nil
}

// Repository fetches one repository.
func (s *Service) Repository(ctx context.Context, token string, ref gh.Ref) (model.Repository, error) {
	client, err := s.ClientFor(token)
	if err != nil {
		return model.Repository{}, err
	}
	repo, err := client.GetRepository(ctx, ref)
	if err != nil {
		return model.Repository{}, err
	}
	return normalize.Repository(repo), nil
}

// PullRequest fetches one pull request by number.
func (s *Service) PullRequest(ctx context.Context, token string, ref gh.Ref, number int) (model.PullRequest, error) {
	client, err := s.ClientFor(token)
	if err != nil {
		return model.PullRequest{}, err
	}
	raw, err := client.GetPullRequest(ctx, ref, number)
	if err != nil {
		return model.PullRequest{}, err
	}
	pr := normalize.PullRequest(raw)
	if pr.Repository.FullName == "" {
		pr.Repository = model.RepoInfo{Name: ref.Name, FullName: ref.String(), Owner: ref.Owner}
	}
	return pr, nil
}

// Repositories lists the repositories of the authenticated user.
func (s *Service) Repositories(ctx context.Context, token string, opts gh.RepositoryOptions) ([]model.Repository, error) {
	client, err := s.ClientFor(token)
	if err != nil {
		return nil, err
	}
	repos, err := client.ListUserRepositories(ctx, opts)
	if err != nil {
		return nil, err
	}
	return normalize.Repositories(repos), nil
}

// SearchRepositories searches repositories by query.
func (s *Service) SearchRepositories(ctx context.Context, token, query string, opts gh.ListOptions) ([]model.Repository, error) {
	client, err := s.ClientFor(token)
	if err != nil {
		return nil, err
	}
	repos, err := client.SearchRepositories(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	return normalize.Repositories(repos), nil
}

// RateLimit fetches the current core rate limit from the remote API.
func (s *Service) RateLimit(ctx context.Context, token string) (model.RateLimit, error) {
	client, err := s.ClientFor(token)
	if err != nil {
		return model.RateLimit{}, err
	}
	rate, err := client.RateLimitSnapshot(ctx)
	if err != nil {
		return model.RateLimit{}, err
	}
	return model.RateLimit{
		Limit:     rate.Limit,
		Remaining: rate.Remaining,
		Reset:     rate.Reset.Time,
	}, nil
}

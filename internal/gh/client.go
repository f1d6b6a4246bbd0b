// Package gh is a thin client over the GitHub REST API. It attaches the
// caller-supplied bearer credential to every request, tracks the most
// recently observed rate-limit state, and converts failures into the typed
// errors the rest of the dashboard works with.
package gh

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/go-github/v60/github"

	"github.com/drewdunne/pullboard/internal/metrics"
)

// ListOptions are pagination parameters passed through to the remote API
// verbatim; the client never re-paginates or aggregates across pages.
type ListOptions struct {
	Page    int
	PerPage int
}

// PullRequestOptions parameterize a pull request listing.
type PullRequestOptions struct {
	State     string // open, closed, all
	Sort      string
	Direction string
	ListOptions
}

// RepositoryOptions parameterize a repository listing for the
// authenticated user.
type RepositoryOptions struct {
	Type      string // all, owner, member
	Sort      string
	Direction string
	ListOptions
}

// Client wraps the GitHub API for one credential. The rate-limit tracker is
// the client's only mutable state and is scoped to this instance; handlers
// run concurrently, so it is guarded by a mutex.
type Client struct {
	gh *github.Client

	mu            sync.Mutex
	rateSeen      bool
	rateLimit     int
	rateRemaining int
	rateReset     time.Time
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.gh.BaseURL, _ = c.gh.BaseURL.Parse(url + "/")
	}
}

// NewClient creates a client for the given token. The credential is always
// an explicit parameter; there is no ambient token state.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrMissingCredential
	}

	httpClient := &http.Client{
		Transport: &tokenTransport{token: token},
	}
	c := &Client{gh: github.NewClient(httpClient)}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// tokenTransport adds authorization and media type headers to requests.
type tokenTransport struct {
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	return http.DefaultTransport.RoundTrip(req)
}

// checkRate fails fast when the last observed response reported zero
// remaining calls and the reset time has not passed. This is a defensive
// short-circuit, not a guarantee: the tracked state can be stale, and is
// absent entirely before the first response.
func (c *Client) checkRate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rateSeen && c.rateRemaining == 0 && time.Now().Before(c.rateReset) {
		metrics.RateLimitShortCircuit()
		return &RateLimitError{Reset: c.rateReset}
	}
	return nil
}

// observe records the rate-limit headers from a successful response.
func (c *Client) observe(resp *github.Response) {
	if resp == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rateSeen = true
	c.rateLimit = resp.Rate.Limit
	c.rateRemaining = resp.Rate.Remaining
	c.rateReset = resp.Rate.Reset.Time
}

// Rate returns the last observed rate-limit state. ok is false until the
// first successful response has been seen.
func (c *Client) Rate() (limit, remaining int, reset time.Time, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rateLimit, c.rateRemaining, c.rateReset, c.rateSeen
}

// wrapErr converts go-github errors into the client's typed taxonomy.
func wrapErr(err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &RateLimitError{Reset: rateErr.Rate.Reset.Time}
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		msg := ghErr.Message
		if msg == "" && ghErr.Response != nil {
			msg = http.StatusText(ghErr.Response.StatusCode)
		}
		status := 0
		if ghErr.Response != nil {
			status = ghErr.Response.StatusCode
		}
		return &RequestError{StatusCode: status, Message: msg}
	}

	return &TransportError{Err: err}
}

// ListUserRepositories lists repositories for the authenticated user.
func (c *Client) ListUserRepositories(ctx context.Context, opts RepositoryOptions) ([]*github.Repository, error) {
	if err := c.checkRate(); err != nil {
		return nil, err
	}

	metrics.RemoteCall()
	repos, resp, err := c.gh.Repositories.ListByAuthenticatedUser(ctx, &github.RepositoryListByAuthenticatedUserOptions{
		Type:      opts.Type,
		Sort:      opts.Sort,
		Direction: opts.Direction,
		ListOptions: github.ListOptions{
			Page:    opts.Page,
			PerPage: opts.PerPage,
		},
	})
	if err != nil {
		metrics.RemoteError()
		return nil, wrapErr(err)
	}

	c.observe(resp)
	return repos, nil
}

// GetRepository fetches one repository.
func (c *Client) GetRepository(ctx context.Context, ref Ref) (*github.Repository, error) {
	if err := c.checkRate(); err != nil {
		return nil, err
	}

	metrics.RemoteCall()
	repo, resp, err := c.gh.Repositories.Get(ctx, ref.Owner, ref.Name)
	if err != nil {
		metrics.RemoteError()
		return nil, wrapErr(err)
	}

	c.observe(resp)
	return repo, nil
}

// ListPullRequests lists pull requests for a repository.
func (c *Client) ListPullRequests(ctx context.Context, ref Ref, opts PullRequestOptions) ([]*github.PullRequest, error) {
	if err := c.checkRate(); err != nil {
		return nil, err
	}

	metrics.RemoteCall()
	pulls, resp, err := c.gh.PullRequests.List(ctx, ref.Owner, ref.Name, &github.PullRequestListOptions{
		State:     opts.State,
		Sort:      opts.Sort,
		Direction: opts.Direction,
		ListOptions: github.ListOptions{
			Page:    opts.Page,
			PerPage: opts.PerPage,
		},
	})
	if err != nil {
		metrics.RemoteError()
		return nil, wrapErr(err)
	}

	c.observe(resp)
	return pulls, nil
}

// GetPullRequest fetches one pull request by number.
func (c *Client) GetPullRequest(ctx context.Context, ref Ref, number int) (*github.PullRequest, error) {
	if err := c.checkRate(); err != nil {
		return nil, err
	}

	metrics.RemoteCall()
	pull, resp, err := c.gh.PullRequests.Get(ctx, ref.Owner, ref.Name, number)
	if err != nil {
		metrics.RemoteError()
		return nil, wrapErr(err)
	}

	c.observe(resp)
	return pull, nil
}

// ListLabels lists labels defined in a repository.
func (c *Client) ListLabels(ctx context.Context, ref Ref, opts ListOptions) ([]*github.Label, error) {
	if err := c.checkRate(); err != nil {
		return nil, err
	}

	metrics.RemoteCall()
	labels, resp, err := c.gh.Issues.ListLabels(ctx, ref.Owner, ref.Name, &github.ListOptions{
		Page:    opts.Page,
		PerPage: opts.PerPage,
	})
	if err != nil {
		metrics.RemoteError()
		return nil, wrapErr(err)
	}

	c.observe(resp)
	return labels, nil
}

// SearchRepositories searches repositories by query.
func (c *Client) SearchRepositories(ctx context.Context, query string, opts ListOptions) ([]*github.Repository, error) {
	if err := c.checkRate(); err != nil {
		return nil, err
	}

	metrics.RemoteCall()
	result, resp, err := c.gh.Search.Repositories(ctx, query, &github.SearchOptions{
		ListOptions: github.ListOptions{
			Page:    opts.Page,
			PerPage: opts.PerPage,
		},
	})
	if err != nil {
		metrics.RemoteError()
		return nil, wrapErr(err)
	}

	c.observe(resp)
	return result.Repositories, nil
}

// RateLimitSnapshot fetches the core rate limit from the remote API.
func (c *Client) RateLimitSnapshot(ctx context.Context) (*github.Rate, error) {
	metrics.RemoteCall()
	limits, resp, err := c.gh.RateLimit.Get(ctx)
	if err != nil {
		metrics.RemoteError()
		return nil, wrapErr(err)
	}

	c.observe(resp)
	core := limits.GetCore()
	if core == nil {
		core = &github.Rate{}
	}
	return core, nil
}

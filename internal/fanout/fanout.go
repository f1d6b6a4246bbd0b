// Package fanout dispatches one remote call per repository concurrently and
// joins on all of them, tolerating individual failures. A failed repository
// never aborts the batch; its error is carried in the result instead of
// being discarded, so callers can decide whether to surface it.
package fanout

import (
	"context"
	"sync"

	"github.com/google/go-github/v60/github"

	"github.com/drewdunne/pullboard/internal/gh"
	"github.com/drewdunne/pullboard/internal/metrics"
)

// Result pairs one repository's outcome with its originating ref.
type Result[T any] struct {
	Ref   gh.Ref
	Value T
	Err   error
}

// OK reports whether the repository's call succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// PullLister is the single-repository pull request operation.
type PullLister interface {
	ListPullRequests(ctx context.Context, ref gh.Ref, opts gh.PullRequestOptions) ([]*github.PullRequest, error)
}

// LabelLister is the single-repository label operation.
type LabelLister interface {
	ListLabels(ctx context.Context, ref gh.Ref, opts gh.ListOptions) ([]*github.Label, error)
}

// run issues fn once per ref without waiting for any call to complete
// first, then waits until all have settled. Results arrive in completion
// order; callers needing a stable order must re-sort.
func run[T any](ctx context.Context, refs []gh.Ref, fn func(context.Context, gh.Ref) (T, error)) []Result[T] {
	metrics.FetchBatch()

	ch := make(chan Result[T], len(refs))
	var wg sync.WaitGroup
	for _, ref := range refs {
		wg.Add(1)
		go func(ref gh.Ref) {
			defer wg.Done()
			v, err := fn(ctx, ref)
			ch <- Result[T]{Ref: ref, Value: v, Err: err}
		}(ref)
	}
	wg.Wait()
	close(ch)

	results := make([]Result[T], 0, len(refs))
	for r := range ch {
		if r.Err != nil {
			metrics.PartialFailure()
		}
		results = append(results, r)
	}
	return results
}

// PullRequests fetches pull requests for every ref concurrently.
func PullRequests(ctx context.Context, client PullLister, refs []gh.Ref, opts gh.PullRequestOptions) []Result[[]*github.PullRequest] {
	return run(ctx, refs, func(ctx context.Context, ref gh.Ref) ([]*github.PullRequest, error) {
		return client.ListPullRequests(ctx, ref, opts)
	})
}

// Labels fetches labels for every ref concurrently.
func Labels(ctx context.Context, client LabelLister, refs []gh.Ref, opts gh.ListOptions) []Result[[]*github.Label] {
	return run(ctx, refs, func(ctx context.Context, ref gh.Ref) ([]*github.Label, error) {
		return client.ListLabels(ctx, ref, opts)
	})
}

// Succeeded filters a result set down to the successful entries.
func Succeeded[T any](results []Result[T]) []Result[T] {
	out := make([]Result[T], 0, len(results))
	for _, r := range results {
		if r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Failed filters a result set down to the failed entries.
func Failed[T any](results []Result[T]) []Result[T] {
	out := make([]Result[T], 0, len(results))
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

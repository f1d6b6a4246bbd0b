package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/drewdunne/pullboard/internal/filter"
	"github.com/drewdunne/pullboard/internal/gh"
	"github.com/drewdunne/pullboard/internal/model"
)

// fakeGitHub serves a two-repository fixture: o/app works, o/web fails.
func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/o/app/pulls", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{
				"number": 1, "title": "older", "state": "open",
				"user": {"login": "alice"},
				"labels": [{"name": "bug", "color": "ff0000"}],
				"created_at": "2024-01-01T00:00:00Z",
				"updated_at": "2024-01-02T00:00:00Z"
			},
			{
				"number": 2, "title": "newer", "state": "open",
				"user": {"login": "bob"},
				"created_at": "2024-01-05T00:00:00Z",
				"updated_at": "2024-01-06T00:00:00Z"
			}
		]`)
	})
	mux.HandleFunc("/repos/o/web/pulls", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message": "server error"}`)
	})
	mux.HandleFunc("/repos/o/app/labels", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": 1, "name": "bug", "color": "ff0000"}]`)
	})
	mux.HandleFunc("/repos/o/web/labels", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id": 2, "name": "bug", "color": "00ff00"},
			{"id": 3, "name": "docs", "color": "0000ff"}
		]`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testService(t *testing.T) *Service {
	t.Helper()
	return New(zap.NewNop(), gh.WithBaseURL(fakeGitHub(t).URL))
}

func refs(t *testing.T, ss ...string) []gh.Ref {
	t.Helper()
	out, err := gh.ParseRefs(ss)
	require.NoError(t, err)
	return out
}

func TestPullRequestsMergesSortsAndReportsFailures(t *testing.T) {
	svc := testService(t)

	got, err := svc.PullRequests(context.Background(), "tok",
		refs(t, "o/app", "o/web"), gh.PullRequestOptions{}, filter.Criteria{})
	require.NoError(t, err)

	// The failing repository is reported, not fatal.
	require.Len(t, got.Failed, 1)
	assert.Equal(t, "o/web", got.Failed[0].Repo)

	// Most recently updated first.
	require.Len(t, got.Pulls, 2)
	assert.Equal(t, 2, got.Pulls[0].Number)
	assert.Equal(t, 1, got.Pulls[1].Number)

	// List responses carry no base repo; filled from the originating ref.
	assert.Equal(t, "o/app", got.Pulls[0].Repository.FullName)
	assert.Equal(t, "app", got.Pulls[0].Repository.Name)
}

func TestPullRequestsAppliesCriteria(t *testing.T) {
	svc := testService(t)

	got, err := svc.PullRequests(context.Background(), "tok",
		refs(t, "o/app"), gh.PullRequestOptions{},
		filter.Criteria{Authors: []string{"alice"}})
	require.NoError(t, err)
	require.Len(t, got.Pulls, 1)
	assert.Equal(t, 1, got.Pulls[0].Number)
}

func TestPullRequestsMissingCredential(t *testing.T) {
	svc := testService(t)

	_, err := svc.PullRequests(context.Background(), "",
		refs(t, "o/app"), gh.PullRequestOptions{}, filter.Criteria{})
	require.ErrorIs(t, err, gh.ErrMissingCredential)
}

func TestLabelsAggregateInRefOrder(t *testing.T) {
	svc := testService(t)

	got, err := svc.Labels(context.Background(), "tok", refs(t, "o/app", "o/web"))
	require.NoError(t, err)
	require.Empty(t, got.Failed)

	// "bug" from o/app wins because aggregation follows ref order, not
	// completion order.
	require.Len(t, got.Labels, 2)
	assert.Equal(t, model.Label{ID: 1, Name: "bug", Color: "ff0000"}, got.Labels[0])
	assert.Equal(t, "docs", got.Labels[1].Name)
}

func TestGroupedPullRequests(t *testing.T) {
	svc := testService(t)

	got, err := svc.GroupedPullRequests(context.Background(), "tok",
		refs(t, "o/app", "o/web"), gh.PullRequestOptions{}, filter.Criteria{}, []string{"bug"})
	require.NoError(t, err)

	require.Len(t, got.Grouped.Groups, 1)
	g := got.Grouped.Groups[0]
	assert.Equal(t, "bug", g.Name)
	assert.Equal(t, "ff0000", g.Color)
	require.Len(t, g.Records, 1)
	assert.Equal(t, 1, g.Records[0].Number)

	require.Len(t, got.Grouped.Remainder, 1)
	assert.Equal(t, 2, got.Grouped.Remainder[0].Number)

	// Pull and label failures are both surfaced.
	assert.Len(t, got.Failed, 1)
}

func TestClientForCachesPerCredential(t *testing.T) {
	svc := testService(t)

	a, err := svc.ClientFor("tok-a")
	require.NoError(t, err)
	b, err := svc.ClientFor("tok-a")
	require.NoError(t, err)
	other, err := svc.ClientFor("tok-b")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
}

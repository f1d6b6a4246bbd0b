package gh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientMissingCredential(t *testing.T) {
	_, err := NewClient("")
	require.ErrorIs(t, err, ErrMissingCredential)
}

func TestClientSendsAuthHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("Accept"), "application/vnd.github")
		assert.Equal(t, "/repos/owner/repo", r.URL.Path)
		fmt.Fprint(w, `{"id": 1, "full_name": "owner/repo"}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	repo, err := c.GetRepository(context.Background(), Ref{Owner: "owner", Name: "repo"})
	require.NoError(t, err)
	assert.Equal(t, "owner/repo", repo.GetFullName())
}

func TestClientTracksRateLimit(t *testing.T) {
	reset := time.Now().Add(time.Hour)
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", fmt.Sprint(reset.Unix()))
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	ref := Ref{Owner: "owner", Name: "repo"}

	// First call succeeds and records the exhausted limit.
	_, err := c.ListPullRequests(context.Background(), ref, PullRequestOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, hits)

	_, remaining, gotReset, ok := c.Rate()
	require.True(t, ok)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, reset.Unix(), gotReset.Unix())

	// Second call short-circuits locally without touching the network.
	_, err = c.ListPullRequests(context.Background(), ref, PullRequestOptions{})
	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, reset.Unix(), rateErr.Reset.Unix())
	assert.Equal(t, 1, hits)
}

func TestClientNoShortCircuitAfterReset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", fmt.Sprint(time.Now().Add(-time.Minute).Unix()))
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	ref := Ref{Owner: "owner", Name: "repo"}

	_, err := c.ListPullRequests(context.Background(), ref, PullRequestOptions{})
	require.NoError(t, err)

	// Reset time already passed: the tracked zero is stale, so no short circuit.
	_, err = c.ListPullRequests(context.Background(), ref, PullRequestOptions{})
	require.NoError(t, err)
}

func TestClientRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.GetPullRequest(context.Background(), Ref{Owner: "owner", Name: "gone"}, 1)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	assert.Equal(t, "Not Found", reqErr.Message)
}

func TestClientRequestErrorUnparseableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `<html>nope</html>`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.GetRepository(context.Background(), Ref{Owner: "owner", Name: "repo"})

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadGateway, reqErr.StatusCode)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), reqErr.Message)
}

func TestClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := newTestClient(t, url)
	_, err := c.GetRepository(context.Background(), Ref{Owner: "owner", Name: "repo"})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	var reqErr *RequestError
	assert.False(t, errors.As(err, &reqErr))
}

func TestListPullRequestsPassesOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/pulls", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "open", q.Get("state"))
		assert.Equal(t, "updated", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("direction"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "25", q.Get("per_page"))
		fmt.Fprint(w, `[{"number": 7, "title": "hello"}]`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	pulls, err := c.ListPullRequests(context.Background(), Ref{Owner: "owner", Name: "repo"}, PullRequestOptions{
		State:       "open",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: ListOptions{Page: 2, PerPage: 25},
	})
	require.NoError(t, err)
	require.Len(t, pulls, 1)
	assert.Equal(t, 7, pulls[0].GetNumber())
}

func TestListLabels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/labels", r.URL.Path)
		fmt.Fprint(w, `[{"id": 1, "name": "bug", "color": "ff0000"}]`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	labels, err := c.ListLabels(context.Background(), Ref{Owner: "owner", Name: "repo"}, ListOptions{})
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "bug", labels[0].GetName())
}

func TestSearchRepositories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		assert.Equal(t, "dashboard", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"total_count": 1, "items": [{"id": 5, "full_name": "owner/dashboard"}]}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	repos, err := c.SearchRepositories(context.Background(), "dashboard", ListOptions{})
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "owner/dashboard", repos[0].GetFullName())
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient("test-token", WithBaseURL(baseURL))
	require.NoError(t, err)
	return c
}

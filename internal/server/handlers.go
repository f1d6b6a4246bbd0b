package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/drewdunne/pullboard/internal/dashboard"
	"github.com/drewdunne/pullboard/internal/filter"
	"github.com/drewdunne/pullboard/internal/gh"
	"github.com/drewdunne/pullboard/internal/group"
	"github.com/drewdunne/pullboard/internal/model"
)

type pullsResponse struct {
	Pulls  []model.PullRequest     `json:"pulls"`
	Failed []dashboard.RepoFailure `json:"failed,omitempty"`
}

type groupedResponse struct {
	Groups    []group.Group           `json:"groups"`
	Ungrouped []model.PullRequest     `json:"ungrouped"`
	Failed    []dashboard.RepoFailure `json:"failed,omitempty"`
}

type labelsResponse struct {
	Labels []model.Label           `json:"labels"`
	Failed []dashboard.RepoFailure `json:"failed,omitempty"`
}

// handlePulls serves the merged, filtered pull request set. With a group_by
// parameter the set is additionally partitioned by label groups.
func (s *Server) handlePulls(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	refs, err := s.refsFromRequest(r)
	if err != nil {
		writeClientError(w, s.log, err)
		return
	}

	criteria, err := criteriaFromQuery(r)
	if err != nil {
		writeError(w, s.log, err.Error(), CodeBadRequest, http.StatusBadRequest)
		return
	}

	opts := s.pullOptionsFromQuery(r)
	token := s.tokenFromRequest(r)

	if groupBy := csvParam(r, "group_by"); len(groupBy) > 0 {
		result, err := s.svc.GroupedPullRequests(ctx, token, refs, opts, criteria, groupBy)
		if err != nil {
			writeClientError(w, s.log, err)
			return
		}
		writeJSON(w, s.log, http.StatusOK, groupedResponse{
			Groups:    result.Grouped.Groups,
			Ungrouped: result.Grouped.Remainder,
			Failed:    result.Failed,
		})
		return
	}

	result, err := s.svc.PullRequests(ctx, token, refs, opts, criteria)
	if err != nil {
		writeClientError(w, s.log, err)
		return
	}
	if result.Pulls == nil {
		result.Pulls = []model.PullRequest{}
	}
	writeJSON(w, s.log, http.StatusOK, pullsResponse{Pulls: result.Pulls, Failed: result.Failed})
}

// handlePull serves one pull request by number.
func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	ref := gh.Ref{Owner: chi.URLParam(r, "owner"), Name: chi.URLParam(r, "repo")}
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, s.log, "number must be an integer", CodeBadRequest, http.StatusBadRequest)
		return
	}

	pr, err := s.svc.PullRequest(ctx, s.tokenFromRequest(r), ref, number)
	if err != nil {
		writeClientError(w, s.log, err)
		return
	}
	writeJSON(w, s.log, http.StatusOK, pr)
}

// handleRepo serves one repository.
func (s *Server) handleRepo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	ref := gh.Ref{Owner: chi.URLParam(r, "owner"), Name: chi.URLParam(r, "repo")}
	repo, err := s.svc.Repository(ctx, s.tokenFromRequest(r), ref)
	if err != nil {
		writeClientError(w, s.log, err)
		return
	}
	writeJSON(w, s.log, http.StatusOK, repo)
}

// handleLabels serves the aggregated label set across the selected repos.
func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	refs, err := s.refsFromRequest(r)
	if err != nil {
		writeClientError(w, s.log, err)
		return
	}

	result, err := s.svc.Labels(ctx, s.tokenFromRequest(r), refs)
	if err != nil {
		writeClientError(w, s.log, err)
		return
	}
	if result.Labels == nil {
		result.Labels = []model.Label{}
	}
	writeJSON(w, s.log, http.StatusOK, labelsResponse{Labels: result.Labels, Failed: result.Failed})
}

// handleRepos lists repositories for the authenticated user.
func (s *Server) handleRepos(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	opts := gh.RepositoryOptions{
		Type:        r.URL.Query().Get("type"),
		Sort:        r.URL.Query().Get("sort"),
		Direction:   r.URL.Query().Get("direction"),
		ListOptions: listOptionsFromQuery(r, s.cfg.Dashboard.PerPage),
	}

	repos, err := s.svc.Repositories(ctx, s.tokenFromRequest(r), opts)
	if err != nil {
		writeClientError(w, s.log, err)
		return
	}
	writeJSON(w, s.log, http.StatusOK, map[string][]model.Repository{"repositories": repos})
}

// handleSearchRepos searches repositories by query.
func (s *Server) handleSearchRepos(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, s.log, "q is required", CodeBadRequest, http.StatusBadRequest)
		return
	}

	repos, err := s.svc.SearchRepositories(ctx, s.tokenFromRequest(r), query, listOptionsFromQuery(r, s.cfg.Dashboard.PerPage))
	if err != nil {
		writeClientError(w, s.log, err)
		return
	}
	writeJSON(w, s.log, http.StatusOK, map[string][]model.Repository{"repositories": repos})
}

// handleRateLimit reports the remote rate limit for the credential.
func (s *Server) handleRateLimit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	rate, err := s.svc.RateLimit(ctx, s.tokenFromRequest(r))
	if err != nil {
		writeClientError(w, s.log, err)
		return
	}
	writeJSON(w, s.log, http.StatusOK, rate)
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := time.Duration(s.cfg.Server.RequestTimeoutSeconds) * time.Second
	return context.WithTimeout(r.Context(), timeout)
}

// tokenFromRequest extracts the bearer credential, falling back to the
// configured token. The credential stays an explicit per-request value.
func (s *Server) tokenFromRequest(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok && token != "" {
		return token
	}
	return s.cfg.GitHub.Token
}

// refsFromRequest resolves the repository selection: the repos query
// parameter when present, the configured list otherwise. Malformed refs
// are rejected before any dispatch.
func (s *Server) refsFromRequest(r *http.Request) ([]gh.Ref, error) {
	if repos := csvParam(r, "repos"); len(repos) > 0 {
		return gh.ParseRefs(repos)
	}
	return s.cfg.Refs()
}

func (s *Server) pullOptionsFromQuery(r *http.Request) gh.PullRequestOptions {
	state := r.URL.Query().Get("state")
	if state == "" {
		state = "all"
	}
	return gh.PullRequestOptions{
		State:       state,
		Sort:        r.URL.Query().Get("sort"),
		Direction:   r.URL.Query().Get("direction"),
		ListOptions: listOptionsFromQuery(r, s.cfg.Dashboard.PerPage),
	}
}

func listOptionsFromQuery(r *http.Request, defaultPerPage int) gh.ListOptions {
	opts := gh.ListOptions{PerPage: defaultPerPage}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 0 {
		opts.Page = page
	}
	if perPage, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && perPage > 0 {
		opts.PerPage = perPage
	}
	return opts
}

// criteriaFromQuery maps filter query parameters onto Criteria. A missing
// parameter leaves its field empty, which imposes no constraint.
func criteriaFromQuery(r *http.Request) (filter.Criteria, error) {
	c := filter.Criteria{
		Repositories: csvParam(r, "repositories"),
		Labels:       csvParam(r, "labels"),
		Assignees:    csvParam(r, "assignees"),
		Authors:      csvParam(r, "authors"),
		Reviewers:    csvParam(r, "reviewers"),
		SearchQuery:  r.URL.Query().Get("search"),
	}

	for _, s := range csvParam(r, "states") {
		c.States = append(c.States, model.State(s))
	}

	var err error
	if c.DateFrom, err = timeParam(r, "from"); err != nil {
		return filter.Criteria{}, err
	}
	if c.DateTo, err = timeParam(r, "to"); err != nil {
		return filter.Criteria{}, err
	}
	return c, nil
}

func csvParam(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func timeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: want RFC3339 timestamp: %w", name, err)
	}
	return &t, nil
}

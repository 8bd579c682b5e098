package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/knowledge"
	"github.com/starford/ansuz/internal/models"
)

// GitHubHandler serves repository and deployment data from GitHub joined with
// knowledge base links.
type GitHubHandler struct {
	kb *knowledge.Base
}

// NewGitHubHandler creates a new GitHubHandler.
func NewGitHubHandler(kb *knowledge.Base) *GitHubHandler {
	return &GitHubHandler{kb: kb}
}

// ListRepositories handles GET /api/github/repositories.
//
//	@Summary		List repository names of the configured user
//	@Tags			github
//	@Produce		json
//	@Success		200	{array}		string
//	@Failure		401	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Router			/github/repositories [get]
func (h *GitHubHandler) ListRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := h.kb.ListRepositories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, repos)
}

// ListDeployments handles GET /api/github/repositories/{name}/deployments.
//
//	@Summary		List deployments of a repository
//	@Tags			github
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{array}		object
//	@Failure		401		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Router			/github/repositories/{name}/deployments [get]
func (h *GitHubHandler) ListDeployments(w http.ResponseWriter, r *http.Request) {
	deps, err := h.kb.ListDeployments(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deps)
}

// RepositoryInfo handles GET /api/github/repositories/{name}/info.
//
//	@Summary		Knowledge base link of a repository
//	@Tags			github
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{object}	object
//	@Router			/github/repositories/{name}/info [get]
func (h *GitHubHandler) RepositoryInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    h.kb.GetRepositoryLink(chi.URLParam(r, "name")),
	})
}

// RepositoryWithDeployments handles GET /api/github/repositories/{name}/with-deployments.
//
//	@Summary		Repository link together with its GitHub deployments
//	@Tags			github
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{object}	object
//	@Failure		401		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Router			/github/repositories/{name}/with-deployments [get]
func (h *GitHubHandler) RepositoryWithDeployments(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var (
		deps []models.Deployment
		link *models.RepositoryLink
	)
	g, gCtx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		deps, err = h.kb.ListDeployments(gCtx, name)
		return err
	})
	g.Go(func() error {
		link = h.kb.GetRepositoryLink(name)
		return nil
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"repository":     name,
		"deployments":    deps,
		"repositoryInfo": link,
	})
}

// AllRepositoriesWithInfo handles GET /api/github/all-repositories-with-info.
//
//	@Summary		Every repository of the user with its knowledge base link
//	@Tags			github
//	@Produce		json
//	@Success		200	{object}	object
//	@Failure		401	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Router			/github/all-repositories-with-info [get]
func (h *GitHubHandler) AllRepositoriesWithInfo(w http.ResponseWriter, r *http.Request) {
	repos, err := h.kb.ListRepositories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	data := h.withInfo(repos)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(data),
		"data":    data,
	})
}

// DeploymentStatus handles GET /api/github/repositories/{name}/deployment-status.
//
//	@Summary		Build status and deployment URLs of a repository
//	@Tags			github
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{object}	object
//	@Router			/github/repositories/{name}/deployment-status [get]
func (h *GitHubHandler) DeploymentStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"repository":  name,
		"buildStatus": h.kb.GetBuildStatus(r.Context(), name),
		"deployments": h.kb.GetAllDeployments(name),
	})
}

// EnvironmentURL handles GET /api/github/repositories/{name}/environment/{env}/url.
//
//	@Summary		Deployment URL of a repository in one environment
//	@Tags			github
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Param			env		path		string	true	"Environment"
//	@Success		200		{object}	object
//	@Failure		404		{object}	errResponse
//	@Router			/github/repositories/{name}/environment/{env}/url [get]
func (h *GitHubHandler) EnvironmentURL(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	env := chi.URLParam(r, "env")

	url := h.kb.GetDeploymentURL(name, env)
	if url == models.NotFound {
		writeJSON(w, http.StatusNotFound, errorBody(fmt.Sprintf("No deployment found for environment: %s", env)))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"repository":  name,
		"environment": env,
		"url":         url,
	})
}

// SearchRepositories handles GET /api/github/search-repositories.
//
//	@Summary		Repositories whose name contains a pattern
//	@Tags			github
//	@Produce		json
//	@Param			pattern	query		string	true	"Name fragment (case-insensitive)"
//	@Success		200		{object}	object
//	@Failure		400		{object}	errResponse
//	@Failure		401		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Router			/github/search-repositories [get]
func (h *GitHubHandler) SearchRepositories(w http.ResponseWriter, r *http.Request) {
	pattern := strings.TrimSpace(r.URL.Query().Get("pattern"))
	if pattern == "" {
		writeError(w, r, apperr.Validation("Pattern parameter is required"))
		return
	}

	repos, err := h.kb.ListRepositories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	needle := strings.ToLower(pattern)
	matched := make([]string, 0, len(repos))
	for _, name := range repos {
		if strings.Contains(strings.ToLower(name), needle) {
			matched = append(matched, name)
		}
	}

	data := h.withInfo(matched)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"pattern": pattern,
		"count":   len(data),
		"data":    data,
	})
}

// RepositoryConfiguration handles GET /api/github/repositories/{name}/configuration.
//
//	@Summary		Repository link with production configuration
//	@Tags			github
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{object}	object
//	@Router			/github/repositories/{name}/configuration [get]
func (h *GitHubHandler) RepositoryConfiguration(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"repository":     h.kb.GetRepositoryLink(chi.URLParam(r, "name")),
		"configurations": h.kb.GetConfigurations(models.EnvProduction),
	})
}

func (h *GitHubHandler) withInfo(names []string) []RepositoryWithInfo {
	out := make([]RepositoryWithInfo, 0, len(names))
	for _, n := range names {
		out = append(out, RepositoryWithInfo{Name: n, Info: h.kb.GetRepositoryLink(n)})
	}
	return out
}

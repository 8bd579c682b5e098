package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
)

// OpenRepo handles GET /api/knowledge/action/open-repo/{name}.
//
//	@Summary		URL to open a repository in the browser
//	@Tags			actions
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{object}	object
//	@Router			/knowledge/action/open-repo/{name} [get]
func (h *KnowledgeHandler) OpenRepo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	url := h.kb.GetRepositoryOpenURL(name)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"action":     ActionOpenRepo,
		"repository": name,
		"url":        url,
		"message":    "Open this URL in your browser: " + url,
	})
}

// FetchDeployment handles GET /api/knowledge/action/fetch-deployment/{name}/{env}.
//
//	@Summary		Deployment URL of a repository in one environment
//	@Tags			actions
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Param			env		path		string	true	"Environment"
//	@Success		200		{object}	object
//	@Router			/knowledge/action/fetch-deployment/{name}/{env} [get]
func (h *KnowledgeHandler) FetchDeployment(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	env := chi.URLParam(r, "env")
	url := h.kb.GetDeploymentURL(name, env)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"action":      ActionFetchDeployment,
		"repository":  name,
		"environment": env,
		"url":         url,
		"message":     "Deployment URL for " + env + ": " + url,
	})
}

// ShowBuildStatus handles GET /api/knowledge/action/show-build-status/{name}.
//
//	@Summary		Latest build status of a repository
//	@Tags			actions
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{object}	object
//	@Router			/knowledge/action/show-build-status/{name} [get]
func (h *KnowledgeHandler) ShowBuildStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"action":  ActionShowBuildStatus,
		"data":    h.kb.GetBuildStatus(r.Context(), name),
		"message": "Latest build status for " + name,
	})
}

// ExecuteAction handles POST /api/knowledge/action/execute.
//
//	@Summary		Execute a knowledge action
//	@Tags			actions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ExecuteActionRequest	true	"Action to execute"
//	@Success		200		{object}	object
//	@Failure		400		{object}	errResponse
//	@Router			/knowledge/action/execute [post]
func (h *KnowledgeHandler) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ExecuteActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.Validation("invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		data    any
		message string
	)
	switch strings.ToLower(req.Action) {
	case ActionOpenRepo:
		url := h.kb.GetRepositoryOpenURL(req.RepositoryName)
		data, message = url, "Repository URL: "+url
	case ActionFetchDeployment:
		url := h.kb.GetDeploymentURL(req.RepositoryName, req.Environment)
		data, message = url, "Deployment URL for "+req.Environment+": "+url
	case ActionShowBuildStatus:
		data, message = h.kb.GetBuildStatus(r.Context(), req.RepositoryName), "Build status retrieved"
	case ActionQuery:
		data, message = h.kb.Query(req.Query), "Query executed"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"action":  req.Action,
		"message": message,
		"data":    data,
	})
}

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/knowledge"
)

// KnowledgeHandler serves the knowledge base.
type KnowledgeHandler struct {
	kb *knowledge.Base
}

// NewKnowledgeHandler creates a new KnowledgeHandler.
func NewKnowledgeHandler(kb *knowledge.Base) *KnowledgeHandler {
	return &KnowledgeHandler{kb: kb}
}

// ListSources handles GET /api/knowledge/sources.
//
//	@Summary		List active knowledge sources
//	@Tags			knowledge
//	@Produce		json
//	@Success		200	{object}	object
//	@Router			/knowledge/sources [get]
func (h *KnowledgeHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources := h.kb.ListKnowledgeSources()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(sources),
		"data":    sources,
	})
}

// ListSourcesByType handles GET /api/knowledge/sources/type/{type}.
//
//	@Summary		List active knowledge sources of one type
//	@Tags			knowledge
//	@Produce		json
//	@Param			type	path		string	true	"Source type"	Enums(GitHub, GitLab, Documentation, Deployment)
//	@Success		200		{object}	object
//	@Router			/knowledge/sources/type/{type} [get]
func (h *KnowledgeHandler) ListSourcesByType(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")
	sources := h.kb.ListKnowledgeSourcesByType(typ)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"type":    typ,
		"count":   len(sources),
		"data":    sources,
	})
}

// Query handles GET /api/knowledge/query.
//
//	@Summary		Answer a free-text question
//	@Tags			knowledge
//	@Produce		json
//	@Param			q	query		string	true	"Question text"
//	@Success		200	{object}	models.QueryResponse
//	@Failure		400	{object}	errResponse
//	@Router			/knowledge/query [get]
func (h *KnowledgeHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, r, apperr.Validation("Query parameter 'q' is required"))
		return
	}
	writeJSON(w, http.StatusOK, h.kb.Query(q))
}

// Repository handles GET /api/knowledge/repository/{name}.
//
//	@Summary		Repository link
//	@Tags			knowledge
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{object}	object
//	@Router			/knowledge/repository/{name} [get]
func (h *KnowledgeHandler) Repository(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    h.kb.GetRepositoryLink(chi.URLParam(r, "name")),
	})
}

// RepositoryDeployments handles GET /api/knowledge/repository/{name}/deployments.
//
//	@Summary		Deployment URLs of a repository
//	@Tags			knowledge
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{object}	object
//	@Router			/knowledge/repository/{name}/deployments [get]
func (h *KnowledgeHandler) RepositoryDeployments(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	deps := h.kb.GetAllDeployments(name)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"repository": name,
		"count":      len(deps),
		"data":       deps,
	})
}

// RepositoryDeployment handles GET /api/knowledge/repository/{name}/deployment/{env}.
// An unknown environment yields the url "Not found".
//
//	@Summary		Deployment URL of a repository in one environment
//	@Tags			knowledge
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Param			env		path		string	true	"Environment"
//	@Success		200		{object}	object
//	@Router			/knowledge/repository/{name}/deployment/{env} [get]
func (h *KnowledgeHandler) RepositoryDeployment(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	env := chi.URLParam(r, "env")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"repository":  name,
		"environment": env,
		"url":         h.kb.GetDeploymentURL(name, env),
	})
}

// APIEndpoints handles GET /api/knowledge/api-endpoints.
//
//	@Summary		API endpoints, optionally filtered by controller
//	@Tags			knowledge
//	@Produce		json
//	@Param			controller	query		string	false	"Controller name fragment"
//	@Success		200			{object}	object
//	@Router			/knowledge/api-endpoints [get]
func (h *KnowledgeHandler) APIEndpoints(w http.ResponseWriter, r *http.Request) {
	controller := r.URL.Query().Get("controller")
	eps := h.kb.GetAPIEndpoints(controller)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"count":      len(eps),
		"controller": controller,
		"data":       eps,
	})
}

// Modules handles GET /api/knowledge/modules.
//
//	@Summary		Code modules, optionally filtered by keyword
//	@Tags			knowledge
//	@Produce		json
//	@Param			search	query		string	false	"Keyword"
//	@Success		200		{object}	object
//	@Router			/knowledge/modules [get]
func (h *KnowledgeHandler) Modules(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	mods := h.kb.SearchModules(search)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(mods),
		"search":  search,
		"data":    mods,
	})
}

// Configurations handles GET /api/knowledge/configurations.
//
//	@Summary		Configuration entries, optionally filtered by environment
//	@Tags			knowledge
//	@Produce		json
//	@Param			environment	query		string	false	"Environment"
//	@Success		200			{object}	object
//	@Router			/knowledge/configurations [get]
func (h *KnowledgeHandler) Configurations(w http.ResponseWriter, r *http.Request) {
	env := r.URL.Query().Get("environment")
	cfgs := h.kb.GetConfigurations(env)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"count":       len(cfgs),
		"environment": env,
		"data":        cfgs,
	})
}

// BuildStatus handles GET /api/knowledge/repository/{name}/build-status.
//
//	@Summary		Latest deployments and build status of a repository
//	@Tags			knowledge
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{object}	object
//	@Router			/knowledge/repository/{name}/build-status [get]
func (h *KnowledgeHandler) BuildStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    h.kb.GetBuildStatus(r.Context(), chi.URLParam(r, "name")),
	})
}

// Summary handles GET /api/knowledge/summary.
//
//	@Summary		Knowledge base summary
//	@Tags			knowledge
//	@Produce		json
//	@Success		200	{object}	object
//	@Router			/knowledge/summary [get]
func (h *KnowledgeHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    h.kb.Summary(),
	})
}

// Snippet handles GET /api/knowledge/snippet.
//
//	@Summary		Describe a region of a source file
//	@Tags			knowledge
//	@Produce		json
//	@Param			path	query		string	true	"File path"
//	@Param			start	query		int		false	"First line (default -1)"
//	@Param			end		query		int		false	"Last line (default -1)"
//	@Success		200		{object}	object
//	@Failure		400		{object}	errResponse
//	@Router			/knowledge/snippet [get]
func (h *KnowledgeHandler) Snippet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := strings.TrimSpace(q.Get("path"))
	if path == "" {
		writeError(w, r, apperr.Validation("Path parameter is required"))
		return
	}
	start, err := lineParam(q.Get("start"))
	if err != nil {
		writeError(w, r, apperr.Validation("start must be an integer"))
		return
	}
	end, err := lineParam(q.Get("end"))
	if err != nil {
		writeError(w, r, apperr.Validation("end must be an integer"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    h.kb.GetCodeSnippet(path, start, end),
	})
}

func lineParam(s string) (int, error) {
	if s == "" {
		return -1, nil
	}
	return strconv.Atoi(s)
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/knowledge"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(kb *knowledge.Base, sseHandler http.Handler) chi.Router {
	gh := NewGitHubHandler(kb)
	kh := NewKnowledgeHandler(kb)

	r := chi.NewRouter()

	r.Route("/github", func(r chi.Router) {
		r.Get("/repositories", gh.ListRepositories)
		r.Get("/repositories/{name}/deployments", gh.ListDeployments)
		r.Get("/repositories/{name}/info", gh.RepositoryInfo)
		r.Get("/repositories/{name}/with-deployments", gh.RepositoryWithDeployments)
		r.Get("/repositories/{name}/deployment-status", gh.DeploymentStatus)
		r.Get("/repositories/{name}/environment/{env}/url", gh.EnvironmentURL)
		r.Get("/repositories/{name}/configuration", gh.RepositoryConfiguration)
		r.Get("/all-repositories-with-info", gh.AllRepositoriesWithInfo)
		r.Get("/search-repositories", gh.SearchRepositories)
	})

	r.Route("/knowledge", func(r chi.Router) {
		r.Get("/sources", kh.ListSources)
		r.Get("/sources/type/{type}", kh.ListSourcesByType)
		r.Get("/query", kh.Query)
		r.Get("/repository/{name}", kh.Repository)
		r.Get("/repository/{name}/deployments", kh.RepositoryDeployments)
		r.Get("/repository/{name}/deployment/{env}", kh.RepositoryDeployment)
		r.Get("/repository/{name}/build-status", kh.BuildStatus)
		r.Get("/api-endpoints", kh.APIEndpoints)
		r.Get("/modules", kh.Modules)
		r.Get("/configurations", kh.Configurations)
		r.Get("/summary", kh.Summary)
		r.Get("/snippet", kh.Snippet)

		r.Get("/action/open-repo/{name}", kh.OpenRepo)
		r.Get("/action/fetch-deployment/{name}/{env}", kh.FetchDeployment)
		r.Get("/action/show-build-status/{name}", kh.ShowBuildStatus)
		r.Post("/action/execute", kh.ExecuteAction)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

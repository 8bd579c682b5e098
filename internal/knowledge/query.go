package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// queryGroup answers queries that mention any of its keywords.
type queryGroup struct {
	keywords []string
	answer   func(b *Base, q string, resp *models.QueryResponse)
}

func (g queryGroup) matches(q string) bool {
	for _, kw := range g.keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// Groups run in order; a later match overwrites data and message while
// related resources accumulate.
var queryGroups = []queryGroup{
	{
		keywords: []string{"repo", "repository", "github"},
		answer: func(b *Base, _ string, resp *models.QueryResponse) {
			link := b.GetRepositoryLink(b.cfg.ExampleRepository)
			resp.Data = link
			resp.Message = "Found repository: " + link.RepositoryName
			resp.RelatedResources = append(resp.RelatedResources, link.GitHubURL)
		},
	},
	{
		keywords: []string{"deploy", "url", "environment"},
		answer: func(b *Base, _ string, resp *models.QueryResponse) {
			deps := b.GetAllDeployments(b.cfg.ExampleRepository)
			resp.Data = deps
			resp.Message = "Found deployment URLs for various environments"
			for _, d := range deps {
				resp.RelatedResources = append(resp.RelatedResources, d.URL)
			}
		},
	},
	{
		keywords: []string{"api", "endpoint"},
		answer: func(b *Base, _ string, resp *models.QueryResponse) {
			eps := b.GetAPIEndpoints("")
			resp.Data = eps
			resp.Message = fmt.Sprintf("Found %d API endpoints", len(eps))
			for _, e := range eps {
				resp.RelatedResources = append(resp.RelatedResources, e.Method+" "+e.Route)
			}
		},
	},
	{
		keywords: []string{"config", "setting", "environment"},
		answer: func(b *Base, _ string, resp *models.QueryResponse) {
			cfgs := b.GetConfigurations("")
			resp.Data = cfgs
			resp.Message = fmt.Sprintf("Found %d configurations", len(cfgs))
		},
	},
	{
		keywords: []string{"module", "code", "implementation"},
		answer: func(b *Base, q string, resp *models.QueryResponse) {
			residual := q
			for _, w := range []string{"module", "code", "implementation"} {
				residual = strings.ReplaceAll(residual, w, "")
			}
			mods := b.SearchModules(strings.TrimSpace(residual))
			if len(mods) == 0 {
				mods = b.SearchModules("")
			}
			resp.Data = mods
			resp.Message = fmt.Sprintf("Found %d modules", len(mods))
		},
	},
}

// Query answers a free-text question by keyword. It never fails: a query
// that matches no keyword group yields a successful empty response.
func (b *Base) Query(query string) models.QueryResponse {
	resp := models.QueryResponse{
		Success:          true,
		CodeSnippets:     []models.CodeSnippet{},
		RelatedResources: []string{},
	}
	q := strings.ToLower(query)
	for _, g := range queryGroups {
		if g.matches(q) {
			g.answer(b, q, &resp)
		}
	}
	return resp
}

const maxBuildDeployments = 5

// GetBuildStatus reports the most recent deployments of repo. Gateway
// failures are folded into a status of models.BuildError.
func (b *Base) GetBuildStatus(ctx context.Context, repo string) models.BuildStatus {
	deps, err := b.gateway.ListDeployments(ctx, repo)
	if err != nil {
		return models.BuildStatus{
			RepositoryName: repo,
			Status:         models.BuildError,
			Message:        err.Error(),
		}
	}

	if len(deps) > maxBuildDeployments {
		deps = deps[:maxBuildDeployments]
	}
	if deps == nil {
		deps = []models.Deployment{}
	}
	now := b.now().UTC()
	return models.BuildStatus{
		RepositoryName:    repo,
		LatestDeployments: deps,
		Status:            models.BuildSuccess,
		LastUpdated:       &now,
	}
}

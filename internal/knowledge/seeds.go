package knowledge

import (
	"time"

	"github.com/starford/ansuz/internal/models"
)

const maskedValue = "***hidden***"

func seedSources(cfg Config, created time.Time) []models.KnowledgeSource {
	src := func(id, typ, name, url, desc string, meta map[string]string) models.KnowledgeSource {
		return models.KnowledgeSource{
			ID:          id,
			Type:        typ,
			Name:        name,
			URL:         url,
			Description: desc,
			Metadata:    meta,
			CreatedAt:   created,
			UpdatedAt:   created,
			IsActive:    true,
		}
	}

	return []models.KnowledgeSource{
		src("github-main", models.SourceGitHub, "GitHub Repositories",
			"https://github.com/"+cfg.Owner,
			"Source repositories owned by "+cfg.Owner,
			map[string]string{"owner": cfg.Owner, "defaultBranch": cfg.DefaultBranch}),
		src("deployed-app", models.SourceDeployment, "Production Deployment",
			cfg.ProductionURL,
			"Production deployment of "+cfg.ExampleRepository,
			map[string]string{"environment": models.EnvProduction, "platform": "Render"}),
		src("api-docs", models.SourceDocumentation, "API Documentation",
			cfg.ProductionURL+"/swagger",
			"Interactive API documentation",
			map[string]string{"format": "OpenAPI"}),
		src("local-dev", models.SourceDeployment, "Local Development",
			cfg.DevelopmentURL,
			"Local development server",
			map[string]string{"environment": models.EnvDevelopment}),
	}
}

func seedConfigurations(s Settings) []models.ConfigurationInfo {
	entries := []models.ConfigurationInfo{
		{
			Key:         "GITHUB_USERNAME",
			Value:       s.GitHubUsername,
			Environment: models.EnvAll,
			Description: "GitHub account whose repositories are queried",
		},
		{
			Key:         "GITHUB_TOKEN",
			Value:       s.GitHubToken,
			Environment: models.EnvAll,
			Description: "Personal access token used for GitHub API calls",
			IsSensitive: true,
		},
		{
			Key:         "APP_CONFIG_FILE",
			Value:       s.ConfigFile,
			Environment: models.EnvDevelopment,
			Description: "Path to the YAML configuration file",
		},
		{
			Key:         "PORT",
			Value:       s.Port,
			Environment: models.EnvProduction,
			Description: "HTTP listen port",
		},
		{
			Key:         "LOG_LEVEL",
			Value:       s.LogLevel,
			Environment: models.EnvDevelopment,
			Description: "Minimum level of emitted log records",
		},
	}
	for i := range entries {
		if entries[i].IsSensitive {
			entries[i].Value = maskedValue
		}
	}
	return entries
}

func seedModules() []models.CodeModuleInfo {
	get := func(route, desc, controller, ret string, params map[string]string) models.APIEndpointInfo {
		if params == nil {
			params = map[string]string{}
		}
		return models.APIEndpointInfo{
			Method:      "GET",
			Route:       route,
			Description: desc,
			Controller:  controller,
			Parameters:  params,
			ReturnType:  ret,
		}
	}
	name := map[string]string{"name": "string"}

	return []models.CodeModuleInfo{
		{
			ModuleName:   "GitHub Integration",
			FilePath:     "internal/github/client.go",
			Language:     "Go",
			Description:  "Client for the GitHub REST API that lists repositories and deployments",
			Dependencies: []string{"golang.org/x/oauth2", "github.com/tidwall/gjson", "net/http"},
			APIEndpoints: []models.APIEndpointInfo{
				get("api/github/repositories", "List repository names of the configured user", "GitHubHandler", "[]string", nil),
				get("api/github/repositories/{name}/deployments", "List deployments of a repository", "GitHubHandler", "[]Deployment", name),
				get("api/github/repositories/{name}/deployment-status", "Build status and deployment URLs of a repository", "GitHubHandler", "BuildStatus", name),
			},
		},
		{
			ModuleName:   "Knowledge Base",
			FilePath:     "internal/knowledge/knowledge.go",
			Language:     "Go",
			Description:  "In-memory database of knowledge sources, repository links, configurations and keyword queries",
			Dependencies: []string{"github.com/patrickmn/go-cache", "github.com/google/uuid"},
			APIEndpoints: []models.APIEndpointInfo{
				get("api/knowledge/query", "Answer a free-text question", "KnowledgeHandler", "QueryResponse", map[string]string{"q": "string"}),
				get("api/knowledge/repository/{name}", "Repository link with deployment URLs", "KnowledgeHandler", "RepositoryLink", name),
				get("api/knowledge/configurations", "Configuration entries by environment", "KnowledgeHandler", "[]ConfigurationInfo", map[string]string{"environment": "string"}),
			},
		},
		{
			ModuleName:   "Application Entry",
			FilePath:     "internal/entry.go",
			Language:     "Go",
			Description:  "Application startup, configuration loading and HTTP server lifecycle",
			Dependencies: []string{"github.com/go-chi/chi/v5", "github.com/urfave/cli/v3", "golang.org/x/sync/errgroup"},
			APIEndpoints: []models.APIEndpointInfo{
				get("/health/live", "Liveness probe", "HealthCheck", "object", nil),
				get("/metrics", "Prometheus metrics", "Prometheus", "text/plain", nil),
			},
		},
		{
			ModuleName:   "MCP Server",
			FilePath:     "internal/mcpserver/server.go",
			Language:     "Go",
			Description:  "Model Context Protocol tools exposing the knowledge base over stdio",
			Dependencies: []string{"github.com/mark3labs/mcp-go"},
			APIEndpoints: []models.APIEndpointInfo{},
		},
	}
}

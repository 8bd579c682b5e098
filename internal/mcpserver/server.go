// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Ansuz knowledge base to LLM agents via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/knowledge"
	"github.com/starford/ansuz/internal/models"
)

const summaryURI = "ansuz://knowledge-summary"

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp *server.MCPServer
	kb  *knowledge.Base
}

// New creates a new MCP server with all Ansuz tools registered.
func New(kb *knowledge.Base, version string) *Server {
	s := &Server{kb: kb}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("query_knowledge",
		mcp.WithDescription("Answer a free-text question about repositories, deployments, "+
			"API endpoints, configuration or code modules. See get_query_guide for the keywords understood."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Question text, e.g. 'production url'")),
	), s.queryKnowledge)

	s.mcp.AddTool(mcp.NewTool("get_query_guide",
		mcp.WithDescription("Returns the keyword groups query_knowledge understands."),
	), s.getQueryGuide)

	s.mcp.AddTool(mcp.NewTool("get_repository",
		mcp.WithDescription("Repository link with GitHub, GitLab and documentation URLs and deployment URLs."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Repository name (case-insensitive)")),
	), s.getRepository)

	s.mcp.AddTool(mcp.NewTool("get_deployment_url",
		mcp.WithDescription("URL of a repository's deployment in one environment."),
		mcp.WithString("repository", mcp.Required(), mcp.Description("Repository name")),
		mcp.WithString("environment", mcp.Required(), mcp.Description("Environment, e.g. Development or Production")),
	), s.getDeploymentURL)

	s.mcp.AddTool(mcp.NewTool("list_deployments",
		mcp.WithDescription("Deployment records of a repository as reported by GitHub."),
		mcp.WithString("repository", mcp.Required(), mcp.Description("Repository name")),
	), s.listDeployments)

	s.mcp.AddTool(mcp.NewTool("list_api_endpoints",
		mcp.WithDescription("API endpoints of the modules whose controllers match the filter."),
		mcp.WithString("controller", mcp.Description("Optional controller name fragment")),
	), s.listAPIEndpoints)

	s.mcp.AddTool(mcp.NewTool("search_modules",
		mcp.WithDescription("Code modules whose name, description or path contains the keyword."),
		mcp.WithString("keyword", mcp.Description("Optional keyword (empty for all)")),
	), s.searchModules)

	s.mcp.AddTool(mcp.NewTool("get_configurations",
		mcp.WithDescription("Configuration entries for an environment. Sensitive values are masked."),
		mcp.WithString("environment", mcp.Description("Optional environment (empty for all)")),
	), s.getConfigurations)

	s.mcp.AddTool(mcp.NewTool("get_build_status",
		mcp.WithDescription("Latest deployments and build status of a repository."),
		mcp.WithString("repository", mcp.Required(), mcp.Description("Repository name")),
	), s.getBuildStatus)

	s.mcp.AddTool(mcp.NewTool("list_knowledge_sources",
		mcp.WithDescription("Active knowledge sources, optionally filtered by type."),
		mcp.WithString("type", mcp.Description("Optional type: GitHub, GitLab, Documentation or Deployment")),
	), s.listKnowledgeSources)

	s.mcp.AddResource(
		mcp.NewResource(summaryURI, "Knowledge Base Summary",
			mcp.WithResourceDescription("Counts of repositories, modules, endpoints and configurations."),
			mcp.WithMIMEType("application/json"),
		),
		s.readSummaryResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) queryKnowledge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.kb.Query(query))
}

func (s *Server) getQueryGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(QueryGuide), nil
}

func (s *Server) getRepository(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.kb.GetRepositoryLink(name))
}

func (s *Server) getDeploymentURL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := req.RequireString("repository")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	env, err := req.RequireString("environment")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	url := s.kb.GetDeploymentURL(repo, env)
	if url == models.NotFound {
		return mcp.NewToolResultError(fmt.Sprintf("no %s deployment for %s", env, repo)), nil
	}
	return mcp.NewToolResultText(url), nil
}

func (s *Server) listDeployments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := req.RequireString("repository")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	deps, err := s.kb.ListDeployments(ctx, repo)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(deps)
}

func (s *Server) listAPIEndpoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.kb.GetAPIEndpoints(req.GetString("controller", "")))
}

func (s *Server) searchModules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.kb.SearchModules(req.GetString("keyword", "")))
}

func (s *Server) getConfigurations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.kb.GetConfigurations(req.GetString("environment", "")))
}

func (s *Server) getBuildStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := req.RequireString("repository")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.kb.GetBuildStatus(ctx, repo))
}

func (s *Server) listKnowledgeSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if typ := req.GetString("type", ""); typ != "" {
		return jsonResult(s.kb.ListKnowledgeSourcesByType(typ))
	}
	return jsonResult(s.kb.ListKnowledgeSources())
}

func (s *Server) readSummaryResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := json.MarshalIndent(s.kb.Summary(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      summaryURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

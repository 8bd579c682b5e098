package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/knowledge"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/testutil"
)

func testServer(t *testing.T, gw *testutil.FakeGateway) *Server {
	t.Helper()
	if gw == nil {
		gw = &testutil.FakeGateway{}
	}
	kb := knowledge.New(knowledge.Config{
		Owner:             "octo",
		ExampleRepository: "ansuz",
		DefaultBranch:     "Dev",
		DevelopmentURL:    "http://localhost:10000",
		ProductionURL:     "https://ansuz.example.com",
		DocsBaseURL:       "https://ansuz.example.com/docs",
		Settings:          knowledge.Settings{GitHubUsername: "octo", GitHubToken: "t"},
	}, gw)
	return New(kb, "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"query_knowledge":        srv.queryKnowledge,
		"get_query_guide":        srv.getQueryGuide,
		"get_repository":         srv.getRepository,
		"get_deployment_url":     srv.getDeploymentURL,
		"list_deployments":       srv.listDeployments,
		"list_api_endpoints":     srv.listAPIEndpoints,
		"search_modules":         srv.searchModules,
		"get_configurations":     srv.getConfigurations,
		"get_build_status":       srv.getBuildStatus,
		"list_knowledge_sources": srv.listKnowledgeSources,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}

	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestQueryKnowledge(t *testing.T) {
	srv := testServer(t, nil)
	r := callTool(t, srv, "query_knowledge", map[string]interface{}{"query": "production url"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	var resp models.QueryResponse
	if err := json.Unmarshal([]byte(resultText(r)), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "Found deployment URLs for various environments" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestQueryKnowledgeMissingArgument(t *testing.T) {
	srv := testServer(t, nil)
	r := callTool(t, srv, "query_knowledge", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error result for missing query")
	}
}

func TestGetDeploymentURL(t *testing.T) {
	srv := testServer(t, nil)

	r := callTool(t, srv, "get_deployment_url", map[string]interface{}{
		"repository":  "svc",
		"environment": "Production",
	})
	if got := resultText(r); got != "https://ansuz.example.com" {
		t.Errorf("url = %q", got)
	}

	r = callTool(t, srv, "get_deployment_url", map[string]interface{}{
		"repository":  "svc",
		"environment": "Staging",
	})
	if !r.IsError {
		t.Error("expected error result for Staging")
	}
}

func TestListDeploymentsGatewayError(t *testing.T) {
	srv := testServer(t, &testutil.FakeGateway{Err: errors.New("github down")})
	r := callTool(t, srv, "list_deployments", map[string]interface{}{"repository": "svc"})
	if !r.IsError || !strings.Contains(resultText(r), "github down") {
		t.Errorf("result = %+v", r)
	}
}

func TestGetBuildStatus(t *testing.T) {
	gw := &testutil.FakeGateway{Deployments: map[string][]models.Deployment{
		"svc": testutil.Deployments(2, "production"),
	}}
	srv := testServer(t, gw)
	r := callTool(t, srv, "get_build_status", map[string]interface{}{"repository": "svc"})
	if !strings.Contains(resultText(r), `"status": "Success"`) {
		t.Errorf("build status = %s", resultText(r))
	}
}

func TestGetBuildStatusNoDeployments(t *testing.T) {
	gw := &testutil.FakeGateway{Deployments: map[string][]models.Deployment{"empty": {}}}
	srv := testServer(t, gw)
	r := callTool(t, srv, "get_build_status", map[string]interface{}{"repository": "empty"})
	if !strings.Contains(resultText(r), `"latestDeployments": []`) {
		t.Errorf("build status = %s", resultText(r))
	}
}

func TestListKnowledgeSourcesByType(t *testing.T) {
	srv := testServer(t, nil)
	r := callTool(t, srv, "list_knowledge_sources", map[string]interface{}{"type": "Documentation"})
	var sources []models.KnowledgeSource
	if err := json.Unmarshal([]byte(resultText(r)), &sources); err != nil {
		t.Fatal(err)
	}
	if len(sources) != 1 || sources[0].ID != "api-docs" {
		t.Errorf("sources = %+v", sources)
	}
}

func TestOptionalFilters(t *testing.T) {
	srv := testServer(t, nil)

	r := callTool(t, srv, "search_modules", map[string]interface{}{})
	var mods []models.CodeModuleInfo
	_ = json.Unmarshal([]byte(resultText(r)), &mods)
	if len(mods) != 4 {
		t.Errorf("modules = %d, want 4", len(mods))
	}

	r = callTool(t, srv, "get_configurations", map[string]interface{}{"environment": "Production"})
	var cfgs []models.ConfigurationInfo
	_ = json.Unmarshal([]byte(resultText(r)), &cfgs)
	if len(cfgs) != 3 {
		t.Errorf("configurations = %d, want 3", len(cfgs))
	}
}

func TestSummaryResource(t *testing.T) {
	srv := testServer(t, nil)
	_ = callTool(t, srv, "get_repository", map[string]interface{}{"name": "svc"})

	contents, err := srv.readSummaryResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	if !strings.Contains(text, `"totalRepositories": 1`) {
		t.Errorf("summary = %s", text)
	}
}

package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/testutil"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Owner:             "octo",
		ExampleRepository: "ansuz",
		DefaultBranch:     "Dev",
		DevelopmentURL:    "http://localhost:10000",
		ProductionURL:     "https://ansuz.example.com",
		DocsBaseURL:       "https://ansuz.example.com/docs",
		Settings: Settings{
			GitHubUsername: "octo",
			GitHubToken:    "ghp_secret",
			ConfigFile:     "config/config.yaml",
			Port:           "10000",
			LogLevel:       "INFO",
		},
	}
}

func testBase(t *testing.T, gw Gateway, opts ...Option) *Base {
	t.Helper()
	if gw == nil {
		gw = &testutil.FakeGateway{}
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(testConfig(), gw, opts...)
}

func TestListKnowledgeSources(t *testing.T) {
	b := testBase(t, nil)
	got := b.ListKnowledgeSources()
	want := []string{"github-main", "deployed-app", "api-docs", "local-dev"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("source[%d] = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestListKnowledgeSourcesByType(t *testing.T) {
	b := testBase(t, nil)
	if got := b.ListKnowledgeSourcesByType(models.SourceDeployment); len(got) != 2 {
		t.Errorf("Deployment sources = %d, want 2", len(got))
	}
	if got := b.ListKnowledgeSourcesByType("deployment"); len(got) != 0 {
		t.Errorf("type match should be exact, got %d", len(got))
	}
}

func TestGetRepositoryLink_Synthesized(t *testing.T) {
	b := testBase(t, nil)
	link := b.GetRepositoryLink("Widget")

	if link.RepositoryName != "Widget" || link.Owner != "octo" {
		t.Errorf("name/owner = %q/%q", link.RepositoryName, link.Owner)
	}
	if link.GitHubURL != "https://github.com/octo/Widget" {
		t.Errorf("github url = %q", link.GitHubURL)
	}
	if link.GitLabURL != "https://gitlab.com/octo/Widget" {
		t.Errorf("gitlab url = %q", link.GitLabURL)
	}
	if link.DocumentationURL != "https://ansuz.example.com/docs/Widget" {
		t.Errorf("docs url = %q", link.DocumentationURL)
	}
	if link.DefaultBranch != "Dev" {
		t.Errorf("branch = %q", link.DefaultBranch)
	}
	if len(link.DeploymentURLs) != 2 {
		t.Fatalf("deployments = %d, want 2", len(link.DeploymentURLs))
	}

	dev, prod := link.DeploymentURLs[0], link.DeploymentURLs[1]
	if dev.Environment != models.EnvDevelopment || prod.Environment != models.EnvProduction {
		t.Errorf("environments = %q, %q", dev.Environment, prod.Environment)
	}
	if !dev.LastDeployed.Equal(fixedNow) || !prod.LastDeployed.Equal(fixedNow.Add(-2*time.Hour)) {
		t.Errorf("lastDeployed = %v, %v", dev.LastDeployed, prod.LastDeployed)
	}
	if prod.DeploymentDetailsURL != "https://ansuz.example.com/swagger" {
		t.Errorf("details url = %q", prod.DeploymentDetailsURL)
	}
	if dev.Status != "Active" || dev.BuildStatus != models.BuildSuccess {
		t.Errorf("status = %q/%q", dev.Status, dev.BuildStatus)
	}
}

func TestGetRepositoryLink_ConcurrentFirstAccess(t *testing.T) {
	var notified atomic.Int32
	b := testBase(t, nil, WithLinkObserver(func(*models.RepositoryLink) { notified.Add(1) }))

	const workers = 64
	results := make([]*models.RepositoryLink, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			name := "race-repo"
			if i%2 == 0 {
				name = "RACE-Repo"
			}
			results[i] = b.GetRepositoryLink(name)
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatalf("worker %d got a different link instance", i)
		}
	}
	if n := notified.Load(); n != 1 {
		t.Errorf("observer called %d times, want 1", n)
	}
	if n := len(b.Links()); n != 1 {
		t.Errorf("links = %d, want 1", n)
	}
}

func TestGetDeploymentURL(t *testing.T) {
	b := testBase(t, nil)
	if got := b.GetDeploymentURL("svc", "production"); got != "https://ansuz.example.com" {
		t.Errorf("production url = %q", got)
	}
	if got := b.GetDeploymentURL("svc", models.EnvStaging); got != models.NotFound {
		t.Errorf("staging url = %q, want %q", got, models.NotFound)
	}
	if got := b.GetRepositoryOpenURL("svc"); got != "https://github.com/octo/svc" {
		t.Errorf("open url = %q", got)
	}
}

func TestSearchModules(t *testing.T) {
	b := testBase(t, nil)
	if got := b.SearchModules(""); len(got) != 4 {
		t.Errorf("empty keyword = %d modules, want 4", len(got))
	}
	if got := b.SearchModules("KEYWORD Queries"); len(got) != 1 || got[0].ModuleName != "Knowledge Base" {
		t.Errorf("name search = %+v", got)
	}
	if got := b.SearchModules("internal/github"); len(got) != 1 || got[0].ModuleName != "GitHub Integration" {
		t.Errorf("path search = %+v", got)
	}
	if got := b.SearchModules("no-such-thing"); len(got) != 0 {
		t.Errorf("miss = %d modules", len(got))
	}
	if got := b.SearchModules("  \t"); len(got) != 4 {
		t.Errorf("blank keyword = %d modules, want 4", len(got))
	}
}

func TestSearchModules_Database(t *testing.T) {
	b := testBase(t, nil)
	for _, kw := range []string{"database", "DATABASE", "Database"} {
		got := b.SearchModules(kw)
		if len(got) != 1 || got[0].ModuleName != "Knowledge Base" {
			t.Errorf("SearchModules(%q) = %+v, want only Knowledge Base", kw, got)
		}
	}
}

func TestGetAPIEndpoints_ModuleLevelFilter(t *testing.T) {
	b := testBase(t, nil)
	if got := b.GetAPIEndpoints(""); len(got) != 8 {
		t.Errorf("all endpoints = %d, want 8", len(got))
	}

	// "health" matches one endpoint of Application Entry, which pulls in the
	// module's Prometheus endpoint as well.
	got := b.GetAPIEndpoints("health")
	if len(got) != 2 {
		t.Fatalf("health endpoints = %d, want 2", len(got))
	}
	if got[1].Controller != "Prometheus" {
		t.Errorf("second endpoint controller = %q, want Prometheus", got[1].Controller)
	}
}

func TestGetConfigurations(t *testing.T) {
	b := testBase(t, nil)
	cases := []struct {
		env  string
		want []string
	}{
		{"", []string{"GITHUB_USERNAME", "GITHUB_TOKEN", "APP_CONFIG_FILE", "PORT", "LOG_LEVEL"}},
		{models.EnvProduction, []string{"GITHUB_USERNAME", "GITHUB_TOKEN", "PORT"}},
		{models.EnvDevelopment, []string{"GITHUB_USERNAME", "GITHUB_TOKEN", "APP_CONFIG_FILE", "LOG_LEVEL"}},
		{models.EnvStaging, []string{"GITHUB_USERNAME", "GITHUB_TOKEN"}},
	}
	for _, tc := range cases {
		t.Run(tc.env, func(t *testing.T) {
			got := b.GetConfigurations(tc.env)
			if len(got) != len(tc.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tc.want))
			}
			for i, k := range tc.want {
				if got[i].Key != k {
					t.Errorf("[%d] = %q, want %q", i, got[i].Key, k)
				}
			}
		})
	}
}

func TestSensitiveConfigurationMasked(t *testing.T) {
	b := testBase(t, nil)
	for _, c := range b.GetConfigurations("") {
		if c.IsSensitive && c.Value != "***hidden***" {
			t.Errorf("%s value = %q, want masked", c.Key, c.Value)
		}
		if strings.Contains(c.Value, "ghp_secret") {
			t.Errorf("%s leaks the token", c.Key)
		}
	}
}

func TestQuery(t *testing.T) {
	b := testBase(t, nil)

	cases := []struct {
		q       string
		message string
		related int
	}{
		{"show me the repo", "Found repository: ansuz", 1},
		{"where is it deployed", "Found deployment URLs for various environments", 2},
		{"list the API endpoints", "Found 8 API endpoints", 8},
		{"settings please", "Found 5 configurations", 0},
		// environment hits both the deploy and the config group; config wins.
		{"environment", "Found 5 configurations", 2},
		{"mcp module", "Found 1 modules", 0},
		{"code", "Found 4 modules", 0},
		{"module zzz", "Found 4 modules", 0},
		{"repository api", "Found 8 API endpoints", 9},
	}
	for _, tc := range cases {
		t.Run(tc.q, func(t *testing.T) {
			resp := b.Query(tc.q)
			if !resp.Success {
				t.Error("success = false")
			}
			if resp.Message != tc.message {
				t.Errorf("message = %q, want %q", resp.Message, tc.message)
			}
			if len(resp.RelatedResources) != tc.related {
				t.Errorf("related = %v, want %d entries", resp.RelatedResources, tc.related)
			}
		})
	}
}

func TestQuery_NoMatch(t *testing.T) {
	b := testBase(t, nil)
	resp := b.Query("hello there")
	if !resp.Success || resp.Data != nil || resp.Message != "" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.RelatedResources == nil || resp.CodeSnippets == nil {
		t.Error("lists should be empty, not nil")
	}
}

func TestQuery_RelatedResourcesOrder(t *testing.T) {
	b := testBase(t, nil)
	resp := b.Query("repo deploy")
	want := []string{"https://github.com/octo/ansuz", "http://localhost:10000", "https://ansuz.example.com"}
	if len(resp.RelatedResources) != len(want) {
		t.Fatalf("related = %v", resp.RelatedResources)
	}
	for i := range want {
		if resp.RelatedResources[i] != want[i] {
			t.Errorf("[%d] = %q, want %q", i, resp.RelatedResources[i], want[i])
		}
	}
}

func TestGetBuildStatus(t *testing.T) {
	gw := &testutil.FakeGateway{Deployments: map[string][]models.Deployment{
		"svc": testutil.Deployments(7, "production"),
	}}
	b := testBase(t, gw)

	st := b.GetBuildStatus(context.Background(), "svc")
	if st.Status != models.BuildSuccess {
		t.Errorf("status = %q", st.Status)
	}
	if len(st.LatestDeployments) != 5 {
		t.Errorf("deployments = %d, want 5", len(st.LatestDeployments))
	}
	if st.LatestDeployments[0]["id"] != float64(1) {
		t.Errorf("first deployment = %v, want provider order", st.LatestDeployments[0])
	}
	if st.LastUpdated == nil || !st.LastUpdated.Equal(fixedNow) {
		t.Errorf("lastUpdated = %v", st.LastUpdated)
	}
}

func TestGetBuildStatus_GatewayError(t *testing.T) {
	gw := &testutil.FakeGateway{Err: errors.New("boom")}
	b := testBase(t, gw)

	st := b.GetBuildStatus(context.Background(), "svc")
	if st.Status != models.BuildError || st.Message != "boom" {
		t.Errorf("status = %+v", st)
	}
	if st.LastUpdated != nil || st.LatestDeployments != nil {
		t.Errorf("error status should carry no deployments or timestamp")
	}

	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "latestDeployments") || strings.Contains(string(raw), "lastUpdated") {
		t.Errorf("error body = %s", raw)
	}
}

func TestGetBuildStatus_NoDeployments(t *testing.T) {
	gw := &testutil.FakeGateway{Deployments: map[string][]models.Deployment{"empty": {}}}
	b := testBase(t, gw)

	st := b.GetBuildStatus(context.Background(), "empty")
	if st.Status != models.BuildSuccess || st.LatestDeployments == nil || len(st.LatestDeployments) != 0 {
		t.Fatalf("status = %+v", st)
	}

	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"latestDeployments":[]`) {
		t.Errorf("body = %s, want empty latestDeployments array", raw)
	}

	// A zero-value success snapshot still encodes the array.
	raw, _ = json.Marshal(models.BuildStatus{RepositoryName: "x", Status: models.BuildSuccess})
	if !strings.Contains(string(raw), `"latestDeployments":[]`) {
		t.Errorf("zero snapshot = %s", raw)
	}
}

func TestSummary(t *testing.T) {
	b := testBase(t, nil)
	b.GetRepositoryLink("zeta")
	b.GetRepositoryLink("Alpha")

	s := b.Summary()
	if s.TotalRepositories != 2 || s.RepositoryNames[0] != "Alpha" {
		t.Errorf("repositories = %d %v", s.TotalRepositories, s.RepositoryNames)
	}
	if s.TotalModules != 4 || s.TotalAPIEndpoints != 8 || s.TotalConfigurations != 5 {
		t.Errorf("totals = %+v", s)
	}
	if s.SourceTypeCount[models.SourceDeployment] != 2 {
		t.Errorf("source types = %v", s.SourceTypeCount)
	}
	if len(s.AvailableEnvironments) != 2 {
		t.Errorf("environments = %v", s.AvailableEnvironments)
	}
}

func TestGetCodeSnippet(t *testing.T) {
	b := testBase(t, nil)
	cases := map[string]string{
		"internal/knowledge/query.go": "go",
		"Services/Foo.cs":             "csharp",
		"config/config.YAML":          "yaml",
		"README.md":                   "markdown",
		"Makefile":                    "plaintext",
	}
	for path, lang := range cases {
		s := b.GetCodeSnippet(path, -1, -1)
		if s.Language != lang {
			t.Errorf("%s language = %q, want %q", path, s.Language, lang)
		}
		if s.ID == "" || s.FilePath != path || s.StartLine != -1 {
			t.Errorf("snippet = %+v", s)
		}
	}
}

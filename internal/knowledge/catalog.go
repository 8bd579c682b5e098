package knowledge

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/models"
)

// ListKnowledgeSources returns the active knowledge sources in seed order.
func (b *Base) ListKnowledgeSources() []models.KnowledgeSource {
	out := make([]models.KnowledgeSource, 0, len(b.sources))
	for _, s := range b.sources {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out
}

// ListKnowledgeSourcesByType returns active sources whose type equals typ exactly.
func (b *Base) ListKnowledgeSourcesByType(typ string) []models.KnowledgeSource {
	out := []models.KnowledgeSource{}
	for _, s := range b.sources {
		if s.IsActive && s.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

// SearchModules returns modules whose name, description or file path contains
// keyword, ignoring case. An empty keyword matches every module.
func (b *Base) SearchModules(keyword string) []models.CodeModuleInfo {
	if strings.TrimSpace(keyword) == "" {
		return append([]models.CodeModuleInfo(nil), b.modules...)
	}
	kw := strings.ToLower(keyword)
	out := []models.CodeModuleInfo{}
	for _, m := range b.modules {
		if containsFold(m.ModuleName, kw) || containsFold(m.Description, kw) || containsFold(m.FilePath, kw) {
			out = append(out, m)
		}
	}
	return out
}

// GetAPIEndpoints returns the endpoints of every module that has at least one
// endpoint whose controller contains controller, ignoring case. The filter
// selects modules, so a matching module contributes all of its endpoints.
func (b *Base) GetAPIEndpoints(controller string) []models.APIEndpointInfo {
	out := []models.APIEndpointInfo{}
	ctl := strings.ToLower(controller)
	for _, m := range b.modules {
		if controller == "" || moduleHasController(m, ctl) {
			out = append(out, m.APIEndpoints...)
		}
	}
	return out
}

func moduleHasController(m models.CodeModuleInfo, ctl string) bool {
	for _, e := range m.APIEndpoints {
		if containsFold(e.Controller, ctl) {
			return true
		}
	}
	return false
}

// GetConfigurations returns entries for env. Entries marked for all
// environments are always included; an empty env returns everything.
func (b *Base) GetConfigurations(env string) []models.ConfigurationInfo {
	out := []models.ConfigurationInfo{}
	for _, c := range b.configurations {
		if env == "" || c.Environment == env || c.Environment == models.EnvAll {
			out = append(out, c)
		}
	}
	return out
}

// Summary aggregates counts over the knowledge base.
func (b *Base) Summary() models.KnowledgeBaseSummary {
	links := b.Links()
	names := make([]string, 0, len(links))
	envs := map[string]struct{}{}
	for _, l := range links {
		names = append(names, l.RepositoryName)
		for _, d := range l.DeploymentURLs {
			envs[d.Environment] = struct{}{}
		}
	}
	for _, c := range b.configurations {
		if c.Environment != models.EnvAll {
			envs[c.Environment] = struct{}{}
		}
	}
	environments := make([]string, 0, len(envs))
	for e := range envs {
		environments = append(environments, e)
	}
	sort.Strings(environments)

	endpoints := 0
	for _, m := range b.modules {
		endpoints += len(m.APIEndpoints)
	}

	types := map[string]int{}
	for _, s := range b.ListKnowledgeSources() {
		types[s.Type]++
	}

	return models.KnowledgeBaseSummary{
		TotalRepositories:     len(links),
		TotalAPIEndpoints:     endpoints,
		TotalModules:          len(b.modules),
		TotalConfigurations:   len(b.configurations),
		RepositoryNames:       names,
		AvailableEnvironments: environments,
		SourceTypeCount:       types,
		LastUpdated:           b.now().UTC(),
	}
}

// GetCodeSnippet describes a region of path. Lines are 1-based; -1 means
// unbounded. The snippet carries no source text.
func (b *Base) GetCodeSnippet(path string, start, end int) models.CodeSnippet {
	return models.CodeSnippet{
		ID:          uuid.NewString(),
		FilePath:    path,
		StartLine:   start,
		EndLine:     end,
		Language:    languageOf(path),
		Description: "Code snippet from " + path,
		Tags:        []string{"code-snippet", path},
	}
}

func languageOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".cs":
		return "csharp"
	case ".json":
		return "json"
	case ".js":
		return "javascript"
	case ".ts":
		return "typescript"
	case ".py":
		return "python"
	case ".html":
		return "html"
	case ".xml":
		return "xml"
	case ".yaml", ".yml":
		return "yaml"
	case ".md":
		return "markdown"
	default:
		return "plaintext"
	}
}

// containsFold reports whether s contains the already lower-cased substr.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

// Package models defines the domain types for Ansuz.
package models

import "time"

// Knowledge source types.
const (
	SourceGitHub        = "GitHub"
	SourceGitLab        = "GitLab"
	SourceDocumentation = "Documentation"
	SourceDeployment    = "Deployment"
)

// Well-known environment names.
const (
	EnvAll         = "All"
	EnvDevelopment = "Development"
	EnvStaging     = "Staging"
	EnvProduction  = "Production"
)

// NotFound is returned in place of a URL when a repository has no deployment
// for the requested environment.
const NotFound = "Not found"

// KnowledgeSource is a named, typed external resource tracked for discovery.
type KnowledgeSource struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Name        string            `json:"name"`
	URL         string            `json:"url"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	IsActive    bool              `json:"isActive"`
}

// RepositoryLink bundles the URLs, branch and deployments known for one repository.
type RepositoryLink struct {
	ID               string          `json:"id"`
	RepositoryName   string          `json:"repositoryName"`
	Owner            string          `json:"owner"`
	GitHubURL        string          `json:"gitHubUrl"`
	GitLabURL        string          `json:"gitLabUrl"`
	DocumentationURL string          `json:"documentationUrl"`
	DeploymentURLs   []DeploymentURL `json:"deploymentUrls"`
	DefaultBranch    string          `json:"defaultBranch"`
	LastUpdated      time.Time       `json:"lastUpdated"`
}

// DeploymentURL is one environment's endpoint for a repository.
type DeploymentURL struct {
	Environment          string    `json:"environment"`
	URL                  string    `json:"url"`
	Status               string    `json:"status"`      // Active, Inactive, Maintenance
	BuildStatus          string    `json:"buildStatus"` // Success, Failed, InProgress
	LastDeployed         time.Time `json:"lastDeployed"`
	DeploymentDetailsURL string    `json:"deploymentDetailsUrl"`
}

// ConfigurationInfo describes one configuration entry of the running service.
// Sensitive values are masked before they are stored.
type ConfigurationInfo struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Environment string `json:"environment"`
	Description string `json:"description"`
	IsSensitive bool   `json:"isSensitive"`
}

// CodeModuleInfo describes a source module of the service.
type CodeModuleInfo struct {
	ModuleName   string            `json:"moduleName"`
	FilePath     string            `json:"filePath"`
	Language     string            `json:"language"`
	Description  string            `json:"description"`
	Dependencies []string          `json:"dependencies"`
	APIEndpoints []APIEndpointInfo `json:"apiEndpoints"`
}

// APIEndpointInfo describes one HTTP endpoint exposed by a module.
type APIEndpointInfo struct {
	Method      string            `json:"method"`
	Route       string            `json:"route"`
	Description string            `json:"description"`
	Controller  string            `json:"controller"`
	Parameters  map[string]string `json:"parameters"`
	ReturnType  string            `json:"returnType"`
}

// CodeSnippet points at a region of a source file.
type CodeSnippet struct {
	ID          string   `json:"id"`
	FilePath    string   `json:"filePath"`
	StartLine   int      `json:"startLine"`
	EndLine     int      `json:"endLine"`
	Code        string   `json:"code"`
	Language    string   `json:"language"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// QueryResponse is the answer to a free-text knowledge base query.
type QueryResponse struct {
	Success          bool          `json:"success"`
	Message          string        `json:"message"`
	Data             any           `json:"data"`
	CodeSnippets     []CodeSnippet `json:"codeSnippets"`
	RelatedResources []string      `json:"relatedResources"`
}

// KnowledgeBaseSummary aggregates counts over the knowledge base.
type KnowledgeBaseSummary struct {
	TotalRepositories     int            `json:"totalRepositories"`
	TotalAPIEndpoints     int            `json:"totalApiEndpoints"`
	TotalModules          int            `json:"totalModules"`
	TotalConfigurations   int            `json:"totalConfigurations"`
	RepositoryNames       []string       `json:"repositoryNames"`
	AvailableEnvironments []string       `json:"availableEnvironments"`
	SourceTypeCount       map[string]int `json:"sourceTypeCount"`
	LastUpdated           time.Time      `json:"lastUpdated"`
}

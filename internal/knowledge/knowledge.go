// Package knowledge is the in-process knowledge base: seeded knowledge
// sources, configuration entries and module descriptions, a lazily grown set
// of repository links, and a keyword-driven query dispatcher.
package knowledge

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/starford/ansuz/internal/models"
)

// Gateway is the subset of the GitHub client the knowledge base needs.
type Gateway interface {
	ListRepositories(ctx context.Context) ([]string, error)
	ListDeployments(ctx context.Context, repo string) ([]models.Deployment, error)
}

// LinkObserver is called once for every repository link the knowledge base
// synthesizes.
type LinkObserver func(link *models.RepositoryLink)

// Config controls how repository links and configuration entries are seeded.
type Config struct {
	// Owner is the account repository URLs are built for.
	Owner             string
	ExampleRepository string
	DefaultBranch     string
	DevelopmentURL    string
	ProductionURL     string
	DocsBaseURL       string

	// Settings describes the running process; it seeds the configuration entries.
	Settings Settings
}

// Settings are the process-level values reported as configuration entries.
type Settings struct {
	GitHubUsername string
	GitHubToken    string
	ConfigFile     string
	Port           string
	LogLevel       string
}

// Option configures a Base.
type Option func(*Base)

// WithLinkObserver registers fn to be notified of new repository links.
func WithLinkObserver(fn LinkObserver) Option {
	return func(b *Base) {
		if fn != nil {
			b.observers = append(b.observers, fn)
		}
	}
}

// WithClock overrides the time source used for seeded timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Base) {
		b.now = now
	}
}

// Base is the knowledge base. It is safe for concurrent use: the seeded
// collections are read-only after New and links live in a concurrent cache.
type Base struct {
	cfg     Config
	gateway Gateway
	now     func() time.Time

	sources        []models.KnowledgeSource
	configurations []models.ConfigurationInfo
	modules        []models.CodeModuleInfo

	links     *cache.Cache
	observers []LinkObserver
}

// New builds a knowledge base backed by gw.
func New(cfg Config, gw Gateway, opts ...Option) *Base {
	b := &Base{
		cfg:     cfg,
		gateway: gw,
		now:     time.Now,
		links:   cache.New(cache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(b)
	}

	created := b.now().UTC()
	b.sources = seedSources(cfg, created)
	b.configurations = seedConfigurations(cfg.Settings)
	b.modules = seedModules()
	return b
}

// ExampleRepository returns the repository name used to answer repository
// and deployment queries.
func (b *Base) ExampleRepository() string {
	return b.cfg.ExampleRepository
}

// ListRepositories passes through to the gateway.
func (b *Base) ListRepositories(ctx context.Context) ([]string, error) {
	return b.gateway.ListRepositories(ctx)
}

// ListDeployments passes through to the gateway.
func (b *Base) ListDeployments(ctx context.Context, repo string) ([]models.Deployment, error) {
	return b.gateway.ListDeployments(ctx, repo)
}

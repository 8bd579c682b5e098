package knowledge

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/starford/ansuz/internal/models"
)

// GetRepositoryLink returns the link for name, creating it on first use.
// Lookups are case-insensitive and always yield the same instance for a
// given name; concurrent first lookups agree on a single winner.
func (b *Base) GetRepositoryLink(name string) *models.RepositoryLink {
	key := strings.ToLower(name)
	if v, ok := b.links.Get(key); ok {
		return v.(*models.RepositoryLink)
	}

	link := b.newLink(name)
	if err := b.links.Add(key, link, cache.NoExpiration); err != nil {
		// Lost the race: another caller stored the link first.
		v, _ := b.links.Get(key)
		return v.(*models.RepositoryLink)
	}

	for _, fn := range b.observers {
		fn(link)
	}
	return link
}

func (b *Base) newLink(name string) *models.RepositoryLink {
	now := b.now().UTC()
	owner := b.cfg.Owner

	deployment := func(env, url string, at time.Time) models.DeploymentURL {
		return models.DeploymentURL{
			Environment:          env,
			URL:                  url,
			Status:               "Active",
			BuildStatus:          models.BuildSuccess,
			LastDeployed:         at,
			DeploymentDetailsURL: url + "/swagger",
		}
	}

	return &models.RepositoryLink{
		ID:               uuid.NewString(),
		RepositoryName:   name,
		Owner:            owner,
		GitHubURL:        "https://github.com/" + owner + "/" + name,
		GitLabURL:        "https://gitlab.com/" + owner + "/" + name,
		DocumentationURL: strings.TrimRight(b.cfg.DocsBaseURL, "/") + "/" + name,
		DefaultBranch:    b.cfg.DefaultBranch,
		LastUpdated:      now,
		DeploymentURLs: []models.DeploymentURL{
			deployment(models.EnvDevelopment, b.cfg.DevelopmentURL, now),
			deployment(models.EnvProduction, b.cfg.ProductionURL, now.Add(-2*time.Hour)),
		},
	}
}

// GetRepositoryOpenURL returns the GitHub URL of the repository.
func (b *Base) GetRepositoryOpenURL(name string) string {
	return b.GetRepositoryLink(name).GitHubURL
}

// GetDeploymentURL returns the URL of the repository's deployment in env,
// matched case-insensitively, or models.NotFound.
func (b *Base) GetDeploymentURL(repo, env string) string {
	for _, d := range b.GetRepositoryLink(repo).DeploymentURLs {
		if strings.EqualFold(d.Environment, env) {
			return d.URL
		}
	}
	return models.NotFound
}

// GetAllDeployments returns every deployment URL of the repository.
func (b *Base) GetAllDeployments(repo string) []models.DeploymentURL {
	return b.GetRepositoryLink(repo).DeploymentURLs
}

// Links returns the repository links created so far, ordered by name.
func (b *Base) Links() []*models.RepositoryLink {
	items := b.links.Items()
	out := make([]*models.RepositoryLink, 0, len(items))
	for _, it := range items {
		out = append(out, it.Object.(*models.RepositoryLink))
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].RepositoryName) < strings.ToLower(out[j].RepositoryName)
	})
	return out
}

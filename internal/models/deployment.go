package models

import (
	"encoding/json"
	"time"
)

// Build status values.
const (
	BuildSuccess = "Success"
	BuildError   = "Error"
)

// Deployment is a deployment record as returned by the source-control
// provider. Its shape is provider-defined and passed through untouched.
type Deployment = map[string]any

// BuildStatus is a snapshot of the most recent deployments of a repository.
// When the provider could not be reached Status is BuildError and Message
// carries the failure.
type BuildStatus struct {
	RepositoryName    string       `json:"repositoryName"`
	LatestDeployments []Deployment `json:"latestDeployments"`
	Status            string       `json:"status"`
	LastUpdated       *time.Time   `json:"lastUpdated,omitempty"`
	Message           string       `json:"message,omitempty"`
}

// MarshalJSON always emits latestDeployments on success, as an empty array
// when the repository has no deployments. Error snapshots carry only the
// repository name, status and message.
func (s BuildStatus) MarshalJSON() ([]byte, error) {
	if s.Status == BuildError {
		return json.Marshal(struct {
			RepositoryName string `json:"repositoryName"`
			Status         string `json:"status"`
			Message        string `json:"message,omitempty"`
		}{s.RepositoryName, s.Status, s.Message})
	}

	type plain BuildStatus
	p := plain(s)
	if p.LatestDeployments == nil {
		p.LatestDeployments = []Deployment{}
	}
	return json.Marshal(p)
}

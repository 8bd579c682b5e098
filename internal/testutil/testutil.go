// Package testutil provides shared test doubles for the GitHub gateway.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/starford/ansuz/internal/models"
)

// FakeGateway is an in-memory gateway. Err, when set, is returned by every call.
type FakeGateway struct {
	mu          sync.Mutex
	Repos       []string
	Deployments map[string][]models.Deployment
	Err         error
	Calls       int
}

// ListRepositories implements knowledge.Gateway.
func (f *FakeGateway) ListRepositories(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]string{}, f.Repos...), nil
}

// ListDeployments implements knowledge.Gateway.
func (f *FakeGateway) ListDeployments(_ context.Context, repo string) ([]models.Deployment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]models.Deployment{}, f.Deployments[repo]...), nil
}

// Deployments builds n deployment records for environment env.
func Deployments(n int, env string) []models.Deployment {
	out := make([]models.Deployment, n)
	for i := range out {
		out[i] = models.Deployment{"id": float64(i + 1), "environment": env}
	}
	return out
}

// GitHubStub starts an httptest server that mimics the GitHub endpoints used
// by the gateway for user owner. A repository listed in deployments but with
// a nil slice answers 404. Requests without the expected bearer token get 401.
func GitHubStub(t *testing.T, owner, token string, repos []string, deployments map[string][]models.Deployment) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/users/"+owner+"/repos", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r, token) {
			return
		}
		body := make([]map[string]any, 0, len(repos))
		for i, name := range repos {
			body = append(body, map[string]any{"id": i + 1, "name": name, "full_name": owner + "/" + name})
		}
		writeJSON(w, http.StatusOK, body)
	})

	mux.HandleFunc("/repos/"+owner+"/", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r, token) {
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, "/repos/"+owner+"/")
		repo, ok := strings.CutSuffix(rest, "/deployments")
		deps, known := deployments[repo]
		if !ok || !known || deps == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, deps)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func authorized(w http.ResponseWriter, r *http.Request, token string) bool {
	if r.Header.Get("Authorization") != "Bearer "+token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Package github is a thin authenticated client for the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

const (
	apiVersion = "2022-11-28"
	userAgent  = "ansuz"

	// Upstream error bodies are kept for diagnostics but capped.
	maxErrorBody = 4 << 10
)

// Config holds connection settings for the GitHub API.
type Config struct {
	BaseURL  string
	Username string
	Token    string
	Timeout  time.Duration
}

// Recorder observes gateway calls. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordGatewayCall(operation, outcome string, elapsed time.Duration)
}

// Client lists repositories and deployments for a single configured user.
// It makes one synchronous attempt per call with no retry or caching.
type Client struct {
	http     *http.Client
	baseURL  string
	username string
	rec      Recorder
}

// New creates a Client. rec may be nil.
func New(cfg Config, rec Recorder) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	hc := oauth2.NewClient(context.Background(), src)
	hc.Timeout = cfg.Timeout

	return &Client{
		http:     hc,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		rec:      rec,
	}
}

// ListRepositories returns the names of the user's repositories in the order
// GitHub returns them.
func (c *Client) ListRepositories(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "list_repositories", "/users/"+url.PathEscape(c.username)+"/repos")
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsArray() {
		return nil, fmt.Errorf("list repositories: unexpected response shape")
	}

	names := gjson.GetBytes(body, "#.name").Array()
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, n.String())
	}
	return out, nil
}

// ListDeployments returns the deployment records of repo exactly as GitHub
// reports them.
func (c *Client) ListDeployments(ctx context.Context, repo string) ([]models.Deployment, error) {
	path := "/repos/" + url.PathEscape(c.username) + "/" + url.PathEscape(repo) + "/deployments"
	body, err := c.get(ctx, "list_deployments", path)
	if err != nil {
		return nil, err
	}

	out := []models.Deployment{}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode deployments of %s: %w", repo, err)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, op, path string) (body []byte, err error) {
	start := time.Now()
	defer func() {
		if c.rec != nil {
			c.rec.RecordGatewayCall(op, outcome(err), time.Since(start))
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github %s: %w", op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("github %s: %w", op, apperr.ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &apperr.UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("github %s: read body: %w", op, err)
	}
	return body, nil
}

func outcome(err error) string {
	var upstream *apperr.UpstreamError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrUnauthorized):
		return "unauthorized"
	case errors.As(err, &upstream):
		return "upstream"
	default:
		return "error"
	}
}

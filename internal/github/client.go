package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bassista/create_gh_repo/internal/config"
	"github.com/bassista/create_gh_repo/internal/logger"
	"github.com/bassista/create_gh_repo/internal/manifest"
	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

// Repository is the subset of GitHub's repository object the tool uses.
type Repository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Private  bool   `json:"private"`
	HTMLURL  string `json:"html_url"`
	CloneURL string `json:"clone_url"`
	SSHURL   string `json:"ssh_url"`
}

// Option configures a Client.
type Option func(*resty.Client)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *resty.Client) { c.SetHeader("User-Agent", ua) }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// Client talks to the GitHub REST API.
type Client struct {
	rc *resty.Client
}

// NewClient returns a Client for baseURL (https://api.github.com for
// github.com). Token credentials are sent as a bearer token, passwords as
// basic auth. Proxies come from HTTP_PROXY/HTTPS_PROXY.
func NewClient(baseURL string, auth config.Auth, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28").
		SetHeader("User-Agent", "create_gh_repo")

	switch {
	case auth.IsZero():
	case auth.Kind == config.AuthPassword:
		rc.SetBasicAuth(auth.Username, auth.Secret)
	default:
		rc.SetAuthToken(auth.Secret)
	}

	for _, opt := range opts {
		opt(rc)
	}
	return &Client{rc: rc}
}

// CreateRepository creates a repository for the authenticated user.
func (c *Client) CreateRepository(ctx context.Context, r manifest.Record) (*Repository, error) {
	logger.WithComponent("github").Debugf("creating repository %q (private=%v)", r.Name, r.Private)

	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(r).
		SetResult(&Repository{}).
		Post("/user/repos")
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}

	if resp.StatusCode() != http.StatusCreated {
		apiErr := newAPIError(resp.StatusCode(), resp.Body())
		logger.WithComponent("github").Debugf("create repository failed: %s", resp.String())
		return nil, apiErr
	}

	repo, ok := resp.Result().(*Repository)
	if !ok || repo.CloneURL == "" {
		return nil, fmt.Errorf("create repository: response has no clone_url")
	}
	logger.WithComponent("github").Infof("created %s", repo.FullName)
	return repo, nil
}

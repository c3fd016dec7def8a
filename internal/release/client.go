package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/codexget/codexget/internal/config"
	"github.com/codexget/codexget/internal/httputil"
	"github.com/codexget/codexget/internal/log"
)

// Client wraps the GitHub API client for latest-release lookups.
type Client struct {
	gh            *github.Client
	apiTimeout    time.Duration
	authenticated bool
	log           log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at an alternate API endpoint. Tests use
// this to stand in an httptest server for api.github.com.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if gh, err := c.gh.WithEnterpriseURLs(u, u); err == nil {
			c.gh = gh
		}
	}
}

// WithLogger overrides the package-default logger.
func WithLogger(l log.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New builds a Client from the run configuration. API calls ride the
// hardened transport from httputil; a configured token is layered on as
// a bearer credential. Anonymous access works but rate limits are much
// tighter.
func New(cfg config.Config, opts ...Option) *Client {
	httpClient := httputil.NewSecureClient(httputil.DefaultOptions(cfg.APITimeout))
	authenticated := false

	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		authCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(authCtx, ts)
		authenticated = true
	}

	c := &Client{
		gh:            github.NewClient(httpClient),
		apiTimeout:    cfg.APITimeout,
		authenticated: authenticated,
		log:           log.Default(),
	}

	if cfg.APIBaseURL != "" {
		WithBaseURL(cfg.APIBaseURL)(c)
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// LatestRelease fetches the latest published release for repo, given as
// "owner/name".
func (c *Client) LatestRelease(ctx context.Context, repo string) (*Release, error) {
	owner, name, err := parseRepo(repo)
	if err != nil {
		return nil, &APIError{Kind: KindValidation, Repo: repo, Message: "invalid repository", Err: err}
	}

	if c.apiTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.apiTimeout)
		defer cancel()
	}

	rel, resp, err := c.gh.Repositories.GetLatestRelease(ctx, owner, name)
	if err != nil {
		return nil, c.wrapAPIError(repo, resp, err)
	}

	out := &Release{Tag: rel.GetTagName()}
	for _, a := range rel.Assets {
		if a.GetName() == "" {
			continue
		}
		out.Assets = append(out.Assets, Asset{
			Name: a.GetName(),
			URL:  a.GetBrowserDownloadURL(),
			Size: int64(a.GetSize()),
		})
	}

	c.log.Debug("fetched latest release", "repo", repo, "tag", out.Tag, "assets", len(out.Assets))
	return out, nil
}

// Resolve fetches the latest release and selects the asset for the
// ordered candidate list and target prefix.
func (c *Client) Resolve(ctx context.Context, repo string, candidates []string, prefix string) (*Resolved, error) {
	rel, err := c.LatestRelease(ctx, repo)
	if err != nil {
		return nil, err
	}
	return Select(repo, rel, candidates, prefix)
}

// wrapAPIError converts a go-github failure into a classified APIError.
func (c *Client) wrapAPIError(repo string, resp *github.Response, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		msg := fmt.Sprintf("rate limit exhausted (%d/%d), resets at %s",
			rateErr.Rate.Remaining, rateErr.Rate.Limit,
			rateErr.Rate.Reset.Time.Format(time.RFC3339))
		if !c.authenticated {
			msg += "; unauthenticated requests share a small quota"
		}
		return &APIError{Kind: KindRateLimit, Repo: repo, Message: msg, Err: err}
	}

	if resp != nil {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return &APIError{Kind: KindNotFound, Repo: repo, Message: "no published release found", Err: err}
		case http.StatusForbidden, http.StatusTooManyRequests:
			return &APIError{Kind: KindRateLimit, Repo: repo, Message: "request rejected by rate limiting", Err: err}
		}
	}

	return &APIError{Kind: Classify(err), Repo: repo, Message: "failed to fetch latest release", Err: err}
}

// parseRepo splits an "owner/name" identifier.
func parseRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid repo format %q: expected owner/name", repo)
	}

	owner = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])
	if owner == "" || name == "" {
		return "", "", fmt.Errorf("invalid repo format %q: owner and name must not be empty", repo)
	}

	return owner, name, nil
}

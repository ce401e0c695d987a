// Package github implements the thin alert-fetch collaborators: REST
// clients for code scanning, Dependabot and secret scanning that adapt
// GitHub's wire formats into the engine's minimal alert view.
package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/advanced-security/policy-as-code/pkg/jsonutil"
)

// DefaultBaseURL is the api endpoint for github.com.
const DefaultBaseURL = "https://api.github.com"

// defaultPerPage is the maximum page size GitHub allows on list endpoints.
const defaultPerPage = 100

// ErrInvalidRepository is returned when a repository name is not owner/repo.
var ErrInvalidRepository = errors.New("invalid repository name")

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api: %s returned %d: %s", e.URL, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 API response, which the
// feature probes interpret as "not enabled".
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client is a minimal GitHub REST client scoped to one repository.
// Requests are rate limited and authenticated with a token.
type Client struct {
	baseURL string
	token   string
	owner   string
	repo    string

	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a GitHub Enterprise Server instance
// (or a test server).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRateLimit overrides the default requests-per-second budget.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewClient creates a client for an owner/repo repository name.
func NewClient(repository, token string, opts ...Option) (*Client, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRepository, repository)
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		owner:      owner,
		repo:       repo,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		// Stay well under GitHub's secondary rate limits.
		limiter: rate.NewLimiter(rate.Limit(10), 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Repository returns the owner/repo name the client is scoped to.
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// repoPath builds a repository-scoped API path.
func (c *Client) repoPath(suffix string) string {
	return fmt.Sprintf("/repos/%s/%s%s", c.owner, c.repo, suffix)
}

// getJSON performs a rate-limited GET and decodes the JSON body into v.
// A nil v discards the body; callers then only care about the status.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, v)
}

// sendJSON performs a rate-limited write request with a JSON payload.
func (c *Client) sendJSON(ctx context.Context, method, path string, payload, v any) error {
	body, err := jsonutil.Marshal(payload)
	if err != nil {
		return fmt.Errorf("github api: encoding request: %w", err)
	}
	return c.do(ctx, method, path, nil, body, v)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp)
	}
	if v == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return jsonutil.Unmarshal(body, v)
}

// apiError extracts the message field from an error response body.
func (c *Client) apiError(resp *http.Response) error {
	var payload struct {
		Message string `json:"message"`
	}
	if body, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		_ = jsonutil.Unmarshal(body, &payload)
	}
	c.logger.Debug("github api error",
		"url", resp.Request.URL.String(), "status", resp.StatusCode, "message", payload.Message)
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    payload.Message,
		URL:        resp.Request.URL.Path,
	}
}

// listAll walks a paginated list endpoint until a short page, returning
// the materialized result set.
func listAll[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	var out []T
	for page := 1; ; page++ {
		q := url.Values{}
		for key, values := range params {
			q[key] = values
		}
		q.Set("per_page", strconv.Itoa(defaultPerPage))
		q.Set("page", strconv.Itoa(page))

		var batch []T
		if err := c.getJSON(ctx, path, q, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) < defaultPerPage {
			return out, nil
		}
	}
}

// parseTime parses GitHub's RFC3339 timestamps, returning the zero time
// for empty or malformed values so missing data never fails a fetch.
func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

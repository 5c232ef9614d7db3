package basket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mozillians/backend/internal/infrastructure/config"
	"golang.org/x/time/rate"
)

// maxResponseSize bounds how much of a response body is read
const maxResponseSize = 1 << 20

// Client talks to the Basket newsletter API
type Client struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client from config. A positive RateLimit caps
// requests per second across all tasks.
func NewClient(cfg config.BasketConfig) (*Client, error) {
	if cfg.URL == "" || cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/") + "/")
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid url %q", ErrNotConfigured, cfg.URL)
	}

	c := &Client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c, nil
}

// Subscribe subscribes email to newsletters and returns the subscriber token.
// The token is only known when opts.Sync is set.
func (c *Client) Subscribe(ctx context.Context, email string, newsletters []string, opts SubscribeOptions) (string, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("newsletters", strings.Join(newsletters, ","))
	form.Set("sync", yesNo(opts.Sync))
	form.Set("trigger_welcome", yesNo(opts.TriggerWelcome))

	resp, err := c.do(ctx, http.MethodPost, "news/subscribe/", nil, form)
	if err != nil {
		return "", err
	}
	if opts.Sync && resp.Token == "" {
		return "", fmt.Errorf("%w: subscribe returned no token", ErrBasketUnavailable)
	}
	return resp.Token, nil
}

// LookupUserByToken fetches the subscriber record for a token
func (c *Client) LookupUserByToken(ctx context.Context, token string) (*User, error) {
	return c.lookupUser(ctx, url.Values{"token": {token}})
}

// LookupUserByEmail fetches the subscriber record for an address
func (c *Client) LookupUserByEmail(ctx context.Context, email string) (*User, error) {
	return c.lookupUser(ctx, url.Values{"email": {email}})
}

func (c *Client) lookupUser(ctx context.Context, query url.Values) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, "news/lookup-user/", query, nil)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: lookup returned no token", ErrBasketUnavailable)
	}
	return &User{Email: resp.Email, Token: resp.Token, Newsletters: resp.Newsletters}, nil
}

// Unsubscribe removes the token's subscriptions to newsletters. optout
// additionally opts the address out of all mail.
func (c *Client) Unsubscribe(ctx context.Context, token, email string, newsletters []string, optout bool) error {
	form := url.Values{}
	form.Set("email", email)
	form.Set("newsletters", strings.Join(newsletters, ","))
	if optout {
		form.Set("optout", "Y")
	}
	_, err := c.do(ctx, http.MethodPost, "news/unsubscribe/"+url.PathEscape(token)+"/", nil, form)
	return err
}

// Post sends data to a custom endpoint keyed by token (news/<endpoint>/<token>/)
func (c *Client) Post(ctx context.Context, endpoint, token string, data map[string]string) error {
	form := url.Values{}
	for k, v := range data {
		form.Set(k, v)
	}
	path := "news/" + strings.Trim(endpoint, "/") + "/" + url.PathEscape(token) + "/"
	_, err := c.do(ctx, http.MethodPost, path, nil, form)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query, form url.Values) (*envelope, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBasketUnavailable, err)
		}
	}

	u := c.baseURL.JoinPath(path)
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("basket: failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBasketUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrBasketUnavailable, err)
	}

	var env envelope
	jsonErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrBasketUnavailable, resp.StatusCode)
	}
	if jsonErr != nil {
		if resp.StatusCode >= 400 {
			return nil, &APIError{StatusCode: resp.StatusCode, Desc: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("basket: malformed response: %w", jsonErr)
	}
	if resp.StatusCode >= 400 || env.Status == "error" {
		desc := env.Desc
		if desc == "" {
			desc = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Code: env.Code, Desc: desc}
	}
	if env.Status != "ok" {
		return nil, fmt.Errorf("basket: unexpected status %q", env.Status)
	}
	return &env, nil
}

// IsAPIError reports whether err carries a Basket error response
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Connection issues authenticated calls against the DirectAdmin API.
// Implementations must report remote failures as *Error.
type Connection interface {
	Get(ctx context.Context, command string, params url.Values) (*Response, error)
	Post(ctx context.Context, command string, params url.Values) (*Response, error)
	// LoginAs returns a Connection that acts as username using the same credentials.
	LoginAs(username string) (Connection, error)
	// Username is the account the connection acts as.
	Username() string
}

type Client struct {
	baseURL    *url.URL
	username   string
	password   string
	loginAs    string
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *Metrics
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. The client is copied, so
// options applied after it such as WithTimeout leave the caller's client
// untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.httpClient = &cp
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithInsecureSkipVerify disables certificate verification. DirectAdmin ships
// with a self-signed certificate on port 2222 by default.
func WithInsecureSkipVerify() Option {
	return WithTLSConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
}

// WithTLSConfig sets the TLS settings used to reach the panel, typically to
// trust a private CA. An *http.Transport already in place is cloned; any
// other RoundTripper is replaced by a clone of the default transport.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) {
		base, ok := c.httpClient.Transport.(*http.Transport)
		if !ok || base == nil {
			base = http.DefaultTransport.(*http.Transport)
		}
		t := base.Clone()
		t.TLSClientConfig = cfg
		c.httpClient.Transport = t
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client for the DirectAdmin server at baseURL
// (e.g. https://server.example.com:2222).
func NewClient(baseURL, username, password string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse base url: unsupported scheme %q", u.Scheme)
	}
	if username == "" {
		return nil, fmt.Errorf("missing username")
	}

	c := &Client{
		baseURL:  u,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Username() string {
	if c.loginAs != "" {
		return c.loginAs
	}
	return c.username
}

// LoginAs returns a copy of the client that authenticates as "owner|target".
// The copy shares the HTTP client, logger and metrics. Chained calls always
// log in from the original credential owner.
func (c *Client) LoginAs(username string) (Connection, error) {
	if username == "" || strings.Contains(username, "|") {
		return nil, fmt.Errorf("login as %q: invalid username", username)
	}
	cp := *c
	cp.loginAs = username
	cp.logger = c.logger.With().Str("login_as", username).Logger()
	return &cp, nil
}

func (c *Client) Get(ctx context.Context, command string, params url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, command, params)
}

func (c *Client) Post(ctx context.Context, command string, params url.Values) (*Response, error) {
	return c.do(ctx, http.MethodPost, command, params)
}

func (c *Client) authUser() string {
	if c.loginAs != "" {
		return c.username + "|" + c.loginAs
	}
	return c.username
}

func (c *Client) do(ctx context.Context, method, command string, params url.Values) (*Response, error) {
	u := c.baseURL.JoinPath(command)

	var body io.Reader
	encoded := params.Encode()
	if method == http.MethodGet {
		u.RawQuery = encoded
	} else {
		body = strings.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", command, err)
	}
	req.SetBasicAuth(c.authUser(), c.password)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	requestID := uuid.NewString()
	log := c.logger.With().
		Str("request_id", requestID).
		Str("method", method).
		Str("command", command).
		Logger()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(command, method, "error", time.Since(start))
		log.Debug().Err(err).Msg("directadmin request failed")
		return nil, fmt.Errorf("%s %s: %w", method, command, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.metrics.observe(command, method, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", command, err)
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("directadmin request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Command: command,
			Status:  resp.StatusCode,
			Text:    strings.TrimSpace(string(respBody)),
		}
	}
	if strings.EqualFold(resp.Header.Get("X-DirectAdmin"), "unauthorized") {
		return nil, &Error{Command: command, Status: resp.StatusCode, Text: "unauthorized"}
	}

	r, err := ParseResponse(respBody)
	if err != nil {
		return nil, fmt.Errorf("parse %s response: %w", command, err)
	}
	if r.Failed() {
		return nil, &Error{
			Command: command,
			Status:  resp.StatusCode,
			Text:    r.Get("text"),
			Details: r.Get("details"),
		}
	}
	return r, nil
}

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sony/gobreaker/v2"

	apperrors "github.com/foodtuck/storefront/pkg/errors"
	"github.com/foodtuck/storefront/pkg/httpclient"
)

const upstreamName = "catalog"

// Config addresses a Sanity-compatible content store.
type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	UseCDN     bool
	// Token authorizes mutations. Reads of a public dataset work without it.
	Token string
	// BaseURL replaces the project-derived host, for self-hosted stores and tests.
	BaseURL string
}

func (c Config) queryBase() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	if c.UseCDN {
		return fmt.Sprintf("https://%s.apicdn.sanity.io", c.ProjectID)
	}
	return fmt.Sprintf("https://%s.api.sanity.io", c.ProjectID)
}

// Mutations always go to the live API, never the CDN.
func (c Config) mutateBase() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return fmt.Sprintf("https://%s.api.sanity.io", c.ProjectID)
}

// QueryURL returns the GET URL for a GROQ query and its parameters.
func (c Config) QueryURL(query string, params map[string]any) (string, error) {
	v := url.Values{}
	v.Set("query", query)
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("encode query param %s: %w", name, err)
		}
		v.Set("$"+name, string(encoded))
	}
	return fmt.Sprintf("%s/v%s/data/query/%s?%s", c.queryBase(), c.APIVersion, url.PathEscape(c.Dataset), v.Encode()), nil
}

// MutateURL returns the POST URL for a mutation batch.
func (c Config) MutateURL() string {
	return fmt.Sprintf("%s/v%s/data/mutate/%s?returnIds=true", c.mutateBase(), c.APIVersion, url.PathEscape(c.Dataset))
}

// Client talks to the content store through a circuit breaker. When the
// breaker is open, GET queries are answered from the last good response
// for the same URL if one is cached.
type Client struct {
	http   *httpclient.CircuitBreakerClient
	cfg    Config
	logger *slog.Logger
	stale  *expirable.LRU[string, []byte]
}

// NewClient creates a catalog client on top of cb.
func NewClient(cb *httpclient.CircuitBreakerClient, cfg Config, logger *slog.Logger) *Client {
	c := &Client{
		cfg:    cfg,
		logger: logger,
		stale:  newStaleCache(defaultStaleEntries, defaultStaleMaxAge),
	}
	c.http = cb.WithFallback(c.fallback)
	return c
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
}

// Query runs a GROQ query and decodes its result into dst. A null result
// leaves dst untouched and reports apperrors.ErrNotFound.
func (c *Client) Query(ctx context.Context, query string, params map[string]any, dst any) error {
	u, err := c.cfg.QueryURL(query, params)
	if err != nil {
		return apperrors.Internal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("create catalog query request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(withStaleKey(ctx, u), req)
	if err != nil {
		return c.transportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, upstreamName)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperrors.BadGateway(upstreamName, fmt.Errorf("read query response: %w", err))
	}

	var out queryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return apperrors.BadGateway(upstreamName, fmt.Errorf("decode query response: %w", err))
	}
	if len(out.Result) == 0 || string(out.Result) == "null" {
		return apperrors.ErrNotFound
	}
	if err := json.Unmarshal(out.Result, dst); err != nil {
		return apperrors.BadGateway(upstreamName, fmt.Errorf("decode query result: %w", err))
	}

	if resp.Header.Get(staleHeader) == "" {
		c.stale.Add(u, body)
	}
	return nil
}

type mutation struct {
	Create any `json:"create"`
}

type mutateRequest struct {
	Mutations []mutation `json:"mutations"`
}

type mutateResponse struct {
	TransactionID string `json:"transactionId"`
	Results       []struct {
		ID        string `json:"id"`
		Operation string `json:"operation"`
	} `json:"results"`
}

// Create stores a new document and returns the id assigned by the store.
// It is never retried automatically: a repeated call creates a second
// document.
func (c *Client) Create(ctx context.Context, doc any) (string, error) {
	if c.cfg.Token == "" {
		return "", apperrors.ServiceUnavailable("catalog write token is not configured")
	}

	payload, err := json.Marshal(mutateRequest{Mutations: []mutation{{Create: doc}}})
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("marshal create mutation: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.MutateURL(), bytes.NewReader(payload))
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("create catalog mutate request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", c.transportError(err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", httpclient.ParseResponseError(resp, upstreamName)
	}
	defer resp.Body.Close()

	var out mutateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return "", apperrors.BadGateway(upstreamName, fmt.Errorf("decode mutate response: %w", err))
	}
	if len(out.Results) == 0 || out.Results[0].ID == "" {
		return "", apperrors.BadGateway(upstreamName, errors.New("mutate response carried no document id"))
	}

	c.logger.DebugContext(ctx, "catalog document created",
		slog.String("id", out.Results[0].ID),
		slog.String("transaction_id", out.TransactionID),
	)
	return out.Results[0].ID, nil
}

// Ping checks that the store answers a trivial query. An open breaker fails
// the check outright, since a stale answer would hide the outage.
func (c *Client) Ping(ctx context.Context) error {
	if state := c.Breaker(); state == gobreaker.StateOpen.String() {
		return fmt.Errorf("catalog breaker is %s", state)
	}
	var n int
	return c.Query(ctx, "count(*[_type == $p0][0...1])", map[string]any{"p0": "food"}, &n)
}

// Breaker reports the state of the underlying circuit breaker.
func (c *Client) Breaker() string {
	return c.http.State().String()
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
}

func (c *Client) transportError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if mapped, ok := httpclient.FromServerError(err, upstreamName); ok {
		return mapped
	}
	if httpclient.IsCircuitOpen(err) {
		return apperrors.ServiceUnavailable("catalog is temporarily unavailable, please retry shortly")
	}
	return apperrors.BadGateway(upstreamName, err)
}

// fallback runs when the breaker rejects a request.
func (c *Client) fallback(ctx context.Context, err error) (*http.Response, error) {
	if key, ok := staleKeyFrom(ctx); ok {
		if body, ok := c.stale.Get(key); ok {
			c.logger.WarnContext(ctx, "catalog unavailable, serving cached response",
				slog.String("error", err.Error()),
			)
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{staleHeader: []string{"true"}},
				Body:       io.NopCloser(bytes.NewReader(body)),
			}, nil
		}
	}
	return nil, apperrors.ServiceUnavailable("catalog is temporarily unavailable, please retry shortly")
}

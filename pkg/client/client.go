package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/schema"
	"github.com/matst80/slask-catalog/pkg/config"
	"github.com/matst80/slask-catalog/pkg/types"
	"golang.org/x/time/rate"
)

const (
	searchPath  = "/products/search"
	optionsPath = "/filters/options"
)

// HTTPClient is satisfied by *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog api error: status %d, body: %s", e.StatusCode, e.Body)
}

var encoder = schema.NewEncoder()

// Client talks to the remote catalog api. Every endpoint has its own
// rate limiter and 429 responses are retried after the advertised delay.
type Client struct {
	baseURL       string
	httpClient    HTTPClient
	retryAttempts int
	rateLimit     int
	burst         int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(cfg config.APIConfig, httpClient HTTPClient) *Client {
	cfg = cfg.GetDefaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:    httpClient,
		retryAttempts: cfg.RetryAttempts,
		rateLimit:     cfg.RateLimit,
		burst:         cfg.BurstLimit,
		limiters:      make(map[string]*rate.Limiter),
	}
}

func (c *Client) limiter(path string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[path]; ok {
		return l
	}
	// rateLimit is per minute
	l := rate.NewLimiter(rate.Limit(float64(c.rateLimit)/60.0), c.burst)
	c.limiters[path] = l
	return l
}

func retryDelay(resp *http.Response) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if sec, err := strconv.Atoi(s); err == nil && sec >= 0 {
			return time.Duration(sec) * time.Second
		}
	}
	return time.Second
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	limiter := c.limiter(path)

	var lastErr error
	for i := 0; i < c.retryAttempts; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &APIError{StatusCode: resp.StatusCode, Body: string(body)}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay(resp)):
				continue
			}
		}
		if resp.StatusCode != http.StatusOK {
			return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		if err := sonic.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("unmarshal error: %w", err)
		}
		return nil
	}
	return fmt.Errorf("max retries exceeded, last error: %w", lastErr)
}

// Search fetches one page of products.
func (c *Client) Search(ctx context.Context, params types.SearchParams) (*types.SearchResult, error) {
	values := url.Values{}
	if err := encoder.Encode(params, values); err != nil {
		return nil, fmt.Errorf("encode search params: %w", err)
	}
	var result types.SearchResult
	if err := c.get(ctx, searchPath, values, &result); err != nil {
		return nil, err
	}
	if result.Items == nil {
		result.Items = []types.Product{}
	}
	return &result, nil
}

func (c *Client) FilterOptions(ctx context.Context) (*types.FilterOptions, error) {
	var result types.FilterOptions
	if err := c.get(ctx, optionsPath, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

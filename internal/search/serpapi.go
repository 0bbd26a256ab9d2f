// Package search finds job postings on portals through SerpAPI site searches.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	apiURL     = "https://serpapi.com"
	searchPath = "/search.json"
	userAgent  = "spigell/job-agent"
	// Google returns at most this many organic results per page.
	maxPerRequest = 100
)

var ErrBadStatus = errors.New("bad status from search api")

// Result is one organic search result.
type Result struct {
	Title   string `mapstructure:"title"`
	Link    string `mapstructure:"link"`
	Snippet string `mapstructure:"snippet"`
}

// SerpClient runs Google searches through SerpAPI.
type SerpClient struct {
	apiKey     string
	logger     *zap.Logger
	limiter    *rate.Limiter
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// NewSerpClient creates a client. requestsPerSecond <= 0 disables throttling.
func NewSerpClient(apiKey string, timeout time.Duration, requestsPerSecond float64, logger *zap.Logger) *SerpClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return &SerpClient{
		apiKey:     strings.TrimSpace(apiKey),
		logger:     logger,
		limiter:    limiter,
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
		APIURL:     apiURL,
	}
}

// Configured reports whether an API key is set.
func (c *SerpClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// SiteSearch returns up to num organic results for query restricted to domain.
// Without an API key it returns no results.
func (c *SerpClient) SiteSearch(ctx context.Context, domain, query string, num int) ([]Result, error) {
	if !c.Configured() {
		c.logger.Warn("skipping search", zap.String("reason", "serpapi key is not configured"), zap.String("domain", domain))
		return nil, nil
	}
	if num <= 0 {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("engine", "google")
	q.Set("q", strings.TrimSpace(fmt.Sprintf("site:%s %s", domain, query)))
	q.Set("num", strconv.Itoa(min(num, maxPerRequest)))
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+searchPath, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("make request", zap.String("domain", domain), zap.String("q", q.Get("q")), zap.Int("num", num))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	var payload struct {
		OrganicResults []map[string]any `json:"organic_results"`
		Error          string           `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if payload.Error != "" && len(payload.OrganicResults) == 0 {
		c.logger.Debug("search api returned no results", zap.String("message", payload.Error))
		return nil, nil
	}

	var results []Result
	cfg := &mapstructure.DecoderConfig{
		Result:           &results,
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(payload.OrganicResults); err != nil {
		return nil, fmt.Errorf("decode organic results: %w", err)
	}

	if len(results) > num {
		results = results[:num]
	}
	return results, nil
}

// Package contacts looks up recruiter contact details for a company.
package contacts

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

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	apiURL          = "https://api.rocketreach.co"
	lookupPath      = "/v2/api/lookupProfile"
	userAgent       = "spigell/job-agent"
	DefaultRoleHint = "recruiter"
)

var (
	// ErrNotFound means the lookup succeeded but no matching person exists.
	ErrNotFound = errors.New("contact not found")
	// ErrUnavailable means the lookup could not be performed.
	ErrUnavailable = errors.New("contact lookup unavailable")
)

// Contact is a person to address an application to.
type Contact struct {
	Name     string `json:"name,omitempty" mapstructure:"name"`
	Email    string `json:"email,omitempty" mapstructure:"email"`
	LinkedIn string `json:"linkedin,omitempty" mapstructure:"linkedin_url"`
	Company  string `json:"company,omitempty" mapstructure:"current_employer"`
	Title    string `json:"title,omitempty" mapstructure:"current_title"`
}

type Finder interface {
	Lookup(ctx context.Context, company, roleHint string) (*Contact, error)
}

// Client queries the RocketReach profile lookup API.
type Client struct {
	apiKey     string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey: strings.TrimSpace(apiKey),
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		UserAgent: userAgent,
		APIURL:    apiURL,
	}
}

// Lookup finds a person with roleHint as current title at company.
func (c *Client) Lookup(ctx context.Context, company, roleHint string) (*Contact, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, fmt.Errorf("%w: company is required", ErrNotFound)
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: rocketreach api key is not configured", ErrUnavailable)
	}

	roleHint = strings.TrimSpace(roleHint)
	if roleHint == "" {
		roleHint = DefaultRoleHint
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("company", company)
	q.Set("current_title", roleHint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+lookupPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("rocketreach lookup", zap.String("company", company), zap.String("role_hint", roleHint))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: bad status: %s", ErrUnavailable, resp.Status)
	}

	var raw map[string]any
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
		}
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	contact, err := decodeContact(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if contact.Company == "" {
		contact.Company = company
	}
	if contact.Name == "" && contact.Email == "" && contact.LinkedIn == "" {
		return nil, ErrNotFound
	}

	return contact, nil
}

func decodeContact(raw map[string]any) (*Contact, error) {
	contact := &Contact{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           contact,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}

	// Emails arrive either as a plain string or as a list of {email} objects.
	if emails, ok := raw["emails"].([]any); ok && raw["email"] == nil {
		for _, item := range emails {
			if m, ok := item.(map[string]any); ok {
				if email, ok := m["email"].(string); ok && email != "" {
					raw["email"] = email
					break
				}
			}
		}
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode contact: %w", err)
	}
	return contact, nil
}

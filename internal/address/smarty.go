package address

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/intakehq/voice-intake/pkg/logging"
)

// SmartyConfig holds credentials for the SmartyStreets US street API.
type SmartyConfig struct {
	AuthID    string
	AuthToken string
	BaseURL   string
}

// SmartyClient verifies addresses against the SmartyStreets US street
// address API.
type SmartyClient struct {
	cfg        SmartyConfig
	httpClient *http.Client
	logger     *logging.Logger
}

// NewSmartyClient creates a verifier backed by SmartyStreets.
// Returns nil when credentials are not configured.
func NewSmartyClient(cfg SmartyConfig, logger *logging.Logger) *SmartyClient {
	if cfg.AuthID == "" || cfg.AuthToken == "" {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://us-street.api.smartystreets.com"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SmartyClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// smartyCandidate mirrors the fields we use from the API response.
type smartyCandidate struct {
	Components struct {
		PrimaryNumber      string `json:"primary_number"`
		StreetPredirection string `json:"street_predirection"`
		StreetName         string `json:"street_name"`
		StreetSuffix       string `json:"street_suffix"`
		CityName           string `json:"city_name"`
		StateAbbreviation  string `json:"state_abbreviation"`
		Zipcode            string `json:"zipcode"`
	} `json:"components"`
}

// Verify looks up the address. A nil result with nil error means the
// API found no matching address.
func (c *SmartyClient) Verify(ctx context.Context, street, city, state, zip string) (*Verified, error) {
	params := url.Values{}
	params.Set("auth-id", c.cfg.AuthID)
	params.Set("auth-token", c.cfg.AuthToken)
	params.Set("street", street)
	params.Set("city", city)
	params.Set("state", state)
	if zip != "" {
		params.Set("zipcode", zip)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/street-address?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("address: build smarty request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("address: smarty request failed: %w", err)
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("address: smarty returned status %d", resp.StatusCode)
	}

	var candidates []smartyCandidate
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return nil, fmt.Errorf("address: decode smarty response: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	comp := candidates[0].Components
	streetLine := strings.Join(nonEmpty(
		comp.PrimaryNumber,
		comp.StreetPredirection,
		comp.StreetName,
		comp.StreetSuffix,
	), " ")
	return &Verified{
		Street: streetLine,
		City:   comp.CityName,
		State:  comp.StateAbbreviation,
		Zip:    comp.Zipcode,
	}, nil
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var _ Verifier = (*SmartyClient)(nil)

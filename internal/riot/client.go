package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Status     string
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("riot api %s: status %d %s", e.Path, e.StatusCode, e.Status)
}

// StatusText returns a human-readable cause for err, or "" when the upstream gave none.
func StatusText(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return ""
}

type Config struct {
	APIKey string
	// PlatformURL serves league endpoints, e.g. https://euw1.api.riotgames.com
	PlatformURL string
	// RegionURL serves match endpoints, e.g. https://europe.api.riotgames.com
	RegionURL string
	Timeout   time.Duration
}

func PlatformURL(platform string) string {
	return "https://" + platform + ".api.riotgames.com"
}

func RegionURL(region string) string {
	return "https://" + region + ".api.riotgames.com"
}

type Client struct {
	config     Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) LeagueEntries(ctx context.Context, puuid string) ([]LeagueEntry, error) {
	var out []LeagueEntry
	path := "/tft/league/v1/by-puuid/" + url.PathEscape(puuid)
	if err := c.apiGet(ctx, c.config.PlatformURL, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MatchIDs(ctx context.Context, puuid string, start, count int) ([]string, error) {
	var out []string
	path := "/tft/match/v1/matches/by-puuid/" + url.PathEscape(puuid) + "/ids"
	query := url.Values{
		"start": {strconv.Itoa(start)},
		"count": {strconv.Itoa(count)},
	}
	if err := c.apiGet(ctx, c.config.RegionURL, path, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Match(ctx context.Context, matchID string) (*Match, error) {
	var out Match
	path := "/tft/match/v1/matches/" + url.PathEscape(matchID)
	if err := c.apiGet(ctx, c.config.RegionURL, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) apiGet(ctx context.Context, base, path string, query url.Values, out interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.config.APIKey)
	target := strings.TrimRight(base, "/") + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the url carries the api key, keep it out of the error text
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return fmt.Errorf("riot api %s: %w", path, urlErr.Err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Path:       path,
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

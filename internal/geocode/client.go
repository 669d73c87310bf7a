package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"photo-share/internal/logging"
)

// DefaultURL is the public Nominatim instance.
const DefaultURL = "https://nominatim.openstreetmap.org"

// ClientConfig configures the reverse geocoding client.
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RatePerSecond limits outbound requests. Zero or negative disables limiting.
	RatePerSecond float64
}

// Client performs reverse lookups against a Nominatim compatible API.
type Client struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return &Client{
		baseURL:   base,
		userAgent: cfg.UserAgent,
		timeout:   timeout,
		http:      &http.Client{},
		limiter:   limiter,
	}
}

type reverseResponse struct {
	Error   string            `json:"error"`
	Address map[string]string `json:"address"`
}

// Address keys in order of preference for the fine and coarse halves of a place name.
var (
	fineKeys = [][]string{
		{"city_district", "district", "suburb"},
		{"locality", "neighbourhood", "quarter", "hamlet"},
		{"postcode"},
	}
	coarseKeys = [][]string{
		{"city", "town", "village", "municipality"},
		{"state", "province", "region"},
		{"country"},
	}
)

// Resolve implements Resolver. Every failure, timeouts included, is a GeocodeError.
func (c *Client) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	if !ValidCoordinates(lat, lon) {
		return "", geocodeError("invalid coordinates %v,%v", lat, lon)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", geocodeError("rate limit wait: %w", err)
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("zoom", "14")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", geocodeError("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", geocodeError("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", geocodeError("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", geocodeError("status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed reverseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", geocodeError("decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", geocodeError("lookup: %s", parsed.Error)
	}

	place := FormatPlace(parsed.Address)
	if place == "" {
		return "", geocodeError("no usable address fields for %.5f,%.5f", lat, lon)
	}
	logging.Debug("Geocoded %.5f,%.5f to %q in %v", lat, lon, place, time.Since(start))
	return place, nil
}

// FormatPlace joins the first available fine-grained field (district, locality, postcode)
// with the first available coarse field (city, state, country).
func FormatPlace(address map[string]string) string {
	fine := firstOf(address, fineKeys)
	coarse := firstOf(address, coarseKeys)
	switch {
	case fine != "" && coarse != "":
		return fine + ", " + coarse
	case fine != "":
		return fine
	default:
		return coarse
	}
}

func firstOf(address map[string]string, groups [][]string) string {
	for _, group := range groups {
		for _, key := range group {
			if v := strings.TrimSpace(address[key]); v != "" {
				return v
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}

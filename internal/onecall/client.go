package onecall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vzahanych/weather-snapshot/internal/config"
	"github.com/vzahanych/weather-snapshot/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	onecallPath = "/data/3.0/onecall"
	excluded    = "minutely,alerts"
)

var (
	ErrAPIKeyMissing    = errors.New("API key missing")
	ErrUnexpectedStatus = errors.New("unexpected provider status")
	ErrRateLimited      = errors.New("rate limit wait canceled")
)

// Client calls the OpenWeatherMap one-call endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	tele       *telemetry.Telemetry
}

func NewClient(cfg config.WeatherConfig, logger *zap.Logger, tele *telemetry.Telemetry, httpClient ...*http.Client) *Client {
	client := &http.Client{Timeout: cfg.TimeoutDuration()}
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
		tele:       tele,
	}
}

func (c *Client) Name() string {
	return "openweathermap"
}

func (c *Client) FetchOneCall(ctx context.Context, coords Coordinates) (*Response, error) {
	ctx, span := c.tele.StartSpan(ctx, "onecall.FetchOneCall",
		attribute.Float64("lat", coords.Lat),
		attribute.Float64("lon", coords.Lon),
	)
	defer span.End()

	if c.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(coords), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build one-call request: %w", err)
	}

	c.logger.Debug("Requesting one-call data",
		zap.String("provider", c.Name()),
		zap.Float64("lat", coords.Lat),
		zap.Float64("lon", coords.Lon))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = redactURLError(err)
		c.tele.RecordError(ctx, err, map[string]interface{}{"provider": c.Name()})
		return nil, fmt.Errorf("one-call request failed: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("One-call request rejected",
			zap.String("provider", c.Name()),
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var data Response
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode one-call response: %w", err)
	}

	return &data, nil
}

func (c *Client) requestURL(coords Coordinates) string {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	q.Set("exclude", excluded)
	q.Set("appid", c.apiKey)

	return c.baseURL + onecallPath + "?" + q.Encode()
}

// redactURLError strips the query string from transport errors so the
// key never reaches logs or callers.
func redactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	if u, perr := url.Parse(urlErr.URL); perr == nil {
		u.RawQuery = ""
		urlErr.URL = u.String()
	}
	return err
}

var _ Provider = (*Client)(nil)

// Package weather fetches hourly forecasts from the weather.gov API.
//
// A forecast is a two-hop lookup: /points/{lat},{long} yields the URL of the
// hourly forecast for that grid cell, which is then fetched and reduced to a
// Series of temperature and wind-speed values.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
)

// DefaultBaseURL is the public weather.gov API root.
const DefaultBaseURL = "https://api.weather.gov"

// DefaultTimeout bounds one Forecast call, both hops included.
const DefaultTimeout = 10 * time.Second

// Client fetches forecasts. It holds no per-call state and is safe for
// concurrent use.
type Client struct {
	hc        *http.Client
	http      *resty.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
	baseURL   string
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithUserAgent sets the User-Agent header. weather.gov rejects requests
// without one.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTimeout bounds each Forecast call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for breaker state changes.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client rooted at baseURL (DefaultBaseURL if empty).
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		hc:        &http.Client{},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "freeze-guard/1.0",
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = resty.NewWithClient(c.hc).
		SetHeader("Accept", "application/geo+json").
		SetHeader("User-Agent", c.userAgent)

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "weather",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("weather: circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// Forecast returns the hourly forecast for the coordinate.
//
// A points response without a forecast locator is a *SchemaError and no
// second request is made. Transport failures are *NetworkError. Partial
// results are never returned.
func (c *Client) Forecast(ctx context.Context, lat, long float64) (Series, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	forecastURL, err := c.forecastLocator(ctx, lat, long)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, forecastURL)
	if err != nil {
		return nil, err
	}
	return parseForecast(body)
}

// pointsResponse is the subset of /points used here.
type pointsResponse struct {
	Properties *struct {
		ForecastHourly string `json:"forecastHourly"`
	} `json:"properties"`
}

func (c *Client) forecastLocator(ctx context.Context, lat, long float64) (string, error) {
	url := fmt.Sprintf("%s/points/%s,%s", c.baseURL, formatCoord(lat), formatCoord(long))
	body, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}

	var pr pointsResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return "", &SchemaError{Stage: "points", Reason: "invalid JSON", Err: err}
	}
	if pr.Properties == nil {
		return "", &SchemaError{Stage: "points", Reason: "missing properties"}
	}
	if pr.Properties.ForecastHourly == "" {
		return "", &SchemaError{Stage: "points", Reason: "missing forecast locator"}
	}
	return pr.Properties.ForecastHourly, nil
}

// get performs one GET through the circuit breaker. 5xx and 429 responses
// count as failures; other statuses hand the body to the caller so that a
// provider error document surfaces as a schema problem.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		resp, err := c.http.R().SetContext(ctx).Get(url)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= 500 || resp.StatusCode() == http.StatusTooManyRequests {
			return nil, fmt.Errorf("unexpected status %s", resp.Status())
		}
		return resp.Body(), nil
	})
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	return body, nil
}

type forecastResponse struct {
	Properties *struct {
		Periods []periodJSON `json:"periods"`
	} `json:"properties"`
}

type periodJSON struct {
	Number          int      `json:"number"`
	Temperature     *float64 `json:"temperature"`
	TemperatureUnit string   `json:"temperatureUnit"`
	WindSpeed       *string  `json:"windSpeed"`
}

func parseForecast(body []byte) (Series, error) {
	var fr forecastResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return nil, &SchemaError{Stage: "forecast", Reason: "invalid JSON", Err: err}
	}
	if fr.Properties == nil {
		return nil, &SchemaError{Stage: "forecast", Reason: "missing properties"}
	}
	periods := fr.Properties.Periods
	if len(periods) == 0 {
		return nil, &SchemaError{Stage: "forecast", Reason: "no forecast periods"}
	}

	numbered := true
	for _, p := range periods {
		if p.Number <= 0 {
			numbered = false
			break
		}
	}
	if numbered {
		sort.SliceStable(periods, func(i, j int) bool { return periods[i].Number < periods[j].Number })
	}

	series := make(Series, 0, len(periods))
	for i, p := range periods {
		if p.Temperature == nil {
			return nil, &SchemaError{Stage: "forecast", Reason: fmt.Sprintf("period %d: missing temperature", i)}
		}
		temp := *p.Temperature
		switch strings.ToUpper(p.TemperatureUnit) {
		case "", "F":
		case "C":
			temp = temp*9/5 + 32
		default:
			return nil, &SchemaError{Stage: "forecast", Reason: fmt.Sprintf("period %d: unknown temperature unit %q", i, p.TemperatureUnit)}
		}

		if p.WindSpeed == nil {
			return nil, &SchemaError{Stage: "forecast", Reason: fmt.Sprintf("period %d: missing windSpeed", i)}
		}
		wind, err := ParseWindSpeed(*p.WindSpeed)
		if err != nil {
			return nil, &SchemaError{Stage: "forecast", Reason: fmt.Sprintf("period %d: bad windSpeed", i), Err: err}
		}

		series = append(series, Period{Temperature: temp, WindSpeed: wind})
	}
	return series, nil
}

var errNoLeadingInt = errors.New("no leading integer")

// ParseWindSpeed extracts the leading integer of a provider wind string such
// as "10 mph" or "5 to 10 mph" and returns it in mph. Values given in km/h
// are converted.
func ParseWindSpeed(s string) (float64, error) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("%q: %w", s, errNoLeadingInt)
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, err)
	}

	v := float64(n)
	if strings.Contains(strings.ToLower(s[end:]), "km/h") {
		v = v / 1.609344
	}
	return v, nil
}

// formatCoord renders a coordinate with at most four decimals, the
// precision weather.gov accepts without redirecting.
func formatCoord(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}

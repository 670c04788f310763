package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// provider is a fake weather.gov serving a points document and a forecast.
type provider struct {
	pointsBody   string
	forecastBody string
	pointsHits   atomic.Int32
	forecastHits atomic.Int32
	lastPath     atomic.Value
	lastUA       atomic.Value
}

func (p *provider) start(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/points/", func(w http.ResponseWriter, r *http.Request) {
		p.pointsHits.Add(1)
		p.lastPath.Store(r.URL.Path)
		p.lastUA.Store(r.Header.Get("User-Agent"))
		body := p.pointsBody
		if body == "" {
			body = fmt.Sprintf(`{"properties":{"forecastHourly":"%s/gridpoints/BOX/71,90/forecast/hourly"}}`, srv.URL)
		}
		w.Header().Set("Content-Type", "application/geo+json")
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("/gridpoints/", func(w http.ResponseWriter, r *http.Request) {
		p.forecastHits.Add(1)
		w.Header().Set("Content-Type", "application/geo+json")
		fmt.Fprint(w, p.forecastBody)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

const hourlyBody = `{"properties":{"periods":[
	{"number":1,"temperature":25,"temperatureUnit":"F","windSpeed":"10 mph"},
	{"number":2,"temperature":24,"temperatureUnit":"F","windSpeed":"5 to 10 mph"},
	{"number":3,"temperature":22,"temperatureUnit":"F","windSpeed":"0 mph"}
]}}`

func TestForecastTwoHop(t *testing.T) {
	p := &provider{forecastBody: hourlyBody}
	srv := p.start(t)
	c := NewClient(srv.URL, WithUserAgent("test-agent"))

	series, err := c.Forecast(context.Background(), 42.36, -71.09)
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, []float64{25, 24, 22}, series.Temperatures())
	assert.Equal(t, []float64{10, 5, 0}, series.WindSpeeds())

	cur, ok := series.Current()
	require.True(t, ok)
	assert.Equal(t, Period{Temperature: 25, WindSpeed: 10}, cur)

	assert.Equal(t, "/points/42.36,-71.09", p.lastPath.Load())
	assert.Equal(t, "test-agent", p.lastUA.Load())
	assert.EqualValues(t, 1, p.pointsHits.Load())
	assert.EqualValues(t, 1, p.forecastHits.Load())
}

func TestForecastMissingLocatorNoSecondRequest(t *testing.T) {
	p := &provider{
		pointsBody:   `{"properties":{"forecast":"somewhere"}}`,
		forecastBody: hourlyBody,
	}
	srv := p.start(t)
	c := NewClient(srv.URL)

	_, err := c.Forecast(context.Background(), 42.36, -71.09)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchema)
	assert.NotErrorIs(t, err, ErrNetwork)

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "points", se.Stage)
	assert.Contains(t, se.Error(), "missing forecast locator")
	assert.EqualValues(t, 0, p.forecastHits.Load())
}

func TestForecastProviderErrorDocumentIsSchemaError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/points/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"title":"Data Unavailable For Requested Point","status":404}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := NewClient(srv.URL).Forecast(context.Background(), 51.5, -0.12)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestForecastMalformedPeriods(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"properties":`},
		{"missing properties", `{}`},
		{"no periods", `{"properties":{"periods":[]}}`},
		{"missing temperature", `{"properties":{"periods":[{"number":1,"windSpeed":"3 mph"}]}}`},
		{"missing wind", `{"properties":{"periods":[{"number":1,"temperature":20}]}}`},
		{"bad wind", `{"properties":{"periods":[{"number":1,"temperature":20,"windSpeed":"calm"}]}}`},
		{"bad unit", `{"properties":{"periods":[{"number":1,"temperature":20,"temperatureUnit":"K","windSpeed":"3 mph"}]}}`},
		{"one bad of many", `{"properties":{"periods":[
			{"number":1,"temperature":20,"windSpeed":"3 mph"},
			{"number":2,"temperature":"cold","windSpeed":"3 mph"}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &provider{forecastBody: tt.body}
			srv := p.start(t)

			series, err := NewClient(srv.URL).Forecast(context.Background(), 40, -100)
			assert.Nil(t, series)
			assert.ErrorIs(t, err, ErrSchema)
		})
	}
}

func TestForecastOrdersByPeriodNumber(t *testing.T) {
	p := &provider{forecastBody: `{"properties":{"periods":[
		{"number":2,"temperature":30,"windSpeed":"4 mph"},
		{"number":1,"temperature":28,"windSpeed":"6 mph"}]}}`}
	srv := p.start(t)

	series, err := NewClient(srv.URL).Forecast(context.Background(), 40, -100)
	require.NoError(t, err)
	assert.Equal(t, Series{{Temperature: 28, WindSpeed: 6}, {Temperature: 30, WindSpeed: 4}}, series)
}

func TestForecastCelsiusConverted(t *testing.T) {
	p := &provider{forecastBody: `{"properties":{"periods":[
		{"number":1,"temperature":-5,"temperatureUnit":"C","windSpeed":"16 km/h"}]}}`}
	srv := p.start(t)

	series, err := NewClient(srv.URL).Forecast(context.Background(), 40, -100)
	require.NoError(t, err)
	assert.InDelta(t, 23.0, series[0].Temperature, 1e-9)
	assert.InDelta(t, 9.94, series[0].WindSpeed, 0.01)
}

func TestForecastServerErrorIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Forecast(context.Background(), 40, -100)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrSchema)
}

func TestForecastTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := c.Forecast(context.Background(), 40, -100)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestForecastConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Forecast(context.Background(), 40, -100)
	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Contains(t, ne.URL, "/points/40,-100")
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	for i := 0; i < 8; i++ {
		_, err := c.Forecast(context.Background(), 40, -100)
		assert.ErrorIs(t, err, ErrNetwork)
	}
	assert.EqualValues(t, 5, hits.Load(), "breaker should stop calling the provider once open")
}

func TestParseWindSpeed(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"10 mph", 10, false},
		{"0 mph", 0, false},
		{"5 to 10 mph", 5, false},
		{" 12 mph ", 12, false},
		{"7", 7, false},
		{"15mph", 15, false},
		{"mph", 0, true},
		{"", 0, true},
		{"-3 mph", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseWindSpeed(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		if assert.NoError(t, err, "input %q", tt.in) {
			assert.Equal(t, tt.want, got, "input %q", tt.in)
		}
	}
}

func TestFormatCoord(t *testing.T) {
	assert.Equal(t, "42.36", formatCoord(42.36))
	assert.Equal(t, "-71.0942", formatCoord(-71.094213))
	assert.Equal(t, "40", formatCoord(40))
}

func TestSeriesCurrentEmpty(t *testing.T) {
	_, ok := Series(nil).Current()
	assert.False(t, ok)
}

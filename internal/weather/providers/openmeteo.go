package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/zenith-desktop/zenith/internal/common"
	"github.com/zenith-desktop/zenith/internal/weather"
)

// DefaultOpenMeteoURL is the public forecast endpoint.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

var (
	hourlyVariables  = []string{"temperature_2m", "precipitation", "wind_speed_10m"}
	currentVariables = []string{"temperature_2m", "relative_humidity_2m", "weather_code"}
)

// Open-Meteo reports current time as ISO8601 without seconds, in GMT.
const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoClient fetches current conditions from Open-Meteo. The HTTP client
// it is given is expected to carry the response cache as its transport.
type OpenMeteoClient struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

var _ weather.Fetcher = (*OpenMeteoClient)(nil)

func NewOpenMeteoClient(client *http.Client, baseURL string, backoff BackoffConfig, logger *slog.Logger) *OpenMeteoClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoClient{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
			Logger:  logger,
		},
		circuit: newCircuitBreaker("openmeteo"),
		logger:  logger,
	}
}

func (p *OpenMeteoClient) Name() string {
	return p.name
}

// RequestURL builds the forecast request for coords. Coordinates are rounded
// to four decimals so repeated runs from the same place share a cache key.
func (p *OpenMeteoClient) RequestURL(coords weather.Coordinates) string {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', 4, 64))
	values.Set("hourly", strings.Join(hourlyVariables, ","))
	values.Set("current", strings.Join(currentVariables, ","))
	return fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
}

// FetchCurrent retrieves temperature and relative humidity at 2 m and the
// weather code for coords.
func (p *OpenMeteoClient) FetchCurrent(ctx context.Context, coords weather.Coordinates) (weather.Sample, error) {
	u := p.RequestURL(coords)
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Sample{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return weather.Sample{}, fmt.Errorf("%w: read forecast body: %v", common.ErrNetwork, err)
	}

	return parseCurrent(body)
}

// Variable is one measurement from the "current" block. Names such as
// temperature_2m carry their altitude; weather_code has none.
type Variable struct {
	Kind        string
	Altitude    int
	HasAltitude bool
	Value       float64
}

type variableKey struct {
	kind     string
	altitude int
}

// Variables indexes current measurements by kind and altitude.
type Variables map[variableKey]Variable

var altitudeSuffix = regexp.MustCompile(`^([a-z][a-z0-9_]*?)_(\d+)m$`)

// parseVariableName splits "relative_humidity_2m" into ("relative_humidity", 2, true).
func parseVariableName(name string) (kind string, altitude int, ok bool) {
	m := altitudeSuffix.FindStringSubmatch(name)
	if m == nil {
		return name, 0, false
	}
	alt, err := strconv.Atoi(m[2])
	if err != nil {
		return name, 0, false
	}
	return m[1], alt, true
}

// Lookup returns the variable of kind at altitude metres.
func (v Variables) Lookup(kind string, altitude int) (Variable, error) {
	if got, ok := v[variableKey{kind: kind, altitude: altitude}]; ok && got.HasAltitude {
		return got, nil
	}
	return Variable{}, fmt.Errorf("%w: current %s at %dm not in response", common.ErrExtraction, kind, altitude)
}

// LookupKind returns an altitude-independent variable.
func (v Variables) LookupKind(kind string) (Variable, error) {
	if got, ok := v[variableKey{kind: kind}]; ok && !got.HasAltitude {
		return got, nil
	}
	return Variable{}, fmt.Errorf("%w: current %s not in response", common.ErrExtraction, kind)
}

type forecastPayload struct {
	Current map[string]json.RawMessage `json:"current"`
}

func parseCurrent(body []byte) (weather.Sample, error) {
	var payload forecastPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Sample{}, fmt.Errorf("%w: decode forecast: %v", common.ErrParse, err)
	}
	if payload.Current == nil {
		return weather.Sample{}, fmt.Errorf("%w: response has no current block", common.ErrExtraction)
	}

	vars, observedAt, err := indexCurrent(payload.Current)
	if err != nil {
		return weather.Sample{}, err
	}

	temperature, err := vars.Lookup("temperature", 2)
	if err != nil {
		return weather.Sample{}, err
	}
	humidity, err := vars.Lookup("relative_humidity", 2)
	if err != nil {
		return weather.Sample{}, err
	}
	code, err := vars.LookupKind("weather_code")
	if err != nil {
		return weather.Sample{}, err
	}

	return weather.Sample{
		TemperatureC:        temperature.Value,
		RelativeHumidityPct: humidity.Value,
		WeatherCode:         int(code.Value),
		ObservedAt:          observedAt,
	}, nil
}

func indexCurrent(current map[string]json.RawMessage) (Variables, time.Time, error) {
	vars := make(Variables, len(current))
	var observedAt time.Time

	for name, raw := range current {
		switch name {
		case "time":
			var ts string
			if err := json.Unmarshal(raw, &ts); err != nil {
				return nil, time.Time{}, fmt.Errorf("%w: current.time: %v", common.ErrParse, err)
			}
			parsed, err := time.ParseInLocation(openMeteoTimeLayout, ts, time.UTC)
			if err != nil {
				return nil, time.Time{}, fmt.Errorf("%w: current.time %q: %v", common.ErrParse, ts, err)
			}
			observedAt = parsed
			continue
		case "interval":
			continue
		}

		// Null means the variable was requested but has no value; treat it as absent.
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		var value float64
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, time.Time{}, fmt.Errorf("%w: current.%s: %v", common.ErrParse, name, err)
		}

		kind, altitude, hasAltitude := parseVariableName(name)
		vars[variableKey{kind: kind, altitude: altitude}] = Variable{
			Kind:        kind,
			Altitude:    altitude,
			HasAltitude: hasAltitude,
			Value:       value,
		}
	}

	if observedAt.IsZero() {
		observedAt = time.Now().UTC().Truncate(time.Minute)
	}
	return vars, observedAt, nil
}

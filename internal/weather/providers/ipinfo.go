package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/zenith-desktop/zenith/internal/common"
	"github.com/zenith-desktop/zenith/internal/weather"
)

const (
	DefaultIPServiceURL  = "https://api.ipify.org"
	DefaultGeoServiceURL = "https://ipinfo.io"
)

var validate = validator.New()

// GeoResolver finds the caller's public IP and geolocates it.
type GeoResolver struct {
	client *http.Client
	ipURL  string
	geoURL string
	logger *slog.Logger
}

var _ weather.Locator = (*GeoResolver)(nil)

func NewGeoResolver(client *http.Client, ipURL, geoURL string, logger *slog.Logger) *GeoResolver {
	if strings.TrimSpace(ipURL) == "" {
		ipURL = DefaultIPServiceURL
	}
	if strings.TrimSpace(geoURL) == "" {
		geoURL = DefaultGeoServiceURL
	}
	return &GeoResolver{
		client: client,
		ipURL:  ipURL,
		geoURL: strings.TrimRight(geoURL, "/"),
		logger: logger,
	}
}

// PublicIP returns the caller's public address, or "" after logging the
// failure. Callers find out at the coordinates step.
func (g *GeoResolver) PublicIP(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.ipURL, nil)
	if err != nil {
		g.logger.Error("Failed to fetch IP address", "error", err)
		return ""
	}
	resp, err := doRequest(g.client, req)
	if err != nil {
		g.logger.Error("Failed to fetch IP address", "error", err)
		return ""
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		g.logger.Error("Failed to fetch IP address", "error", err)
		return ""
	}
	return strings.TrimSpace(string(body))
}

// Coordinates geolocates ip through the "loc" field ("lat,lon") of the
// geolocation service.
func (g *GeoResolver) Coordinates(ctx context.Context, ip string) (weather.Coordinates, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return weather.Coordinates{}, fmt.Errorf("%w: public address unknown, cannot geolocate", common.ErrNetwork)
	}

	u := fmt.Sprintf("%s/%s/json", g.geoURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return weather.Coordinates{}, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := doRequest(g.client, req)
	if err != nil {
		return weather.Coordinates{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Loc string `json:"loc"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Coordinates{}, fmt.Errorf("%w: decode geolocation: %v", common.ErrParse, err)
	}

	return ParseLoc(payload.Loc)
}

// ParseLoc parses "lat,lon". Anything other than exactly two numeric tokens
// within coordinate ranges is a parse error.
func ParseLoc(loc string) (weather.Coordinates, error) {
	parts := strings.Split(loc, ",")
	if len(parts) != 2 {
		return weather.Coordinates{}, fmt.Errorf("%w: loc %q is not \"lat,lon\"", common.ErrParse, loc)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return weather.Coordinates{}, fmt.Errorf("%w: latitude %q: %v", common.ErrParse, parts[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return weather.Coordinates{}, fmt.Errorf("%w: longitude %q: %v", common.ErrParse, parts[1], err)
	}

	coords := weather.Coordinates{Latitude: lat, Longitude: lon}
	if err := validate.Struct(coords); err != nil {
		return weather.Coordinates{}, fmt.Errorf("%w: loc %q out of range: %v", common.ErrParse, loc, err)
	}
	return coords, nil
}

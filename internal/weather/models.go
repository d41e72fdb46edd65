package weather

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Category represents a normalized high-level weather condition that selects
// a wallpaper.
type Category string

const (
	CategoryUnknown Category = "unknown"
	CategoryClear   Category = "clear"
	CategoryCloudy  Category = "cloudy"
	CategoryRain    Category = "rain"
	CategorySnow    Category = "snow"
)

// Categories lists every category that must have a background.
var Categories = []Category{CategoryClear, CategoryCloudy, CategoryRain, CategorySnow}

// Coordinates is a location derived from IP geolocation. Never persisted.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Sample is the current-conditions view of a single weather fetch.
type Sample struct {
	TemperatureC        float64   `json:"temperatureC"`
	RelativeHumidityPct float64   `json:"relativeHumidityPct"`
	WeatherCode         int       `json:"weatherCode"`
	ObservedAt          time.Time `json:"observedAt"` // always UTC
}

// Background is a catalog entry: where the wallpaper lives locally and where
// to download it from when it is missing. It is stored on disk as a two
// element JSON array [localPath, remoteUrl].
type Background struct {
	LocalPath string
	RemoteURL string
}

func (b Background) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{b.LocalPath, b.RemoteURL})
}

func (b *Background) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("background entry must be [localPath, remoteUrl]: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("background entry must have 2 elements, got %d", len(pair))
	}
	b.LocalPath = pair[0]
	b.RemoteURL = pair[1]
	return nil
}

// AbsPath resolves LocalPath: "~" expands to the home directory and relative
// paths are anchored at baseDir.
func (b Background) AbsPath(baseDir string) (string, error) {
	p := strings.TrimSpace(b.LocalPath)
	if p == "" {
		return "", fmt.Errorf("background path is empty")
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	} else if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	return filepath.Abs(p)
}

// ConfigVersion is the schema version written by this build.
const ConfigVersion = 1

// DefaultInterval is the refresh interval, in seconds, used when none is
// configured and when a legacy record is migrated.
const DefaultInterval = 120

// Configuration is the persisted wallpaper record. Version 0 means the record
// predates versioning; Backgrounds may be nil in such records.
type Configuration struct {
	Version     int                     `json:"version,omitempty"`
	Interval    int                     `json:"interval"`
	Backgrounds map[Category]Background `json:"backgrounds,omitempty"`
}

const defaultAssetBaseURL = "https://raw.githubusercontent.com/zenith-desktop/zenith/main/assets/backgrounds/"

// DefaultCatalog returns a fresh copy of the built-in background catalog.
func DefaultCatalog() map[Category]Background {
	catalog := make(map[Category]Background, len(Categories))
	for _, c := range Categories {
		name := string(c) + ".jpg"
		catalog[c] = Background{
			LocalPath: filepath.Join("backgrounds", name),
			RemoteURL: defaultAssetBaseURL + name,
		}
	}
	return catalog
}

// NewConfiguration builds a current-version record with the built-in catalog.
func NewConfiguration(interval int) Configuration {
	return Configuration{
		Version:     ConfigVersion,
		Interval:    interval,
		Backgrounds: DefaultCatalog(),
	}
}

// Migrate upgrades a record that has no background catalog. The previous
// interval is discarded in favour of DefaultInterval. The second return value
// reports whether anything changed.
func Migrate(cfg Configuration) (Configuration, bool) {
	if len(cfg.Backgrounds) > 0 {
		return cfg, false
	}
	return NewConfiguration(DefaultInterval), true
}

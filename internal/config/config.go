package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/zenith-desktop/zenith/internal/weather"
	"github.com/zenith-desktop/zenith/internal/weather/providers"
)

// Settings are the runtime knobs of a zenith process. They are distinct from
// the persisted wallpaper Configuration that lives in ConfigDir.
type Settings struct {
	ConfigDir string `validate:"required"`
	LogLevel  string `validate:"oneof=debug info warn warning error"`

	// DefaultInterval seeds config.json on first run, in seconds.
	DefaultInterval int `validate:"gt=0"`

	HTTPTimeout time.Duration `validate:"gt=0"`
	CacheTTL    time.Duration `validate:"gt=0"`
	MaxRetries  int           `validate:"gte=0,lte=10"`
	Backoff     time.Duration `validate:"gt=0"`

	IPServiceURL  string `validate:"required,url"`
	GeoServiceURL string `validate:"required,url"`
	WeatherURL    string `validate:"required,url"`

	// ListenAddr enables the status API in watch mode when set.
	ListenAddr string `validate:"omitempty,hostname_port"`
	Progress   bool
}

// Keys understood by Load. Each is also read from ZENITH_<KEY>.
const (
	KeyConfigDir   = "config_dir"
	KeyLogLevel    = "log_level"
	KeyInterval    = "interval"
	KeyHTTPTimeout = "http_timeout"
	KeyCacheTTL    = "cache_ttl"
	KeyMaxRetries  = "max_retries"
	KeyBackoff     = "backoff"
	KeyIPURL       = "ip_url"
	KeyGeoURL      = "geo_url"
	KeyWeatherURL  = "weather_url"
	KeyListen      = "listen"
	KeyProgress    = "progress"
)

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "ZENITH"

var validate = validator.New()

// DefaultConfigDir returns $XDG_CONFIG_HOME/zenith.
func DefaultConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "zenith")
}

// SetDefaults registers defaults and environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyConfigDir, DefaultConfigDir())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyInterval, weather.DefaultInterval)
	v.SetDefault(KeyHTTPTimeout, 15*time.Second)
	v.SetDefault(KeyCacheTTL, time.Hour)
	v.SetDefault(KeyMaxRetries, providers.DefaultBackoff.MaxRetries)
	v.SetDefault(KeyBackoff, providers.DefaultBackoff.InitialInterval)
	v.SetDefault(KeyIPURL, providers.DefaultIPServiceURL)
	v.SetDefault(KeyGeoURL, providers.DefaultGeoServiceURL)
	v.SetDefault(KeyWeatherURL, providers.DefaultOpenMeteoURL)
	v.SetDefault(KeyListen, "")
	v.SetDefault(KeyProgress, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// Load reads Settings from v (flags, environment, defaults) and validates them.
func Load(v *viper.Viper) (Settings, error) {
	SetDefaults(v)

	dir, err := ExpandPath(v.GetString(KeyConfigDir))
	if err != nil {
		return Settings{}, fmt.Errorf("invalid %s: %w", KeyConfigDir, err)
	}

	cfg := Settings{
		ConfigDir:       dir,
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		DefaultInterval: v.GetInt(KeyInterval),
		HTTPTimeout:     v.GetDuration(KeyHTTPTimeout),
		CacheTTL:        v.GetDuration(KeyCacheTTL),
		MaxRetries:      v.GetInt(KeyMaxRetries),
		Backoff:         v.GetDuration(KeyBackoff),
		IPServiceURL:    strings.TrimSpace(v.GetString(KeyIPURL)),
		GeoServiceURL:   strings.TrimSpace(v.GetString(KeyGeoURL)),
		WeatherURL:      strings.TrimSpace(v.GetString(KeyWeatherURL)),
		ListenAddr:      strings.TrimSpace(v.GetString(KeyListen)),
		Progress:        v.GetBool(KeyProgress),
	}

	if err := validate.Struct(cfg); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// BackoffConfig returns the retry policy for the weather client.
func (s Settings) BackoffConfig() providers.BackoffConfig {
	return providers.BackoffConfig{
		MaxRetries:      s.MaxRetries,
		InitialInterval: s.Backoff,
	}
}

// CachePath is the HTTP response cache database.
func (s Settings) CachePath() string {
	return filepath.Join(s.ConfigDir, "cache.sqlite")
}

// LoadDotEnv loads a .env file into the environment. A missing file is not
// an error; existing variables are never overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ExpandPath expands a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

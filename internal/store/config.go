package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/zenith-desktop/zenith/internal/common"
	"github.com/zenith-desktop/zenith/internal/weather"
)

// ConfigFileName is the record's name inside the configuration directory.
const ConfigFileName = "config.json"

// ConfigStore persists the wallpaper Configuration as JSON and materializes
// its background assets.
type ConfigStore struct {
	dir      string
	path     string
	client   *http.Client
	logger   *slog.Logger
	progress bool
}

var _ weather.ConfigStore = (*ConfigStore)(nil)

// Option customizes a ConfigStore.
type Option func(*ConfigStore)

// WithProgress shows a progress bar on stderr while assets download.
func WithProgress(enabled bool) Option {
	return func(s *ConfigStore) { s.progress = enabled }
}

// NewConfigStore creates a store rooted at dir. client is used for asset downloads.
func NewConfigStore(dir string, client *http.Client, logger *slog.Logger, opts ...Option) *ConfigStore {
	if client == nil {
		client = http.DefaultClient
	}
	s := &ConfigStore{
		dir:    dir,
		path:   filepath.Join(dir, ConfigFileName),
		client: client,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the configuration directory.
func (s *ConfigStore) Dir() string { return s.dir }

// Path returns the configuration file path.
func (s *ConfigStore) Path() string { return s.path }

// Load returns the stored record as-is. When none exists it writes and returns
// a new one with defaultInterval and the built-in catalog.
func (s *ConfigStore) Load(defaultInterval int) (weather.Configuration, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return weather.Configuration{}, fmt.Errorf("%w: read %s: %v", common.ErrConfig, s.path, err)
		}
		s.logger.Info("Couldn't find configuration file, setting default configurations.", "path", s.path)
		cfg := weather.NewConfiguration(defaultInterval)
		if err := s.Save(cfg); err != nil {
			return weather.Configuration{}, err
		}
		return cfg, nil
	}

	s.logger.Debug("Configuration file found, loading data", "path", s.path)
	var cfg weather.Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return weather.Configuration{}, fmt.Errorf("%w: parse %s: %v", common.ErrConfig, s.path, err)
	}
	return cfg, nil
}

// EnsureBackgrounds migrates a record without a background catalog, in memory
// and on disk.
func (s *ConfigStore) EnsureBackgrounds(cfg weather.Configuration) (weather.Configuration, error) {
	migrated, changed := weather.Migrate(cfg)
	if !changed {
		return cfg, nil
	}
	s.logger.Info("configuration has no backgrounds; restoring built-in catalog",
		"previous_interval", cfg.Interval, "interval", migrated.Interval)
	if err := s.Save(migrated); err != nil {
		return weather.Configuration{}, err
	}
	return migrated, nil
}

// Save writes cfg, creating the directory when needed.
func (s *ConfigStore) Save(cfg weather.Configuration) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create config dir: %v", common.ErrConfig, err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal config: %v", common.ErrConfig, err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("%w: write config: %v", common.ErrConfig, err)
	}
	s.logger.Debug("Dumped configuration data.", "path", s.path)
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Store backends.
const (
	StoreLocal  = "local"
	StoreRemote = "remote"
)

// Geolocation providers.
const (
	ProviderIP     = "ip"
	ProviderStatic = "static"
	ProviderDenied = "denied"
)

// Config is the myway client configuration.
type Config struct {
	Store       string
	LogFile     string
	LogLevel    string
	Local       LocalConfig
	Remote      RemoteConfig
	Country     CountryConfig
	Geolocation GeolocationConfig
}

// LocalConfig selects the on-device database and slot.
type LocalConfig struct {
	Path string
	Slot string
}

// RemoteConfig points at a mywayd document server.
type RemoteConfig struct {
	URL        string
	Collection string
	APIKey     string
	Timeout    time.Duration
}

// CountryConfig points at the countries GraphQL API.
type CountryConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// GeolocationConfig selects how the device position is obtained.
type GeolocationConfig struct {
	Provider  string
	Latitude  float64
	Longitude float64
	Endpoint  string
}

const (
	defaultConfigPath = "~/.config/myway/config.toml"
	defaultDataDir    = "~/.local/share/myway"
	defaultLogLevel   = "info"
	defaultSlot       = "locations"
	defaultRemoteURL  = "127.0.0.1:7488"
	defaultTimeout    = 5 * time.Second
	// São Paulo, used by the static provider when no position is configured.
	defaultLatitude  = -23.5505
	defaultLongitude = -46.6333
)

// Default returns the configuration used when no file exists.
func Default() Config {
	dataDir := mustExpand(defaultDataDir)
	return Config{
		Store:    StoreLocal,
		LogFile:  filepath.Join(dataDir, "myway.log"),
		LogLevel: defaultLogLevel,
		Local: LocalConfig{
			Path: filepath.Join(dataDir, "myway.db"),
			Slot: defaultSlot,
		},
		Remote: RemoteConfig{
			URL:        defaultRemoteURL,
			Collection: defaultSlot,
			Timeout:    defaultTimeout,
		},
		Country: CountryConfig{Timeout: defaultTimeout},
		Geolocation: GeolocationConfig{
			Provider:  ProviderIP,
			Latitude:  defaultLatitude,
			Longitude: defaultLongitude,
		},
	}
}

type rawConfig struct {
	Store    string `toml:"store"`
	LogFile  string `toml:"log_file"`
	LogLevel string `toml:"log_level"`
	Local    struct {
		Path string `toml:"path"`
		Slot string `toml:"slot"`
	} `toml:"local"`
	Remote struct {
		URL        string `toml:"url"`
		Collection string `toml:"collection"`
		APIKey     string `toml:"api_key"`
		Timeout    string `toml:"timeout"`
	} `toml:"remote"`
	Country struct {
		Endpoint string `toml:"endpoint"`
		Timeout  string `toml:"timeout"`
	} `toml:"country"`
	Geolocation struct {
		Provider  string   `toml:"provider"`
		Latitude  *float64 `toml:"latitude"`
		Longitude *float64 `toml:"longitude"`
		Endpoint  string   `toml:"endpoint"`
	} `toml:"geolocation"`
}

// Load reads the config file at path, falling back to defaults when it is
// missing. Empty values keep their defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	setString(&cfg.Store, strings.ToLower(raw.Store))
	setPath(&cfg.LogFile, raw.LogFile)
	setString(&cfg.LogLevel, strings.ToLower(raw.LogLevel))
	setPath(&cfg.Local.Path, raw.Local.Path)
	setString(&cfg.Local.Slot, raw.Local.Slot)
	setString(&cfg.Remote.URL, raw.Remote.URL)
	setString(&cfg.Remote.Collection, raw.Remote.Collection)
	setString(&cfg.Remote.APIKey, raw.Remote.APIKey)
	setString(&cfg.Country.Endpoint, raw.Country.Endpoint)
	setString(&cfg.Geolocation.Provider, strings.ToLower(raw.Geolocation.Provider))
	setString(&cfg.Geolocation.Endpoint, raw.Geolocation.Endpoint)
	if raw.Geolocation.Latitude != nil {
		cfg.Geolocation.Latitude = *raw.Geolocation.Latitude
	}
	if raw.Geolocation.Longitude != nil {
		cfg.Geolocation.Longitude = *raw.Geolocation.Longitude
	}
	if err := setDuration(&cfg.Remote.Timeout, "remote.timeout", raw.Remote.Timeout); err != nil {
		return Config{}, err
	}
	if err := setDuration(&cfg.Country.Timeout, "country.timeout", raw.Country.Timeout); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated values and coordinate ranges.
func (c Config) Validate() error {
	switch c.Store {
	case StoreLocal, StoreRemote:
	default:
		return fmt.Errorf("invalid store %q: want %q or %q", c.Store, StoreLocal, StoreRemote)
	}
	switch c.Geolocation.Provider {
	case ProviderIP, ProviderStatic, ProviderDenied:
	default:
		return fmt.Errorf("invalid geolocation provider %q", c.Geolocation.Provider)
	}
	if c.Geolocation.Latitude < -90 || c.Geolocation.Latitude > 90 {
		return fmt.Errorf("geolocation latitude %v out of range", c.Geolocation.Latitude)
	}
	if c.Geolocation.Longitude < -180 || c.Geolocation.Longitude > 180 {
		return fmt.Errorf("geolocation longitude %v out of range", c.Geolocation.Longitude)
	}
	return nil
}

// IsRemote reports whether the remote document store is selected.
func (c Config) IsRemote() bool {
	return c.Store == StoreRemote
}

func setString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func setPath(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = mustExpand(v)
	}
}

func setDuration(dst *time.Duration, key, value string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("parse %s: must be positive", key)
	}
	*dst = d
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

package docserver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/five82/myway/internal/docstore"
)

// Config configures mywayd.
type Config struct {
	Addr            string
	Driver          string
	DSN             string
	APIKey          string
	LogLevel        string
	ShutdownTimeout time.Duration
}

const (
	defaultAddr            = "127.0.0.1:7488"
	defaultSQLitePath      = "~/.local/share/mywayd/documents.db"
	defaultShutdownTimeout = 10 * time.Second
)

// LoadConfig reads settings from MYWAYD_* environment variables and, when
// path is set, a config file in any format viper understands. Environment
// variables win over the file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("addr", defaultAddr)
	v.SetDefault("db.driver", docstore.DriverSQLite)
	v.SetDefault("db.dsn", "")
	v.SetDefault("api_key", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("shutdown_timeout", defaultShutdownTimeout.String())

	v.SetEnvPrefix("MYWAYD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Addr:     strings.TrimSpace(v.GetString("addr")),
		Driver:   strings.ToLower(strings.TrimSpace(v.GetString("db.driver"))),
		DSN:      strings.TrimSpace(v.GetString("db.dsn")),
		APIKey:   strings.TrimSpace(v.GetString("api_key")),
		LogLevel: strings.TrimSpace(v.GetString("log_level")),
	}
	timeout, err := time.ParseDuration(strings.TrimSpace(v.GetString("shutdown_timeout")))
	if err != nil {
		return Config{}, fmt.Errorf("parse shutdown_timeout: %w", err)
	}
	cfg.ShutdownTimeout = timeout

	switch cfg.Driver {
	case docstore.DriverSQLite:
		if cfg.DSN == "" {
			cfg.DSN = defaultSQLitePath
		}
		cfg.DSN = expandHome(cfg.DSN)
	case docstore.DriverPostgres:
		if cfg.DSN == "" {
			return Config{}, fmt.Errorf("db.dsn required for postgres")
		}
	default:
		return Config{}, fmt.Errorf("unsupported db.driver %q", cfg.Driver)
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	return cfg, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

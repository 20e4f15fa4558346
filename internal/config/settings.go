package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/flexoplate-iq/internal/engine"
)

// DefaultDatabasePath is used when database.path is not configured.
const DefaultDatabasePath = "$HOME/.local/share/flexo/flexo.db"

// Viper keys.
const (
	KeyDatabasePath        = "database.path"
	KeyServerAddr          = "server.addr"
	KeyServerReadTimeout   = "server.read_timeout"
	KeyServerWriteTimeout  = "server.write_timeout"
	KeyDefaultLimit        = "matching.default_limit"
	KeyIncludeSameSupplier = "matching.include_same_supplier"
	KeyMinScore            = "matching.min_score"
	KeyLogLevel            = "logging.level"
	KeyLogFormat           = "logging.format"
)

// SetDefaults registers default values for every key. It is safe to call
// more than once.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath)
	v.SetDefault(KeyServerAddr, ":8000")
	v.SetDefault(KeyServerReadTimeout, 15*time.Second)
	v.SetDefault(KeyServerWriteTimeout, 30*time.Second)
	v.SetDefault(KeyDefaultLimit, engine.DefaultConfig().DefaultLimit)
	v.SetDefault(KeyIncludeSameSupplier, false)
	v.SetDefault(KeyMinScore, 0)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// DatabasePath returns the expanded database location.
// It follows this precedence:
// 1. Viper configuration (from config file or FLEXO_ env vars)
// 2. DATABASE_PATH environment variable
// 3. DefaultDatabasePath
func DatabasePath(v *viper.Viper) string {
	path := v.GetString(KeyDatabasePath)
	if path == "" {
		path = os.Getenv("DATABASE_PATH")
	}
	if path == "" {
		path = DefaultDatabasePath
	}
	return ExpandPath(path)
}

// LoadMatchingConfig builds the engine configuration.
func LoadMatchingConfig(v *viper.Viper) (engine.Config, error) {
	cfg := engine.DefaultConfig()

	if v.IsSet(KeyDefaultLimit) {
		cfg.DefaultLimit = v.GetInt(KeyDefaultLimit)
	}
	cfg.IncludeSameSupplier = v.GetBool(KeyIncludeSameSupplier)
	cfg.MinScore = v.GetInt(KeyMinScore)

	if cfg.DefaultLimit <= 0 {
		return engine.Config{}, fmt.Errorf("%s must be positive, got %d", KeyDefaultLimit, cfg.DefaultLimit)
	}
	if cfg.MinScore < 0 || cfg.MinScore > 100 {
		return engine.Config{}, fmt.Errorf("%s must be between 0 and 100, got %d", KeyMinScore, cfg.MinScore)
	}
	return cfg, nil
}

// Server holds HTTP server settings.
type Server struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LoadServerConfig reads the HTTP server settings.
func LoadServerConfig(v *viper.Viper) (Server, error) {
	s := Server{
		Addr:         v.GetString(KeyServerAddr),
		ReadTimeout:  v.GetDuration(KeyServerReadTimeout),
		WriteTimeout: v.GetDuration(KeyServerWriteTimeout),
	}
	if s.Addr == "" {
		return Server{}, fmt.Errorf("%s must not be empty", KeyServerAddr)
	}
	if s.ReadTimeout <= 0 || s.WriteTimeout <= 0 {
		return Server{}, fmt.Errorf("server timeouts must be positive")
	}
	return s, nil
}

package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Places    PlacesConfig    `yaml:"places" mapstructure:"places"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// PlacesConfig holds place-search provider settings.
type PlacesConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// GeocodeConfig holds geocoding provider settings.
type GeocodeConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// DiscoveryConfig configures the discovery, dedup, and cache behavior.
// MaxDistanceM and MinNameSimilarity are the duplicate-classification
// thresholds; they are tunables, not constants, because provider naming
// variance differs by region.
type DiscoveryConfig struct {
	MaxDistanceM      float64  `yaml:"max_distance_m" mapstructure:"max_distance_m"`
	MinNameSimilarity float64  `yaml:"min_name_similarity" mapstructure:"min_name_similarity"`
	CacheTTLHours     int      `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	CachePrecision    int      `yaml:"cache_precision" mapstructure:"cache_precision"`
	LookupPaddingM    float64  `yaml:"lookup_padding_m" mapstructure:"lookup_padding_m"`
	Workers           int      `yaml:"workers" mapstructure:"workers"`
	AreaCellKM        float64  `yaml:"area_cell_km" mapstructure:"area_cell_km"`
	MinRadiusM        float64  `yaml:"min_radius_m" mapstructure:"min_radius_m"`
	MaxRadiusM        float64  `yaml:"max_radius_m" mapstructure:"max_radius_m"`
	AllowedSports     []string `yaml:"allowed_sports" mapstructure:"allowed_sports"`
	HistoryLimit      int      `yaml:"history_limit" mapstructure:"history_limit"`
	HistoryTTLHours   int      `yaml:"history_ttl_hours" mapstructure:"history_ttl_hours"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	LockPath       string   `yaml:"lock_path" mapstructure:"lock_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COURTPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.lock_path", "/tmp/courtpipe.lock")
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("places.rate_limit", 10)
	v.SetDefault("places.timeout_secs", 10)
	v.SetDefault("geocode.base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("geocode.rate_limit", 25)
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("discovery.max_distance_m", 100)
	v.SetDefault("discovery.min_name_similarity", 0.5)
	v.SetDefault("discovery.cache_ttl_hours", 24)
	v.SetDefault("discovery.cache_precision", 3)
	v.SetDefault("discovery.lookup_padding_m", 100)
	v.SetDefault("discovery.workers", 2)
	v.SetDefault("discovery.area_cell_km", 10)
	v.SetDefault("discovery.min_radius_m", 100)
	v.SetDefault("discovery.max_radius_m", 50000)
	v.SetDefault("discovery.allowed_sports", []string{
		"tennis", "basketball", "pickleball", "volleyball", "badminton", "squash",
	})
	v.SetDefault("discovery.history_limit", 100)
	v.SetDefault("discovery.history_ttl_hours", 72)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

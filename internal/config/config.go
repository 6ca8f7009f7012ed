// Package config loads and validates the property search service configuration.
package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the property search service.
type Config struct {
	Service       ServiceConfig       `yaml:"service"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Postgres      PostgresConfig      `yaml:"postgres"`
	Facets        FacetsConfig        `yaml:"facets"`
	Recommend     RecommendConfig     `yaml:"recommend"`
	Logging       LoggingConfig       `yaml:"logging"`
	CORS          CORSConfig          `yaml:"cors"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Port            int           `yaml:"port" env:"SEARCH_PORT"`
	Debug           bool          `yaml:"debug" env:"SEARCH_DEBUG"`
	MaxPageSize     int           `yaml:"max_page_size" env:"SEARCH_MAX_PAGE_SIZE"`
	DefaultPageSize int           `yaml:"default_page_size" env:"SEARCH_DEFAULT_PAGE_SIZE"`
	MaxQueryLength  int           `yaml:"max_query_length"`
	SearchTimeout   time.Duration `yaml:"search_timeout"`
}

// ElasticsearchConfig holds Elasticsearch connection and index configuration.
type ElasticsearchConfig struct {
	URL              string        `yaml:"url" env:"ELASTICSEARCH_URL"`
	Username         string        `yaml:"username" env:"ELASTICSEARCH_USERNAME"`
	Password         string        `yaml:"password" env:"ELASTICSEARCH_PASSWORD"`
	MaxRetries       int           `yaml:"max_retries"`
	Timeout          time.Duration `yaml:"timeout"`
	PropertyIndex    string        `yaml:"property_index" env:"PROPERTY_INDEX"`
	RebuildBatchSize int           `yaml:"rebuild_batch_size"`
	TextBoost        BoostConfig   `yaml:"text_boost"`
}

// BoostConfig holds full-text field boosting weights.
type BoostConfig struct {
	Title       float64 `yaml:"title"`
	Description float64 `yaml:"description"`
	Address     float64 `yaml:"address"`
}

// PostgresConfig holds canonical property store connection settings.
type PostgresConfig struct {
	DSN            string        `yaml:"dsn" env:"POSTGRES_DSN"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// FacetsConfig holds faceted search and histogram configuration.
// PriceBands are the shared fixed histogram edges used by search facets,
// analytics price distribution, and the recommendation hard price filter.
type FacetsConfig struct {
	TermSize        int       `yaml:"term_size"`
	PriceBands      []float64 `yaml:"price_bands"`
	TrackedFeatures []string  `yaml:"tracked_features"`
}

// RecommendConfig holds recommendation boost weights and bounds.
// The weights are heuristics, deliberately configurable rather than baked in.
type RecommendConfig struct {
	TypeBoost         float64 `yaml:"type_boost"`
	FeatureBoost      float64 `yaml:"feature_boost"`
	SearchBoost       float64 `yaml:"search_boost"`
	CityBoost         float64 `yaml:"city_boost"`
	FeatureShare      float64 `yaml:"feature_share"`
	MaxRecentSearches int     `yaml:"max_recent_searches"`
	DefaultLimit      int     `yaml:"default_limit"`
	MaxLimit          int     `yaml:"max_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins" env:"CORS_ORIGINS"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// Load loads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}

	cfg.SetDefaults()
	// Env always wins over file values and defaults.
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SetDefaults applies default values to the config.
func (c *Config) SetDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = "property-search"
	}
	if c.Service.Version == "" {
		c.Service.Version = "1.0.0"
	}
	if c.Service.Port == 0 {
		c.Service.Port = 8094
	}
	if c.Service.MaxPageSize == 0 {
		c.Service.MaxPageSize = 100
	}
	if c.Service.DefaultPageSize == 0 {
		c.Service.DefaultPageSize = 20
	}
	if c.Service.MaxQueryLength == 0 {
		c.Service.MaxQueryLength = 500
	}
	if c.Service.SearchTimeout == 0 {
		c.Service.SearchTimeout = 5 * time.Second
	}

	if c.Elasticsearch.URL == "" {
		c.Elasticsearch.URL = "http://localhost:9200"
	}
	if c.Elasticsearch.MaxRetries == 0 {
		c.Elasticsearch.MaxRetries = 3
	}
	if c.Elasticsearch.Timeout == 0 {
		c.Elasticsearch.Timeout = 30 * time.Second
	}
	if c.Elasticsearch.PropertyIndex == "" {
		c.Elasticsearch.PropertyIndex = "properties"
	}
	if c.Elasticsearch.RebuildBatchSize == 0 {
		c.Elasticsearch.RebuildBatchSize = 100
	}
	if c.Elasticsearch.TextBoost.Title == 0 {
		c.Elasticsearch.TextBoost.Title = 3.0
	}
	if c.Elasticsearch.TextBoost.Description == 0 {
		c.Elasticsearch.TextBoost.Description = 1.5
	}
	if c.Elasticsearch.TextBoost.Address == 0 {
		c.Elasticsearch.TextBoost.Address = 2.0
	}

	if c.Postgres.ConnectTimeout == 0 {
		c.Postgres.ConnectTimeout = 10 * time.Second
	}

	if c.Facets.TermSize == 0 {
		c.Facets.TermSize = 20
	}
	if len(c.Facets.PriceBands) == 0 {
		c.Facets.PriceBands = []float64{100000, 250000, 500000, 750000, 1000000, 2000000}
	}
	if len(c.Facets.TrackedFeatures) == 0 {
		c.Facets.TrackedFeatures = []string{
			"garden", "parking", "garage", "balcony", "terrace", "furnished", "new_build",
		}
	}

	if c.Recommend.TypeBoost == 0 {
		c.Recommend.TypeBoost = 1.8
	}
	if c.Recommend.FeatureBoost == 0 {
		c.Recommend.FeatureBoost = 1.5
	}
	if c.Recommend.SearchBoost == 0 {
		c.Recommend.SearchBoost = 1.6
	}
	if c.Recommend.CityBoost == 0 {
		c.Recommend.CityBoost = 2.0
	}
	if c.Recommend.FeatureShare == 0 {
		c.Recommend.FeatureShare = 0.5
	}
	if c.Recommend.MaxRecentSearches == 0 {
		c.Recommend.MaxRecentSearches = 5
	}
	if c.Recommend.DefaultLimit == 0 {
		c.Recommend.DefaultLimit = 10
	}
	if c.Recommend.MaxLimit == 0 {
		c.Recommend.MaxLimit = 50
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return &ValidationError{Field: "service.port", Message: fmt.Sprintf("invalid port: %d", c.Service.Port)}
	}
	if c.Service.MaxPageSize < 1 {
		return &ValidationError{Field: "service.max_page_size", Message: "must be greater than 0"}
	}
	if c.Service.DefaultPageSize < 1 || c.Service.DefaultPageSize > c.Service.MaxPageSize {
		return &ValidationError{
			Field:   "service.default_page_size",
			Message: fmt.Sprintf("must be between 1 and %d", c.Service.MaxPageSize),
		}
	}
	if c.Elasticsearch.URL == "" {
		return &ValidationError{Field: "elasticsearch.url", Message: "is required"}
	}
	if c.Elasticsearch.PropertyIndex == "" {
		return &ValidationError{Field: "elasticsearch.property_index", Message: "is required"}
	}
	if c.Elasticsearch.RebuildBatchSize < 1 {
		return &ValidationError{Field: "elasticsearch.rebuild_batch_size", Message: "must be greater than 0"}
	}
	if c.Recommend.FeatureShare <= 0 || c.Recommend.FeatureShare > 1 {
		return &ValidationError{Field: "recommend.feature_share", Message: "must be in (0, 1]"}
	}
	for i := 1; i < len(c.Facets.PriceBands); i++ {
		if c.Facets.PriceBands[i] <= c.Facets.PriceBands[i-1] {
			return &ValidationError{Field: "facets.price_bands", Message: "must be strictly increasing"}
		}
	}
	return nil
}

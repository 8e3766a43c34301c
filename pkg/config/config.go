package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tair/cosmetics-recommender/pkg/validation"
)

// ConfigPathEnvVar points at an optional YAML file layered between the
// defaults and the environment.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

// Config is shared by every process; each one reads the sections it needs.
type Config struct {
	Service      ServiceConfig      `koanf:"service"`
	HTTP         HTTPConfig         `koanf:"http"`
	Database     DatabaseConfig     `koanf:"database"`
	Redis        RedisConfig        `koanf:"redis"`
	Kafka        KafkaConfig        `koanf:"kafka"`
	Tracing      TracingConfig      `koanf:"tracing"`
	Auth         AuthConfig         `koanf:"auth"`
	LLM          LLMConfig          `koanf:"llm"`
	ProductStore ProductStoreConfig `koanf:"product_store"`
	Recommend    RecommendConfig    `koanf:"recommend"`
	Gateway      GatewayConfig      `koanf:"gateway"`
}

type ServiceConfig struct {
	Name        string `koanf:"name" validate:"required"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment" validate:"required"`
	LogLevel    string `koanf:"log_level"`
}

// IsDevelopment reports whether the service runs outside production.
func (s ServiceConfig) IsDevelopment() bool {
	return !strings.EqualFold(s.Environment, "production")
}

type HTTPConfig struct {
	Port           string        `koanf:"port" validate:"required"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	CORSOrigins    []string      `koanf:"cors_origins"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            string        `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Addr         string        `koanf:"addr"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db" validate:"gte=0"`
	CandidateTTL time.Duration `koanf:"candidate_ttl"`
}

type KafkaConfig struct {
	Enabled bool     `koanf:"enabled"`
	Brokers []string `koanf:"brokers"`
	GroupID string   `koanf:"group_id"`
}

type TracingConfig struct {
	Enabled        bool    `koanf:"enabled"`
	JaegerEndpoint string  `koanf:"jaeger_endpoint"`
	SampleRatio    float64 `koanf:"sample_ratio" validate:"gte=0,lte=1"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type LLMConfig struct {
	APIKey            string        `koanf:"api_key"`
	Model             string        `koanf:"model" validate:"required"`
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	Timeout           time.Duration `koanf:"timeout"`
	MaxSelections     int           `koanf:"max_selections" validate:"min=1"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	Burst             int           `koanf:"burst" validate:"min=1"`
}

// Enabled reports whether an API key was configured.
func (c LLMConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

type ProductStoreConfig struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout"`
}

type RecommendConfig struct {
	ContentWeight      float64 `koanf:"content_weight" validate:"gte=0"`
	PopularityWeight   float64 `koanf:"popularity_weight" validate:"gte=0"`
	DefaultLimit       int     `koanf:"default_limit" validate:"min=1"`
	MaxLimit           int     `koanf:"max_limit" validate:"min=1"`
	CategoryFetchLimit int     `koanf:"category_fetch_limit" validate:"min=1"`
	BackupFetchLimit   int     `koanf:"backup_fetch_limit" validate:"min=1"`
	FullFetchLimit     int     `koanf:"full_fetch_limit" validate:"min=1"`
}

type GatewayConfig struct {
	ProductServiceURLs        []string      `koanf:"product_service_urls"`
	RecommendationServiceURLs []string      `koanf:"recommendation_service_urls"`
	PaymentServiceURLs        []string      `koanf:"payment_service_urls"`
	UpstreamTimeout           time.Duration `koanf:"upstream_timeout"`
	CacheTTL                  time.Duration `koanf:"cache_ttl"`
	RateLimit                 int           `koanf:"rate_limit" validate:"min=1"`
	LLMRateLimit              int           `koanf:"llm_rate_limit" validate:"min=1"`
	RateWindow                time.Duration `koanf:"rate_window"`
}

func defaultConfig(serviceName, port string) *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Version:     "1.0.0",
			Environment: "development",
			LogLevel:    "info",
		},
		HTTP: HTTPConfig{
			Port:           port,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   60 * time.Second,
			RequestTimeout: 45 * time.Second,
			CORSOrigins:    []string{"*"},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "postgres",
			Name:            "cosmeticsdb",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:      true,
			Addr:         "localhost:6379",
			CandidateTTL: 10 * time.Minute,
		},
		Kafka: KafkaConfig{
			Enabled: true,
			Brokers: []string{"localhost:9092"},
			GroupID: serviceName,
		},
		Tracing: TracingConfig{
			Enabled:        true,
			JaegerEndpoint: "http://localhost:14268/api/traces",
			SampleRatio:    1,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		LLM: LLMConfig{
			Model:             "gemini-2.0-flash-exp",
			BaseURL:           "https://generativelanguage.googleapis.com/v1beta",
			Timeout:           30 * time.Second,
			MaxSelections:     5,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		ProductStore: ProductStoreConfig{
			BaseURL: "http://localhost:8081",
			Timeout: 10 * time.Second,
		},
		Recommend: RecommendConfig{
			ContentWeight:      0.7,
			PopularityWeight:   0.3,
			DefaultLimit:       10,
			MaxLimit:           50,
			CategoryFetchLimit: 50,
			BackupFetchLimit:   100,
			FullFetchLimit:     200,
		},
		Gateway: GatewayConfig{
			ProductServiceURLs:        []string{"http://localhost:8081"},
			RecommendationServiceURLs: []string{"http://localhost:8001"},
			PaymentServiceURLs:        []string{"http://localhost:8083"},
			UpstreamTimeout:           60 * time.Second,
			CacheTTL:                  5 * time.Minute,
			RateLimit:                 100,
			LLMRateLimit:              20,
			RateWindow:                time.Minute,
		},
	}
}

// Load builds the configuration for one process: struct defaults, then an
// optional YAML file, then environment variables.
func Load(serviceName, defaultPort string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(serviceName, defaultPort), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks struct tags plus the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if c.Recommend.DefaultLimit > c.Recommend.MaxLimit {
		return fmt.Errorf("recommend.default_limit (%d) exceeds recommend.max_limit (%d)",
			c.Recommend.DefaultLimit, c.Recommend.MaxLimit)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must be set when kafka is enabled")
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"http.cors_origins",
	"kafka.brokers",
	"gateway.product_service_urls",
	"gateway.recommendation_service_urls",
	"gateway.payment_service_urls",
}

// processSliceFields splits comma separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(raw, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				values = append(values, p)
			}
		}
		if err := k.Set(path, values); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps the flat variable names used by the deployment manifests
// onto nested keys. Variables not listed here are ignored.
var envMappings = map[string]string{
	"otel_service_name":           "service.name",
	"service_version":             "service.version",
	"environment":                 "service.environment",
	"log_level":                   "service.log_level",
	"http_port":                   "http.port",
	"http_read_timeout":           "http.read_timeout",
	"http_write_timeout":          "http.write_timeout",
	"http_request_timeout":        "http.request_timeout",
	"cors_allowed_origins":        "http.cors_origins",
	"db_host":                     "database.host",
	"db_port":                     "database.port",
	"db_user":                     "database.user",
	"db_password":                 "database.password",
	"db_name":                     "database.name",
	"db_sslmode":                  "database.ssl_mode",
	"db_max_open_conns":           "database.max_open_conns",
	"db_max_idle_conns":           "database.max_idle_conns",
	"redis_enabled":               "redis.enabled",
	"redis_addr":                  "redis.addr",
	"redis_password":              "redis.password",
	"redis_db":                    "redis.db",
	"candidate_cache_ttl":         "redis.candidate_ttl",
	"kafka_enabled":               "kafka.enabled",
	"kafka_brokers":               "kafka.brokers",
	"kafka_group_id":              "kafka.group_id",
	"tracing_enabled":             "tracing.enabled",
	"jaeger_endpoint":             "tracing.jaeger_endpoint",
	"tracing_sample_ratio":        "tracing.sample_ratio",
	"jwt_secret":                  "auth.jwt_secret",
	"jwt_token_ttl":               "auth.token_ttl",
	"gemini_api_key":              "llm.api_key",
	"gemini_model":                "llm.model",
	"gemini_base_url":             "llm.base_url",
	"llm_timeout":                 "llm.timeout",
	"llm_max_selections":          "llm.max_selections",
	"llm_requests_per_second":     "llm.requests_per_second",
	"product_service_url":         "product_store.base_url",
	"product_store_timeout":       "product_store.timeout",
	"recommend_content_weight":    "recommend.content_weight",
	"recommend_popularity_weight": "recommend.popularity_weight",
	"recommend_default_limit":     "recommend.default_limit",
	"recommend_max_limit":         "recommend.max_limit",
	"gateway_product_urls":        "gateway.product_service_urls",
	"gateway_recommendation_urls": "gateway.recommendation_service_urls",
	"gateway_payment_urls":        "gateway.payment_service_urls",
	"gateway_upstream_timeout":    "gateway.upstream_timeout",
	"gateway_cache_ttl":           "gateway.cache_ttl",
	"gateway_rate_limit":          "gateway.rate_limit",
	"gateway_llm_rate_limit":      "gateway.llm_rate_limit",
	"gateway_rate_window":         "gateway.rate_window",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

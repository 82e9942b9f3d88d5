// Package config provides application configuration loaded from environment
// variables with defaults and validation. Values are parsed from struct tags
// by caarlos0/env, then normalized and validated here so a bad deployment
// fails at startup with an error naming the offending variable.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool          `env:"ENABLE_HSTS" envDefault:"false"`
	HSTSMaxAge time.Duration `env:"HSTS_MAX_AGE" envDefault:"4320h"`
}

// DBConfig selects and locates the Store.
type DBConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"sqlite"` // sqlite|postgres
	Path     string `env:"DB_PATH" envDefault:"planner.db"`
	URL      string `env:"DATABASE_URL"`
	SeedDemo bool   `env:"SEED_DEMO_DATA" envDefault:"true"`
}

// DSN returns the connection string for the selected driver.
func (d DBConfig) DSN() string {
	if d.Driver == "postgres" {
		return d.URL
	}
	return d.Path
}

// GeneratorConfig selects the Content Generator.
type GeneratorConfig struct {
	Kind         string        `env:"GENERATOR" envDefault:"stub"` // stub|gemini
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	GeminiModel  string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	Timeout      time.Duration `env:"GENERATION_TIMEOUT" envDefault:"60s"`

	// ReferenceDataPath overrides the embedded reference-game catalog.
	ReferenceDataPath string `env:"REFERENCE_DATA_PATH"`
}

// SimulationConfig bounds the Simulation Runner.
type SimulationConfig struct {
	TurnEffect     string        `env:"TURN_EFFECT" envDefault:"heuristic"` // heuristic|lua
	TurnScriptPath string        `env:"TURN_SCRIPT_PATH"`
	Workers        int           `env:"SIM_WORKERS" envDefault:"4"`
	GameTimeout    time.Duration `env:"SIM_GAME_TIMEOUT" envDefault:"5s"`
}

// CacheConfig configures the latest-report cache. An empty RedisAddr keeps
// the cache in process.
type CacheConfig struct {
	RedisAddr string        `env:"REDIS_ADDR"`
	ReportTTL time.Duration `env:"REPORT_CACHE_TTL" envDefault:"10m"`
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	ServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"boardgame-planner"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1.0"`
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        `env:"PORT" envDefault:"8080"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s"`
	// Generation calls can take tens of seconds.
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT" envDefault:"90s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes int           `env:"MAX_HEADER_BYTES" envDefault:"1048576"`
	MaxBodyBytes   int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	GinMode        string        `env:"GIN_MODE" envDefault:"release"` // debug|release|test

	// Logging / Docs
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SwaggerEnabled bool   `env:"SWAGGER_ENABLED" envDefault:"false"`
	APIBasePath    string `env:"API_BASE_PATH" envDefault:"/api"`

	DB         DBConfig
	Generator  GeneratorConfig
	Simulation SimulationConfig
	Cache      CacheConfig

	// Rate limiting (POST endpoints)
	RateRPS   float64 `env:"RATE_RPS" envDefault:"2"`
	RateBurst int     `env:"RATE_BURST" envDefault:"5"`

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// IdempotencyTTL is how long a stored POST response is replayed.
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	normalize(&cfg)
	return cfg, validate(cfg)
}

func normalize(cfg *Config) {
	cfg.GinMode = strings.ToLower(strings.TrimSpace(cfg.GinMode))
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	cfg.APIBasePath = normalizeBasePath(cfg.APIBasePath)
	cfg.CORS.AllowedOrigins = compact(cfg.CORS.AllowedOrigins)

	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	if cfg.DB.Driver == "postgresql" {
		cfg.DB.Driver = "postgres"
	}
	cfg.Generator.Kind = strings.ToLower(strings.TrimSpace(cfg.Generator.Kind))
	cfg.Simulation.TurnEffect = strings.ToLower(strings.TrimSpace(cfg.Simulation.TurnEffect))
}

func validate(cfg Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be > 0")
	}

	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return errors.New("DATABASE_URL must be set when DB_DRIVER=postgres")
		}
	default:
		return errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}

	switch cfg.Generator.Kind {
	case "stub":
	case "gemini":
		if strings.TrimSpace(cfg.Generator.GeminiAPIKey) == "" {
			return errors.New("GEMINI_API_KEY must be set when GENERATOR=gemini")
		}
	default:
		return errors.New("GENERATOR must be one of: stub, gemini")
	}
	if cfg.Generator.Timeout <= 0 {
		return errors.New("GENERATION_TIMEOUT must be > 0")
	}

	switch cfg.Simulation.TurnEffect {
	case "heuristic":
	case "lua":
		if strings.TrimSpace(cfg.Simulation.TurnScriptPath) == "" {
			return errors.New("TURN_SCRIPT_PATH must be set when TURN_EFFECT=lua")
		}
	default:
		return errors.New("TURN_EFFECT must be one of: heuristic, lua")
	}
	if cfg.Simulation.Workers < 1 {
		return errors.New("SIM_WORKERS must be >= 1")
	}
	if cfg.Simulation.GameTimeout <= 0 {
		return errors.New("SIM_GAME_TIMEOUT must be > 0")
	}
	if cfg.Cache.ReportTTL <= 0 {
		return errors.New("REPORT_CACHE_TTL must be > 0")
	}

	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// compact trims entries and drops empty ones.
func compact(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, p := range in {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}

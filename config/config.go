package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	OpenWeatherMap struct {
		APIKey  string `json:"apiKey"`
		BaseURL string `json:"baseURL"`
	} `json:"openWeatherMap"`

	HTTP struct {
		Port    int      `json:"port"`
		Timeout Duration `json:"timeout"` // upstream request timeout
	} `json:"http"`

	DefaultCity       string  `json:"defaultCity"`
	DefaultLat        float64 `json:"defaultLat"` // fallback position when the browser reports none
	DefaultLon        float64 `json:"defaultLon"`
	MaxRecentSearches int     `json:"maxRecentSearches"`

	Storage struct {
		Driver string `json:"driver"` // memory, file, sqlite, postgres, mysql, redis
		DSN    string `json:"dsn"`
	} `json:"storage"`

	Redis struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"redis"`

	Kafka struct {
		Brokers []string `json:"brokers"`
		Topic   string   `json:"topic"`
	} `json:"kafka"`

	RateLimit struct {
		Enabled bool    `json:"enabled"`
		RPS     float64 `json:"rps"`
		Burst   int     `json:"burst"`
	} `json:"rateLimit"`

	LogLevel string `json:"logLevel"`
	Env      string `json:"env"`
}

// Duration accepts "15s" style strings in JSON
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// plain numbers are seconds
		var secs float64
		if err := json.Unmarshal(b, &secs); err != nil {
			return fmt.Errorf("invalid duration %s", b)
		}
		d.Duration = time.Duration(secs * float64(time.Second))
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// DefaultConfig creates a default configuration
func DefaultConfig() *Config {
	config := &Config{}
	config.OpenWeatherMap.BaseURL = "https://api.openweathermap.org"
	config.HTTP.Port = 8080
	config.HTTP.Timeout = Duration{15 * time.Second}
	config.DefaultCity = "London"
	config.DefaultLat = 51.5074
	config.DefaultLon = -0.1278
	config.MaxRecentSearches = 5
	config.Storage.Driver = "memory"
	config.Redis.Addr = "localhost:6379"
	config.Kafka.Topic = "weather_lookups"
	config.RateLimit.Enabled = true
	config.RateLimit.RPS = 10
	config.RateLimit.Burst = 20
	config.LogLevel = "info"
	config.Env = "development"
	return config
}

// LoadConfig loads configuration from a JSON file on top of the defaults.
// A missing file is not an error.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()
	if filename == "" {
		return config, nil
	}

	file, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	return config, nil
}

// Load reads filename, then applies environment overrides and validates the result
func Load(filename string) (*Config, error) {
	config, err := LoadConfig(filename)
	if err != nil {
		return nil, err
	}
	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides fields from environment variables that are set
func (c *Config) ApplyEnv() {
	c.OpenWeatherMap.APIKey = getEnv("OPENWEATHERMAP_API_KEY", c.OpenWeatherMap.APIKey)
	c.OpenWeatherMap.BaseURL = getEnv("OPENWEATHERMAP_BASE_URL", c.OpenWeatherMap.BaseURL)
	c.HTTP.Port = getEnvInt("HTTP_PORT", c.HTTP.Port)
	c.HTTP.Timeout.Duration = getEnvDuration("HTTP_TIMEOUT", c.HTTP.Timeout.Duration)
	c.DefaultCity = getEnv("DEFAULT_CITY", c.DefaultCity)
	c.DefaultLat = getEnvFloat("DEFAULT_LAT", c.DefaultLat)
	c.DefaultLon = getEnvFloat("DEFAULT_LON", c.DefaultLon)
	c.MaxRecentSearches = getEnvInt("MAX_RECENT_SEARCHES", c.MaxRecentSearches)
	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.DSN = getEnv("STORAGE_DSN", c.Storage.DSN)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)
	c.Kafka.Brokers = getEnvSlice("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.RateLimit.RPS = getEnvFloat("RATE_LIMIT_RPS", c.RateLimit.RPS)
	c.RateLimit.Burst = getEnvInt("RATE_LIMIT_BURST", c.RateLimit.Burst)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Env = getEnv("ENV", c.Env)
}

// NewLogger builds the service logger from LogLevel and Env.
// Production logs are JSON, everything else is text.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(c.LogLevel),
	}

	var handler slog.Handler = slog.NewTextHandler(w, opts)

	// JSON logs in production
	if strings.EqualFold(c.Env, "production") {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel maps debug, info, warn and error to slog levels; anything else is info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	var errs []error
	if c.OpenWeatherMap.APIKey == "" {
		errs = append(errs, errors.New("OPENWEATHERMAP_API_KEY is required"))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.HTTP.Port))
	}
	if strings.TrimSpace(c.DefaultCity) == "" {
		errs = append(errs, errors.New("default city must not be empty"))
	}
	if c.MaxRecentSearches <= 0 {
		errs = append(errs, fmt.Errorf("max recent searches must be positive, got %d", c.MaxRecentSearches))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate limit needs positive rps and burst"))
	}
	return errors.Join(errs...)
}

// KafkaEnabled reports whether lookup events should be published
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}

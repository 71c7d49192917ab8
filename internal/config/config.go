package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the development dialogue server's configuration.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level
	RedisURL    string
	DataDir     string
	SessionTTL  time.Duration

	problems []string
}

// ClientConfig is the terminal client's configuration.
type ClientConfig struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	Environment    string
	LogLevel       slog.Level
	LogFile        string
	SessionFile    string
	MapAspect      float64
	Oversize       float64
	FrameRate      int
	Debug          bool
	AssetManifest  string

	problems []string
}

// Load reads the server configuration from the environment, after any .env file.
func Load() *Config {
	loadDotEnv()
	var p parser
	cfg := &Config{
		Port:        getEnv("PORT", "7070"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		DataDir:     getEnv("DATA_DIR", "./data"),
		SessionTTL:  p.duration("SESSION_TTL", 24*time.Hour),
	}
	cfg.problems = p.problems
	return cfg
}

// Validate reports values that were rejected or are unusable.
func (c *Config) Validate() error {
	problems := append([]string(nil), c.problems...)
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %q is not a valid port", c.Port))
	}
	if _, err := url.Parse(c.RedisURL); err != nil || !strings.HasPrefix(c.RedisURL, "redis") {
		problems = append(problems, fmt.Sprintf("REDIS_URL %q is not a redis URL", c.RedisURL))
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}
	return joinProblems(problems)
}

// LoadClient reads the client configuration from the environment, after any .env file.
func LoadClient() *ClientConfig {
	loadDotEnv()
	var p parser
	cfg := &ClientConfig{
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:7070"),
		RequestTimeout: p.duration("REQUEST_TIMEOUT", 30*time.Second),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LogFile:        getEnv("LOG_FILE", "local-legends.log"),
		SessionFile:    getEnv("SESSION_FILE", defaultSessionFile()),
		MapAspect:      p.float("MAP_ASPECT", 16.0/9.0),
		Oversize:       p.float("OVERSIZE", 1.5),
		FrameRate:      p.int("FRAME_RATE", 30),
		Debug:          p.bool("DEBUG", false),
		AssetManifest:  getEnv("ASSET_MANIFEST", ""),
	}
	cfg.problems = p.problems
	return cfg
}

// Validate reports values that were rejected or are unusable.
func (c *ClientConfig) Validate() error {
	problems := append([]string(nil), c.problems...)
	if u, err := url.Parse(c.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("API_BASE_URL %q is not an absolute URL", c.APIBaseURL))
	}
	if c.RequestTimeout <= 0 {
		problems = append(problems, "REQUEST_TIMEOUT must be positive")
	}
	if c.MapAspect <= 0 {
		problems = append(problems, "MAP_ASPECT must be positive")
	}
	if c.Oversize <= 1 {
		problems = append(problems, "OVERSIZE must be greater than 1")
	}
	if c.FrameRate <= 0 || c.FrameRate > 120 {
		problems = append(problems, "FRAME_RATE must be between 1 and 120")
	}
	return joinProblems(problems)
}

// FrameInterval is the time between ticks.
func (c *ClientConfig) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(c.FrameRate)
}

func loadDotEnv() {
	// a missing .env is normal
	_ = godotenv.Load()
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".local-legends-session"
	}
	return filepath.Join(dir, "local-legends", "session")
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}

// parser falls back to defaults on bad values and remembers what it rejected.
type parser struct {
	problems []string
}

func (p *parser) reject(key, value string) {
	p.problems = append(p.problems, fmt.Sprintf("%s %q could not be parsed", key, value))
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.reject(key, v)
		return def
	}
	return d
}

func (p *parser) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	// accept ratios like "16/9"
	if num, den, ok := strings.Cut(v, "/"); ok {
		n, err1 := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, err2 := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err1 != nil || err2 != nil || d == 0 {
			p.reject(key, v)
			return def
		}
		return n / d
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.reject(key, v)
		return def
	}
	return f
}

func (p *parser) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.reject(key, v)
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.reject(key, v)
		return def
	}
	return b
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	bybit "github.com/bybit-exchange/bybit.go.api"
	"gopkg.in/yaml.v3"

	"bybitdash/internal/signer"
)

// DefaultPath is the configuration file read when no -config flag is given.
// A missing file at this path is not an error.
const DefaultPath = "config/config.yml"

type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Bybit     BybitConfig     `yaml:"bybit"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type BybitConfig struct {
	BaseURL    string          `yaml:"base_url"`
	Testnet    bool            `yaml:"testnet"`
	RecvWindow string          `yaml:"recv_window"`
	Timeout    time.Duration   `yaml:"timeout"`
	APIKey     string          `yaml:"api_key"`
	APISecret  string          `yaml:"api_secret"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig bounds outbound exchange calls. A zero RequestsPerSecond
// disables client-side limiting.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type DashboardConfig struct {
	PublicDir      string   `yaml:"public_dir"`
	TrackedSymbols []string `yaml:"tracked_symbols"`
	ImportantCoins []string `yaml:"important_coins"`
	OrderbookLimit int      `yaml:"orderbook_limit"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

type MetricsConfig struct {
	Prometheus bool             `yaml:"prometheus"`
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

// CloudWatchConfig enables metric publishing. Static credentials are optional;
// without them the default AWS credential chain is used.
type CloudWatchConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Region          string `yaml:"region"`
	Namespace       string `yaml:"namespace"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Default returns the configuration used when neither a file nor the
// environment provide a value.
func Default() Config {
	return Config{
		App: AppConfig{Name: "bybitdash", Version: "dev"},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Bybit: BybitConfig{
			RecvWindow: "5000",
			Timeout:    20 * time.Second,
		},
		Dashboard: DashboardConfig{
			PublicDir:      "public",
			TrackedSymbols: []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "XRPUSDT"},
			ImportantCoins: []string{"USDT", "BTC", "ETH", "USDC"},
			OrderbookLimit: 25,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Prometheus: true,
			CloudWatch: CloudWatchConfig{Namespace: "BybitDash"},
		},
	}
}

// LoadConfig builds the process configuration from defaults, the YAML file at
// path and environment overrides, in that order. It is called once at startup
// and the result is never mutated afterwards.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	path = resolveEnvSpecificPath(path, DefaultPath)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && isDefaultPath(path):
		// running from environment only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(&config); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	normalize(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// Address returns the host:port the HTTP server listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Credentials returns the configured Bybit key pair.
func (b BybitConfig) Credentials() signer.Credentials {
	return signer.NewCredentials(b.APIKey, b.APISecret)
}

func applyEnv(cfg *Config) error {
	if v, ok := lookupEnv("HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := lookupEnv("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT %q is not a number", v)
		}
		cfg.Server.Port = port
	}
	if v, ok := lookupEnv("BYBIT_TESTNET"); ok {
		testnet, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BYBIT_TESTNET %q is not a boolean", v)
		}
		cfg.Bybit.Testnet = testnet
	}
	if v, ok := lookupEnv("BYBIT_BASE_URL"); ok {
		cfg.Bybit.BaseURL = v
	}
	if v, ok := lookupEnv("BYBIT_RECV_WINDOW"); ok {
		cfg.Bybit.RecvWindow = v
	}
	if v, ok := lookupEnv("BYBIT_API_KEY"); ok {
		cfg.Bybit.APIKey = v
	}
	if v, ok := lookupEnv("BYBIT_API_SECRET"); ok {
		cfg.Bybit.APISecret = v
	}
	if v, ok := lookupEnv("PUBLIC_DIR"); ok {
		cfg.Dashboard.PublicDir = v
	}
	if v, ok := lookupEnv("AWS_REGION"); ok && cfg.Metrics.CloudWatch.Region == "" {
		cfg.Metrics.CloudWatch.Region = v
	}
	return nil
}

// lookupEnv treats blank values as unset.
func lookupEnv(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func normalize(cfg *Config) {
	cfg.Bybit.APIKey = strings.TrimSpace(cfg.Bybit.APIKey)
	cfg.Bybit.APISecret = strings.TrimSpace(cfg.Bybit.APISecret)
	cfg.Bybit.RecvWindow = strings.TrimSpace(cfg.Bybit.RecvWindow)

	cfg.Bybit.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Bybit.BaseURL), "/")
	if cfg.Bybit.BaseURL == "" {
		if cfg.Bybit.Testnet {
			cfg.Bybit.BaseURL = bybit.TESTNET
		} else {
			cfg.Bybit.BaseURL = bybit.MAINNET
		}
	}

	cfg.Dashboard.TrackedSymbols = upperAll(cfg.Dashboard.TrackedSymbols)
	cfg.Dashboard.ImportantCoins = upperAll(cfg.Dashboard.ImportantCoins)
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", cfg.Server.Port)
	}

	if n, err := strconv.Atoi(cfg.Bybit.RecvWindow); err != nil || n <= 0 {
		return fmt.Errorf("bybit.recv_window %q must be a positive number of milliseconds", cfg.Bybit.RecvWindow)
	}

	if cfg.Bybit.Timeout <= 0 {
		return fmt.Errorf("bybit.timeout must be greater than 0")
	}

	parsed, err := url.Parse(cfg.Bybit.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("bybit.base_url %q is not a valid http(s) URL", cfg.Bybit.BaseURL)
	}

	if cfg.Bybit.RateLimit.RequestsPerSecond < 0 || cfg.Bybit.RateLimit.BurstSize < 0 {
		return fmt.Errorf("bybit.rate_limit values must not be negative")
	}

	if len(cfg.Dashboard.TrackedSymbols) == 0 {
		return fmt.Errorf("dashboard.tracked_symbols must not be empty")
	}

	if cfg.Dashboard.OrderbookLimit <= 0 {
		return fmt.Errorf("dashboard.orderbook_limit must be greater than 0")
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format %q must be json or text", cfg.Logging.Format)
	}

	return nil
}

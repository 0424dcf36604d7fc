package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const defaultJWTSecret = "studykwork-dev-secret"

type Config struct {
	App       AppConfig       `toml:"app"`
	Auth      AuthConfig      `toml:"auth"`
	Database  DatabaseConfig  `toml:"database"`
	Upload    UploadConfig    `toml:"upload"`
	Redis     RedisConfig     `toml:"redis"`
	RabbitMQ  RabbitMQConfig  `toml:"rabbitmq"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
}

type AppConfig struct {
	Name       string `toml:"name"`
	Env        string `toml:"env"`
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	GinMode    string `toml:"gin_mode"`
	University string `toml:"university"`
	ClientDist string `toml:"client_dist"`
	SeedDemo   bool   `toml:"seed_demo"`

	// TrustedProxies lists reverse proxy IPs or CIDRs whose X-Forwarded-For is honored.
	// Empty means the socket address is the client IP.
	TrustedProxies []string `toml:"trusted_proxies"`
}

type AuthConfig struct {
	JWTSecret       string `toml:"jwt_secret"`
	JWTExpireMinute int    `toml:"jwt_expire_minute"`
}

// DatabaseConfig selects the SQL engine. Driver is "sqlite" (embedded, default) or "mysql".
type DatabaseConfig struct {
	Driver     string      `toml:"driver"`
	SQLitePath string      `toml:"sqlite_path"`
	MySQL      MySQLConfig `toml:"mysql"`
}

type MySQLConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DB       string `toml:"db"`
	Params   string `toml:"params"`
}

type UploadConfig struct {
	Dir            string `toml:"dir"`
	MaxFiles       int    `toml:"max_files"`
	MaxFileBytes   int64  `toml:"max_file_bytes"`
	PlaceholderURL string `toml:"placeholder_url"`
}

// RedisConfig enables the listing cache when Addr is set.
type RedisConfig struct {
	Addr              string `toml:"addr"`
	Password          string `toml:"password"`
	DB                int    `toml:"db"`
	ListingTTLSeconds int    `toml:"listing_ttl_seconds"`
}

// RabbitMQConfig enables listing events and the upload cleanup worker when URL is set.
type RabbitMQConfig struct {
	URL               string `toml:"url"`
	ListingEventQueue string `toml:"listing_event_queue"`
}

type RateLimitConfig struct {
	AuthRPS   float64 `toml:"auth_rps"`
	AuthBurst int     `toml:"auth_burst"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Env == "production" && c.Auth.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production environment")
	}
	if strings.TrimSpace(c.App.University) == "" {
		return errors.New("app.university must not be empty")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	for _, proxy := range c.App.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("invalid trusted proxy %q", proxy)
			}
		}
	}
	if c.Upload.MaxFiles <= 0 || c.Upload.MaxFileBytes <= 0 {
		return errors.New("upload limits must be positive")
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.Database.MySQL.User,
		c.Database.MySQL.Password,
		c.Database.MySQL.Host,
		c.Database.MySQL.Port,
		c.Database.MySQL.DB,
		c.Database.MySQL.Params,
	)
}

// SQLiteDSN enables foreign keys and a busy timeout so concurrent writers wait instead of failing.
func (c *Config) SQLiteDSN() string {
	return c.Database.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000"
}

func (c *Config) ClientIndex() string {
	return filepath.Join(c.App.ClientDist, "index.html")
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:       "studykwork",
			Env:        "dev",
			Host:       "0.0.0.0",
			Port:       3000,
			GinMode:    "debug",
			University: "Yessenov University (Актау)",
			ClientDist: "client/dist",
			SeedDemo:   true,
		},
		Auth: AuthConfig{
			JWTSecret:       defaultJWTSecret,
			JWTExpireMinute: 7 * 24 * 60,
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data/studx.db",
			MySQL: MySQLConfig{
				Host:     "127.0.0.1",
				Port:     3306,
				User:     "root",
				Password: "",
				DB:       "studykwork",
				Params:   "parseTime=true&loc=Local&charset=utf8mb4",
			},
		},
		Upload: UploadConfig{
			Dir:            "uploads",
			MaxFiles:       4,
			MaxFileBytes:   5 << 20,
			PlaceholderURL: "https://images.unsplash.com/photo-1498050108023-c5249f4df085?auto=format&fit=crop&w=1200&q=60",
		},
		Redis: RedisConfig{
			Addr:              "",
			DB:                0,
			ListingTTLSeconds: 30,
		},
		RabbitMQ: RabbitMQConfig{
			URL:               "",
			ListingEventQueue: "listing.events",
		},
		RateLimit: RateLimitConfig{
			AuthRPS:   5,
			AuthBurst: 10,
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)
	cfg.App.University = getEnv("APP_UNIVERSITY", cfg.App.University)
	cfg.App.ClientDist = getEnv("APP_CLIENT_DIST", cfg.App.ClientDist)
	cfg.App.SeedDemo = getEnvAsBool("APP_SEED_DEMO", cfg.App.SeedDemo)
	cfg.App.TrustedProxies = getEnvAsList("APP_TRUSTED_PROXIES", cfg.App.TrustedProxies)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.JWTExpireMinute = getEnvAsInt("JWT_EXPIRE_MINUTE", cfg.Auth.JWTExpireMinute)

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.SQLitePath = getEnv("SQLITE_PATH", cfg.Database.SQLitePath)
	cfg.Database.MySQL.Host = getEnv("MYSQL_HOST", cfg.Database.MySQL.Host)
	cfg.Database.MySQL.Port = getEnvAsInt("MYSQL_PORT", cfg.Database.MySQL.Port)
	cfg.Database.MySQL.User = getEnv("MYSQL_USER", cfg.Database.MySQL.User)
	cfg.Database.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.Database.MySQL.Password)
	cfg.Database.MySQL.DB = getEnv("MYSQL_DB", cfg.Database.MySQL.DB)
	cfg.Database.MySQL.Params = getEnv("MYSQL_PARAMS", cfg.Database.MySQL.Params)

	cfg.Upload.Dir = getEnv("UPLOAD_DIR", cfg.Upload.Dir)
	cfg.Upload.MaxFiles = getEnvAsInt("UPLOAD_MAX_FILES", cfg.Upload.MaxFiles)
	cfg.Upload.MaxFileBytes = int64(getEnvAsInt("UPLOAD_MAX_FILE_BYTES", int(cfg.Upload.MaxFileBytes)))
	cfg.Upload.PlaceholderURL = getEnv("UPLOAD_PLACEHOLDER_URL", cfg.Upload.PlaceholderURL)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.ListingTTLSeconds = getEnvAsInt("REDIS_LISTING_TTL_SECONDS", cfg.Redis.ListingTTLSeconds)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.ListingEventQueue = getEnv("RABBITMQ_LISTING_EVENT_QUEUE", cfg.RabbitMQ.ListingEventQueue)

	cfg.RateLimit.AuthRPS = getEnvAsFloat("RATELIMIT_AUTH_RPS", cfg.RateLimit.AuthRPS)
	cfg.RateLimit.AuthBurst = getEnvAsInt("RATELIMIT_AUTH_BURST", cfg.RateLimit.AuthBurst)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

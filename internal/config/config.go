// Package config loads server settings from an optional config file and
// environment variables using viper. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates every setting the server needs.
type Config struct {
	Port     int          `mapstructure:"port"`
	LogLevel string       `mapstructure:"log_level"`
	Store    StoreConfig  `mapstructure:"store"`
	Assets   AssetsConfig `mapstructure:"assets"`
	Admin    AdminConfig  `mapstructure:"admin"`
	Redis    RedisConfig  `mapstructure:"redis"`
	Web      WebConfig    `mapstructure:"web"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"` // sqlite, mysql or memory
	SQLitePath string `mapstructure:"sqlite_path"`
	MySQLDSN   string `mapstructure:"mysql_dsn"`
}

// AssetsConfig selects where uploaded files go.
type AssetsConfig struct {
	Provider      string      `mapstructure:"provider"` // cloudinary, minio or none
	Folder        string      `mapstructure:"folder"`
	CloudinaryURL string      `mapstructure:"cloudinary_url"`
	MinIO         MinIOConfig `mapstructure:"minio"`
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	CreateBucket    bool   `mapstructure:"create_bucket"`
}

// AdminConfig controls the password gate and admin sessions.
type AdminConfig struct {
	DefaultPassword string        `mapstructure:"default_password"`
	SessionSecret   string        `mapstructure:"session_secret"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	HashPasswords   bool          `mapstructure:"hash_passwords"`
	LoginLimit      int           `mapstructure:"login_limit"`
	LoginWindow     time.Duration `mapstructure:"login_window"`
}

// RedisConfig points at the login throttle backend. An empty Addr disables
// throttling.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WebConfig overrides the embedded templates and static files. Empty means
// use the copies compiled into the binary.
type WebConfig struct {
	TemplateDir string `mapstructure:"template_dir"`
	StaticDir   string `mapstructure:"static_dir"`
}

// Load reads path (if non-empty) and then the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "data/portfolio.db")
	v.SetDefault("store.mysql_dsn", "")
	v.SetDefault("assets.provider", "none")
	v.SetDefault("assets.folder", "portfolio")
	v.SetDefault("assets.cloudinary_url", "")
	v.SetDefault("assets.minio.endpoint", "localhost:9000")
	v.SetDefault("assets.minio.access_key_id", "")
	v.SetDefault("assets.minio.secret_access_key", "")
	v.SetDefault("assets.minio.use_ssl", false)
	v.SetDefault("assets.minio.region", "")
	v.SetDefault("assets.minio.bucket", "portfolio")
	v.SetDefault("assets.minio.public_base_url", "")
	v.SetDefault("assets.minio.create_bucket", true)
	v.SetDefault("admin.default_password", "admin123")
	v.SetDefault("admin.session_secret", "")
	v.SetDefault("admin.session_ttl", 12*time.Hour)
	v.SetDefault("admin.hash_passwords", false)
	v.SetDefault("admin.login_limit", 10)
	v.SetDefault("admin.login_window", 15*time.Minute)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("web.template_dir", "")
	v.SetDefault("web.static_dir", "")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"port":                           "PORT",
		"log_level":                      "LOG_LEVEL",
		"store.driver":                   "STORE_DRIVER",
		"store.sqlite_path":              "SQLITE_PATH",
		"store.mysql_dsn":                "MYSQL_DSN",
		"assets.provider":                "ASSETS_PROVIDER",
		"assets.folder":                  "ASSETS_FOLDER",
		"assets.cloudinary_url":          "CLOUDINARY_URL",
		"assets.minio.endpoint":          "MINIO_ENDPOINT",
		"assets.minio.access_key_id":     "MINIO_ACCESS_KEY_ID",
		"assets.minio.secret_access_key": "MINIO_SECRET_ACCESS_KEY",
		"assets.minio.use_ssl":           "MINIO_USE_SSL",
		"assets.minio.region":            "MINIO_REGION",
		"assets.minio.bucket":            "MINIO_BUCKET",
		"assets.minio.public_base_url":   "MINIO_PUBLIC_BASE_URL",
		"assets.minio.create_bucket":     "MINIO_CREATE_BUCKET",
		"admin.default_password":         "ADMIN_DEFAULT_PASSWORD",
		"admin.session_secret":           "SESSION_SECRET",
		"admin.session_ttl":              "SESSION_TTL",
		"admin.hash_passwords":           "HASH_PASSWORDS",
		"admin.login_limit":              "LOGIN_LIMIT",
		"admin.login_window":             "LOGIN_WINDOW",
		"redis.addr":                     "REDIS_ADDR",
		"redis.password":                 "REDIS_PASSWORD",
		"redis.db":                       "REDIS_DB",
		"web.template_dir":               "TEMPLATE_DIR",
		"web.static_dir":                 "STATIC_DIR",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}
	return nil
}

func validate(cfg Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port %d out of range", cfg.Port)
	}

	switch cfg.Store.Driver {
	case "sqlite":
		if cfg.Store.SQLitePath == "" {
			return errors.New("sqlite path is required")
		}
	case "mysql":
		if cfg.Store.MySQLDSN == "" {
			return errors.New("mysql dsn is required when store driver is mysql")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	switch cfg.Assets.Provider {
	case "cloudinary":
		if cfg.Assets.CloudinaryURL == "" {
			return errors.New("cloudinary url is required when assets provider is cloudinary")
		}
	case "minio":
		m := cfg.Assets.MinIO
		if m.Endpoint == "" || m.Bucket == "" {
			return errors.New("minio endpoint and bucket are required when assets provider is minio")
		}
	case "none":
	default:
		return fmt.Errorf("unknown assets provider %q", cfg.Assets.Provider)
	}

	if cfg.Admin.DefaultPassword == "" {
		return errors.New("admin default password must not be empty")
	}
	if cfg.Admin.SessionTTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if cfg.Admin.LoginLimit <= 0 || cfg.Admin.LoginWindow <= 0 {
		return errors.New("login limit and window must be positive")
	}
	return nil
}

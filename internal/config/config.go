package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StorageLocal      = "local"
	StorageCloudinary = "cloudinary"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	AllowOrigins     string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	EventChannel     string
	JWTSecret        string
	RankingCacheTTL  time.Duration
	UploadMaxMB      int
	UploadRateMax    int
	UploadRateWindow time.Duration
	Storage          StorageConfig
	SMTP             SMTPConfig
	ShutdownTimeout  time.Duration
}

// StorageConfig selects and configures the artifact storage backend.
type StorageConfig struct {
	Driver                 string
	LocalDir               string
	LocalPublicPrefix      string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
}

// SMTPConfig configures review outcome mail. Mail is disabled when Host is empty.
type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	SkipTLSVerify bool
	Timeout       time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LEARNHUB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "LearnHub API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.allow_origins", "*")
	v.SetDefault("app.shutdown_timeout", "10s")
	v.SetDefault("events.channel", "learnhub")
	v.SetDefault("rankings.cache_ttl", "1m")
	v.SetDefault("upload.max_mb", 50)
	v.SetDefault("upload.rate_max", 10)
	v.SetDefault("upload.rate_window", "1m")
	v.SetDefault("storage.driver", StorageLocal)
	v.SetDefault("storage.local_dir", "./uploads/submissions")
	v.SetDefault("storage.local_prefix", "/uploads/submissions")
	v.SetDefault("cloudinary.folder", "learnhub/submissions")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.timeout", "10s")

	rankingTTL, err := parseDuration(v, "rankings.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "upload.rate_window")
	if err != nil {
		return Config{}, err
	}
	smtpTimeout, err := parseDuration(v, "smtp.timeout")
	if err != nil {
		return Config{}, err
	}
	shutdownTimeout, err := parseDuration(v, "app.shutdown_timeout")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		AllowOrigins:     v.GetString("app.allow_origins"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		EventChannel:     v.GetString("events.channel"),
		JWTSecret:        v.GetString("jwt.secret"),
		RankingCacheTTL:  rankingTTL,
		UploadMaxMB:      v.GetInt("upload.max_mb"),
		UploadRateMax:    v.GetInt("upload.rate_max"),
		UploadRateWindow: rateWindow,
		ShutdownTimeout:  shutdownTimeout,
		Storage: StorageConfig{
			Driver:                 strings.ToLower(strings.TrimSpace(v.GetString("storage.driver"))),
			LocalDir:               v.GetString("storage.local_dir"),
			LocalPublicPrefix:      v.GetString("storage.local_prefix"),
			CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
			CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
			CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
			CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		},
		SMTP: SMTPConfig{
			Host:          v.GetString("smtp.host"),
			Port:          v.GetInt("smtp.port"),
			Username:      v.GetString("smtp.username"),
			Password:      v.GetString("smtp.password"),
			From:          v.GetString("smtp.from"),
			SkipTLSVerify: v.GetBool("smtp.skip_tls_verify"),
			Timeout:       smtpTimeout,
		},
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.Storage.Driver {
	case StorageLocal:
	case StorageCloudinary:
		if cfg.Storage.CloudinaryCloudName == "" || cfg.Storage.CloudinaryAPIKey == "" || cfg.Storage.CloudinaryAPISecret == "" {
			return Config{}, fmt.Errorf("cloudinary storage requires cloud name, api key and api secret")
		}
	default:
		return Config{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 50
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value := v.GetString(key)
	if value == "" {
		return 0, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

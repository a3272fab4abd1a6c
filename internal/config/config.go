// Package config centralizes how DocFlow reads its YAML file and environment
// variables and exposes them as strongly typed Go values.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration shared by the server, worker and CLI.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
}

// AppConfig identifies the running build.
type AppConfig struct {
	Environment string `yaml:"environment" env:"APP_ENV"     env-default:"development"`
	Version     string `yaml:"version"     env:"APP_VERSION" env-default:"dev"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address         string        `yaml:"address"          env:"SERVER_ADDRESS"          env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL settings. An empty DSN runs the server on
// the in-memory store.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_URL"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"8"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"5m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"true"`
}

// RedisConfig configures the asynq broker. An empty address disables task
// enqueueing on the server.
type RedisConfig struct {
	Addr        string `yaml:"addr"        env:"REDIS_ADDR"`
	Password    string `yaml:"password"    env:"REDIS_PASSWORD"`
	DB          int    `yaml:"db"          env:"REDIS_DB"          env-default:"0"`
	Concurrency int    `yaml:"concurrency" env:"WORKER_CONCURRENCY" env-default:"4"`
}

// StorageConfig configures the S3 compatible object store.
type StorageConfig struct {
	Endpoint       string        `yaml:"endpoint"         env:"S3_ENDPOINT"`
	AccessKey      string        `yaml:"access_key"       env:"S3_ACCESS_KEY"`
	SecretKey      string        `yaml:"secret_key"       env:"S3_SECRET_KEY"`
	UseSSL         bool          `yaml:"use_ssl"          env:"S3_USE_SSL"          env-default:"false"`
	Region         string        `yaml:"region"           env:"S3_REGION"           env-default:"us-east-1"`
	Bucket         string        `yaml:"bucket"           env:"S3_BUCKET"           env-default:"docflow-documents"`
	UploadURLTTL   time.Duration `yaml:"upload_url_ttl"   env:"S3_UPLOAD_URL_TTL"   env-default:"15m"`
	DownloadURLTTL time.Duration `yaml:"download_url_ttl" env:"S3_DOWNLOAD_URL_TTL" env-default:"5m"`
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	JWTIssuer string        `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"docflow"`
	TokenTTL  time.Duration `yaml:"token_ttl"  env:"AUTH_TOKEN_TTL"  env-default:"1h"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	AllowedMethods string `yaml:"allowed_methods" env:"CORS_ALLOWED_METHODS" env-default:"GET,POST,PUT,PATCH,OPTIONS"`
	AllowedHeaders string `yaml:"allowed_headers" env:"CORS_ALLOWED_HEADERS" env-default:"Authorization,Content-Type,X-Request-ID"`
}

const minSecretLen = 32

// IsDevelopment reports whether the process runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// StorageEnabled reports whether object storage is configured.
func (c *Config) StorageEnabled() bool {
	return c.Storage.Endpoint != ""
}

// Validate performs business-rule validation on the loaded configuration.
// In development a missing JWT secret is replaced by a random one so the
// server boots without setup; tokens then only live as long as the process.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" && c.IsDevelopment() {
		c.Auth.JWTSecret = randomSecret()
	}
	if len(c.Auth.JWTSecret) < minSecretLen {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters (got %d)", minSecretLen, len(c.Auth.JWTSecret))
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.StorageEnabled() && (c.Storage.AccessKey == "" || c.Storage.SecretKey == "") {
		return fmt.Errorf("storage: access_key and secret_key are required when endpoint is set")
	}
	if c.Redis.Concurrency <= 0 {
		return fmt.Errorf("redis.concurrency must be > 0 (got %d)", c.Redis.Concurrency)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console (got %q)", c.Log.Format)
	}
	return nil
}

func randomSecret() string {
	buf := make([]byte, minSecretLen)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("config: read random secret: %v", err))
	}
	return hex.EncodeToString(buf)
}

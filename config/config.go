package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Session   SessionConfig   `yaml:"session"`
	Log       LogConfig       `yaml:"log"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Minio     MinioConfig     `yaml:"minio"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	CORS      CORSConfig      `yaml:"cors"`
}

type ServerConfig struct {
	AppEnv string `yaml:"appEnv"`
	Port   string `yaml:"port"`
}

type DatabaseConfig struct {
	// Driver 取 postgres 或 sqlite
	Driver       string `yaml:"driver"`
	URL          string `yaml:"url"`
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	SSLMode      string `yaml:"sslMode"`
	SQLitePath   string `yaml:"sqlitePath"`
	MaxOpenConns int    `yaml:"maxOpenConns"`
	MaxIdleConns int    `yaml:"maxIdleConns"`
}

// DSN returns URL when set, otherwise a key/value postgres DSN built from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	TTL          time.Duration `yaml:"ttl"`
	SeenThrottle time.Duration `yaml:"seenThrottle"`
	CookieSecure bool          `yaml:"cookieSecure"`
}

type LogConfig struct {
	Level             string `yaml:"level"`
	Encoding          string `yaml:"encoding"`
	DisableCaller     bool   `yaml:"disableCaller"`
	DisableStacktrace bool   `yaml:"disableStacktrace"`
}

type BootstrapConfig struct {
	AdminUsername string `yaml:"adminUsername"`
	AdminPassword string `yaml:"adminPassword"`
}

// MinioConfig 为空 Endpoint 时不启用证据照片存储
type MinioConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	AccessKey  string        `yaml:"accessKey"`
	SecretKey  string        `yaml:"secretKey"`
	Bucket     string        `yaml:"bucket"`
	UseSSL     bool          `yaml:"useSSL"`
	PresignTTL time.Duration `yaml:"presignTTL"`
}

// RabbitMQConfig 为空 URL 时事件只写日志
type RabbitMQConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allowOrigins"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{AppEnv: "dev", Port: "3001"},
		Database: DatabaseConfig{
			Driver:       "postgres",
			Host:         "127.0.0.1",
			Port:         "5432",
			User:         "postgres",
			Password:     "postgres",
			Name:         "bodega",
			SSLMode:      "disable",
			SQLitePath:   "bodega.db",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Redis:   RedisConfig{Addr: "127.0.0.1:6379"},
		Session: SessionConfig{TTL: 24 * time.Hour, SeenThrottle: time.Minute},
		Log:     LogConfig{Level: "info", Encoding: "console", DisableStacktrace: true},
		Minio:   MinioConfig{Bucket: "bodega-evidence", PresignTTL: 15 * time.Minute},
		RabbitMQ: RabbitMQConfig{
			Queue: "bodega.events",
		},
		CORS: CORSConfig{AllowOrigins: []string{"http://localhost:5173"}},
	}
}

// LoadEnv reads .env (if present), then the optional YAML file named by
// CONFIG_FILE, then environment variables. Later sources win.
func LoadEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(c *Config) {
	c.Server.AppEnv = getEnv("APP_ENV", c.Server.AppEnv)
	c.Server.Port = getEnv("PORT", c.Server.Port)

	c.Database.Driver = strings.ToLower(getEnv("DB_DRIVER", c.Database.Driver))
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.SQLitePath = getEnv("SQLITE_PATH", c.Database.SQLitePath)
	c.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	c.Session.TTL = getEnvSeconds("SESSION_TTL_SECONDS", c.Session.TTL)
	c.Session.SeenThrottle = getEnvSeconds("SEEN_THROTTLE_SECONDS", c.Session.SeenThrottle)
	c.Session.CookieSecure = getEnvBool("COOKIE_SECURE", c.Session.CookieSecure)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Encoding = getEnv("LOG_ENCODING", c.Log.Encoding)
	c.Log.DisableCaller = getEnvBool("LOG_DISABLE_CALLER", c.Log.DisableCaller)
	c.Log.DisableStacktrace = getEnvBool("LOG_DISABLE_STACKTRACE", c.Log.DisableStacktrace)

	c.Bootstrap.AdminUsername = getEnv("BOOTSTRAP_ADMIN_USERNAME", c.Bootstrap.AdminUsername)
	c.Bootstrap.AdminPassword = getEnv("BOOTSTRAP_ADMIN_PASSWORD", c.Bootstrap.AdminPassword)

	c.Minio.Endpoint = getEnv("MINIO_ENDPOINT", c.Minio.Endpoint)
	c.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", c.Minio.AccessKey)
	c.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", c.Minio.SecretKey)
	c.Minio.Bucket = getEnv("MINIO_BUCKET", c.Minio.Bucket)
	c.Minio.UseSSL = getEnvBool("MINIO_USE_SSL", c.Minio.UseSSL)
	c.Minio.PresignTTL = getEnvSeconds("MINIO_PRESIGN_TTL_SECONDS", c.Minio.PresignTTL)

	c.RabbitMQ.URL = getEnv("RABBITMQ_URL", c.RabbitMQ.URL)
	c.RabbitMQ.Queue = getEnv("RABBITMQ_QUEUE", c.RabbitMQ.Queue)

	c.CORS.AllowOrigins = getEnvSlice("CORS_ALLOW_ORIGINS", c.CORS.AllowOrigins)
}

func validate(c *Config) error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("config: port is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("config: session ttl must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	out := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

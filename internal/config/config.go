package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Environment name: "development" or "production"
	Env string

	// Public base URL used for sitemap and canonical links
	AppURL string

	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration (sessions and login throttling)
	Redis RedisConfig

	// NATS configuration (article lifecycle events)
	NATS NATSConfig

	// Security configuration
	Security SecurityConfig

	// Content configuration
	Content ContentConfig

	// Media upload configuration
	Media MediaConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig holds Redis settings. An empty URL selects in-process stores.
type RedisConfig struct {
	URL string
}

// NATSConfig holds NATS settings. An empty URL disables event publishing.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// SecurityConfig holds authentication and throttling settings
type SecurityConfig struct {
	AdminPath        string
	SessionTTL       time.Duration
	BcryptCost       int
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	SearchRPS        float64
	SearchBurst      int
	CORSOrigins      []string
}

// ContentConfig holds listing and derivation settings
type ContentConfig struct {
	ArticlesPerPage int
	AdminPerPage    int
	WordsPerMinute  int
	ExcerptLength   int
}

// MediaConfig holds image upload settings
type MediaConfig struct {
	UploadDir      string
	PublicPrefix   string
	MaxUploadBytes int64
	AllowedTypes   []string
	MaxWidth       int
	MaxHeight      int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "production")
	v.SetDefault("APP_URL", "http://localhost:8080")

	v.SetDefault("PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "editorial_cms")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MAX_LIFETIME", 5*time.Minute)

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_SUBJECT_PREFIX", "cms.article")

	v.SetDefault("ADMIN_PATH", "admin")
	v.SetDefault("SESSION_TTL", 2*time.Hour)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("MAX_LOGIN_ATTEMPTS", 5)
	v.SetDefault("LOCKOUT_DURATION", 15*time.Minute)
	v.SetDefault("SEARCH_RATE_LIMIT_RPS", 5.0)
	v.SetDefault("SEARCH_RATE_LIMIT_BURST", 10)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("ARTICLES_PER_PAGE", 10)
	v.SetDefault("ADMIN_PER_PAGE", 20)
	v.SetDefault("WORDS_PER_MINUTE", 238)
	v.SetDefault("EXCERPT_LENGTH", 180)

	v.SetDefault("UPLOAD_DIR", "./public/uploads")
	v.SetDefault("UPLOAD_PUBLIC_PREFIX", "/uploads")
	v.SetDefault("MAX_UPLOAD_SIZE", 5*1024*1024) // 5MB
	v.SetDefault("ALLOWED_IMAGE_TYPES", "image/jpeg,image/png,image/webp")
	v.SetDefault("IMAGE_MAX_WIDTH", 1600)
	v.SetDefault("IMAGE_MAX_HEIGHT", 900)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env:    v.GetString("ENV"),
		AppURL: strings.TrimRight(v.GetString("APP_URL"), "/"),
		Server: ServerConfig{
			Port:            v.GetString("PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxLifetime:  v.GetDuration("DB_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			URL: v.GetString("REDIS_URL"),
		},
		NATS: NATSConfig{
			URL:           v.GetString("NATS_URL"),
			SubjectPrefix: v.GetString("NATS_SUBJECT_PREFIX"),
		},
		Security: SecurityConfig{
			AdminPath:        strings.Trim(v.GetString("ADMIN_PATH"), "/"),
			SessionTTL:       v.GetDuration("SESSION_TTL"),
			BcryptCost:       v.GetInt("BCRYPT_COST"),
			MaxLoginAttempts: v.GetInt("MAX_LOGIN_ATTEMPTS"),
			LockoutDuration:  v.GetDuration("LOCKOUT_DURATION"),
			SearchRPS:        v.GetFloat64("SEARCH_RATE_LIMIT_RPS"),
			SearchBurst:      v.GetInt("SEARCH_RATE_LIMIT_BURST"),
			CORSOrigins:      splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Content: ContentConfig{
			ArticlesPerPage: v.GetInt("ARTICLES_PER_PAGE"),
			AdminPerPage:    v.GetInt("ADMIN_PER_PAGE"),
			WordsPerMinute:  v.GetInt("WORDS_PER_MINUTE"),
			ExcerptLength:   v.GetInt("EXCERPT_LENGTH"),
		},
		Media: MediaConfig{
			UploadDir:      v.GetString("UPLOAD_DIR"),
			PublicPrefix:   strings.TrimRight(v.GetString("UPLOAD_PUBLIC_PREFIX"), "/"),
			MaxUploadBytes: v.GetInt64("MAX_UPLOAD_SIZE"),
			AllowedTypes:   splitList(v.GetString("ALLOWED_IMAGE_TYPES")),
			MaxWidth:       v.GetInt("IMAGE_MAX_WIDTH"),
			MaxHeight:      v.GetInt("IMAGE_MAX_HEIGHT"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Content.ArticlesPerPage < 1 || c.Content.AdminPerPage < 1 {
		return fmt.Errorf("ARTICLES_PER_PAGE and ADMIN_PER_PAGE must be positive")
	}
	if c.Content.WordsPerMinute < 1 {
		return fmt.Errorf("WORDS_PER_MINUTE must be positive")
	}
	if c.Security.MaxLoginAttempts < 1 {
		return fmt.Errorf("MAX_LOGIN_ATTEMPTS must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	Facebook  Facebook  `yaml:"facebook"`
	Instagram Instagram `yaml:"instagram"`
	OpenAI    OpenAI    `yaml:"openai"`
	Publish   Publish   `yaml:"publish"`
	Calendar  Calendar  `yaml:"calendar"`
	Scheduler Scheduler `yaml:"scheduler"`
	S3        S3        `yaml:"s3"`
}

// Server holds HTTP server configuration
type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"120s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	// RequestTimeout must cover a publish run to every platform and an image generation.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" env-default:"90s"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// Database holds database configuration
type Database struct {
	PostgresDSN string `yaml:"postgres_dsn" env:"DATABASE_URL" env-required:"true"`

	// Connection pool settings
	MaxConns        int32         `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"25"`
	MinConns        int32         `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" env-default:"5m"`

	MigrateOnStart bool `yaml:"migrate_on_start" env:"DB_MIGRATE_ON_START" env-default:"true"`
}

// Facebook holds Facebook Graph API configuration
type Facebook struct {
	BaseURL     string `yaml:"base_url" env:"FACEBOOK_BASE_URL" env-default:"https://graph.facebook.com"`
	APIVersion  string `yaml:"api_version" env:"FACEBOOK_API_VERSION" env-default:"v18.0"`
	PageID      string `yaml:"page_id" env:"FACEBOOK_PAGE_ID" env-default:"me"`
	AccessToken string `yaml:"access_token" env:"FACEBOOK_ACCESS_TOKEN"`
}

// Instagram holds Instagram API configuration
type Instagram struct {
	BaseURL     string `yaml:"base_url" env:"INSTAGRAM_BASE_URL" env-default:"https://graph.instagram.com"`
	APIVersion  string `yaml:"api_version" env:"INSTAGRAM_API_VERSION" env-default:"v21.0"`
	UserID      string `yaml:"user_id" env:"INSTAGRAM_USER_ID"`
	AccessToken string `yaml:"access_token" env:"INSTAGRAM_ACCESS_TOKEN"`
}

// Enabled reports whether Instagram publishing is configured
func (i Instagram) Enabled() bool {
	return i.UserID != "" && i.AccessToken != ""
}

// OpenAI holds content generation configuration
type OpenAI struct {
	BaseURL    string `yaml:"base_url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1"`
	APIKey     string `yaml:"api_key" env:"OPENAI_API_KEY"`
	TextModel  string `yaml:"text_model" env:"OPENAI_TEXT_MODEL" env-default:"gpt-4o"`
	ImageModel string `yaml:"image_model" env:"OPENAI_IMAGE_MODEL" env-default:"dall-e-3"`
}

// Publish holds publish orchestration settings
type Publish struct {
	Concurrency     int           `yaml:"concurrency" env:"PUBLISH_CONCURRENCY" env-default:"4"`
	PlatformTimeout time.Duration `yaml:"platform_timeout" env:"PUBLISH_PLATFORM_TIMEOUT" env-default:"30s"`
}

// Calendar holds calendar view settings
type Calendar struct {
	Timezone      string `yaml:"timezone" env:"CALENDAR_TIMEZONE" env-default:"UTC"`
	UpcomingLimit int    `yaml:"upcoming_limit" env:"CALENDAR_UPCOMING_LIMIT" env-default:"5"`
}

// Location resolves the configured time zone
func (c Calendar) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading calendar timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Scheduler holds the due-post sweeper configuration
type Scheduler struct {
	Enabled bool   `yaml:"enabled" env:"SCHEDULER_ENABLED" env-default:"false"`
	Spec    string `yaml:"spec" env:"SCHEDULER_SPEC" env-default:"@every 1m"`
}

// S3 holds S3/MinIO storage configuration
type S3 struct {
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT" env-default:"http://localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	Bucket          string `yaml:"bucket" env:"S3_BUCKET" env-default:"media"`
	Region          string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	PublicURL       string `yaml:"public_url" env:"S3_PUBLIC_URL" env-default:"http://localhost:9000/media"`
}

// MustLoad loads configuration from environment and panics on error
func MustLoad() Config {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}

// LoadFromFile loads configuration from a YAML file, environment variables override it
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	TokenFormatJWT    = "jwt"
	TokenFormatPaseto = "paseto"

	ImagesBackendDisk = "disk"
	ImagesBackendS3   = "s3"
)

var defaultAllowedContentTypes = []string{"image/jpeg", "image/jpg", "image/png"}

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	SMS       SMSConfig
	Images    ImagesConfig
	Todos     TodosConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port            string        `env:"SERVER_PORT,default=8080"`
	Env             string        `env:"APP_ENV,default=dev"` // dev or prod
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT,default=10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT,default=30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=15s"`
	// DisplayErrors overrides whether 500 responses carry error details.
	// Empty means "only in dev".
	DisplayErrors  string   `env:"SERVER_DISPLAY_ERRORS"`
	TrustedOrigins []string `env:"TRUSTED_ORIGINS,default=http://localhost:8000"`
}

type DatabaseConfig struct {
	URL         string `env:"DB_URL"` // takes precedence over the discrete fields
	Host        string `env:"DB_HOST,default=localhost"`
	Port        string `env:"DB_PORT,default=5432"`
	User        string `env:"DB_USER,default=postgres"`
	Password    string `env:"DB_PASSWORD,default=postgres"`
	DBName      string `env:"DB_NAME,default=todos"`
	SSLMode     string `env:"DB_SSLMODE,default=disable"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE,default=true"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED,default=true"`
	Host     string `env:"REDIS_HOST,default=localhost"`
	Port     string `env:"REDIS_PORT,default=6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
}

type AuthConfig struct {
	// SecretKey signs HS256 tokens.
	SecretKey   string `env:"SECRET_KEY"`
	TokenFormat string `env:"AUTH_TOKEN_FORMAT,default=jwt"`
	// PasetoKey must be 32 bytes when TokenFormat is paseto.
	PasetoKey   string        `env:"PASETO_KEY"`
	TokenMaxAge time.Duration `env:"TOKEN_MAX_AGE,default=24h"`

	ConfirmOnRegister   bool          `env:"AUTH_CONFIRM_ON_REGISTER,default=false"`
	ConfirmationCodeTTL time.Duration `env:"CONFIRMATION_CODE_TTL,default=10m"`

	Argon2Time     uint32 `env:"ARGON2_TIME,default=3"`
	Argon2MemoryKB uint32 `env:"ARGON2_MEMORY_KB,default=65536"`
	Argon2Threads  uint8  `env:"ARGON2_THREADS,default=4"`
}

type SMSConfig struct {
	TwilioAccountSID   string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `env:"TWILIO_AUTH_TOKEN"`
	TwilioMobileNumber string `env:"TWILIO_MOBILE_NUMBER"`
}

type ImagesConfig struct {
	Backend             string   `env:"IMAGES_BACKEND,default=disk"`
	Dir                 string   `env:"IMAGES_DIR,default=media/images"`
	MaxWidth            int      `env:"IMAGES_MAX_WIDTH,default=1920"`
	MaxHeight           int      `env:"IMAGES_MAX_HEIGHT,default=1080"`
	MaxBytes            int64    `env:"IMAGES_MAX_BYTES,default=10485760"`
	AllowedContentTypes []string `env:"IMAGES_ALLOWED_CONTENT_TYPES"`

	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION,default=us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"` // MinIO or another S3-compatible endpoint
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
}

type TodosConfig struct {
	PerPage int `env:"TODOS_PER_PAGE,default=4"`
}

type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS,default=10"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW,default=15m"`
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if len(cfg.Images.AllowedContentTypes) == 0 {
		cfg.Images.AllowedContentTypes = append([]string(nil), defaultAllowedContentTypes...)
	}
	for i, ct := range cfg.Images.AllowedContentTypes {
		cfg.Images.AllowedContentTypes[i] = strings.ToLower(strings.TrimSpace(ct))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	switch c.Auth.TokenFormat {
	case TokenFormatJWT:
		if c.Auth.SecretKey == "" {
			return fmt.Errorf("SECRET_KEY is required")
		}
	case TokenFormatPaseto:
		if len(c.Auth.PasetoKey) != 32 {
			return fmt.Errorf("PASETO_KEY must be exactly 32 bytes, got %d", len(c.Auth.PasetoKey))
		}
	default:
		return fmt.Errorf("unknown AUTH_TOKEN_FORMAT %q", c.Auth.TokenFormat)
	}

	if c.Auth.TokenMaxAge <= 0 {
		return fmt.Errorf("TOKEN_MAX_AGE must be positive")
	}
	if c.Auth.ConfirmationCodeTTL < 0 {
		return fmt.Errorf("CONFIRMATION_CODE_TTL must not be negative")
	}

	switch c.Images.Backend {
	case ImagesBackendDisk:
		if c.Images.Dir == "" {
			return fmt.Errorf("IMAGES_DIR is required for the disk backend")
		}
	case ImagesBackendS3:
		if c.Images.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown IMAGES_BACKEND %q", c.Images.Backend)
	}

	if c.Images.MaxWidth < 1 || c.Images.MaxHeight < 1 {
		return fmt.Errorf("IMAGES_MAX_WIDTH and IMAGES_MAX_HEIGHT must be positive")
	}
	if c.Images.MaxBytes < 1 {
		return fmt.Errorf("IMAGES_MAX_BYTES must be positive")
	}
	if c.Todos.PerPage < 1 {
		return fmt.Errorf("TODOS_PER_PAGE must be >= 1, got %d", c.Todos.PerPage)
	}

	if _, err := c.Server.showErrors(); err != nil {
		return err
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

// ShowErrorDetails reports whether internal error details may be returned to clients.
func (c *ServerConfig) ShowErrorDetails() bool {
	show, err := c.showErrors()
	if err != nil {
		return false
	}
	return show
}

func (c *ServerConfig) showErrors() (bool, error) {
	if c.DisplayErrors == "" {
		return c.IsDevelopment(), nil
	}

	show, err := strconv.ParseBool(c.DisplayErrors)
	if err != nil {
		return false, fmt.Errorf("SERVER_DISPLAY_ERRORS must be a boolean, got %q", c.DisplayErrors)
	}
	return show, nil
}

// Enabled reports whether Twilio credentials are configured.
func (c *SMSConfig) Enabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioMobileNumber != ""
}

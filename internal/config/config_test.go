package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.True(t, cfg.Server.ShowErrorDetails())
	assert.Equal(t, []string{"http://localhost:8000"}, cfg.Server.TrustedOrigins)
	assert.Equal(t, TokenFormatJWT, cfg.Auth.TokenFormat)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenMaxAge)
	assert.Equal(t, 10*time.Minute, cfg.Auth.ConfirmationCodeTTL)
	assert.False(t, cfg.Auth.ConfirmOnRegister)
	assert.Equal(t, 4, cfg.Todos.PerPage)
	assert.Equal(t, 1920, cfg.Images.MaxWidth)
	assert.Equal(t, 1080, cfg.Images.MaxHeight)
	assert.Equal(t, []string{"image/jpeg", "image/jpg", "image/png"}, cfg.Images.AllowedContentTypes)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
	assert.False(t, cfg.SMS.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("TODOS_PER_PAGE", "10")
	t.Setenv("TOKEN_MAX_AGE", "2h")
	t.Setenv("IMAGES_ALLOWED_CONTENT_TYPES", "image/PNG, image/jpeg")
	t.Setenv("DB_URL", "postgres://u:p@db:5432/todos")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Server.IsDevelopment())
	assert.False(t, cfg.Server.ShowErrorDetails())
	assert.Equal(t, 10, cfg.Todos.PerPage)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenMaxAge)
	assert.Equal(t, []string{"image/png", "image/jpeg"}, cfg.Images.AllowedContentTypes)
	assert.Equal(t, "postgres://u:p@db:5432/todos", cfg.Database.ConnectionString())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Env: "dev"},
			Auth: AuthConfig{
				SecretKey:   "secret",
				TokenFormat: TokenFormatJWT,
				TokenMaxAge: time.Hour,
			},
			Images: ImagesConfig{
				Backend:   ImagesBackendDisk,
				Dir:       "media",
				MaxWidth:  10,
				MaxHeight: 10,
				MaxBytes:  1024,
			},
			Todos: TodosConfig{PerPage: 4},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "short paseto key",
			mutate:  func(c *Config) { c.Auth.TokenFormat = TokenFormatPaseto; c.Auth.PasetoKey = "short" },
			wantErr: "PASETO_KEY",
		},
		{
			name:   "paseto key ok",
			mutate: func(c *Config) { c.Auth.TokenFormat = TokenFormatPaseto; c.Auth.PasetoKey = "0123456789abcdef0123456789abcdef" },
		},
		{
			name:    "unknown token format",
			mutate:  func(c *Config) { c.Auth.TokenFormat = "saml" },
			wantErr: "AUTH_TOKEN_FORMAT",
		},
		{
			name:    "s3 without bucket",
			mutate:  func(c *Config) { c.Images.Backend = ImagesBackendS3 },
			wantErr: "S3_BUCKET",
		},
		{
			name:    "zero page size",
			mutate:  func(c *Config) { c.Todos.PerPage = 0 },
			wantErr: "TODOS_PER_PAGE",
		},
		{
			name:    "bad display errors flag",
			mutate:  func(c *Config) { c.Server.DisplayErrors = "sometimes" },
			wantErr: "SERVER_DISPLAY_ERRORS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestShowErrorDetails_Override(t *testing.T) {
	cfg := ServerConfig{Env: "dev", DisplayErrors: "false"}
	assert.False(t, cfg.ShowErrorDetails())

	cfg = ServerConfig{Env: "prod", DisplayErrors: "true"}
	assert.True(t, cfg.ShowErrorDetails())
}

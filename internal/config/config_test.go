package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPasetoKey = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // keep a developer's .env out of the test
	t.Setenv("PASETO_KEY", testPasetoKey)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, TokenPaseto, cfg.Auth.TokenFormat)
	assert.Equal(t, 5*time.Minute, cfg.Auth.OTPExpiry)
	assert.Equal(t, 15*24*time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, "todoApp", cfg.Storage.AvatarFolder)
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxSize)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "mongodb")
	t.Setenv("TOKEN_FORMAT", "jwt")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("OTP_EXPIRE", "10")
	t.Setenv("TOKEN_DURATION", "3600")
	t.Setenv("TRUSTED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, []byte("s3cret"), cfg.Auth.JWTSecret)
	assert.Equal(t, 10*time.Minute, cfg.Auth.OTPExpiry)
	assert.Equal(t, time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.TrustedOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: DriverMemory},
			Auth: AuthConfig{
				TokenFormat: TokenPaseto,
				PasetoKey:   []byte(testPasetoKey),
				OTPExpiry:   time.Minute,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "unsupported DB_DRIVER"},
		{name: "short paseto key", mutate: func(c *Config) { c.Auth.PasetoKey = []byte("short") }, wantErr: "PASETO_KEY must be exactly 32 bytes"},
		{name: "jwt without secret", mutate: func(c *Config) { c.Auth.TokenFormat = TokenJWT }, wantErr: "JWT_SECRET is required"},
		{name: "unknown token format", mutate: func(c *Config) { c.Auth.TokenFormat = "saml" }, wantErr: "unsupported TOKEN_FORMAT"},
		{name: "zero otp window", mutate: func(c *Config) { c.Auth.OTPExpiry = 0 }, wantErr: "OTP_EXPIRE"},
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

func TestConnectionString(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "todo", SSLMode: "require", ChannelBinding: "require"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=todo sslmode=require channel_binding=require", c.ConnectionString())
}

package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, DriverMongo, cfg.DBDriver)
	assert.Equal(t, StorageLocal, cfg.Storage.Driver)
	assert.EqualValues(t, 10<<20, cfg.MaxUploadBytes)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "blog", cfg.Mongo.Database)
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":            "production",
		"JWT_SECRET":     "s3cret",
		"TOKEN_TTL":      "2h",
		"ADMIN_EMAILS":   "root@example.com,ops@example.com",
		"DB_DRIVER":      "memory",
		"STORAGE_DRIVER": "minio",
		"MINIO_USE_SSL":  "true",
		"REDIS_ADDR":     "localhost:6379",
	}))
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"root@example.com", "ops@example.com"}, cfg.AdminEmails)
	assert.Equal(t, DriverMemory, cfg.DBDriver)
	assert.True(t, cfg.Storage.MinIO.UseSSL)
	assert.Equal(t, "uploads", cfg.Storage.MinIO.Bucket)
}

func TestLoadWith_RequiresSecretOutsideDevelopment(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{"ENV": "production"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadWith_RejectsUnknownDrivers(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"DB_DRIVER":      "sqlite",
		"STORAGE_DRIVER": "ftp",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
}

func TestTrustedProxyRanges(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"TRUSTED_PROXIES": "10.0.0.0/8,192.0.2.10",
	}))
	require.NoError(t, err)

	ranges, err := cfg.TrustedProxyRanges()
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, "10.0.0.0/8", ranges[0].String())
	assert.Equal(t, "192.0.2.10/32", ranges[1].String())

	_, err = LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"TRUSTED_PROXIES": "not-a-range",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRUSTED_PROXIES")
}

package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/huddle/internal/auth"
	"github.com/charlesng35/huddle/internal/auth/providers"
	"github.com/charlesng35/huddle/internal/cache"
	"github.com/charlesng35/huddle/internal/database"
	"github.com/charlesng35/huddle/internal/storage"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "console", cfg.Server.LogFormat)
	require.Equal(t, []string{"https://app.example.com"}, cfg.Server.CORSOrigins)
	require.Equal(t, 50, cfg.Server.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "disable", cfg.Database.Postgres.Options["sslmode"])

	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "redis.example.com:6380", cfg.Cache.Redis.Address)
	require.Equal(t, 2, cfg.Cache.Redis.DB)
	require.Equal(t, 3*time.Second, cfg.Cache.Redis.Timeout)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, 1440*time.Hour, cfg.Auth.Session.RefreshTTL)
	require.Equal(t, 64, cfg.Auth.Session.RefreshLength)
	require.Equal(t, 7, cfg.Auth.Local.LockoutThreshold)
	require.Equal(t, 20*time.Minute, cfg.Auth.Local.LockoutDuration)
	require.Equal(t, 10, cfg.Auth.Local.MinPasswordLength)

	require.Equal(t, StorageBackendS3, cfg.Storage.BackendName())
	require.Equal(t, "team-files", cfg.Storage.Bucket)
	require.EqualValues(t, 1<<20, cfg.Storage.MaxUploadBytes)
	require.False(t, cfg.Storage.S3.UseSSL)

	require.Equal(t, 30, cfg.Maintenance.AuditRetentionDays)
	require.True(t, cfg.Maintenance.Enabled)
	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, StorageBackendFilesystem, cfg.Storage.BackendName())
	require.EqualValues(t, 25<<20, cfg.Storage.MaxUploadBytes)
	require.Equal(t, 90, cfg.Maintenance.AuditRetentionDays)
	require.Empty(t, cfg.Auth.JWT.Secret)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("HUDDLE_SERVER_PORT", "7070")
	t.Setenv("HUDDLE_STORAGE_BACKEND", "filesystem")

	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, StorageBackendFilesystem, cfg.Storage.BackendName())
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "huddle.env")
	require.NoError(t, os.WriteFile(envFile, []byte("HUDDLE_AUTH_JWT_SECRET=from-dotenv\n"), 0o600))
	t.Setenv("HUDDLE_ENV_FILE", envFile)
	t.Cleanup(func() { os.Unsetenv("HUDDLE_AUTH_JWT_SECRET") })

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", cfg.Auth.JWT.Secret)
}

func TestLoadConfigMissingExplicitEnvFile(t *testing.T) {
	t.Setenv("HUDDLE_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := Config{
		Auth: AuthConfig{
			JWT: JWTSettings{
				Secret: "secret",
				Issuer: "issuer",
				TTL:    30 * time.Minute,
			},
			Session: SessionSettings{
				RefreshTTL:    10 * time.Hour,
				RefreshLength: 32,
			},
			Local: LocalAuthSettings{
				LockoutThreshold:  4,
				LockoutDuration:   10 * time.Minute,
				MinPasswordLength: 12,
			},
		},
	}

	require.Equal(t, auth.JWTConfig{
		Secret:         "secret",
		Issuer:         "issuer",
		AccessTokenTTL: 30 * time.Minute,
	}, cfg.Auth.JWTServiceConfig())

	require.Equal(t, auth.SessionConfig{
		RefreshTokenTTL: 10 * time.Hour,
		RefreshLength:   32,
	}, cfg.Auth.SessionServiceConfig(nil))

	require.Equal(t, providers.LocalConfig{
		LockoutThreshold:  4,
		LockoutDuration:   10 * time.Minute,
		MinPasswordLength: 12,
	}, cfg.Auth.LocalProviderConfig())
}

func TestAuthConfigAdaptersFallback(t *testing.T) {
	var cfg AuthConfig

	require.Equal(t, auth.DefaultAccessTokenTTL, cfg.JWTServiceConfig().AccessTokenTTL)

	sessionCfg := cfg.SessionServiceConfig(cache.NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})))
	require.Equal(t, auth.DefaultRefreshTokenTTL, sessionCfg.RefreshTokenTTL)
	require.Equal(t, 48, sessionCfg.RefreshLength)
	require.NotNil(t, sessionCfg.Cache)

	localCfg := cfg.LocalProviderConfig()
	require.Equal(t, defaultLockoutThreshold, localCfg.LockoutThreshold)
	require.Equal(t, defaultLockoutDuration, localCfg.LockoutDuration)
	require.Equal(t, defaultMinPasswordLength, localCfg.MinPasswordLength)
}

func TestDatabaseConnectionConfig(t *testing.T) {
	cfg := DatabaseConfig{
		Driver: "Postgres",
		Postgres: DBAuthConfig{
			Host:     " db.example.com ",
			Port:     5432,
			Database: "huddle",
			Username: "app",
			Password: "pw",
		},
		MySQL: DBAuthConfig{Host: "ignored"},
	}

	require.Equal(t, database.Config{
		Driver:   "postgres",
		Host:     "db.example.com",
		Port:     5432,
		Name:     "huddle",
		User:     "app",
		Password: "pw",
	}, cfg.ConnectionConfig())

	sqlite := DatabaseConfig{Driver: "sqlite", Path: "./data/x.sqlite", MySQL: DBAuthConfig{Host: "ignored"}}
	require.Equal(t, database.Config{Driver: "sqlite", Path: "./data/x.sqlite"}, sqlite.ConnectionConfig())
}

func TestStorageConfig(t *testing.T) {
	cfg := StorageConfig{
		Backend: "S3",
		Bucket:  "files",
		S3: S3StorageConfig{
			Endpoint:  "minio:9000",
			AccessKey: "key",
			SecretKey: "secret",
			UseSSL:    true,
		},
	}
	require.NoError(t, cfg.Validate())
	require.Equal(t, storage.S3Config{
		Endpoint:  "minio:9000",
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "files",
		UseSSL:    true,
	}, cfg.S3ClientConfig())

	require.Error(t, StorageConfig{Backend: "s3"}.Validate())
	require.Error(t, StorageConfig{Backend: "ftp"}.Validate())
	require.Error(t, StorageConfig{}.Validate())
	require.NoError(t, StorageConfig{Filesystem: FilesystemStorageConfig{Root: "/tmp/files"}}.Validate())
}

func TestRedisClientConfig(t *testing.T) {
	cfg := CacheConfig{Redis: RedisCacheConfig{Address: " localhost:6379 ", DB: 3, Timeout: time.Second}}
	require.Equal(t, cache.RedisConfig{Address: "localhost:6379", DB: 3, Timeout: time.Second}, cfg.RedisClientConfig())
}

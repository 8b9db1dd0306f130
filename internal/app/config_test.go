package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/scribekeys/internal/auth"
	"github.com/charlesng35/scribekeys/internal/database"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.True(t, cfg.Server.CSRF.Enabled)
	require.Equal(t, []string{"chrome-extension://abcdefghijklmnop", "https://app.scribekeys.example"}, cfg.Server.CORS.AllowedOrigins)
	require.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 6543, cfg.Database.Postgres.Port)
	require.Equal(t, 20, cfg.Database.Pool.MaxOpenConns)
	require.Equal(t, 30*time.Minute, cfg.Database.Pool.ConnMaxLifetime)

	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "redis.example.com:6380", cfg.Cache.Redis.Address)
	require.Equal(t, 2, cfg.Cache.Redis.DB)
	require.Equal(t, 3*time.Second, cfg.Cache.Redis.Timeout)
	require.Equal(t, "scribekeys:", cfg.Cache.Redis.Prefix)

	require.Equal(t, "redis", cfg.RateLimit.Store)
	require.Equal(t, 10, cfg.RateLimit.Sync.Requests)
	require.Equal(t, 30*time.Second, cfg.RateLimit.Sync.Window)
	require.Equal(t, 300, cfg.RateLimit.Global.Requests)

	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, 30, cfg.Maintenance.AuditRetentionDays)
	require.Equal(t, "@daily", cfg.Maintenance.AuditSchedule)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "scribe-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, "sk_session", cfg.Auth.Cookie.Name)

	require.Equal(t, "admin@example.com", cfg.Bootstrap.AdminEmail)
	require.Equal(t, "Administrator", cfg.Bootstrap.AdminName)
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "json", cfg.Server.LogFormat)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/scribekeys.sqlite", cfg.Database.Path)
	require.Equal(t, "memory", cfg.RateLimit.Store)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "scribekeys_session", cfg.Auth.Cookie.Name)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SCRIBE_SERVER_PORT", "7070")
	t.Setenv("SCRIBE_AUTH_JWT_SECRET", "from-env")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "from-env", cfg.Auth.JWT.Secret)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{
		JWT: JWTSettings{
			Secret: "secret",
			Issuer: "issuer",
			TTL:    30 * time.Minute,
		},
	}

	require.Equal(t, auth.JWTConfig{
		Secret:         "secret",
		Issuer:         "issuer",
		AccessTokenTTL: 30 * time.Minute,
	}, cfg.JWTServiceConfig())

	var empty AuthConfig
	require.Zero(t, empty.JWTServiceConfig().AccessTokenTTL)
}

func TestDatabaseConnectionConfigFromEnvironment(t *testing.T) {
	t.Setenv("SCRIBE_DATABASE_DRIVER", "postgres")
	t.Setenv("SCRIBE_DATABASE_POSTGRES_HOST", "pg.internal")
	t.Setenv("SCRIBE_DATABASE_POSTGRES_DATABASE", "bindings")
	t.Setenv("SCRIBE_DATABASE_POSTGRES_USERNAME", "scribe")
	t.Setenv("SCRIBE_DATABASE_POSTGRES_PASSWORD", "pw")
	t.Setenv("SCRIBE_DATABASE_MYSQL_HOST", "mysql.internal")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	conn := cfg.Database.ConnectionConfig()
	require.Equal(t, "postgres", conn.Driver)
	require.Equal(t, "pg.internal", conn.Host)
	require.Equal(t, 5432, conn.Port)
	require.Equal(t, "bindings", conn.Name)
	require.Equal(t, "scribe", conn.User)
	require.Equal(t, "pw", conn.Password)
}

func TestMaintenanceSchedule(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	schedule := cfg.Maintenance.Schedule()
	require.Equal(t, 90, schedule.AuditRetentionDays)
	require.Equal(t, "@daily", schedule.AuditSpec)
	require.Equal(t, "@hourly", schedule.CounterSpec)
}

func TestDatabaseConnectionConfig(t *testing.T) {
	cfg := DatabaseConfig{
		Driver: "MySQL",
		MySQL: DBAuthConfig{
			Host:     "mysql.internal",
			Port:     3307,
			Database: "scribe",
			Username: "app",
			Password: "pw",
		},
		Postgres: DBAuthConfig{Host: "ignored"},
		Pool:     DBPoolConfig{MaxOpenConns: 5},
	}

	require.Equal(t, database.Config{
		Driver:       "mysql",
		Host:         "mysql.internal",
		Port:         3307,
		Name:         "scribe",
		User:         "app",
		Password:     "pw",
		MaxOpenConns: 5,
	}, cfg.ConnectionConfig())

	sqlite := DatabaseConfig{Driver: "sqlite", Path: "./data/x.sqlite"}
	require.Equal(t, database.Config{Driver: "sqlite", Path: "./data/x.sqlite"}, sqlite.ConnectionConfig())
}

func TestRedisClientConfig(t *testing.T) {
	cfg := CacheConfig{Redis: RedisCacheConfig{Address: " redis:6379 ", Username: " user ", Password: "pw", DB: 1, Prefix: "sk:"}}
	redisCfg := cfg.RedisClientConfig()
	require.Equal(t, "redis:6379", redisCfg.Address)
	require.Equal(t, "user", redisCfg.Username)
	require.Equal(t, 1, redisCfg.DB)
	require.Equal(t, "sk:", redisCfg.Prefix)
}

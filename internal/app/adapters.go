package app

import (
	"strings"

	"github.com/charlesng35/scribekeys/internal/app/maintenance"
	"github.com/charlesng35/scribekeys/internal/auth"
	"github.com/charlesng35/scribekeys/internal/cache"
	"github.com/charlesng35/scribekeys/internal/database"
)

// The methods below translate configuration sections into the option structs of the
// packages that consume them, so those packages never import app.

// JWTServiceConfig is the token service configuration. The JWT service applies its own
// lifetime default when TTL is unset.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         strings.TrimSpace(c.JWT.Issuer),
		AccessTokenTTL: c.JWT.TTL,
	}
}

// RedisClientConfig is the Redis counter configuration.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	r := c.Redis
	return cache.RedisConfig{
		Address:  strings.TrimSpace(r.Address),
		Username: strings.TrimSpace(r.Username),
		Password: r.Password,
		DB:       r.DB,
		Timeout:  r.Timeout,
		Prefix:   r.Prefix,
	}
}

// Schedule is the retention job schedule.
func (c MaintenanceConfig) Schedule() maintenance.Schedule {
	return maintenance.Schedule{
		AuditRetentionDays: c.AuditRetentionDays,
		AuditSpec:          strings.TrimSpace(c.AuditSchedule),
		CounterSpec:        strings.TrimSpace(c.CounterSchedule),
	}
}

// ConnectionConfig is the database connection configuration. Only the host block of the
// selected driver is read, so SCRIBE_DATABASE_POSTGRES_* and SCRIBE_DATABASE_MYSQL_* can
// both be present in one environment.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	cfg := database.Config{
		Driver:          strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:            strings.TrimSpace(c.Path),
		DSN:             strings.TrimSpace(c.DSN),
		MaxOpenConns:    c.Pool.MaxOpenConns,
		MaxIdleConns:    c.Pool.MaxIdleConns,
		ConnMaxLifetime: c.Pool.ConnMaxLifetime,
	}

	var host DBAuthConfig
	switch cfg.Driver {
	case "postgres", "postgresql":
		host = c.Postgres
	case "mysql":
		host = c.MySQL
	default:
		return cfg
	}

	cfg.Host = strings.TrimSpace(host.Host)
	cfg.Port = host.Port
	cfg.Name = host.Database
	cfg.User = host.Username
	cfg.Password = host.Password
	cfg.Options = host.Options
	return cfg
}

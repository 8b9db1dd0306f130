package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/scribekeys/internal/api"
	"github.com/charlesng35/scribekeys/internal/app"
	"github.com/charlesng35/scribekeys/internal/app/maintenance"
	iauth "github.com/charlesng35/scribekeys/internal/auth"
	"github.com/charlesng35/scribekeys/internal/cache"
	"github.com/charlesng35/scribekeys/internal/database"
	"github.com/charlesng35/scribekeys/internal/monitoring/checks"
	"github.com/charlesng35/scribekeys/internal/services"
	"github.com/charlesng35/scribekeys/pkg/logger"
)

const defaultShutdownTimeout = 15 * time.Second

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Redis    *cache.RedisCounter
	AuditSvc *services.AuditService
	Cleaner  *maintenance.Cleaner
	Counter  cache.Counter
	Router   *gin.Engine
}

// bootstrapRuntime opens the database, provisions the bootstrap administrator, starts
// maintenance jobs and builds the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisCounter(ctx, cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to database-backed counters", zap.Error(err))
			stack.Redis = nil
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	stack.AuditSvc, err = services.NewAuditService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}

	users, err := services.NewUserService(stack.DB, stack.AuditSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}
	if _, err := users.EnsureBootstrapAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminName); err != nil {
		return nil, fmt.Errorf("bootstrap administrator: %w", err)
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(stack.DB, stack.AuditSvc, cfg.Maintenance.Schedule())
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Counter = selectCounter(cfg.RateLimit.Store, stack.DB, stack.Redis, log)

	var redisProbe checks.RedisPinger
	if stack.Redis != nil {
		redisProbe = stack.Redis
	}

	stack.Router, err = api.NewRouter(stack.DB, jwtSvc, cfg, stack.Counter,
		checks.Redis(redisProbe, cfg.Cache.Redis.Enabled, cfg.Cache.Redis.Timeout))
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// selectCounter resolves where rate-limit windows live. A redis selection without a
// reachable server degrades to the database so limits stay shared across instances.
func selectCounter(kind string, db *gorm.DB, redis *cache.RedisCounter, log *zap.Logger) cache.Counter {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "redis":
		if redis != nil {
			return redis
		}
		log.Warn("ratelimit.store is redis but redis is unavailable; using database counters")
		return cache.NewDatabaseCounter(db)
	case "database":
		return cache.NewDatabaseCounter(db)
	default:
		return cache.NewMemoryCounter()
	}
}

// Shutdown stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			ctx = stopCtx
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

// serveHTTP runs the server until ctx is cancelled, then drains in-flight requests.
func serveHTTP(ctx context.Context, cfg *app.Config, stack *runtimeStack, log *zap.Logger) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: stack.Router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

// mintToken issues a session token for the active user with the given email.
func mintToken(ctx context.Context, db *gorm.DB, cfg *app.Config, email string) (string, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return "", fmt.Errorf("initialise audit service: %w", err)
	}
	users, err := services.NewUserService(db, audit)
	if err != nil {
		return "", fmt.Errorf("initialise user service: %w", err)
	}

	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !user.IsActive {
		return "", fmt.Errorf("user %s is inactive", user.Email)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return "", fmt.Errorf("initialise jwt service: %w", err)
	}

	return jwtSvc.GenerateAccessToken(iauth.AccessTokenInput{
		UserID:    user.ID,
		SessionID: uuid.NewString(),
		Role:      user.Role,
		Tier:      user.Tier,
	})
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		closeDatabase(db, logger.WithModule("database"))
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}

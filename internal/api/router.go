package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/scribekeys/internal/app"
	iauth "github.com/charlesng35/scribekeys/internal/auth"
	"github.com/charlesng35/scribekeys/internal/cache"
	"github.com/charlesng35/scribekeys/internal/handlers"
	"github.com/charlesng35/scribekeys/internal/middleware"
	"github.com/charlesng35/scribekeys/internal/monitoring"
	"github.com/charlesng35/scribekeys/internal/security"
	"github.com/charlesng35/scribekeys/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers every route. counter
// holds the rate-limit windows; nil keeps them in process memory. probes are added to
// the readiness endpoint next to the database check.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, counter cache.Counter, probes ...monitoring.Check) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if counter == nil {
		counter = cache.NewMemoryCounter()
	}

	svc, err := newServiceSet(db)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins...))
	if cfg.Server.CSRF.Enabled {
		r.Use(middleware.CSRF())
	}
	r.Use(middleware.RateLimit(counter, middleware.RateLimitOptions{
		Requests: cfg.RateLimit.Global.Requests,
		Window:   cfg.RateLimit.Global.Window,
		Prefix:   "ratelimit:global:",
	}))

	registerHealthRoutes(r, db, probes)

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	api.Use(middleware.Auth(jwt, svc.users, middleware.AuthOptions{CookieName: cfg.Auth.Cookie.Name}))

	registerProfileRoutes(api, handlers.NewProfileHandler())
	registerKeyBindingRoutes(api, handlers.NewKeyBindingHandler(svc.bindings, svc.audit), svc.audit)
	registerKeyBindingGroupRoutes(api, handlers.NewKeyBindingGroupHandler(svc.groups, svc.provisioner, svc.audit), svc.audit)
	registerExtensionRoutes(api, handlers.NewExtensionHandler(svc.settings, svc.sync), middleware.RateLimit(counter, middleware.RateLimitOptions{
		Requests: cfg.RateLimit.Sync.Requests,
		Window:   cfg.RateLimit.Sync.Window,
		Prefix:   "ratelimit:sync:",
	}))
	registerAdminRoutes(api,
		handlers.NewUserHandler(svc.users),
		handlers.NewAuditHandler(svc.audit),
		handlers.NewSecurityHandler(security.NewPosture(db, jwt, cfg)),
		svc.audit,
	)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

type serviceSet struct {
	audit       *services.AuditService
	users       *services.UserService
	groups      *services.KeyBindingGroupService
	provisioner *services.GroupProvisioner
	bindings    *services.KeyBindingService
	settings    *services.ExtensionSettingsService
	sync        *services.ExtensionSyncService
}

func newServiceSet(db *gorm.DB) (*serviceSet, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	set := &serviceSet{audit: audit}

	if set.users, err = services.NewUserService(db, audit); err != nil {
		return nil, err
	}
	if set.groups, err = services.NewKeyBindingGroupService(db, audit); err != nil {
		return nil, err
	}
	if set.provisioner, err = services.NewGroupProvisioner(db, audit); err != nil {
		return nil, err
	}
	if set.bindings, err = services.NewKeyBindingService(db, audit); err != nil {
		return nil, err
	}
	if set.settings, err = services.NewExtensionSettingsService(db, audit); err != nil {
		return nil, err
	}
	if set.sync, err = services.NewExtensionSyncService(db, audit); err != nil {
		return nil, err
	}
	return set, nil
}

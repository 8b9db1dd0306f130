package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/scribekeys/internal/app"
	iauth "github.com/charlesng35/scribekeys/internal/auth"
	"github.com/charlesng35/scribekeys/internal/entitlements"
	"github.com/charlesng35/scribekeys/internal/models"
)

// CheckStatus captures the outcome of a posture check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

const maxRecommendedTokenTTL = 24 * time.Hour

// Check is the result of a single verification.
type Check struct {
	ID          string      `json:"id"`
	Status      CheckStatus `json:"status"`
	Message     string      `json:"message"`
	Remediation string      `json:"remediation,omitempty"`
	Details     any         `json:"details,omitempty"`
}

// Result aggregates checks with per-status counts.
type Result struct {
	CheckedAt time.Time      `json:"checkedAt"`
	Checks    []Check        `json:"checks"`
	Summary   map[string]int `json:"summary"`
}

// Posture evaluates deployment settings an operator should review before going live.
type Posture struct {
	db  *gorm.DB
	jwt *iauth.JWTService
	cfg *app.Config
	now func() time.Time
}

// NewPosture constructs the evaluator. Missing inputs degrade their checks to warnings.
func NewPosture(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config) *Posture {
	return &Posture{db: db, jwt: jwt, cfg: cfg, now: time.Now}
}

// WithClock overrides the timestamp source.
func (p *Posture) WithClock(clock func() time.Time) {
	if clock != nil {
		p.now = clock
	}
}

// Run executes every check.
func (p *Posture) Run(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	checks := []Check{
		p.checkAdminPresent(ctx),
		p.checkJWTSecret(),
		p.checkTokenTTL(),
		p.checkCSRF(),
		p.checkCORS(),
	}

	summary := map[string]int{
		string(StatusPass): 0,
		string(StatusWarn): 0,
		string(StatusFail): 0,
	}
	for _, check := range checks {
		summary[string(check.Status)]++
	}

	return Result{CheckedAt: p.now().UTC(), Checks: checks, Summary: summary}
}

func (p *Posture) checkAdminPresent(ctx context.Context) Check {
	const id = "admin_present"
	if p.db == nil {
		return Check{ID: id, Status: StatusWarn, Message: "Database unavailable; administrator presence unknown."}
	}

	var count int64
	if err := p.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND is_active = ?", string(entitlements.RoleAdmin), true).
		Count(&count).Error; err != nil {
		return Check{ID: id, Status: StatusWarn, Message: fmt.Sprintf("Could not count administrators: %v", err)}
	}
	if count == 0 {
		return Check{
			ID:          id,
			Status:      StatusFail,
			Message:     "No active administrator.",
			Remediation: "Set SCRIBE_BOOTSTRAP_ADMIN_EMAIL or promote a user to the admin role.",
		}
	}
	return Check{ID: id, Status: StatusPass, Message: "Active administrator present.", Details: map[string]any{"count": count}}
}

func (p *Posture) checkJWTSecret() Check {
	const id = "jwt_secret_strength"
	if p.jwt == nil {
		return Check{ID: id, Status: StatusWarn, Message: "Token service not initialised."}
	}

	length := p.jwt.SecretLength()
	details := map[string]any{"length": length}
	switch {
	case length < 32:
		return Check{
			ID:          id,
			Status:      StatusFail,
			Message:     fmt.Sprintf("Token signing secret is too short (%d bytes).", length),
			Remediation: "Use a random secret of at least 32 bytes in SCRIBE_AUTH_JWT_SECRET.",
			Details:     details,
		}
	case length < 48:
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Token signing secret is %d bytes.", length),
			Remediation: "Increase SCRIBE_AUTH_JWT_SECRET to 48 bytes or more.",
			Details:     details,
		}
	default:
		return Check{ID: id, Status: StatusPass, Message: fmt.Sprintf("Token signing secret is %d bytes.", length), Details: details}
	}
}

func (p *Posture) checkTokenTTL() Check {
	const id = "token_ttl"
	if p.cfg == nil {
		return Check{ID: id, Status: StatusWarn, Message: "Configuration not loaded."}
	}

	ttl := p.cfg.Auth.JWT.TTL
	details := map[string]any{"ttl": ttl.String()}
	switch {
	case ttl <= 0:
		return Check{ID: id, Status: StatusWarn, Message: "Token lifetime not configured; the default applies.", Details: details}
	case ttl > maxRecommendedTokenTTL:
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Token lifetime %s exceeds %s.", ttl, maxRecommendedTokenTTL),
			Remediation: "Lower auth.jwt.access_token_ttl so a leaked extension token expires sooner.",
			Details:     details,
		}
	default:
		return Check{ID: id, Status: StatusPass, Message: fmt.Sprintf("Token lifetime is %s.", ttl), Details: details}
	}
}

func (p *Posture) checkCSRF() Check {
	const id = "csrf_protection"
	if p.cfg == nil {
		return Check{ID: id, Status: StatusWarn, Message: "Configuration not loaded."}
	}
	if !p.cfg.Server.CSRF.Enabled {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     "CSRF protection is disabled for cookie-authenticated requests.",
			Remediation: "Set server.csrf.enabled when the web UI authenticates with the session cookie.",
		}
	}
	return Check{ID: id, Status: StatusPass, Message: "CSRF protection enabled."}
}

func (p *Posture) checkCORS() Check {
	const id = "cors_origins"
	if p.cfg == nil {
		return Check{ID: id, Status: StatusWarn, Message: "Configuration not loaded."}
	}

	origins := p.cfg.Server.CORS.AllowedOrigins
	for _, origin := range origins {
		if strings.TrimSpace(origin) == "*" {
			origins = nil
			break
		}
	}
	if len(origins) == 0 {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     "Any origin may call the API.",
			Remediation: "List the web UI and extension origins in server.cors.allowed_origins.",
		}
	}
	return Check{ID: id, Status: StatusPass, Message: "CORS restricted to an allow-list.", Details: map[string]any{"origins": origins}}
}

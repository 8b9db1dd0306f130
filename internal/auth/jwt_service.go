// Package auth verifies the HS256 session tokens presented by the web UI and the
// browser extension. Tokens are minted by the upstream identity service, or by the
// issue-token command for operators and tests.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/charlesng35/scribekeys/internal/entitlements"
)

// DefaultAccessTokenTTL applies when the configuration leaves the TTL unset.
const DefaultAccessTokenTTL = 15 * time.Minute

var (
	errNoSecret = errors.New("jwt: secret must be provided")
	errNoUserID = errors.New("jwt: user id is required")
)

// JWTConfig configures a JWTService. Clock is for tests.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
	Clock          func() time.Time
}

// Claims is the token payload. Role and tier are hints for clients; requests are
// authorised against the stored user record.
type Claims struct {
	UserID    string            `json:"uid"`
	Role      entitlements.Role `json:"role,omitempty"`
	Tier      string            `json:"tier,omitempty"`
	SessionID string            `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// AccessTokenInput describes the session a token is minted for.
type AccessTokenInput struct {
	UserID    string
	Role      entitlements.Role
	Tier      entitlements.Tier
	SessionID string
}

type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errNoSecret
	}
	svc := &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.AccessTokenTTL,
		now:    cfg.Clock,
	}
	if svc.ttl <= 0 {
		svc.ttl = DefaultAccessTokenTTL
	}
	if svc.now == nil {
		svc.now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(svc.now),
		jwt.WithExpirationRequired(),
	}
	if svc.issuer != "" {
		opts = append(opts, jwt.WithIssuer(svc.issuer))
	}
	svc.parser = jwt.NewParser(opts...)
	return svc, nil
}

// SecretLength is the signing secret size in bytes, reported by the security posture check.
func (s *JWTService) SecretLength() int {
	if s == nil {
		return 0
	}
	return len(s.secret)
}

// GenerateAccessToken signs a token for input valid from now until now+TTL.
func (s *JWTService) GenerateAccessToken(input AccessTokenInput) (string, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return "", errNoUserID
	}

	issued := s.now()
	claims := Claims{
		UserID:    input.UserID,
		Role:      input.Role,
		SessionID: input.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        input.SessionID,
			Subject:   input.UserID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.ttl)),
		},
	}
	if input.Tier.Valid() {
		claims.Tier = input.Tier.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken checks signature, algorithm, time window and issuer. Failures
// wrap the jwt package sentinels so callers can tell expiry from forgery.
func (s *JWTService) ValidateAccessToken(raw string) (*Claims, error) {
	if raw == "" {
		return nil, errors.New("jwt: token string is empty")
	}

	claims := new(Claims)
	if _, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}
	if claims.UserID == "" {
		return nil, errors.New("jwt: missing user id claim")
	}
	return claims, nil
}

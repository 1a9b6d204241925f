package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned by [Inspect] for opaque tokens.
var ErrNotJWT = errors.New("token is not a jwt")

// Config configures a [Manager].
type Config struct {
	TTL      time.Duration
	Key      []byte
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// Manager issues and verifies HS256 session tokens.
type Manager struct {
	config Config
}

// Claims carried by dashboard session tokens.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.Key) < 32 {
		return nil, errors.New("hs256 key must be at least 32 bytes")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)

	return &Manager{config: cfg}, nil
}

// Issue signs a token for uid valid for the configured TTL from now.
func (m *Manager) Issue(uid, email string, now time.Time) (string, error) {
	if uid == "" {
		return "", errors.New("uid is required")
	}

	claims := Claims{
		UID:   uid,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Key)
}

// Parse verifies tokenStr and returns its claims.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.Key, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Inspect decodes claims without verifying the signature.
func Inspect(tokenStr string) (*Claims, error) {
	if strings.Count(tokenStr, ".") != 2 {
		return nil, ErrNotJWT
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}
	return claims, nil
}

// Expired reports whether tokenStr is a JWT whose exp claim is before now-leeway.
// Opaque tokens and tokens without exp are never considered expired.
func Expired(tokenStr string, now time.Time, leeway time.Duration) bool {
	claims, err := Inspect(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Time.Before(now.Add(-leeway))
}

// Package auth issues and verifies the bearer tokens that carry the caller's
// identity and role.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dharsanguruparan/docflow/internal/config"
	"github.com/dharsanguruparan/docflow/internal/model"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Manager signs and validates HS256 access tokens.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a Manager from the auth configuration.
func NewManager(cfg config.AuthConfig) *Manager {
	return &Manager{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

type claims struct {
	jwt.RegisteredClaims
	Role model.Role `json:"role"`
}

// Issue returns a signed token for actor and its expiry.
func (m *Manager) Issue(actor model.Actor) (string, time.Time, error) {
	if actor.ID == "" || !actor.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("issue token: actor needs an id and a known role")
	}
	now := m.now()
	exp := now.Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: actor.Role,
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates raw and returns the actor it was issued for.
func (m *Manager) Parse(raw string) (model.Actor, error) {
	if raw == "" {
		return model.Actor{}, fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return model.Actor{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if c.Subject == "" || !c.Role.Valid() {
		return model.Actor{}, fmt.Errorf("%w: missing subject or role", ErrInvalidToken)
	}
	return model.Actor{ID: c.Subject, Role: c.Role}, nil
}

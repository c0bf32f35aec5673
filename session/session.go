// Package session replaces the bare user-id session marker with an opaque
// token carrying explicit expiry. Two strategies are provided:
//
//   - JWT (Stateless): HS256-signed tokens, no server storage needed
//   - Database: sessions stored in the datastore, fully revocable
//
// Anyone holding only a user id can no longer impersonate that user; the
// token is either signed or indexed server-side.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oakmart/storecore/domain"
)

// ErrInvalidSession is returned for absent, malformed, expired, or revoked
// session tokens.
var ErrInvalidSession = errors.New("session: invalid or expired session")

// Strategy defines the interface for session storage and validation.
type Strategy interface {
	Issue(ctx context.Context, userID string) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// Manager handles session lifecycle operations, delegating to a configured
// Strategy.
type Manager struct {
	strategy Strategy
}

func NewManager(strategy Strategy) *Manager {
	return &Manager{strategy: strategy}
}

// Issue creates a new session token for the user.
func (m *Manager) Issue(ctx context.Context, userID string) (string, error) {
	return m.strategy.Issue(ctx, userID)
}

// Resolve maps a token back to the user id it was issued for.
func (m *Manager) Resolve(ctx context.Context, token string) (string, error) {
	return m.strategy.Resolve(ctx, token)
}

// Revoke ends the session. For stateless strategies this is a no-op and
// the token simply ages out.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	return m.strategy.Revoke(ctx, token)
}

// ---- JWT Strategy ----

type jwtClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// JWTStrategy issues HS256-signed stateless session tokens.
type JWTStrategy struct {
	secret []byte
	ttl    time.Duration
}

func NewHS256Strategy(secret string, ttl time.Duration) *JWTStrategy {
	return &JWTStrategy{secret: []byte(secret), ttl: ttl}
}

func (s *JWTStrategy) Issue(ctx context.Context, userID string) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		SessionID: uuid.New().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTStrategy) Resolve(ctx context.Context, token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", ErrInvalidSession
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return "", ErrInvalidSession
	}
	return claims.Subject, nil
}

// Revoke is a no-op: JWT sessions are stateless and expire on their own.
func (s *JWTStrategy) Revoke(ctx context.Context, token string) error {
	return nil
}

// ---- Database Strategy ----

// DatabaseStrategy stores sessions server-side, making them revocable.
type DatabaseStrategy struct {
	repo domain.SessionStorage
	ttl  time.Duration
}

func NewDatabaseStrategy(repo domain.SessionStorage, ttl time.Duration) *DatabaseStrategy {
	return &DatabaseStrategy{repo: repo, ttl: ttl}
}

func (s *DatabaseStrategy) Issue(ctx context.Context, userID string) (string, error) {
	now := time.Now()
	sess := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return "", err
	}
	return sess.ID, nil
}

func (s *DatabaseStrategy) Resolve(ctx context.Context, token string) (string, error) {
	sess, err := s.repo.GetSession(ctx, token)
	if err != nil || sess == nil {
		return "", ErrInvalidSession
	}
	if sess.ExpiresAt.Before(time.Now()) {
		_ = s.repo.DeleteSession(ctx, token)
		return "", ErrInvalidSession
	}
	return sess.UserID, nil
}

func (s *DatabaseStrategy) Revoke(ctx context.Context, token string) error {
	return s.repo.DeleteSession(ctx, token)
}

package evault

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is a time-bounded credential proving a successful login.
type Session struct {
	Token     string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// sessionClaims carries the username alongside the registered JWT claims.
type sessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// SessionManager issues, validates, and revokes session tokens.
//
// Tokens are HS256 JWTs signed with a secret generated fresh for each
// process, backed by an in-memory table. The table makes logout
// effective immediately, and the per-process secret means a restart
// invalidates every outstanding token, forcing re-login. Nothing here
// is ever persisted.
type SessionManager struct {
	mu     sync.RWMutex
	secret []byte
	ttl    time.Duration
	clock  Clock
	active map[string]Session
}

// NewSessionManager creates a manager with a fresh random signing secret.
func NewSessionManager(ttl time.Duration, clock Clock) (*SessionManager, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating session secret: %w", err)
	}
	return &SessionManager{
		secret: secret,
		ttl:    ttl,
		clock:  clock,
		active: make(map[string]Session),
	}, nil
}

// Issue creates a new session for the user.
func (m *SessionManager) Issue(username string) (Session, error) {
	now := m.clock.Now()
	expires := now.Add(m.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        fmt.Sprintf("%d", now.UnixNano()),
		},
		Username: username,
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return Session{}, fmt.Errorf("signing session token: %w", err)
	}

	session := Session{
		Token:     signed,
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: expires,
	}

	m.mu.Lock()
	m.active[signed] = session
	m.mu.Unlock()

	return session, nil
}

// Validate checks the token and returns the owning username. Expiry is
// cooperative: it is checked here, at use time, and expired entries are
// dropped from the table as they are encountered.
func (m *SessionManager) Validate(token string) (string, error) {
	m.mu.RLock()
	_, known := m.active[token]
	m.mu.RUnlock()
	if !known {
		return "", fmt.Errorf("validating session: %w", ErrUnauthorized)
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			m.Revoke(token)
			return "", fmt.Errorf("session expired: %w", ErrUnauthorized)
		}
		return "", fmt.Errorf("validating session: %w", ErrUnauthorized)
	}
	if !parsed.Valid {
		return "", fmt.Errorf("validating session: %w", ErrUnauthorized)
	}
	return claims.Username, nil
}

// Revoke removes the session. Revoking an unknown token is a no-op, so
// logout is idempotent.
func (m *SessionManager) Revoke(token string) {
	m.mu.Lock()
	delete(m.active, token)
	m.mu.Unlock()
}

// ActiveCount returns the number of sessions in the table, including
// entries that expired but have not yet been validated away.
func (m *SessionManager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

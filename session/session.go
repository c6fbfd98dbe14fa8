package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie carrying the credential.
const CookieName = "auth_token"

// DefaultTTL is the lifetime of an issued credential.
const DefaultTTL = 7 * 24 * time.Hour

var (
	// ErrUnauthenticated reports a missing, malformed,
	// forged, or expired credential, or a wrong shared
	// secret at login.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrMissingName reports a login without a display
	// name.
	ErrMissingName = errors.New("display name must be set")
)

// Session is the identity asserted by a verified
// credential.
type Session struct {
	Name      string    `json:"name"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Verifier turns a credential into a Session.
type Verifier interface {
	Verify(token string) (*Session, error)
}

// Config holds the session secrets and lifetime.
type Config struct {
	// SharedSecret is the login secret exchanged for a
	// credential.
	SharedSecret string
	// SigningKey is the HMAC key for HS256.
	SigningKey []byte
	// TTL defaults to DefaultTTL.
	TTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager issues and verifies HS256 credentials. It
// keeps no state besides its configuration.
type Manager struct {
	secret []byte
	key    []byte
	ttl    time.Duration
	now    func() time.Time
}

var _ Verifier = (*Manager)(nil)

type claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// New validates cfg and returns a Manager.
func New(cfg Config) (*Manager, error) {
	const errCtx = "creating session manager"

	if cfg.SharedSecret == "" {
		return nil, fmt.Errorf(
			"%s: shared secret must be set", errCtx,
		)
	}

	if len(cfg.SigningKey) == 0 {
		return nil, fmt.Errorf(
			"%s: signing key must be set", errCtx,
		)
	}

	if cfg.TTL < 0 {
		return nil, fmt.Errorf(
			"%s: negative ttl %s", errCtx, cfg.TTL,
		)
	}

	m := &Manager{
		secret: []byte(cfg.SharedSecret),
		key:    cfg.SigningKey,
		ttl:    cfg.TTL,
		now:    cfg.Now,
	}

	if m.ttl == 0 {
		m.ttl = DefaultTTL
	}

	if m.now == nil {
		m.now = time.Now
	}

	return m, nil
}

// TTL returns the credential lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Login exchanges the shared secret for a credential
// naming the caller.
func (m *Manager) Login(
	secret string,
	name string,
) (string, *Session, error) {
	const errCtx = "login"

	if subtle.ConstantTimeCompare([]byte(secret), m.secret) != 1 {
		return "", nil, fmt.Errorf(
			"%s: wrong shared secret: %w",
			errCtx, ErrUnauthenticated,
		)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, fmt.Errorf("%s: %w", errCtx, ErrMissingName)
	}

	return m.Issue(name)
}

// Issue signs a credential for name.
func (m *Manager) Issue(name string) (string, *Session, error) {
	const errCtx = "issuing credential"

	// NumericDate has second precision.
	now := m.now().UTC().Truncate(time.Second)

	s := &Session{
		Name:      name,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	token, err := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		claims{
			Name: name,
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
				ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
			},
		},
	).SignedString(m.key)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return token, s, nil
}

// Verify checks signature, algorithm, and expiry of
// token and returns the embedded identity.
func (m *Manager) Verify(token string) (*Session, error) {
	const errCtx = "verifying credential"

	if token == "" {
		return nil, fmt.Errorf(
			"%s: missing: %w", errCtx, ErrUnauthenticated,
		)
	}

	var c claims

	_, err := jwt.ParseWithClaims(
		token,
		&c,
		func(*jwt.Token) (any, error) { return m.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w: %w", errCtx, ErrUnauthenticated, err,
		)
	}

	if c.Name == "" {
		return nil, fmt.Errorf(
			"%s: no name claim: %w", errCtx, ErrUnauthenticated,
		)
	}

	s := &Session{
		Name:      c.Name,
		ExpiresAt: c.ExpiresAt.Time.UTC(),
	}

	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time.UTC()
	}

	return s, nil
}

type contextKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by NewContext.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)

	return s, ok && s != nil
}

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/repo_editor/session"
)

var t0 = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func newManager(
	t *testing.T,
	key string,
	now func() time.Time,
) *session.Manager {
	t.Helper()

	m, err := session.New(session.Config{
		SharedSecret: "open-sesame",
		SigningKey:   []byte(key),
		TTL:          time.Hour,
		Now:          now,
	})
	require.NoError(t, err)

	return m
}

func fixed(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestNew_validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     session.Config
		wantErr string
	}{
		{
			name:    "missing secret",
			cfg:     session.Config{SigningKey: []byte("k")},
			wantErr: "shared secret",
		},
		{
			name:    "missing key",
			cfg:     session.Config{SharedSecret: "s"},
			wantErr: "signing key",
		},
		{
			name: "negative ttl",
			cfg: session.Config{
				SharedSecret: "s",
				SigningKey:   []byte("k"),
				TTL:          -time.Second,
			},
			wantErr: "negative ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := session.New(tt.cfg)
			assert.Nil(t, m)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNew_default_ttl(t *testing.T) {
	t.Parallel()

	m, err := session.New(session.Config{
		SharedSecret: "s",
		SigningKey:   []byte("k"),
	})
	require.NoError(t, err)
	assert.Equal(t, session.DefaultTTL, m.TTL())
}

func TestLogin_then_Verify_yields_identity(t *testing.T) {
	t.Parallel()

	m := newManager(t, "key", fixed(t0))

	token, issued, err := m.Login("open-sesame", "  Ada  ")
	require.NoError(t, err)
	assert.Equal(t, "Ada", issued.Name)
	assert.Equal(t, t0, issued.IssuedAt)
	assert.Equal(t, t0.Add(time.Hour), issued.ExpiresAt)

	got, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, issued, got)
}

func TestLogin_rejections(t *testing.T) {
	t.Parallel()

	m := newManager(t, "key", fixed(t0))

	_, _, err := m.Login("guess", "Ada")
	assert.ErrorIs(t, err, session.ErrUnauthenticated)

	_, _, err = m.Login("open-sesame", " ")
	assert.ErrorIs(t, err, session.ErrMissingName)
}

func TestVerify_rejections(t *testing.T) {
	t.Parallel()

	issuer := newManager(t, "key", fixed(t0))

	good, _, err := issuer.Issue("Ada")
	require.NoError(t, err)

	otherKey, _, err := newManager(t, "other", fixed(t0)).Issue("Ada")
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(
		jwt.SigningMethodNone,
		jwt.MapClaims{"name": "Ada", "exp": t0.Add(time.Hour).Unix()},
	).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		jwt.MapClaims{"name": "Ada"},
	).SignedString([]byte("key"))
	require.NoError(t, err)

	noName, err := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		jwt.MapClaims{"exp": t0.Add(time.Hour).Unix()},
	).SignedString([]byte("key"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier *session.Manager
		token    string
	}{
		{
			name:     "missing",
			verifier: issuer,
			token:    "",
		},
		{
			name:     "malformed",
			verifier: issuer,
			token:    "not.a.jwt",
		},
		{
			name:     "wrong key",
			verifier: issuer,
			token:    otherKey,
		},
		{
			name:     "expired",
			verifier: newManager(t, "key", fixed(t0.Add(2*time.Hour))),
			token:    good,
		},
		{
			name:     "alg none",
			verifier: issuer,
			token:    unsigned,
		},
		{
			name:     "no expiry",
			verifier: issuer,
			token:    noExpiry,
		},
		{
			name:     "no name",
			verifier: issuer,
			token:    noName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := tt.verifier.Verify(tt.token)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, session.ErrUnauthenticated)
		})
	}
}

func TestContext_round_trip(t *testing.T) {
	t.Parallel()

	_, ok := session.FromContext(context.Background())
	assert.False(t, ok)

	want := &session.Session{Name: "Ada"}

	got, ok := session.FromContext(
		session.NewContext(context.Background(), want),
	)
	require.True(t, ok)
	assert.Same(t, want, got)
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityResolver_ResolveSubject(t *testing.T) {
	tm, clock := newTestManager(t, time.Hour)
	resolver := NewIdentityResolver(tm)

	token, _, err := tm.Issue("alice@example.com")
	require.NoError(t, err)

	t.Run("bearer token", func(t *testing.T) {
		subject, err := resolver.ResolveSubject("Bearer " + token)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", subject)
	})

	headerCases := []struct {
		name   string
		header string
	}{
		{name: "shorter than prefix", header: "abc"},
		{name: "empty", header: ""},
		{name: "prefix without space", header: "Bearer"},
		{name: "lowercase scheme", header: "bearer " + token},
		{name: "other scheme", header: "Basic dXNlcjpwYXNz"},
	}
	for _, tc := range headerCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := resolver.ResolveSubject(tc.header)
			assert.ErrorIs(t, err, ErrMalformedAuthorizationHeader)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}

	t.Run("prefix only", func(t *testing.T) {
		_, err := resolver.ResolveSubject("Bearer ")
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("tampered token", func(t *testing.T) {
		_, err := resolver.ResolveSubject("Bearer " + token[:len(token)-4] + "AAAA")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("expired token", func(t *testing.T) {
		clock.Advance(time.Hour)
		defer clock.Advance(-time.Hour)

		_, err := resolver.ResolveSubject("Bearer " + token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.ErrorIs(t, err, ErrExpired)
	})
}

func TestFailureReason(t *testing.T) {
	tm, _ := newTestManager(t, time.Hour)
	resolver := NewIdentityResolver(tm)

	_, err := resolver.ResolveSubject("abc")
	assert.Equal(t, "malformed_header", FailureReason(err))

	_, err = resolver.ResolveSubject("Bearer abc")
	assert.Equal(t, "malformed_token", FailureReason(err))

	assert.Equal(t, "expired", FailureReason(ErrExpired))
	assert.Equal(t, "invalid_signature", FailureReason(ErrInvalidSignature))
	assert.Equal(t, "unknown", FailureReason(ErrUnauthenticated))
}

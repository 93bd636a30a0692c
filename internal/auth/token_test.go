package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-bytes-long"

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager(t *testing.T, ttl time.Duration) (*TokenManager, *fakeClock) {
	t.Helper()
	tm, err := NewTokenManager(testSecret, ttl)
	require.NoError(t, err)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	tm.now = clock.Now
	return tm, clock
}

func TestNewTokenManager(t *testing.T) {
	t.Run("rejects short secret", func(t *testing.T) {
		_, err := NewTokenManager("short", time.Hour)
		assert.Error(t, err)
	})

	t.Run("defaults non-positive ttl", func(t *testing.T) {
		tm, err := NewTokenManager(testSecret, 0)
		require.NoError(t, err)
		assert.Equal(t, time.Hour, tm.TTL())
	})
}

func TestTokenManager_Issue(t *testing.T) {
	tm, clock := newTestManager(t, time.Hour)

	t.Run("empty subject", func(t *testing.T) {
		token, _, err := tm.Issue("")
		assert.ErrorIs(t, err, ErrEmptySubject)
		assert.Empty(t, token)
	})

	t.Run("compact form with sub iat exp", func(t *testing.T) {
		token, exp, err := tm.Issue("alice@example.com")
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		for _, part := range parts {
			_, err := base64.RawURLEncoding.DecodeString(part)
			assert.NoError(t, err)
		}

		payload, err := base64.RawURLEncoding.DecodeString(parts[1])
		require.NoError(t, err)
		var raw map[string]any
		require.NoError(t, json.Unmarshal(payload, &raw))
		assert.Equal(t, "alice@example.com", raw["sub"])
		assert.EqualValues(t, clock.now.Unix(), raw["iat"])
		assert.EqualValues(t, clock.now.Add(time.Hour).Unix(), raw["exp"])
		assert.Equal(t, clock.now.Add(time.Hour).Unix(), exp.Unix())
	})

	t.Run("different instants produce different tokens", func(t *testing.T) {
		first, _, err := tm.Issue("alice@example.com")
		require.NoError(t, err)
		clock.Advance(time.Second)
		second, _, err := tm.Issue("alice@example.com")
		require.NoError(t, err)

		assert.NotEqual(t, strings.Split(first, ".")[2], strings.Split(second, ".")[2])
		assert.True(t, tm.Validate(first, "alice@example.com"))
		assert.True(t, tm.Validate(second, "alice@example.com"))
	})
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm, _ := newTestManager(t, time.Hour)

	for _, subject := range []string{"alice@example.com", "Bob@Example.org", "x"} {
		token, _, err := tm.Issue(subject)
		require.NoError(t, err)

		got, err := tm.ExtractSubject(token)
		require.NoError(t, err)
		assert.Equal(t, subject, got)
	}
}

func TestTokenManager_DecodeClaims(t *testing.T) {
	tm, clock := newTestManager(t, time.Hour)
	token, _, err := tm.Issue("alice@example.com")
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		claims, err := tm.DecodeClaims(token)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", claims.Subject)
		assert.Equal(t, clock.now.Unix(), claims.IssuedAt.Unix())
		assert.Equal(t, clock.now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	})

	t.Run("altered signature", func(t *testing.T) {
		parts := strings.Split(token, ".")
		sig := []byte(parts[2])
		if sig[0] == 'A' {
			sig[0] = 'B'
		} else {
			sig[0] = 'A'
		}
		tampered := parts[0] + "." + parts[1] + "." + string(sig)

		_, err := tm.DecodeClaims(tampered)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("every bit of the last signature character", func(t *testing.T) {
		parts := strings.Split(token, ".")
		const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
		sig := parts[2]
		last := strings.IndexByte(alphabet, sig[len(sig)-1])
		require.GreaterOrEqual(t, last, 0)

		for bit := 0; bit < 6; bit++ {
			flipped := sig[:len(sig)-1] + string(alphabet[last^(1<<bit)])
			tampered := parts[0] + "." + parts[1] + "." + flipped

			_, err := tm.DecodeClaims(tampered)
			assert.ErrorIs(t, err, ErrInvalidSignature, "bit %d", bit)
			_, err = NewIdentityResolver(tm).ResolveSubject(BearerPrefix + tampered)
			assert.ErrorIs(t, err, ErrInvalidSignature, "bit %d", bit)
		}
	})

	t.Run("other key", func(t *testing.T) {
		other, err := NewTokenManager("another-secret-that-is-32-bytes-or-more", time.Hour)
		require.NoError(t, err)
		_, err = other.DecodeClaims(token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("expired token still decodes", func(t *testing.T) {
		clock.Advance(2 * time.Hour)
		defer clock.Advance(-2 * time.Hour)
		_, err := tm.DecodeClaims(token)
		assert.NoError(t, err)
	})

	malformed := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "one segment", input: "abc"},
		{name: "two segments", input: "abc.def"},
		{name: "four segments", input: token + ".extra"},
		{name: "non base64url", input: "!!!.@@@.###"},
		{name: "garbage header", input: "e30." + strings.Split(token, ".")[1] + "." + strings.Split(token, ".")[2]},
	}
	for _, tc := range malformed {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tm.DecodeClaims(tc.input)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}

	t.Run("unexpected algorithm", func(t *testing.T) {
		other := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Subject:   "alice@example.com",
			IssuedAt:  jwt.NewNumericDate(clock.now),
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
		})
		signed, err := other.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = tm.DecodeClaims(signed)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   "alice@example.com",
			IssuedAt:  jwt.NewNumericDate(clock.now),
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
		})
		signed, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tm.DecodeClaims(signed)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("missing subject", func(t *testing.T) {
		noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(clock.now),
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
		})
		signed, err := noSub.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = tm.DecodeClaims(signed)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("missing expiry", func(t *testing.T) {
		noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:  "alice@example.com",
			IssuedAt: jwt.NewNumericDate(clock.now),
		})
		signed, err := noExp.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = tm.DecodeClaims(signed)
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestTokenManager_IsExpiredBoundary(t *testing.T) {
	const ttl = 3600 * time.Second
	tm, clock := newTestManager(t, ttl)
	issuedAt := clock.now
	token, _, err := tm.Issue("alice@example.com")
	require.NoError(t, err)

	cases := []struct {
		name    string
		at      time.Time
		expired bool
	}{
		{name: "at issuance", at: issuedAt, expired: false},
		{name: "one second before expiry", at: issuedAt.Add(ttl - time.Second), expired: false},
		{name: "sub-second before expiry", at: issuedAt.Add(ttl - time.Millisecond), expired: false},
		{name: "at expiry", at: issuedAt.Add(ttl), expired: true},
		{name: "after expiry", at: issuedAt.Add(ttl + time.Minute), expired: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clock.now = tc.at
			assert.Equal(t, tc.expired, tm.IsExpired(token))

			_, err := tm.ExtractSubject(token)
			if tc.expired {
				assert.ErrorIs(t, err, ErrExpired)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("undecodable token counts as expired", func(t *testing.T) {
		clock.now = issuedAt
		assert.True(t, tm.IsExpired("not-a-token"))
	})
}

func TestTokenManager_Validate(t *testing.T) {
	tm, clock := newTestManager(t, time.Hour)
	issuedAt := clock.now
	token, _, err := tm.Issue("alice@example.com")
	require.NoError(t, err)

	cases := []struct {
		name    string
		subject string
		expired bool
		want    bool
	}{
		{name: "match unexpired", subject: "alice@example.com", want: true},
		{name: "match expired", subject: "alice@example.com", expired: true, want: false},
		{name: "mismatch unexpired", subject: "bob@example.com", want: false},
		{name: "mismatch expired", subject: "bob@example.com", expired: true, want: false},
		{name: "case sensitive", subject: "Alice@example.com", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clock.now = issuedAt
			if tc.expired {
				clock.now = issuedAt.Add(2 * time.Hour)
			}
			assert.Equal(t, tc.want, tm.Validate(token, tc.subject))
		})
	}

	t.Run("check order", func(t *testing.T) {
		clock.now = issuedAt.Add(2 * time.Hour)
		assert.ErrorIs(t, tm.check(token, "bob@example.com"), ErrSubjectMismatch)
		assert.ErrorIs(t, tm.check(token, "alice@example.com"), ErrExpired)
		assert.ErrorIs(t, tm.check("abc", "alice@example.com"), ErrMalformed)
	})

	t.Run("malformed is false", func(t *testing.T) {
		clock.now = issuedAt
		assert.False(t, tm.Validate("abc.def", "alice@example.com"))
	})
}

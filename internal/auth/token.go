package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the smallest HS256 key accepted, in bytes.
const MinSecretLength = 32

var (
	ErrEmptySubject     = errors.New("token subject must not be empty")
	ErrMalformed        error = authError("malformed token")
	ErrInvalidSignature error = authError("invalid token signature")
	ErrExpired          error = authError("token expired")
	ErrSubjectMismatch  error = authError("token subject mismatch")

	errUnexpectedMethod = errors.New("unexpected signing method")
)

// authError marks token and header failures as authentication failures.
type authError string

func (e authError) Error() string { return string(e) }

// AuthFailure implements the util.AuthFailure behaviour.
func (authError) AuthFailure() bool { return true }

// Claims is the verified payload of a session token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the claims are expired at now, with second granularity.
// A token is expired once its expiry is at or before now.
func (c *Claims) ExpiredAt(now time.Time) bool {
	return c.ExpiresAt.Unix() <= now.Unix()
}

// TokenManager handles issuing and validating JWT tokens.
// It is immutable after construction and safe for concurrent use.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager. The secret is copied.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of issued tokens.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue builds and signs a token for subject, returning it with its expiry.
func (tm *TokenManager) Issue(subject string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, ErrEmptySubject
	}

	issuedAt := jwt.NewNumericDate(tm.now())
	expiresAt := jwt.NewNumericDate(issuedAt.Add(tm.ttl))
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt.Time, nil
}

// DecodeClaims verifies the token structure and signature and returns its claims.
// Expiry is not checked here; see IsExpired and ExtractSubject.
func (tm *TokenManager) DecodeClaims(tokenStr string) (*Claims, error) {
	var registered jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &registered, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errUnexpectedMethod
		}
		return tm.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, mapJWTError(err)
	}
	// The last base64url character carries unused bits that lenient decoding ignores.
	if !canonicalSignature(tokenStr, token.Signature) {
		return nil, ErrInvalidSignature
	}

	if registered.Subject == "" || registered.IssuedAt == nil || registered.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing sub, iat or exp", ErrMalformed)
	}
	return &Claims{
		Subject:   registered.Subject,
		IssuedAt:  registered.IssuedAt.Time,
		ExpiresAt: registered.ExpiresAt.Time,
	}, nil
}

// IsExpired reports whether the token is past its expiry at the current time.
// Tokens that cannot be decoded count as expired.
func (tm *TokenManager) IsExpired(tokenStr string) bool {
	claims, err := tm.DecodeClaims(tokenStr)
	if err != nil {
		return true
	}
	return claims.ExpiredAt(tm.now())
}

// ExtractSubject decodes the token and returns its subject. Expired tokens are rejected.
func (tm *TokenManager) ExtractSubject(tokenStr string) (string, error) {
	claims, err := tm.DecodeClaims(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.ExpiredAt(tm.now()) {
		return "", ErrExpired
	}
	return claims.Subject, nil
}

// Validate reports whether the token decodes, names expectedSubject, and is unexpired.
func (tm *TokenManager) Validate(tokenStr, expectedSubject string) bool {
	return tm.check(tokenStr, expectedSubject) == nil
}

func (tm *TokenManager) check(tokenStr, expectedSubject string) error {
	claims, err := tm.DecodeClaims(tokenStr)
	if err != nil {
		return err
	}
	if claims.Subject != expectedSubject {
		return ErrSubjectMismatch
	}
	if claims.ExpiredAt(tm.now()) {
		return ErrExpired
	}
	return nil
}

func canonicalSignature(tokenStr string, signature []byte) bool {
	idx := strings.LastIndexByte(tokenStr, '.')
	if idx < 0 {
		return false
	}
	return tokenStr[idx+1:] == base64.RawURLEncoding.EncodeToString(signature)
}

// mapJWTError translates jwt library errors to token errors.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, errUnexpectedMethod):
		return fmt.Errorf("%w: %v", ErrMalformed, errUnexpectedMethod)
	default:
		return ErrMalformed
	}
}

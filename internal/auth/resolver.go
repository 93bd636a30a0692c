package auth

import "fmt"

// BearerPrefix is the scheme prefix of the Authorization header.
const BearerPrefix = "Bearer "

var (
	ErrUnauthenticated              error = authError("unauthenticated")
	ErrMalformedAuthorizationHeader error = authError("malformed authorization header")
)

// SubjectExtractor returns the verified subject of a token.
type SubjectExtractor interface {
	ExtractSubject(token string) (string, error)
}

// IdentityResolver turns an Authorization header into the caller's identity.
type IdentityResolver struct {
	tokens SubjectExtractor
}

// NewIdentityResolver constructs a resolver backed by tokens.
func NewIdentityResolver(tokens SubjectExtractor) *IdentityResolver {
	return &IdentityResolver{tokens: tokens}
}

// ResolveSubject strips the bearer prefix from header and returns the token subject.
// Every failure wraps ErrUnauthenticated together with the specific cause.
func (r *IdentityResolver) ResolveSubject(header string) (string, error) {
	if len(header) < len(BearerPrefix) || header[:len(BearerPrefix)] != BearerPrefix {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, ErrMalformedAuthorizationHeader)
	}

	subject, err := r.tokens.ExtractSubject(header[len(BearerPrefix):])
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return subject, nil
}

package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/user-service/pkg/util"
)

const subjectKey = "auth_subject"

// FailureRecorder counts authentication failures by reason.
type FailureRecorder interface {
	RecordAuthFailure(reason string)
}

// AuthMiddleware validates bearer tokens and stores the caller identity.
type AuthMiddleware struct {
	resolver *IdentityResolver
	logger   *zap.Logger
	failures FailureRecorder
}

// NewAuthMiddleware constructs middleware. failures may be nil.
func NewAuthMiddleware(resolver *IdentityResolver, logger *zap.Logger, failures FailureRecorder) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, logger: logger, failures: failures}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	subject, err := m.resolver.ResolveSubject(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		reason := FailureReason(err)
		if m.failures != nil {
			m.failures.RecordAuthFailure(reason)
		}
		m.logger.Debug("authentication rejected",
			zap.String("reason", reason),
			zap.String("path", c.Path()))
		return apperrors.NewUnauthenticated(err)
	}

	c.Locals(subjectKey, subject)
	return c.Next()
}

// SubjectFromContext retrieves the authenticated identity.
func SubjectFromContext(c *fiber.Ctx) (string, bool) {
	subject, ok := c.Locals(subjectKey).(string)
	return subject, ok && subject != ""
}

// FailureReason classifies an authentication error for logs and metrics.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrMalformedAuthorizationHeader):
		return "malformed_header"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrMalformed):
		return "malformed_token"
	case errors.Is(err, ErrSubjectMismatch):
		return "subject_mismatch"
	default:
		return "unknown"
	}
}

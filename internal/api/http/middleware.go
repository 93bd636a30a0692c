package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/observability"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// MiddlewareConfig bundles global middleware settings.
type MiddlewareConfig struct {
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Timeout        time.Duration
	AllowedOrigins string
}

// RegisterMiddlewares attaches global middlewares. Errors are rendered before
// the request logger sees the response so the logged status is final.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	app.Use(observability.Tracing())
	app.Use(observability.RequestLogger(cfg.Logger, cfg.Metrics))
	app.Use(errorHandlingMiddleware(cfg.Logger, cfg.Metrics))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Authorization,Content-Type",
	}))
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

package httpserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/and161185/devfolio/internal/authz"
	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
)

// Authenticator resolves a raw bearer token into the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.Identity, error)
}

// AccessLog logs request metadata only; bodies and headers are never logged.
func AccessLog(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				status, _ = errorBody(err)
			}
			log.Info("http",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Duration("dur", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			)
			return err
		}
	}
}

// Identify resolves a bearer token, when one is sent, and stores the identity
// in the request context. A bad token is not rejected here: routes that need
// an identity fail in the gate, public routes proceed anonymously.
func Identify(auth Authenticator, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := authz.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return next(c)
			}
			id, err := auth.Authenticate(c.Request().Context(), raw)
			switch {
			case err == nil:
				c.SetRequest(c.Request().WithContext(authz.WithIdentity(c.Request().Context(), id)))
			case errors.Is(err, errs.ErrUnauthenticated):
				log.Debug("bearer rejected", zap.Error(err))
			default:
				return err
			}
			return next(c)
		}
	}
}

// Require runs the gate before the handler. When check carries an ownership
// requirement, the resource id is read from the path parameter param; an
// unparsable id reaches the gate as uuid.Nil so authentication is still
// decided first.
func Require(gate *authz.Gate, check authz.Check, param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var rid uuid.UUID
			if _, owned := check.Resource(); owned {
				rid = uuid.FromStringOrNil(c.Param(param))
			}
			if _, err := gate.Authorize(c.Request().Context(), check, rid); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// RateLimit limits requests per client IP. A non-positive limit disables it.
func RateLimit(perSecond float64, burst int) echo.MiddlewareFunc {
	if perSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return fmt.Errorf("%w: %v", errs.ErrBadRequest, err)
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return errs.ErrRateLimited
		},
	})
}

// identity returns the caller placed in the context by Identify.
func identity(c echo.Context) (model.Identity, error) {
	id, ok := authz.IdentityFromCtx(c.Request().Context())
	if !ok {
		return model.Identity{}, fmt.Errorf("%w: authentication required", errs.ErrUnauthenticated)
	}
	return id, nil
}

func pathID(c echo.Context, param string) (uuid.UUID, error) {
	id, err := uuid.FromString(c.Param(param))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a valid id", errs.ErrBadRequest, param)
	}
	return id, nil
}

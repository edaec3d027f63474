package middleware

import (
	"strings"

	"sales-service/internal/apperror"
	"sales-service/internal/repository"
	"sales-service/pkg/jwtutil"
	"sales-service/pkg/logger"
	"sales-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	claimsKey       = "claims"
	unauthenticated = "Unauthenticated."
)

// AuthMiddleware validates the bearer token and rejects revoked ones
func AuthMiddleware(jwt *jwtutil.JWTUtil, tokens repository.TokenRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return apperror.Unauthorized(unauthenticated)
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format")
				prometheus.RecordAuthError("invalid_format")
				return apperror.Unauthorized(unauthenticated)
			}

			claims, err := jwt.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return apperror.Unauthorized(unauthenticated)
			}

			revoked, err := tokens.IsRevoked(c.Request().Context(), claims.ID)
			if err != nil {
				return apperror.Internal("Failed to verify token.", err)
			}
			if revoked {
				log.Warn("Revoked JWT token", zap.Uint("user_id", claims.UserID))
				prometheus.RecordAuthError("revoked_token")
				return apperror.Unauthorized(unauthenticated)
			}

			c.Set(claimsKey, claims)
			c.Set("user_id", claims.UserID)
			userLog := log.With(zap.Uint("user_id", claims.UserID))
			c.Set("logger", userLog)
			// services log through the request context
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context(), userLog)))

			return next(c)
		}
	}
}

// CurrentUser returns the claims stored by AuthMiddleware
func CurrentUser(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get(claimsKey).(*jwtutil.UserClaims)
	return claims, ok
}

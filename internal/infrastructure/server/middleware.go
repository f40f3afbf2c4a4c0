package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/guidebook/core/internal/application/services"
)

// editorAuth requires a valid editor token on mutating routes. It is a
// pass-through when no editor secret is configured.
func (s *Server) editorAuth(authService *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !s.config.Security.AuthEnabled() {
			return next
		}
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				s.logger.
					WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).
					WithError(err).
					LogSecurityEvent("invalid_token", c.RealIP(), map[string]interface{}{
						"endpoint": c.Request().URL.Path,
					})
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set("editor", claims.Editor)
			return next(c)
		}
	}
}

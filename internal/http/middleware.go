package http

import (
	nethttp "net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"stitch/internal/service"
	"stitch/pkg/logger"
)

type authErrorResponse struct {
	Error string `json:"error"`
}

// JWTAuthMiddleware rejects requests without a valid admin bearer token.
func JWTAuthMiddleware(auth service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return c.JSON(nethttp.StatusUnauthorized, authErrorResponse{Error: "unauthorized"})
			}

			valid, err := auth.ValidateToken(token)
			if err != nil {
				return c.JSON(nethttp.StatusInternalServerError, authErrorResponse{Error: "internal error"})
			}
			if !valid {
				return c.JSON(nethttp.StatusUnauthorized, authErrorResponse{Error: "unauthorized"})
			}
			return next(c)
		}
	}
}

// RequestLogger logs one line per request with method, path, status and latency.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			logger.Info("request",
				"module", "http",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}

// Package middleware holds the HTTP middleware shared by all ward routes.
package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HeaderRequestID is the response header carrying the request identifier.
const HeaderRequestID = "X-Request-Id"

// RequestID assigns each request a fresh identifier and echoes it back in the
// response. An identifier supplied by the client is honored so callers can
// correlate across systems.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(HeaderRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set(HeaderRequestID, rid)
			return next(c)
		}
	}
}

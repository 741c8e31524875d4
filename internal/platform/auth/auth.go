// Package auth issues and verifies the bearer tokens that protect the ward
// API. Tokens are HMAC-signed JWTs; on every request the subject is resolved
// through a Verifier so that deactivated staff lose access immediately, not
// at token expiry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var (
	// ErrUnknownIdentity reports a token subject with no matching staff record.
	ErrUnknownIdentity = errors.New("unknown identity")
	// ErrInactiveIdentity reports a staff record that has been deactivated.
	ErrInactiveIdentity = errors.New("identity is inactive")
)

// Identity is the authenticated nurse attached to a request.
type Identity struct {
	ID      string `json:"id"`
	NurseID string `json:"nurseId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

// Verifier resolves a token subject to a live identity. Implementations
// return ErrUnknownIdentity or ErrInactiveIdentity as appropriate.
type Verifier interface {
	Verify(ctx context.Context, subject string) (*Identity, error)
}

// Claims is the JWT payload for ward tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// NewToken signs a token for the given subject.
func NewToken(secret, subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a signed token and returns its claims.
func ParseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

const identityContextKey = "auth.identity"

// Middleware authenticates requests: it requires a bearer token, validates
// the signature and expiry, then resolves the subject through the verifier.
// Unknown or malformed tokens yield 401; a deactivated nurse yields 403
// before any handler runs.
func Middleware(secret string, verifier Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization header must be a bearer token")
			}

			claims, err := ParseToken(secret, raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			identity, err := verifier.Verify(c.Request().Context(), claims.Subject)
			if err != nil {
				switch {
				case errors.Is(err, ErrInactiveIdentity):
					return echo.NewHTTPError(http.StatusForbidden, "account is inactive")
				case errors.Is(err, ErrUnknownIdentity):
					return echo.NewHTTPError(http.StatusUnauthorized, "unknown identity")
				default:
					return echo.NewHTTPError(http.StatusInternalServerError, "identity verification failed")
				}
			}

			c.Set(identityContextKey, identity)
			return next(c)
		}
	}
}

// NurseFromContext returns the authenticated nurse, or nil outside the
// middleware.
func NurseFromContext(c echo.Context) *Identity {
	identity, _ := c.Get(identityContextKey).(*Identity)
	return identity
}

// Package auth provides optional bearer-token protection for the API.
// With no secret configured the middleware is a passthrough, which is the
// development default; health and the agent tool callback stay open either
// way.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Claims are the token claims the API cares about.
type Claims struct {
	Subject string
	Name    string
}

const claimsKey = "auth_claims"

// openPaths are served without a token even when a secret is configured:
// load-balancer probes and the agent platform's tool callback carry no API
// credentials.
var openPaths = map[string]bool{
	"/health":             true,
	"/api/v1/agent-tools": true,
}

// FromContext returns the claims set by Middleware, nil when unauthenticated.
func FromContext(c echo.Context) *Claims {
	claims, _ := c.Get(claimsKey).(*Claims)
	return claims
}

// Middleware validates HS256 bearer tokens signed with secret. An empty
// secret disables authentication entirely.
func Middleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" || openPaths[c.Path()] {
				return next(c)
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			claims := &Claims{}
			if mc, ok := token.Claims.(jwt.MapClaims); ok {
				claims.Subject, _ = mc["sub"].(string)
				claims.Name, _ = mc["name"].(string)
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

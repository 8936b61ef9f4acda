package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths are reachable without a bearer token.
var publicPaths = map[string]bool{
	"/health":                true,
	"/health/db":             true,
	"/api/auth/register":     true,
	"/api/auth/login":        true,
	"/api/auth/verify-token": true,
	"/api/auth/health":       true,
}

// AuthSkipper returns true for requests whose route should skip
// authentication. CORS preflight requests are skipped too.
func AuthSkipper(c echo.Context) bool {
	if c.Request().Method == "OPTIONS" {
		return true
	}
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given route path is public.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}

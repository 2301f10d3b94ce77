package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// ClaimsKey holds a map[string]interface{} with at least "sub" once a bearer token is accepted.
	ClaimsKey = "claims"
	// PrincipalKey holds the Principal returned by the Verifier.
	PrincipalKey = "principal"
)

// Principal is the identity behind an accepted bearer token.
type Principal interface {
	Subject() string
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Principal, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, raw string) (Principal, error)

func (f VerifierFunc) Verify(ctx context.Context, raw string) (Principal, error) { return f(ctx, raw) }

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return "", false
	}
	var token string
	if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 || token == "" {
		return "", false
	}
	return token, true
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			abort(c, http.StatusUnauthorized, "missing Authorization header", "")
			return
		}
		token, ok := BearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "invalid Authorization header", "")
			return
		}

		p, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid token", err.Error())
			return
		}

		c.Set(PrincipalKey, p)
		c.Set(ClaimsKey, map[string]interface{}{"sub": p.Subject()})
		c.Next()
	}
}

// BasicAuth guards routes with a single username/password pair. With no
// username configured every request is rejected.
func BasicAuth(username, password string) gin.HandlerFunc {
	if username == "" {
		return func(c *gin.Context) {
			abort(c, http.StatusUnauthorized, "basic auth not configured", "")
		}
	}
	return gin.BasicAuth(gin.Accounts{username: password})
}

// abort writes the same envelope the handlers use.
func abort(c *gin.Context, status int, msg, detail string) {
	body := gin.H{"status_message": msg, "data": nil, "error": msg}
	if detail != "" {
		body["error"] = detail
	}
	c.AbortWithStatusJSON(status, body)
}

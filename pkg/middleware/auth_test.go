package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type user string

func (u user) Subject() string { return string(u) }

var fakeVerifier = VerifierFunc(func(_ context.Context, raw string) (Principal, error) {
	if raw == "goodtoken" {
		return user("42"), nil
	}
	return nil, errors.New("session not found")
})

func serveAuth(t *testing.T, header string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	g := gin.New()
	g.GET("/", AuthMiddleware(fakeVerifier), func(c *gin.Context) {
		claims, _ := c.Get(ClaimsKey)
		p, _ := c.Get(PrincipalKey)
		c.JSON(http.StatusOK, gin.H{"claims": claims, "principal": p.(Principal).Subject()})
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	rw := serveAuth(t, "")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	require.Contains(t, rw.Body.String(), "missing Authorization header")
}

func TestAuthMiddleware_InvalidHeader(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, serveAuth(t, "BadHeader").Code)
	require.Equal(t, http.StatusUnauthorized, serveAuth(t, "Basic Zm9vOmJhcg==").Code)
}

func TestAuthMiddleware_RejectedToken(t *testing.T) {
	rw := serveAuth(t, "Bearer revoked")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &body))
	require.Equal(t, "invalid token", body["status_message"])
	require.Equal(t, "session not found", body["error"])
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	rw := serveAuth(t, "Bearer goodtoken")
	require.Equal(t, http.StatusOK, rw.Code)
	var got struct {
		Claims    map[string]interface{} `json:"claims"`
		Principal string                 `json:"principal"`
	}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Equal(t, "42", got.Claims["sub"])
	require.Equal(t, "42", got.Principal)
}

func TestBasicAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	serve := func(mw gin.HandlerFunc, setAuth bool, pass string) int {
		g := gin.New()
		g.POST("/", mw, func(c *gin.Context) { c.Status(http.StatusNoContent) })
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if setAuth {
			req.SetBasicAuth("service", pass)
		}
		rw := httptest.NewRecorder()
		g.ServeHTTP(rw, req)
		return rw.Code
	}

	mw := BasicAuth("service", "s3cret")
	require.Equal(t, http.StatusNoContent, serve(mw, true, "s3cret"))
	require.Equal(t, http.StatusUnauthorized, serve(mw, true, "wrong"))
	require.Equal(t, http.StatusUnauthorized, serve(mw, false, ""))

	// unconfigured credentials lock the route
	require.Equal(t, http.StatusUnauthorized, serve(BasicAuth("", ""), true, ""))
}

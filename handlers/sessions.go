package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linkshare/linkshare/backend/session-store/internal/models"
	"github.com/linkshare/linkshare/backend/session-store/internal/sessions"
	"github.com/linkshare/linkshare/backend/session-store/internal/tokens"
	"github.com/linkshare/linkshare/backend/session-store/pkg/middleware"
)

// RefreshTokenHeader may carry the refresh token when the body is empty.
const RefreshTokenHeader = "X-Refresh-Token"

type IssueRequest struct {
	ID       int64  `json:"id" binding:"required,gt=0"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken         string    `json:"access_token"`
	AccessTokenExpired  time.Time `json:"access_token_expired"`
	RefreshToken        string    `json:"refresh_token"`
	RefreshTokenExpired time.Time `json:"refresh_token_expired"`
}

type VerifyResponse struct {
	User    *models.UserData `json:"user"`
	Expired time.Time        `json:"exp"`
}

// SessionHandler exposes the session service over HTTP.
type SessionHandler struct {
	svc *sessions.Service
}

func NewSessionHandler(svc *sessions.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Verifier adapts the service to the bearer middleware.
func (h *SessionHandler) Verifier() middleware.Verifier {
	return middleware.VerifierFunc(func(ctx context.Context, raw string) (middleware.Principal, error) {
		return h.svc.VerifyAccess(ctx, raw)
	})
}

// Register mounts the /auth routes. trusted guards the service-to-service endpoints.
func (h *SessionHandler) Register(r gin.IRouter, trusted gin.HandlerFunc) {
	a := r.Group("/auth")
	a.POST("/sessions", trusted, h.Issue)
	a.POST("/refresh-token", trusted, h.Refresh)
	a.GET("/verify-token", middleware.AuthMiddleware(h.Verifier()), h.Verify)
	a.POST("/logout", h.Logout)
	a.DELETE("/users/:id/sessions", trusted, h.RevokeUser)
}

func (h *SessionHandler) Issue(c *gin.Context) {
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	pair, err := h.svc.Issue(c.Request.Context(), &models.UserData{ID: req.ID, Username: req.Username, Email: req.Email})
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	respond(c, http.StatusCreated, tokenResponse(pair))
}

func (h *SessionHandler) Refresh(c *gin.Context) {
	token := refreshTokenFrom(c)
	if token == "" {
		fail(c, http.StatusBadRequest, errors.New("refresh_token required"))
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), token)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	respond(c, http.StatusOK, tokenResponse(pair))
}

func (h *SessionHandler) Verify(c *gin.Context) {
	p, _ := c.Get(middleware.PrincipalKey)
	sess, ok := p.(*sessions.AccessTokenSession)
	if !ok {
		fail(c, http.StatusUnauthorized, sessions.ErrUnauthorized)
		return
	}
	respond(c, http.StatusOK, VerifyResponse{User: sess.UserData, Expired: sess.Expired})
}

// Logout revokes the refresh session and, when a bearer token is sent, its access session too.
func (h *SessionHandler) Logout(c *gin.Context) {
	token := refreshTokenFrom(c)
	if token == "" {
		fail(c, http.StatusBadRequest, errors.New("refresh_token required"))
		return
	}
	ctx := c.Request.Context()
	if err := h.svc.Revoke(ctx, token); err != nil {
		fail(c, statusFor(err), err)
		return
	}
	if at, ok := middleware.BearerToken(c); ok {
		if err := h.svc.RevokeAccess(ctx, at); err != nil && statusFor(err) != http.StatusUnauthorized {
			fail(c, statusFor(err), err)
			return
		}
	}
	respond(c, http.StatusOK, nil)
}

func (h *SessionHandler) RevokeUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, errors.New("invalid user id"))
		return
	}
	n, err := h.svc.RevokeUser(c.Request.Context(), id)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	respond(c, http.StatusOK, gin.H{"revoked": n})
}

// refreshTokenFrom reads the token from the JSON body, falling back to the header.
func refreshTokenFrom(c *gin.Context) string {
	var req RefreshRequest
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req)
	}
	if t := strings.TrimSpace(req.RefreshToken); t != "" {
		return t
	}
	return strings.TrimSpace(c.GetHeader(RefreshTokenHeader))
}

func tokenResponse(p *tokens.Pair) TokenResponse {
	return TokenResponse{
		AccessToken:         p.Access.Value,
		AccessTokenExpired:  p.Access.ExpiresAt,
		RefreshToken:        p.Refresh.Value,
		RefreshTokenExpired: p.Refresh.ExpiresAt,
	}
}

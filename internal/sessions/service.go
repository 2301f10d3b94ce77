package sessions

import (
	"context"
	"errors"
	"fmt"

	"github.com/linkshare/linkshare/backend/session-store/internal/models"
	"github.com/linkshare/linkshare/backend/session-store/internal/tokens"
	"github.com/linkshare/linkshare/backend/session-store/pkg/logger"
)

var (
	ErrUnauthorized = errors.New("sessions: unauthorized")
	ErrExpired      = errors.New("sessions: token expired")
	ErrInvalidUser  = errors.New("sessions: user data required")
)

// TokenIssuer is the subset of *tokens.Issuer the service uses.
type TokenIssuer interface {
	IssuePair(u *models.UserData) (*tokens.Pair, error)
	IssueAccess(u *models.UserData) (*tokens.Token, error)
	ValidateAccess(raw string) (*tokens.Claims, error)
	ValidateRefresh(raw string) (*tokens.Claims, error)
}

// Service issues token pairs and tracks them as sessions.
type Service struct {
	access  Store[AccessTokenSession]
	refresh Store[RefreshTokenSession]
	tokens  TokenIssuer
}

func NewService(access Store[AccessTokenSession], refresh Store[RefreshTokenSession], issuer TokenIssuer) *Service {
	return &Service{access: access, refresh: refresh, tokens: issuer}
}

// Issue mints a token pair for u and stores both sessions before returning.
func (s *Service) Issue(ctx context.Context, u *models.UserData) (*tokens.Pair, error) {
	if u == nil || u.ID <= 0 {
		return nil, ErrInvalidUser
	}
	pair, err := s.tokens.IssuePair(u)
	if err != nil {
		return nil, err
	}
	if err := s.access.Insert(ctx, &AccessTokenSession{
		AccessToken: pair.Access.Value,
		Expired:     pair.Access.ExpiresAt,
		UserData:    u,
	}); err != nil {
		return nil, err
	}
	if err := s.refresh.Insert(ctx, &RefreshTokenSession{
		RefreshToken: pair.Refresh.Value,
		Expired:      pair.Refresh.ExpiresAt,
		UserData:     u,
	}); err != nil {
		if derr := s.access.Delete(ctx, pair.Access.Value); derr != nil {
			logger.Warnf("rollback access session for user %d: %v", u.ID, derr)
		}
		return nil, err
	}
	logger.With(map[string]interface{}{"user_id": u.ID}).Info("session issued")
	return pair, nil
}

// Refresh mints a new access token from a stored, unexpired refresh session.
// The refresh token itself is returned unchanged.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, authError(err)
	}
	sess, err := s.refresh.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: refresh session not found", ErrUnauthorized)
		}
		return nil, err
	}
	// sessions written without user_data fall back to the identity in the token
	user := sess.UserData
	if user == nil {
		user = claims.User()
	}
	if user.ID <= 0 {
		return nil, fmt.Errorf("%w: refresh session has no user", ErrUnauthorized)
	}
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}
	if err := s.access.Insert(ctx, &AccessTokenSession{
		AccessToken: access.Value,
		Expired:     access.ExpiresAt,
		UserData:    user,
	}); err != nil {
		return nil, err
	}
	return &tokens.Pair{
		Access:  *access,
		Refresh: tokens.Token{Value: sess.RefreshToken, ExpiresAt: sess.Expired},
	}, nil
}

// VerifyAccess checks the signature and that the access session still exists.
func (s *Service) VerifyAccess(ctx context.Context, accessToken string) (*AccessTokenSession, error) {
	if _, err := s.tokens.ValidateAccess(accessToken); err != nil {
		return nil, authError(err)
	}
	sess, err := s.access.Get(ctx, accessToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: access session not found", ErrUnauthorized)
		}
		return nil, err
	}
	return sess, nil
}

// Revoke removes a refresh session.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	return s.revoke(ctx, s.refresh.Delete, refreshToken)
}

// RevokeAccess removes an access session.
func (s *Service) RevokeAccess(ctx context.Context, accessToken string) error {
	return s.revoke(ctx, s.access.Delete, accessToken)
}

func (s *Service) revoke(ctx context.Context, del func(context.Context, string) error, token string) error {
	if err := del(ctx, token); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: session not found", ErrUnauthorized)
		}
		return err
	}
	return nil
}

// RevokeUser removes every session belonging to userID and returns how many
// were removed.
func (s *Service) RevokeUser(ctx context.Context, userID int64) (int, error) {
	a, err := s.access.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	r, err := s.refresh.DeleteByUser(ctx, userID)
	if err != nil {
		return len(a), err
	}
	logger.With(map[string]interface{}{"user_id": userID, "access": len(a), "refresh": len(r)}).Info("user sessions revoked")
	return len(a) + len(r), nil
}

func authError(err error) error {
	if errors.Is(err, tokens.ErrTokenExpired) {
		return ErrExpired
	}
	return fmt.Errorf("%w: %v", ErrUnauthorized, err)
}

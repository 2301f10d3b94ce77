package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/linkshare/linkshare/backend/session-store/internal/config"
	"github.com/linkshare/linkshare/backend/session-store/internal/models"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrNoSecret     = errors.New("tokens: signing secret not configured")
	ErrInvalidToken = errors.New("tokens: invalid token")
	ErrTokenExpired = errors.New("tokens: token expired")
)

// Claims carried by both token kinds. ID (jti) is random so tokens minted in the
// same second for the same user still differ.
type Claims struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

func (c *Claims) User() *models.UserData {
	return &models.UserData{ID: c.UserID, Username: c.Username, Email: c.Email}
}

type Token struct {
	Value     string
	ExpiresAt time.Time
}

type Pair struct {
	Access  Token
	Refresh Token
}

// Issuer signs and validates HS256 tokens; access and refresh tokens use separate secrets.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

func NewIssuer(cfg config.JWTConfig) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, ErrNoSecret
	}
	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}, nil
}

// IssuePair creates a fresh access and refresh token for u.
func (i *Issuer) IssuePair(u *models.UserData) (*Pair, error) {
	access, err := i.IssueAccess(u)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(u, TypeRefresh, i.refreshTTL, i.refreshSecret)
	if err != nil {
		return nil, err
	}
	return &Pair{Access: *access, Refresh: *refresh}, nil
}

func (i *Issuer) IssueAccess(u *models.UserData) (*Token, error) {
	return i.sign(u, TypeAccess, i.accessTTL, i.accessSecret)
}

func (i *Issuer) ValidateAccess(raw string) (*Claims, error) {
	return i.validate(raw, TypeAccess, i.accessSecret)
}

func (i *Issuer) ValidateRefresh(raw string) (*Claims, error) {
	return i.validate(raw, TypeRefresh, i.refreshSecret)
}

func (i *Issuer) sign(u *models.UserData, typ string, ttl time.Duration, secret []byte) (*Token, error) {
	now := i.now()
	// NumericDate has second precision; truncate so the stored exp matches the claim.
	exp := now.Add(ttl).Truncate(time.Second)
	claims := &Claims{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Subject:   u.Subject(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return nil, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return &Token{Value: signed, ExpiresAt: exp}, nil
}

func (i *Issuer) validate(raw, typ string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) { return secret, nil }, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, typ, claims.Type)
	}
	return claims, nil
}

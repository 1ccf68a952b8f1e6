package jwtauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"farm-traceability/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Provider emite y verifica tokens HS256.
// Implementa auth.TokenIssuer y auth.AuthVerifier.
type Provider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret string, ttl time.Duration) (*Provider, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwtauth: secret required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Provider{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

type tokenClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (p *Provider) Issue(ctx context.Context, claims auth.Claims) (string, error) {
	now := p.now()

	tc := tokenClaims{
		UserID: claims.UserID,
		Role:   claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tc)
	return token.SignedString(p.secret)
}

func (p *Provider) Verify(ctx context.Context, token string) (auth.Claims, error) {
	var tc tokenClaims

	parsed, err := jwt.ParseWithClaims(token, &tc, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !parsed.Valid {
		return auth.Claims{}, ErrInvalidToken
	}
	if strings.TrimSpace(tc.Subject) == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	return auth.Claims{
		UserID:   tc.UserID,
		Username: tc.Subject,
		Role:     tc.Role,
	}, nil
}

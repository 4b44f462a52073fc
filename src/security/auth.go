package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var (
	ErrTokenRevoked = errors.New("token has been revoked")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carried by a dashboard access token.
type Claims struct {
	jwt.RegisteredClaims
}

type AuthService struct {
	JWTSecret   string
	TokenExpiry time.Duration
	revoked     *cache.Cache
	now         func() time.Time
}

// NewAuthService builds a token service. Revoked token ids are kept in
// revoked until the token would have expired anyway.
func NewAuthService(secret string, expiry time.Duration, revoked *cache.Cache) *AuthService {
	if revoked == nil {
		revoked = cache.New(expiry, 10*time.Minute)
	}
	return &AuthService{
		JWTSecret:   secret,
		TokenExpiry: expiry,
		revoked:     revoked,
		now:         time.Now,
	}
}

// GenerateToken issues an HS256 token for username with a fresh jti.
func (a *AuthService) GenerateToken(username string) (string, *Claims, error) {
	now := a.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.TokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.JWTSecret))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

func (a *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.JWTSecret), nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if _, found := a.revoked.Get(claims.ID); found {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blocks the token's jti for the rest of its lifetime.
func (a *AuthService) Revoke(claims *Claims) {
	if claims == nil || claims.ID == "" {
		return
	}
	ttl := a.TokenExpiry
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(a.now())
	}
	if ttl <= 0 {
		return
	}
	a.revoked.Set(claims.ID, struct{}{}, ttl)
}

// Package auth resolves API keys to owner namespaces and verifies bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"quiz-funnel/internal/config"
	"quiz-funnel/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrUnknownAPIKey   = errors.New("unknown api key")
	ErrInvalidJWTToken = errors.New("invalid jwt token")
)

// Claims are the bearer token claims; Role mirrors the hosted backend's anon/service roles.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
	owners map[string]string
	now    func() time.Time
}

func New(cfg config.AuthConfig) *Authenticator {
	owners := make(map[string]string, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if k.Key != "" && k.Owner != "" {
			owners[k.Key] = k.Owner
		}
	}
	return &Authenticator{secret: []byte(cfg.JWTSecret), owners: owners, now: time.Now}
}

// RequiresToken reports whether bearer tokens are checked. Without a
// configured secret only the api key is enforced.
func (a *Authenticator) RequiresToken() bool {
	return len(a.secret) > 0
}

// ResolveOwner maps an api key to the owner namespace it may read.
func (a *Authenticator) ResolveOwner(apiKey string) (string, error) {
	owner, ok := a.owners[apiKey]
	if !ok || apiKey == "" {
		return "", ErrUnknownAPIKey
	}
	return owner, nil
}

// CreateJWT signs an HS256 token for subject.
func (a *Authenticator) CreateJWT(subject, role string, ttl time.Duration) (string, error) {
	if !a.RequiresToken() {
		return "", errors.New("jwt secret is not configured")
	}
	now := a.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   subject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *Authenticator) ValidateJWT(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			logger.Get().Warn("JWT token expired", zap.String("token_snippet", snippet(tokenString)))
		} else {
			logger.Get().Warn("JWT validation failed", zap.Error(err), zap.String("token_snippet", snippet(tokenString)))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTToken, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidJWTToken
}

func snippet(s string) string {
	if len(s) > 20 {
		return s[:20] + "..."
	}
	return s
}

package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/guidebook/core/internal/infrastructure/config"
)

// EditorClaims identifies who may mutate guides
type EditorClaims struct {
	Editor string `json:"editor"`
	jwt.RegisteredClaims
}

// AuthService issues and validates editor tokens
type AuthService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.SecurityConfig) *AuthService {
	return &AuthService{
		secret: []byte(cfg.EditorSecret),
		issuer: cfg.TokenIssuer,
		ttl:    cfg.EditorTokenTTL,
		now:    time.Now,
	}
}

// IssueToken signs an editor token. A zero ttl uses the configured one.
func (s *AuthService) IssueToken(editor string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("editor secret is not configured")
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	now := s.now()
	claims := &EditorClaims{
		Editor: editor,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   editor,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and verifies an editor token
func (s *AuthService) ValidateToken(tokenString string) (*EditorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &EditorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*EditorClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

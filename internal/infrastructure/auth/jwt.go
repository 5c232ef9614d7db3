package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
	ErrMissingSecret    = errors.New("jwt secret is not configured")
)

// Claims are the claims of a bearer token granting a privacy level.
// The subject names the consumer the token was issued to.
type Claims struct {
	jwt.RegisteredClaims
	PrivacyLevel string `json:"privacy_level"`
}

// Level returns the granted privacy level
func (c *Claims) Level() (directory.PrivacyLevel, error) {
	return directory.ParsePrivacyLevel(c.PrivacyLevel)
}

// RemainingTTL returns the time until the token expires, 0 when past
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}

// IssuedToken is a freshly signed token
type IssuedToken struct {
	Token     string    `json:"token"`
	ID        string    `json:"jti"`
	ExpiresAt time.Time `json:"expires_at"`
}

// JWTService issues and validates privacy-level bearer tokens
type JWTService struct {
	secret     []byte
	issuer     string
	defaultTTL time.Duration
	revoked    RevocationList
	now        func() time.Time
}

// NewJWTService creates a new JWT service. revoked may be nil.
func NewJWTService(cfg config.JWTConfig, revoked RevocationList) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		defaultTTL: cfg.TokenTTL,
		revoked:    revoked,
		now:        time.Now,
	}
}

// Issue signs a token for subject at level. A non-positive ttl uses the configured default.
func (s *JWTService) Issue(subject string, level directory.PrivacyLevel, ttl time.Duration) (*IssuedToken, error) {
	if len(s.secret) == 0 {
		return nil, ErrMissingSecret
	}
	if !level.IsValid() {
		return nil, fmt.Errorf("%w: undefined privacy level %d", ErrInvalidClaims, level)
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		PrivacyLevel: level.Label(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &IssuedToken{Token: signed, ID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Parse validates signature, time claims, issuer and audience without
// consulting the revocation list.
func (s *JWTService) Parse(tokenString string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrMissingSecret
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.Level(); err != nil {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// Validate parses the token and rejects it when its id was revoked
func (s *JWTService) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if s.revoked == nil {
		return claims, nil
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke parses a still-valid token and revokes it for the rest of its lifetime
func (s *JWTService) Revoke(ctx context.Context, tokenString string) (*Claims, error) {
	if s.revoked == nil {
		return nil, errors.New("no revocation list configured")
	}
	claims, err := s.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		return nil, err
	}
	return claims, nil
}

// Package auth guards the deletion facade with HMAC-signed JWTs.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yourorg/azure-blob-kit/pkg/logging"
	"github.com/yourorg/azure-blob-kit/pkg/utils"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingScope     = errors.New("token lacks the required scope")
)

const (
	// MinSecretKeyLength guards against trivially brute-forceable secrets.
	MinSecretKeyLength = 32

	// ScopeDeleteBlobs is the scope a token must carry to delete blobs.
	ScopeDeleteBlobs = "blobs:delete"

	issuer = "azure-blob-kit"
)

// Claims is the JWT claims structure for the deletion API.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies API tokens.
type JWTService struct {
	secretKey []byte
	expiry    time.Duration
	logger    logging.Logger
}

// NewJWTService creates a JWT service. The secret must be at least
// MinSecretKeyLength characters.
func NewJWTService(secretKey string, expiry time.Duration, logger logging.Logger) (*JWTService, error) {
	if len(secretKey) < MinSecretKeyLength {
		return nil, fmt.Errorf("secret key must be at least %d characters long", MinSecretKeyLength)
	}
	return &JWTService{
		secretKey: []byte(secretKey),
		expiry:    expiry,
		logger:    logger,
	}, nil
}

// GenerateToken issues a token for the given subject with the given scope.
func (j *JWTService) GenerateToken(subject, scope string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   subject,
			ID:        utils.GenerateUUID(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		j.logger.WithError(err).Error("Failed to sign token")
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken verifies the signature and registered claims and returns
// the decoded claims.
func (j *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Pin the signing method to HMAC to avoid algorithm confusion.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidToken)
	}
	return claims, nil
}

// RequireScope checks that the claims grant the given scope.
func (c *Claims) RequireScope(scope string) error {
	if c.Scope != scope {
		return ErrMissingScope
	}
	return nil
}

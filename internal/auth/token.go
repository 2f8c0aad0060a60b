package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/snwareresearch/project-tracker/internal"
	"github.com/snwareresearch/project-tracker/pkg/logger"
)

// DefaultTokenTTL is the session lifetime.
const DefaultTokenTTL = 8 * time.Hour

const minSecretLength = 32

// TokenGenerator issues and verifies session tokens.
type TokenGenerator interface {
	Issue(identity Identity, ttl time.Duration) (token string, expiresAt time.Time, err error)
	Verify(tokenString string) (*Claims, error)
}

// JWTTokenGenerator signs HS256 tokens with a secret injected at startup.
// Replacing the secret invalidates every token issued under the old one.
type JWTTokenGenerator struct {
	secret []byte
	now    func() time.Time
	logger *slog.Logger
}

type TokenOption func(*JWTTokenGenerator)

// WithClock overrides the time source used for iat/exp and verification.
func WithClock(now func() time.Time) TokenOption {
	return func(j *JWTTokenGenerator) {
		j.now = now
	}
}

func WithTokenLogger(lg *slog.Logger) TokenOption {
	return func(j *JWTTokenGenerator) {
		j.logger = lg
	}
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(secret string, opts ...TokenOption) (*JWTTokenGenerator, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	j := &JWTTokenGenerator{
		secret: []byte(secret),
		now:    time.Now,
		logger: logger.LoggerWrapper(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Issue signs the identity claims with iat=now and exp=now+ttl.
func (j *JWTTokenGenerator) Issue(identity Identity, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	issuedAt := j.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)

	claims := &Claims{
		UserID:     identity.ID,
		Role:       identity.Role,
		Email:      identity.Email,
		Name:       identity.Name,
		Department: identity.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// Verify checks signature and expiry. Every failure is reported as
// internal.ErrInvalidToken; the reason is only logged.
func (j *JWTTokenGenerator) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		reason := "malformed"
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			reason = "expired"
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			reason = "signature"
		}
		j.logger.Debug("token rejected", "reason", reason, "error", err)
		return nil, internal.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" || !claims.Role.Valid() {
		j.logger.Debug("token rejected", "reason", "claims")
		return nil, internal.ErrInvalidToken
	}

	return claims, nil
}

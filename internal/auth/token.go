package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ecostore/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL applies when no ttl is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrInvalidToken covers every verification failure: bad signature,
// undecodable payload, and expiry are deliberately not distinguished.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenPayload is the identity carried by a bearer token.
type TokenPayload struct {
	UserID string     `json:"userId"`
	Email  string     `json:"email"`
	Role   types.Role `json:"role"`
}

// Claims is the JWT body: the payload plus registered claims (exp, iat, sub, jti).
type Claims struct {
	TokenPayload
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens. It holds only
// immutable state and is safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService constructs a TokenService. A non-positive ttl falls back to
// DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the default token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// IssueDefault issues a token with the configured ttl.
func (s *TokenService) IssueDefault(payload TokenPayload) (string, error) {
	return s.Issue(payload, s.ttl)
}

// Issue signs payload with an expiration of now+ttl. A ttl <= 0 yields a
// token that is already expired.
func (s *TokenService) Issue(payload TokenPayload, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		TokenPayload: payload,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   payload.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of tokenString and returns its
// claims. The token is expired once now >= exp; there is no leeway.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.UserID) == "" || strings.TrimSpace(claims.Email) == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: incomplete payload", ErrInvalidToken)
	}
	return claims, nil
}

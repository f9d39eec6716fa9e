package handlers

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/ecostore/apiserver/internal/auth"
	"github.com/ecostore/apiserver/internal/metrics"
	"github.com/ecostore/apiserver/types"
	"github.com/sirupsen/logrus"
)

// Rejection reasons recorded by the middleware.
const (
	reasonMissingToken     = "missing_token"
	reasonInvalidToken     = "invalid_token"
	reasonRevokedToken     = "revoked_token"
	reasonNoIdentity       = "no_identity"
	reasonInsufficientRole = "insufficient_role"
)

var errMissingToken = errors.New("missing bearer token")

// AuthMiddleware verifies bearer tokens and gates routes by role. Token
// checks are pure computation; the deny-list is consulted only when set.
type AuthMiddleware struct {
	tokens   *auth.TokenService
	denylist auth.Denylist
	metrics  *metrics.Metrics
	logger   logrus.FieldLogger
}

func NewAuthMiddleware(tokens *auth.TokenService, denylist auth.Denylist, m *metrics.Metrics, logger logrus.FieldLogger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, denylist: denylist, metrics: m, logger: logger}
}

// RequireAuth attaches the verified identity to the request context.
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if errors.Is(err, errMissingToken) {
			a.metrics.Rejection(reasonMissingToken)
			writeError(w, http.StatusUnauthorized, msgAuthRequired)
			return
		}
		if err != nil {
			a.metrics.Rejection(reasonInvalidToken)
			writeError(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		claims, err := a.tokens.Verify(tokenString)
		if err != nil {
			a.metrics.Rejection(reasonInvalidToken)
			writeError(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}
		identity := auth.IdentityFromClaims(claims)

		if a.denylist != nil && identity.TokenID != "" {
			revoked, err := a.denylist.IsRevoked(r.Context(), identity.TokenID)
			if err != nil {
				a.logger.WithError(err).Error("deny-list lookup failed")
				writeError(w, http.StatusServiceUnavailable, msgAuthUnavailable)
				return
			}
			if revoked {
				a.metrics.Rejection(reasonRevokedToken)
				writeError(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

// RequireRole lets the request through only when the identity attached by
// RequireAuth holds one of roles. It performs no token verification itself.
func (a *AuthMiddleware) RequireRole(roles ...types.Role) func(http.Handler) http.Handler {
	allowed := slices.Clone(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				a.metrics.Rejection(reasonNoIdentity)
				writeError(w, http.StatusUnauthorized, msgAuthRequired)
				return
			}
			if !slices.Contains(allowed, identity.Role) {
				a.metrics.Rejection(reasonInsufficientRole)
				writeError(w, http.StatusForbidden, msgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return a.RequireRole(types.RoleAdmin)(next)
}

func (a *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return a.RequireRole(types.RoleUser, types.RoleAdmin)(next)
}

// bearerToken extracts the token from "Authorization: Bearer <token>". A
// header that is present but not a bearer credential is reported as invalid
// rather than missing.
func bearerToken(r *http.Request) (string, error) {
	// Header values arrive with trailing whitespace stripped, so "Bearer "
	// reaches us as a bare scheme.
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" || strings.EqualFold(header, "Bearer") {
		return "", errMissingToken
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", errors.New("invalid authorization scheme")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}

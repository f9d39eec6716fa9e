package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/ecostore/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "my_test_jwt_secret"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	return s
}

func samplePayload() TokenPayload {
	return TokenPayload{UserID: "3f0c1a52-7d1e-4c8e-9d43-2b1f6a0e9c11", Email: "ann@x.com", Role: types.RoleUser}
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	s := newTestTokenService(t)

	for _, payload := range []TokenPayload{
		samplePayload(),
		{UserID: "42", Email: "Admin@Shop.example", Role: types.RoleAdmin},
	} {
		token, err := s.IssueDefault(payload)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := s.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, payload, claims.TokenPayload)
		assert.Equal(t, payload.UserID, claims.Subject)
		assert.NotEmpty(t, claims.ID)
		require.NotNil(t, claims.ExpiresAt)
		assert.True(t, claims.ExpiresAt.After(time.Now()))
	}
}

func TestIssue_UniqueTokenIDs(t *testing.T) {
	s := newTestTokenService(t)

	a, err := s.IssueDefault(samplePayload())
	require.NoError(t, err)
	b, err := s.IssueDefault(samplePayload())
	require.NoError(t, err)

	ca, err := s.Verify(a)
	require.NoError(t, err)
	cb, err := s.Verify(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestVerify_ZeroTTLIsExpired(t *testing.T) {
	s := newTestTokenService(t)

	token, err := s.Issue(samplePayload(), 0)
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_PastExpiration(t *testing.T) {
	s := newTestTokenService(t)

	token, err := s.Issue(samplePayload(), -1*time.Second)
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_ExpiryBoundaryHasNoLeeway(t *testing.T) {
	s := newTestTokenService(t)
	issuedAt := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return issuedAt }

	token, err := s.Issue(samplePayload(), time.Minute)
	require.NoError(t, err)

	s.now = func() time.Time { return issuedAt.Add(time.Minute - time.Second) }
	_, err = s.Verify(token)
	assert.NoError(t, err)

	s.now = func() time.Time { return issuedAt.Add(time.Minute) }
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	s := newTestTokenService(t)
	other, err := NewTokenService("totally_wrong_secret", time.Hour)
	require.NoError(t, err)

	token, err := other.IssueDefault(samplePayload())
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	s := newTestTokenService(t)

	for _, token := range []string{"", "this.is.not.a.valid.jwt", "abc", "a.b"} {
		_, err := s.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	s := newTestTokenService(t)

	token, err := s.IssueDefault(samplePayload())
	require.NoError(t, err)

	adminToken, err := s.IssueDefault(TokenPayload{UserID: "x", Email: "x@x.com", Role: types.RoleAdmin})
	require.NoError(t, err)

	// Splice the admin payload onto the user token's signature.
	parts := strings.Split(token, ".")
	adminParts := strings.Split(adminToken, ".")
	require.Len(t, parts, 3)
	forged := parts[0] + "." + adminParts[1] + "." + parts[2]

	_, err = s.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	s := newTestTokenService(t)

	claims := Claims{
		TokenPayload: samplePayload(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = s.Verify(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RequiresExpiration(t *testing.T) {
	s := newTestTokenService(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{TokenPayload: samplePayload()}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_IncompletePayload(t *testing.T) {
	s := newTestTokenService(t)

	for _, payload := range []TokenPayload{
		{UserID: "", Email: "a@b.c", Role: types.RoleUser},
		{UserID: "1", Email: "", Role: types.RoleUser},
		{UserID: "1", Email: "a@b.c", Role: "root"},
	} {
		token, err := s.IssueDefault(payload)
		require.NoError(t, err)
		_, err = s.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestNewTokenService(t *testing.T) {
	_, err := NewTokenService("  ", time.Hour)
	assert.Error(t, err)

	s, err := NewTokenService("secret", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, s.TTL())
}

func TestIdentityFromClaims(t *testing.T) {
	s := newTestTokenService(t)
	token, err := s.IssueDefault(samplePayload())
	require.NoError(t, err)
	claims, err := s.Verify(token)
	require.NoError(t, err)

	id := IdentityFromClaims(claims)
	assert.Equal(t, samplePayload(), id.TokenPayload)
	assert.Equal(t, claims.ID, id.TokenID)
	assert.Equal(t, claims.ExpiresAt.Time, id.ExpiresAt)
}

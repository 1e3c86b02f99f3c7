package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/cloudnotes/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	svc := NewTokenService([]byte("super-secret"), time.Hour)

	tok, err := svc.Issue(123)
	require.NoError(t, err)

	gotUserID, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(123), gotUserID)
}

func TestIssue_ClaimsCarryIssuedAtAndExpiry(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService([]byte("k"), 7*24*time.Hour).WithClock(func() time.Time { return fixed })

	tok, err := svc.Issue(9)
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)

	assert.Equal(t, int64(9), claims.UserID)
	assert.Equal(t, fixed, claims.IssuedAt.Time.UTC())
	assert.Equal(t, fixed.Add(7*24*time.Hour), claims.ExpiresAt.Time.UTC())
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	issuer := NewTokenService(secret, 7*24*time.Hour).
		WithClock(func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) })

	tok, err := issuer.Issue(1)
	require.NoError(t, err)

	_, err = NewTokenService(secret, 7*24*time.Hour).Verify(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestVerify_CorruptedSignature(t *testing.T) {
	t.Parallel()

	svc := NewTokenService([]byte("secret"), time.Hour)
	tok, err := svc.Issue(1)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	corrupted := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = svc.Verify(corrupted)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenService([]byte("right-secret"), time.Hour).Issue(2)
	require.NoError(t, err)

	_, err = NewTokenService([]byte("wrong-secret"), time.Hour).Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_ExpiredWithWrongSecretIsInvalid(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenService([]byte("right-secret"), time.Hour).
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).
		Issue(2)
	require.NoError(t, err)

	_, err = NewTokenService([]byte("wrong-secret"), time.Hour).Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           1,
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	svc := NewTokenService(secret, time.Hour)
	for name, tok := range map[string]string{"HS512": hs512, "none": none} {
		_, err := svc.Verify(tok)
		assert.ErrorIs(t, err, common.ErrInvalidToken, name)
	}
}

func TestVerify_MissingExpiryOrOwner(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	svc := NewTokenService(secret, time.Hour)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1}).SignedString(secret)
	require.NoError(t, err)
	_, err = svc.Verify(noExp)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	noOwner, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = svc.Verify(noOwner)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_MalformedString(t *testing.T) {
	t.Parallel()

	svc := NewTokenService([]byte("k"), time.Hour)
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, err := svc.Verify(tok)
		assert.ErrorIs(t, err, common.ErrInvalidToken, tok)
	}
}

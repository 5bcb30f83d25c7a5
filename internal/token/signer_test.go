package token

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	signer := NewSigner("test-secret", 15*time.Minute)

	raw, err := signer.Issue(42, []string{"admin", "user"})
	require.NoError(t, err)

	claims, err := signer.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, []string{"admin", "user"}, claims.Roles)
	assert.True(t, claims.HasRole("admin"))
	assert.False(t, claims.HasRole("manager"))
}

func TestValidateExpired(t *testing.T) {
	signer := NewSigner("test-secret", 15*time.Minute)

	base := time.Now().UTC()
	signer.now = func() time.Time { return base.Add(-time.Hour) }
	raw, err := signer.Issue(1, nil)
	require.NoError(t, err)

	signer.now = func() time.Time { return base }
	_, err = signer.Validate(raw)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidateWrongSecret(t *testing.T) {
	signer := NewSigner("right-secret", 15*time.Minute)
	other := NewSigner("wrong-secret", 15*time.Minute)

	raw, err := signer.Issue(1, nil)
	require.NoError(t, err)

	_, err = other.Validate(raw)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestValidateTampered(t *testing.T) {
	signer := NewSigner("test-secret", 15*time.Minute)

	raw, err := signer.Issue(7, []string{"user"})
	require.NoError(t, err)
	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)

	// Flipping a single byte in any segment must yield a malformed token,
	// never a claim leak.
	for i, name := range []string{"header", "payload", "signature"} {
		tampered := make([]string, 3)
		copy(tampered, parts)
		tampered[i] = flipFirstChar(parts[i])

		_, err := signer.Validate(strings.Join(tampered, "."))
		assert.ErrorIs(t, err, ErrMalformed, "tampered %s accepted", name)
	}
}

func TestValidateAlgNoneRejected(t *testing.T) {
	signer := NewSigner("test-secret", 15*time.Minute)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"user_id":1,"sub":"1"}`))

	_, err := signer.Validate(header + "." + payload + ".")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestValidateGarbage(t *testing.T) {
	signer := NewSigner("test-secret", 15*time.Minute)

	for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		_, err := signer.Validate(raw)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", raw)
	}
}

func TestLaterIssueHasLaterExpiry(t *testing.T) {
	signer := NewSigner("test-secret", 15*time.Minute)

	base := time.Now().UTC().Truncate(time.Second)
	signer.now = func() time.Time { return base }
	first, err := signer.Issue(1, nil)
	require.NoError(t, err)

	signer.now = func() time.Time { return base.Add(30 * time.Second) }
	second, err := signer.Issue(1, nil)
	require.NoError(t, err)

	firstClaims, err := signer.Validate(first)
	require.NoError(t, err)
	secondClaims, err := signer.Validate(second)
	require.NoError(t, err)

	assert.True(t, secondClaims.ExpiresAt.Time.After(firstClaims.ExpiresAt.Time),
		"expiry of a later token must be strictly later")
}

func flipFirstChar(s string) string {
	if s == "" {
		return "A"
	}
	replacement := byte('A')
	if s[0] == 'A' {
		replacement = 'B'
	}
	return string(replacement) + s[1:]
}

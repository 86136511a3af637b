package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestJWTService_IssueAndVerify(t *testing.T) {
	issuedAt := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	svc := NewJWTService("test-secret").WithClock(fixedClock(issuedAt))

	token, err := svc.Issue("user-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		now     time.Time
		wantErr bool
	}{
		{"right after issue", issuedAt, false},
		{"just before expiry", issuedAt.Add(time.Hour - time.Second), false},
		{"at expiry", issuedAt.Add(time.Hour), true},
		{"after expiry", issuedAt.Add(2 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, err := svc.WithClock(fixedClock(tt.now)).Verify(token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				assert.Empty(t, subject)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", subject)
		})
	}
}

func TestJWTService_DefaultTTL(t *testing.T) {
	issuedAt := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	svc := NewJWTService("test-secret").WithClock(fixedClock(issuedAt))

	token, err := svc.Issue("user-1", 0)
	require.NoError(t, err)

	_, err = svc.WithClock(fixedClock(issuedAt.Add(59 * time.Minute))).Verify(token)
	assert.NoError(t, err)
	_, err = svc.WithClock(fixedClock(issuedAt.Add(61 * time.Minute))).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsOtherSecret(t *testing.T) {
	token, err := NewJWTService("secret-a").Issue("user-1", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTService("secret-b").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsMalformedTokens(t *testing.T) {
	svc := NewJWTService("test-secret")

	valid, err := svc.Issue("user-1", time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":           "",
		"garbage":         "not.a.jwt",
		"truncated":       valid[:len(valid)-5],
		"tampered":        valid + "x",
		"two segments":    "eyJhbGciOiJIUzI1NiJ9.e30",
		"unsigned (none)": unsignedToken(t),
	} {
		t.Run(name, func(t *testing.T) {
			subject, err := svc.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Empty(t, subject)
		})
	}
}

func TestJWTService_RejectsTokenWithoutExpiry(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.RegisteredClaims{Subject: "user-1"})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewJWTService("test-secret").Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsOtherHMACAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, &jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewJWTService("test-secret").Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func unsignedToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return signed
}

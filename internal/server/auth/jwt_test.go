package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService(testSecret, 7*24*time.Hour).WithClock(fixedClock(now))

	tok, err := svc.Issue("user-123", "a@b.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, ok := svc.Verify(tok)
	if !ok {
		t.Fatalf("Verify rejected a fresh token")
	}
	if claims.UserID != "user-123" || claims.Email != "a@b.com" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if !claims.IssuedAt.Time.Equal(now) {
		t.Fatalf("iat mismatch: %v", claims.IssuedAt)
	}
	if !claims.ExpiresAt.Time.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("exp mismatch: %v", claims.ExpiresAt)
	}
}

func TestIssue_EmptyFields(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testSecret, time.Hour)
	if _, err := svc.Issue("", "a@b.com"); err == nil {
		t.Fatalf("expected error for empty user id")
	}
	if _, err := svc.Issue("u1", ""); err == nil {
		t.Fatalf("expected error for empty email")
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewTokenService(testSecret, 7*24*time.Hour).WithClock(fixedClock(issued))

	tok, err := svc.Issue("u1", "a@b.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	svc.WithClock(fixedClock(issued.Add(7*24*time.Hour - time.Second)))
	if _, ok := svc.Verify(tok); !ok {
		t.Fatalf("token must be valid right before expiry")
	}

	svc.WithClock(fixedClock(issued.Add(7*24*time.Hour + time.Second)))
	if _, ok := svc.Verify(tok); ok {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenService([]byte("right-secret-right-secret-right-secret"), time.Hour).Issue("u2", "a@b.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, ok := NewTokenService(testSecret, time.Hour).Verify(tok); ok {
		t.Fatalf("expected invalid signature to be rejected")
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testSecret, time.Hour)
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		if _, ok := svc.Verify(tok); ok {
			t.Fatalf("expected %q to be rejected", tok)
		}
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := Claims{
		UserID: "u1",
		Email:  "a@b.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	// HS512 with the right key is still not accepted.
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	svc := NewTokenService(testSecret, time.Hour)
	if _, ok := svc.Verify(tok); ok {
		t.Fatalf("expected HS512 token to be rejected")
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, ok := svc.Verify(none); ok {
		t.Fatalf("expected alg=none token to be rejected")
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testSecret, time.Hour)
	tok, err := svc.Issue("u1", "a@b.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	parts := strings.Split(tok, ".")
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(`{"userId":"admin","email":"x@y.z","exp":4102444800}`))
	if _, ok := svc.Verify(strings.Join(parts, ".")); ok {
		t.Fatalf("expected tampered token to be rejected")
	}
}

func TestVerify_MissingExpiry(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u1", Email: "a@b.com"}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, ok := NewTokenService(testSecret, time.Hour).Verify(tok); ok {
		t.Fatalf("expected token without exp to be rejected")
	}
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// issue builds a token the way the external identity service does.
func issue(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestValidateAcceptsExternallyIssuedToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	token := issue(t, "shared-secret", Claims{
		UserID: userID,
		Email:  "dev@example.com",
		Role:   "user",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})

	svc := NewJWTService("shared-secret")
	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user %s, got %s", userID, claims.UserID)
	}
	if claims.Role != "user" {
		t.Fatalf("expected role user, got %q", claims.Role)
	}
}

func TestValidateRejectsBadTokens(t *testing.T) {
	t.Parallel()

	svc := NewJWTService("shared-secret")
	fresh := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: fresh}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("build unsigned token: %v", err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"wrong secret", issue(t, "other-secret", Claims{RegisteredClaims: fresh})},
		{"expired", issue(t, "shared-secret", Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}})},
		{"none algorithm", unsigned},
		{"garbage", "not.a.token"},
	}
	for _, tc := range cases {
		if _, err := svc.Validate(tc.token); err == nil {
			t.Fatalf("%s: token accepted", tc.name)
		}
	}
}

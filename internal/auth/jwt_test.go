package auth

import (
	"testing"
	"time"
)

func TestParseBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"standard", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"lowercase scheme", "bearer abc", "abc"},
		{"missing scheme", "abc.def.ghi", ""},
		{"empty", "", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseBearerToken(tc.header); got != tc.want {
				t.Fatalf("ParseBearerToken(%q) = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}

func TestSignAndVerifyAccessToken(t *testing.T) {
	secret := "test-secret"
	token, err := SignAccessToken(7, "somchai", RoleStaff, secret, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := VerifyAccessToken(token, secret)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "somchai" || claims.Role != RoleStaff {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := SignAccessToken(1, "owner", RoleOwner, "secret-a", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyAccessToken(token, "secret-b"); err == nil {
		t.Fatal("expected verification to fail with the wrong secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	token, err := SignAccessToken(1, "owner", RoleOwner, "secret", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyAccessToken(token, "secret"); err == nil {
		t.Fatal("expected verification to fail for an expired token")
	}
}

func TestSignRequiresSecret(t *testing.T) {
	if _, err := SignAccessToken(1, "owner", RoleOwner, "", time.Hour); err == nil {
		t.Fatal("expected an error when the secret is empty")
	}
}

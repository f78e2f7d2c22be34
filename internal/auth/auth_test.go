package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	tokens, err := Issue("staff-1", "staff", "podmatch", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := Parse(tokens.AccessToken, "secret", "podmatch")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "staff-1" || claims.Role != "staff" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParse_IssuerMismatch(t *testing.T) {
	tokens, err := Issue("staff-1", "staff", "someone-else", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(tokens.AccessToken, "secret", "podmatch"); err == nil {
		t.Error("expected issuer mismatch error")
	}
}

func TestParse_WrongKey(t *testing.T) {
	tokens, err := Issue("staff-1", "staff", "podmatch", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(tokens.AccessToken, "other-secret", "podmatch"); err == nil {
		t.Error("expected signature error")
	}
}

func TestClaimsStaff(t *testing.T) {
	cases := []struct {
		role string
		want bool
	}{
		{RoleStaff, true},
		{RoleAdmin, true},
		{"participant", false},
		{"", false},
	}
	for _, tc := range cases {
		c := Claims{Role: tc.role}
		if c.Staff() != tc.want {
			t.Errorf("Staff() with role %q = %v, want %v", tc.role, c.Staff(), tc.want)
		}
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "hunter22") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "hunter23") {
		t.Error("wrong password accepted")
	}
}

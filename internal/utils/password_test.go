package utils

import (
	"strings"
	"testing"
)

// Cost 4 is the bcrypt minimum; it keeps each test in milliseconds.
const testCost = 4

func TestHashPassword_Roundtrip(t *testing.T) {
	hash, err := HashPassword("Str0ngPass", testCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash does not look like bcrypt: %q", hash)
	}
	if !VerifyPassword(hash, "Str0ngPass") {
		t.Error("VerifyPassword() rejected the original password")
	}
	if VerifyPassword(hash, "wrong") {
		t.Error("VerifyPassword() accepted a wrong password")
	}
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	h1, _ := HashPassword("SamePass1", testCost)
	h2, _ := HashPassword("SamePass1", testCost)
	if h1 == h2 {
		t.Error("two hashes of the same password are identical; salt must be random")
	}
}

func TestValidatePassword_CollectsAllReasons(t *testing.T) {
	reasons := ValidatePassword("abc")
	if len(reasons) != 3 {
		t.Fatalf("ValidatePassword(%q) = %v, want 3 reasons (length, upper, digit)", "abc", reasons)
	}
}

func TestValidatePassword_EachRule(t *testing.T) {
	cases := []struct {
		pw   string
		want int
	}{
		{"Abcdefg1", 0},       // satisfies every rule
		{"abcdefg1", 1},       // no upper
		{"ABCDEFG1", 1},       // no lower
		{"Abcdefgh", 1},       // no digit
		{"Ab1", 1},            // too short
		{"", 4},               // misses everything
		{"A1b2C3d4E5", 0},     // long mixed
		{"password", 2},       // no upper, no digit
	}
	for _, tc := range cases {
		if got := ValidatePassword(tc.pw); len(got) != tc.want {
			t.Errorf("ValidatePassword(%q) = %v, want %d reasons", tc.pw, got, tc.want)
		}
	}
}

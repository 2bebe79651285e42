package user

import "testing"

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	obj := &User{Username: "alice", PasswordHash: hash}
	if !obj.VerifyPassword("correct horse") {
		t.Error("expected the correct password to verify")
	}
	if obj.VerifyPassword("wrong") {
		t.Error("expected a wrong password to be rejected")
	}
}

package security

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	digest, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if digest == "hunter2hunter2" {
		t.Fatal("digest must not equal plaintext")
	}

	ok, err := VerifyPassword("hunter2hunter2", digest)
	if err != nil {
		t.Fatalf("verify password: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to verify")
	}

	ok, err = VerifyPassword("wrong-password", digest)
	if err != nil {
		t.Fatalf("verify mismatched password: %v", err)
	}
	if ok {
		t.Fatal("expected mismatched password to fail verification")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	if _, err := VerifyPassword("whatever", "not-a-bcrypt-digest"); err == nil {
		t.Fatal("expected error for malformed digest")
	}
}

package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword_Roundtrip(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Fatalf("unexpected hash prefix: %s", hash)
	}

	valid, err := CheckPassword("hunter2hunter2", hash)
	if err != nil {
		t.Fatalf("CheckPassword error: %v", err)
	}
	if !valid {
		t.Fatal("correct password was rejected")
	}

	valid, err = CheckPassword("wrongpassword", hash)
	if err != nil {
		t.Fatalf("CheckPassword error: %v", err)
	}
	if valid {
		t.Fatal("wrong password was accepted")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, err := HashPassword("samepassword")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	h2, err := HashPassword("samepassword")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestCheckPassword_Malformed(t *testing.T) {
	for _, bad := range []string{
		"",
		"not-a-hash",
		"$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=19456,t=2,p=1$c2FsdA",
	} {
		if _, err := CheckPassword("whatever", bad); err == nil {
			t.Errorf("CheckPassword(%q) accepted a malformed hash", bad)
		}
	}
}

func TestCheckPassword_ForeignParameters(t *testing.T) {
	// Hash of "changeme" produced with m=65536,t=1,p=4. Verification
	// honours the embedded parameters regardless of current defaults.
	foreign := "$argon2id$v=19$m=65536,t=1,p=4$mucMvOaS6lZ2LWNS1OEFKw$UYEWv8cvCOO6l2zGeqv3JPVe1nyy0x9GXBfYEuDM544"

	valid, err := CheckPassword("changeme", foreign)
	if err != nil {
		t.Fatalf("CheckPassword error: %v", err)
	}
	if !valid {
		t.Fatal("foreign-parameter hash rejected its correct password")
	}
	if !NeedsRehash(foreign) {
		t.Error("foreign-parameter hash not flagged for rehash")
	}
}

func TestNeedsRehash_CurrentDefaults(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if NeedsRehash(hash) {
		t.Error("fresh hash flagged for rehash")
	}
	if !NeedsRehash("garbage") {
		t.Error("garbage not flagged for rehash")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); !errors.Is(err, ErrPasswordTooWeak) {
		t.Errorf("short password err = %v, want ErrPasswordTooWeak", err)
	}
	if err := ValidatePassword("longenough"); err != nil {
		t.Errorf("acceptable password err = %v", err)
	}
}

package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptRoundTrip(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	digest, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if digest == "correct horse battery staple" {
		t.Fatal("digest equals plaintext")
	}
	if !strings.HasPrefix(digest, "$2") {
		t.Errorf("digest %q is not a bcrypt string", digest)
	}

	if !h.Verify("correct horse battery staple", digest) {
		t.Error("correct password rejected")
	}
	if h.Verify("wrong password", digest) {
		t.Error("wrong password accepted")
	}
	if h.Verify("correct horse battery staple", "not-a-digest") {
		t.Error("malformed digest accepted")
	}
}

func TestBcryptDistinctSalts(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)
	d1, err := h.Hash("same password")
	if err != nil {
		t.Fatal(err)
	}
	d2, err := h.Hash("same password")
	if err != nil {
		t.Fatal(err)
	}
	if d1 == d2 {
		t.Error("two hashes of the same password are identical")
	}
}

func TestBcryptCostClamped(t *testing.T) {
	h := NewBcrypt(999)
	if h.cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want default %d", h.cost, bcrypt.DefaultCost)
	}
}

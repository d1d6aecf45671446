// Package password provides the one-way hashing used for stored credentials.
package password

import "golang.org/x/crypto/bcrypt"

// Hasher is the injectable hashing strategy consumed by the auth service.
type Hasher interface {
	Hash(password string) (string, error)
	// Verify reports whether the password matches the stored digest. It never
	// reveals why a mismatch occurred.
	Verify(password, digest string) bool
}

// Bcrypt implements Hasher with x/crypto bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher. Costs outside the valid bcrypt range
// fall back to the library default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (b *Bcrypt) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and checks account passwords with bcrypt.
type PasswordHasher struct {
	cost  int
	decoy []byte
}

// NewPasswordHasher uses cost, or bcrypt.DefaultCost when cost is out of range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	decoy, err := bcrypt.GenerateFromPassword([]byte("decoy-password"), cost)
	if err != nil {
		panic(err)
	}
	return &PasswordHasher{cost: cost, decoy: decoy}
}

// Hash returns the bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare verifies password against hashed.
func (h *PasswordHasher) Compare(hashed, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
}

// CompareMissing spends the same work as Compare for an account that does not
// exist, so login latency does not reveal which emails are registered.
func (h *PasswordHasher) CompareMissing(password string) {
	_ = bcrypt.CompareHashAndPassword(h.decoy, []byte(password))
}

package domain

import "time"

// User is an account that can authenticate and submit tickets. The role is
// fixed at registration.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

package entity

import "time"

// User is the aggregate root for the user domain.
// PasswordHash holds an argon2id PHC string; it is empty for accounts
// whose credentials live in an external auth service.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package domain

import (
	"time"

	"github.com/aussiebroadwan/streamnest/pkg/idx"
)

// User is a registered account. Rows are created once on successful
// registration and never mutated afterwards.
type User struct {
	ID           idx.ID // store assigned, never exposed outside the service
	UserID       string // caller chosen public identifier, unique
	Username     string
	Email        string // unique, case-sensitive as stored
	PasswordHash string // argon2id PHC string or legacy bcrypt digest
	Phone        string // whitespace stripped
	CreatedAt    time.Time
}

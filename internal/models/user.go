package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an identity known to the auth service
// Username is used as the account key of the ledger
type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Username       string
	HashedPassword string
}

// IssuedToken is a signed access token handed to the user after login
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

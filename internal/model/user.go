package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated actor.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// Capabilities is the flattened permission set derived from the
	// actor's roles. It is loaded alongside the user and never persisted
	// on the users row itself.
	Capabilities []string `json:"-" db:"-"`
}

// HasCapability reports whether the actor holds the given capability.
func (u *User) HasCapability(capability string) bool {
	for _, c := range u.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Role groups a set of permissions.
type Role struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}

// Permission is a single named capability grantable through a role.
type Permission struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Code string    `json:"code" db:"code"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the stored (revocable) half of the credential pair.
// A token is usable only while its row exists and ExpiresAt is in the future.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager, AuthService
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

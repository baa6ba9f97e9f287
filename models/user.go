package models

import (
	"time"
)

// User represents an identity issued by the external auth provider
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

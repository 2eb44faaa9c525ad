package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an operator account allowed to change match state
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

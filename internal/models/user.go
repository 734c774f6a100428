package models

import "time"

// User represents a driver or admin record in DB (internal use only).
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"` // "driver" or "admin"
	CreatedAt    time.Time `json:"created_at"`
}

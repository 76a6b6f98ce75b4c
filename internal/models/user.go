package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"` // "user" | "admin"
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

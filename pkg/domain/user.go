package domain

import (
	"strings"
	"time"
)

// Roles understood by the backend.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User represents a registered AADA account.
type User struct {
	ID            ID         `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name,omitempty"`
	LastName      string     `json:"last_name,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Role          string     `json:"role,omitempty"`
	IsActive      bool       `json:"is_active,omitempty"`
	EmailVerified bool       `json:"email_verified,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// DisplayName returns "First Last" when both names are set, else the email.
func (u User) DisplayName() string {
	first := strings.TrimSpace(u.FirstName)
	last := strings.TrimSpace(u.LastName)
	if first != "" && last != "" {
		return first + " " + last
	}
	return u.Email
}

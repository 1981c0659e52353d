// Package staff manages hospital staff accounts. Accounts are self-registered
// with a badge number; the badge prefix fixes the role and callers never
// choose one.
package staff

import (
	"time"

	"github.com/google/uuid"
)

type Staff struct {
	ID           uuid.UUID `json:"uuid"`
	EmployeeID   string    `json:"employee_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	DisplayName  string    `json:"display"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterInput is a new account request.
type RegisterInput struct {
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
}

// LoginInput is a credential pair.
type LoginInput struct {
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password"`
}

// Session is the login response: the account plus its bearer token.
type Session struct {
	Token string `json:"token"`
	Staff *Staff `json:"staff"`
}

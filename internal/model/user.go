package model

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleAnchor     UserRole = "ANCHOR"
	RoleSupplier   UserRole = "SUPPLIER"
	RoleConsultant UserRole = "CONSULTANT"
)

// RoleLabels maps roles to display names. Passed into formatting
// explicitly instead of living as mutable process-wide state.
var RoleLabels = map[UserRole]string{
	RoleAdmin:      "Administrator",
	RoleAnchor:     "Anchor company",
	RoleSupplier:   "Supplier",
	RoleConsultant: "Consultant",
}

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Phone        string     `json:"phone" db:"phone"`
	Role         UserRole   `json:"role" db:"role"`
	Position     string     `json:"position" db:"position"`
	PasswordHash string     `json:"-" db:"password_hash"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

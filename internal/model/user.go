package model

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleCandidate UserRole = "candidate"
	RoleRecruiter UserRole = "recruiter"
)

func (r UserRole) Valid() bool {
	return r == RoleCandidate || r == RoleRecruiter
}

type User struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	Name                string     `json:"name" db:"name"`
	Email               string     `json:"email" db:"email"`
	PasswordHash        string     `json:"-" db:"password_hash"`
	Role                UserRole   `json:"role" db:"role"`
	IsVerified          bool       `json:"is_verified" db:"is_verified"`
	VerificationToken   *string    `json:"-" db:"verification_token"`
	ResetPasswordToken  *string    `json:"-" db:"reset_password_token"`
	ResetPasswordExpiry *time.Time `json:"-" db:"reset_password_expiry"`
	OnboardingCompleted bool       `json:"onboarding_completed" db:"onboarding_completed"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// PublicUser is the slimmed-down shape embedded in conversations,
// messages and notification senders.
type PublicUser struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Email string    `json:"email" db:"email"`
	Role  UserRole  `json:"role" db:"role"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

package domain

import "time"

// Role enumerates user capabilities. Support-side roles drive a ticket
// forward; the requesting customer approves or rejects the support side's
// proposals; admin satisfies every guard.
type Role string

const (
	RoleCustomer    Role = "CUSTOMER"
	RoleSupport     Role = "SUPPORT"
	RoleSupportLead Role = "SUPPORT_LEAD"
	RoleAdmin       Role = "ADMIN"
)

// SupportSide reports whether the role belongs to the support organization.
func (r Role) SupportSide() bool {
	return r == RoleSupport || r == RoleSupportLead
}

// UserStatus represents lifecycle states for a user account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for every actor: customers who raise tickets and
// support staff who work them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role defines the account roles recognised by the API.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleHost  Role = "host"
	RoleUser  Role = "user"
)

// ValidRole reports whether s is one of the known roles.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleHost, RoleUser:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountActive              AccountStatus = "active"
	AccountSuspended           AccountStatus = "suspended"
	AccountDeleted             AccountStatus = "deleted"
	AccountPendingVerification AccountStatus = "pending_verification"
)

// ValidAccountStatus reports whether s is one of the known account statuses.
func ValidAccountStatus(s string) bool {
	switch AccountStatus(s) {
	case AccountActive, AccountSuspended, AccountDeleted, AccountPendingVerification:
		return true
	}
	return false
}

// Account represents a registered user of the marketplace.
type Account struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role         Role               `bson:"role" json:"role"`
	Status       AccountStatus      `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// CanAuthenticate reports whether the account is allowed to log in.
// Suspended, deleted and pending-verification accounts are rejected.
func (a *Account) CanAuthenticate() bool {
	return a.Status == AccountActive
}

// Principal is the acting identity extracted from an authenticated request.
type Principal struct {
	ID   primitive.ObjectID
	Role Role
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

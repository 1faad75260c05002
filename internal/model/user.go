package model

import "time"

// Role is the authorisation role carried in access tokens.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleWaiter   Role = "WAITER"
	RoleAdmin    Role = "ADMIN"
	// RoleVisitor is only ever carried by anonymous feedback tokens.
	RoleVisitor Role = "VISITOR"
)

// User represents an application user record as stored in the `users`
// table.  Waiters are users with Role WAITER and a LocationID; customers
// and admins leave LocationID empty.
//
// Fields:
//
//	ID           – UUID primary key.
//	Email        – unique, lower-cased email address.
//	FirstName    – given name.
//	LastName     – family name.
//	PasswordHash – bcrypt hash.
//	Role         – CUSTOMER, WAITER or ADMIN.
//	LocationID   – location a waiter works at.
//	IsActive     – whether the account may sign in.
type User struct {
	ID           string    // users.id
	Email        string    // users.email
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	LocationID   string    // users.location_id (nullable)
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// FullName joins first and last name.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    string     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

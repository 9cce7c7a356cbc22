package model

import "time"

// Role identifies a user's permission level.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleSales   Role = "sales"
)

// User is an application account. Accounts are provisioned through the
// auth provider; Role is mutable by admins only.
type User struct {
	// ID is the unique identifier for this user.
	ID string `json:"id" db:"id"`

	// Email is the sign-in address, unique across users.
	Email string `json:"email" db:"email"`

	// Name is the display name shown in task assignments and threads.
	Name string `json:"name" db:"name"`

	// Role is the permission level (use Role* constants).
	Role Role `json:"role" db:"role"`

	// ManagerID is an optional back-reference to this user's manager.
	// Reserved: no transition rule currently consults it.
	ManagerID *string `json:"manager_id,omitempty" db:"manager_id"`

	// PasswordHash is the bcrypt hash used by the local auth provider.
	// Never serialized outward.
	PasswordHash string `json:"-" db:"password_hash"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

package auth

import "time"

// Account status values. "Deleting" a user flips status; rows are never
// physically removed.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusDeleted   = "deleted"
)

// Hierarchy records the geographic placement a user registered under.
type Hierarchy struct {
	DistrictID string `json:"district_id,omitempty"`
	BlockID    string `json:"block_id,omitempty"`
	VillageID  string `json:"village_id,omitempty"`
}

// RoleInfo couples the global role with the user's geographic placement.
type RoleInfo struct {
	Role      Role      `json:"role"`
	Hierarchy Hierarchy `json:"hierarchy"`
}

// User is the principal attached to a request after the gate admits it.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	EmailVerified bool      `json:"email_verified"`
	RoleInfo      RoleInfo  `json:"role_info"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Role returns the user's global role.
func (u *User) Role() Role {
	return u.RoleInfo.Role
}

// IsAdmin reports whether the user holds the superordinate role.
func (u *User) IsAdmin() bool {
	return u.RoleInfo.Role == RoleAdmin
}

// Active reports whether the account may hold a session.
func (u *User) Active() bool {
	return u.Status == StatusActive
}

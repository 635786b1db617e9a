package model

import "time"

// Role is the access level attached to an account.
type Role string

const (
	RoleResident   Role = "resident"
	RoleSecurity   Role = "security"
	RoleOfficial   Role = "official"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Account statuses. Officials and security sign up into pending and are
// activated by a super-admin; a non-active account is logged out on sight.
const (
	AccountActive   = "active"
	AccountPending  = "pending"
	AccountRejected = "rejected"
)

// User is a canonical account record as returned by the auth endpoints.
type User struct {
	// ID is the backend-assigned identifier.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Username is the login name.
	Username string `json:"username,omitempty"`

	// Email is the account email.
	Email string `json:"email"`

	// Role is the account's access level.
	Role Role `json:"role"`

	// Status is one of the Account* constants.
	Status string `json:"status"`

	// ContactNumber is the account's phone number, +63-prefixed.
	ContactNumber string `json:"contact_number,omitempty"`

	// Address is the account's home address.
	Address string `json:"address,omitempty"`

	// CreatedAt is when the account was registered.
	CreatedAt time.Time `json:"created_at"`
}

// CanPostAnnouncements reports whether the role may create, edit, and
// delete community announcements.
func (r Role) CanPostAnnouncements() bool {
	return r == RoleOfficial
}

// CanReportFloods reports whether the role may file flood reports.
func (r Role) CanReportFloods() bool {
	return r == RoleSecurity || r == RoleOfficial
}

// CanManageVisitors reports whether the role sees the community-wide
// visitor queue and may approve or reject requests.
func (r Role) CanManageVisitors() bool {
	return r == RoleOfficial || r == RoleAdmin || r == RoleSecurity
}

// CanRespondToIncidents reports whether the role may claim an incident.
func (r Role) CanRespondToIncidents() bool {
	return r == RoleSecurity || r == RoleOfficial
}

// CanManageUsers reports whether the role may approve pending accounts.
func (r Role) CanManageUsers() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

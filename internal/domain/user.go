package domain

import (
	"sort"

	"github.com/tablebook/tablebook/internal/validation"
)

// MaskedPassword is the sentinel returned in place of a user's password on
// every read. The plaintext is only ever accepted on input, hashed before the
// row is written, and never stored or echoed back.
const MaskedPassword = "**********"

// AdminUserID is the user id of the bootstrap system administrator.
const AdminUserID = "admin"

// TenantUser is a user within a single tenant. Its persisted form is UserRow:
// the Password field is input-only and is replaced by hash material on write.
type TenantUser struct {
	TenantID string   `json:"tenantId"`
	UserID   string   `json:"userId"`
	Roles    []string `json:"roles"`
	Active   bool     `json:"active"`
	Password string   `json:"password"`
}

func (u *TenantUser) EntityID() string { return u.UserID }

func (u *TenantUser) Less(o *TenantUser) bool { return u.UserID < o.UserID }

func (u *TenantUser) GetTenantID() string { return u.TenantID }

func (u *TenantUser) SetTenantID(id string) { u.TenantID = id }

// SortedRoles returns the roles in a stable order for comparisons and output.
func (u *TenantUser) SortedRoles() []string {
	out := make([]string, len(u.Roles))
	copy(out, u.Roles)
	sort.Strings(out)
	return out
}

// Validate checks the user's declared constraints.
func (u *TenantUser) Validate() []validation.Violation {
	v := validation.New()
	v.Required("tenantId", u.TenantID)
	v.Required("userId", u.UserID)
	v.Required("password", u.Password)
	return v.Violations()
}

// UserRow is the on-storage representation of a TenantUser. The plaintext
// password is replaced by its PBKDF2 hash material.
type UserRow struct {
	TenantID           string   `json:"tenantId"`
	UserID             string   `json:"userId"`
	Roles              []string `json:"roles"`
	Active             bool     `json:"active"`
	PasswordHash       string   `json:"passwordHash"`
	PasswordSalt       string   `json:"passwordSalt"`
	PasswordIterations int      `json:"passwordIterations"`
}

// Package security carries the tenant security token: the resolved,
// authenticated identity passed as the first argument to every repository
// operation.
package security

import (
	"sort"

	"github.com/tablebook/tablebook/internal/domain"
)

// TenantToken is an authenticated identity, its home tenant, and its granted
// authorities. It is immutable once constructed; repositories trust its
// tenant and authority fields as ground truth and never re-authenticate.
type TenantToken struct {
	userID      string
	tenant      domain.Tenant
	authorities []string
}

// NewTenantToken builds a token. Only the authentication resolver (and test
// fixtures) should construct tokens.
func NewTenantToken(userID string, tenant domain.Tenant, authorities []string) *TenantToken {
	granted := make([]string, len(authorities))
	copy(granted, authorities)
	sort.Strings(granted)
	return &TenantToken{userID: userID, tenant: tenant, authorities: granted}
}

// UserID returns the acting user's identifier.
func (t *TenantToken) UserID() string { return t.userID }

// Tenant returns a copy of the resolved tenant.
func (t *TenantToken) Tenant() domain.Tenant { return t.tenant }

// TenantID returns the resolved tenant's identifier.
func (t *TenantToken) TenantID() string { return t.tenant.TenantID }

// IsSystemTenant reports whether the token belongs to the reserved system
// tenant, which may act across all tenants.
func (t *TenantToken) IsSystemTenant() bool { return t.tenant.TenantID == domain.SystemTenantID }

// Authorities returns a copy of the granted authority set, sorted.
func (t *TenantToken) Authorities() []string {
	out := make([]string, len(t.authorities))
	copy(out, t.authorities)
	return out
}

// HasAuthority reports whether the token was granted the given authority.
func (t *TenantToken) HasAuthority(role string) bool {
	for _, a := range t.authorities {
		if a == role {
			return true
		}
	}
	return false
}

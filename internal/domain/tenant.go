// Package domain holds the persisted entities of the service: tenants, the
// users inside each tenant, and the restaurants each tenant manages.
package domain

import (
	"regexp"

	"github.com/tablebook/tablebook/internal/validation"
)

// SystemTenantID is the reserved code of the system tenant. A token resolved
// for this tenant may act across all other tenants.
const SystemTenantID = "system"

var tenantURLRe = regexp.MustCompile(`(.+)\.(.+)`)

// Tenant is an organizational boundary. It is not itself tenant-scoped: its
// own id is the partition key.
type Tenant struct {
	TenantID string `json:"tenantId"`
	Name     string `json:"name"`
	URL      string `json:"url"`
}

// EntityID returns the natural identifier.
func (t *Tenant) EntityID() string { return t.TenantID }

// Less orders tenants by id.
func (t *Tenant) Less(o *Tenant) bool { return t.TenantID < o.TenantID }

// IsSystem reports whether this is the reserved system tenant.
func (t *Tenant) IsSystem() bool { return t.TenantID == SystemTenantID }

// Validate checks the tenant's declared constraints.
func (t *Tenant) Validate() []validation.Violation {
	v := validation.New()
	v.Required("tenantId", t.TenantID)
	v.Length("tenantId", t.TenantID, 2, 10)
	v.Required("name", t.Name)
	v.Length("name", t.Name, 2, 30)
	v.Required("url", t.URL)
	v.Match("url", t.URL, tenantURLRe, "must look like a domain")
	return v.Violations()
}

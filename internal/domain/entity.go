package domain

// TenantScoped is the capability of entities pinned to exactly one tenant.
// The tenant id doubles as the partition key of the entity's table, so it must
// be set before any write and must match the acting token's tenant unless the
// token belongs to the system tenant.
type TenantScoped interface {
	GetTenantID() string
	SetTenantID(id string)
}

// Roles granted to tenant users.
const (
	// RoleSystemAdmin administers the entire system, across all tenants.
	RoleSystemAdmin = "ROLE_SYSTEM_ADMIN"
	// RoleTenantAdmin administers a single tenant.
	RoleTenantAdmin = "ROLE_TENANT_ADMIN"
	// RoleTenantUser is a regular user within a single tenant.
	RoleTenantUser = "ROLE_TENANT_USER"
)

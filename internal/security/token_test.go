package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tablebook/tablebook/internal/domain"
	"github.com/tablebook/tablebook/internal/security"
)

func TestTokenAccessors(t *testing.T) {
	tenant := domain.Tenant{TenantID: "acme", Name: "Acme Inc", URL: "acme.com"}
	token := security.NewTenantToken("alice", tenant, []string{domain.RoleTenantUser})

	assert.Equal(t, "alice", token.UserID())
	assert.Equal(t, "acme", token.TenantID())
	assert.Equal(t, tenant, token.Tenant())
	assert.False(t, token.IsSystemTenant())
	assert.True(t, token.HasAuthority(domain.RoleTenantUser))
	assert.False(t, token.HasAuthority(domain.RoleSystemAdmin))
}

func TestSystemTenantToken(t *testing.T) {
	token := security.NewTenantToken("admin",
		domain.Tenant{TenantID: domain.SystemTenantID}, []string{domain.RoleSystemAdmin})
	assert.True(t, token.IsSystemTenant())
}

func TestAuthoritiesAreACopy(t *testing.T) {
	roles := []string{"b", "a"}
	token := security.NewTenantToken("alice", domain.Tenant{TenantID: "acme"}, roles)

	got := token.Authorities()
	assert.Equal(t, []string{"a", "b"}, got, "authorities are sorted")

	got[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, token.Authorities(), "token state is immutable")

	roles[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, token.Authorities())
}

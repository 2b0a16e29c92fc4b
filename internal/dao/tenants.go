package dao

import (
	"context"

	"github.com/tablebook/tablebook/internal/domain"
	"github.com/tablebook/tablebook/internal/rowstore"
)

// TableTenants backs the Tenant entity.
const TableTenants = "tenants"

// Tenants is the tenant repository. Tenant is not tenant-scoped: its own id
// is the partition key, and any authenticated token may look tenants up.
type Tenants struct {
	*Repository[*domain.Tenant, *domain.Tenant, string]
}

// NewTenants builds the tenant repository on the given store.
func NewTenants(store rowstore.Store) *Tenants {
	return &Tenants{
		Repository: New(Config[*domain.Tenant, *domain.Tenant, string]{
			Table:    TableTenants,
			Name:     "Tenant",
			Store:    store,
			Convert:  Identity[*domain.Tenant](),
			Validate: (*domain.Tenant).Validate,
		}),
	}
}

// FindByCode looks a tenant up by its code without a token. The
// authentication resolver needs this before any token exists.
func (t *Tenants) FindByCode(ctx context.Context, code string) (*domain.Tenant, bool, error) {
	return t.findInTenant(ctx, "", code)
}

// RequireExisting fails with NotFound unless the tenant exists. Tenant-scoped
// repositories use it as a pre-save hook so entities cannot be saved under a
// tenant that was never created.
func (t *Tenants) RequireExisting(ctx context.Context, tenantID string) error {
	_, ok, err := t.FindByCode(ctx, tenantID)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Entity: "Tenant", ID: tenantID}
	}
	return nil
}

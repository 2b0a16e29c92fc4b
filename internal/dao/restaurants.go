package dao

import (
	"context"

	"github.com/tablebook/tablebook/internal/domain"
	"github.com/tablebook/tablebook/internal/rowstore"
	"github.com/tablebook/tablebook/internal/security"
)

// TableRestaurants backs the Restaurant entity.
const TableRestaurants = "restaurants"

// Restaurants is the restaurant repository: tenant-scoped, identity row
// conversion.
type Restaurants struct {
	*Repository[*domain.Restaurant, *domain.Restaurant, string]
}

// NewRestaurants builds the restaurant repository. Saving a restaurant
// verifies the referenced tenant exists.
func NewRestaurants(store rowstore.Store, tenants *Tenants) *Restaurants {
	return &Restaurants{
		Repository: New(Config[*domain.Restaurant, *domain.Restaurant, string]{
			Table:    TableRestaurants,
			Name:     "Restaurant",
			Store:    store,
			Convert:  Identity[*domain.Restaurant](),
			Validate: (*domain.Restaurant).Validate,
			Hooks: Hooks[*domain.Restaurant, string]{
				PreSave: func(ctx context.Context, _ *security.TenantToken, entity *domain.Restaurant) error {
					if entity.TenantID == "" {
						// the ownership check reports the missing tenant
						return nil
					}
					return tenants.RequireExisting(ctx, entity.TenantID)
				},
			},
		}),
	}
}

// Package bootstrap seeds the system tenant and the default system
// administrator on process start, idempotently, using the same save-style
// existence checks every other write goes through.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/tablebook/tablebook/internal/dao"
	"github.com/tablebook/tablebook/internal/domain"
	"github.com/tablebook/tablebook/internal/observability/logger"
	"github.com/tablebook/tablebook/internal/security"
)

// Deps are the repositories bootstrap writes through.
type Deps struct {
	Tenants     *dao.Tenants
	Users       *dao.Users
	Restaurants *dao.Restaurants

	// AdminPassword seeds the system admin on first run. Ignored when the
	// admin already exists.
	AdminPassword string
}

// Run ensures tables, the system tenant and the system admin exist. Safe to
// run on every start.
func Run(ctx context.Context, deps Deps) error {
	log := logger.Named("bootstrap")

	for _, ensure := range []func(context.Context) error{
		deps.Tenants.EnsureTable,
		deps.Users.EnsureTable,
		deps.Restaurants.EnsureTable,
	} {
		if err := ensure(ctx); err != nil {
			return err
		}
	}

	// A synthetic system token: bootstrap runs before any user can
	// authenticate.
	systemTenant := domain.Tenant{
		TenantID: domain.SystemTenantID,
		Name:     "System tenant",
		URL:      "tablebook.internal",
	}
	token := security.NewTenantToken(domain.AdminUserID, systemTenant, []string{domain.RoleSystemAdmin})

	if _, ok, err := deps.Tenants.FindByCode(ctx, domain.SystemTenantID); err != nil {
		return err
	} else if !ok {
		log.Info("creating system tenant")
		if err := deps.Tenants.Save(ctx, token, &systemTenant); err != nil {
			return err
		}
	}

	if _, ok, err := deps.Users.FindInTenant(ctx, domain.SystemTenantID, domain.AdminUserID); err != nil {
		return err
	} else if ok {
		log.Info("system admin exists, skipping",
			logger.TenantID(domain.SystemTenantID), logger.UserID(domain.AdminUserID))
		return nil
	}

	if deps.AdminPassword == "" {
		return fmt.Errorf("bootstrap: admin password required to seed system admin")
	}

	log.Info("creating system admin",
		logger.TenantID(domain.SystemTenantID), logger.UserID(domain.AdminUserID))
	return deps.Users.Save(ctx, token, &domain.TenantUser{
		TenantID: domain.SystemTenantID,
		UserID:   domain.AdminUserID,
		Active:   true,
		Password: deps.AdminPassword,
		Roles: []string{
			domain.RoleSystemAdmin,
			domain.RoleTenantAdmin,
			domain.RoleTenantUser,
		},
	})
}

package dao

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/tablebook/tablebook/internal/domain"
	"github.com/tablebook/tablebook/internal/rowstore"
	"github.com/tablebook/tablebook/internal/security"
	"github.com/tablebook/tablebook/internal/security/password"
)

// TableUsers backs the TenantUser entity.
const TableUsers = "tenant_users"

// Users is the tenant-user repository. Entity and row differ: the entity
// carries an input-only plaintext password, the row its hash material. The
// reverse conversion masks the password with a fixed sentinel.
type Users struct {
	*Repository[*domain.TenantUser, *domain.UserRow, string]
	store rowstore.Store
}

// NewUsers builds the user repository. Saving a user verifies the referenced
// tenant exists (pre-save hook on the tenant repository).
func NewUsers(store rowstore.Store, tenants *Tenants) *Users {
	u := &Users{store: store}
	u.Repository = New(Config[*domain.TenantUser, *domain.UserRow, string]{
		Table:    TableUsers,
		Name:     "TenantUser",
		Store:    store,
		Convert:  Converter[*domain.TenantUser, *domain.UserRow]{ToRow: userToRow, ToEntity: userToEntity},
		Validate: (*domain.TenantUser).Validate,
		Hooks: Hooks[*domain.TenantUser, string]{
			PreSave: func(ctx context.Context, _ *security.TenantToken, entity *domain.TenantUser) error {
				if entity.TenantID == "" {
					// the ownership check reports the missing tenant
					return nil
				}
				return tenants.RequireExisting(ctx, entity.TenantID)
			},
		},
	})
	return u
}

// userToRow hashes the plaintext password into hash material. A masked or
// empty password means the caller tried to persist a read-back entity, which
// upstream validation should have rejected.
func userToRow(entity *domain.TenantUser) (*domain.UserRow, error) {
	if entity.Password == "" || entity.Password == domain.MaskedPassword {
		return nil, &ProgrammingError{
			Entity: "TenantUser",
			ID:     entity.UserID,
			Reason: "must have a valid password set",
		}
	}
	info, err := password.Hash(entity.Password)
	if err != nil {
		return nil, err
	}
	return &domain.UserRow{
		TenantID:           entity.TenantID,
		UserID:             entity.UserID,
		Roles:              entity.SortedRoles(),
		Active:             entity.Active,
		PasswordHash:       info.Hash,
		PasswordSalt:       info.Salt,
		PasswordIterations: info.Iterations,
	}, nil
}

func userToEntity(row *domain.UserRow) (*domain.TenantUser, error) {
	return &domain.TenantUser{
		TenantID: row.TenantID,
		UserID:   row.UserID,
		Roles:    row.Roles,
		Active:   row.Active,
		Password: domain.MaskedPassword,
	}, nil
}

// FindInTenant looks a user up under an explicit tenant without a token. The
// authentication resolver uses it before any token exists.
func (u *Users) FindInTenant(ctx context.Context, tenantID, userID string) (*domain.TenantUser, bool, error) {
	return u.findInTenant(ctx, tenantID, userID)
}

// CredentialMaterial returns the user together with its stored hash material.
// Only the authentication layer may call this; the material never crosses the
// caller boundary.
func (u *Users) CredentialMaterial(ctx context.Context, tenantID, userID string) (*domain.TenantUser, password.HashInfo, bool, error) {
	rec, err := u.store.Get(ctx, TableUsers, rowstore.Key{Partition: tenantID, Clustering: userID})
	if errors.Is(err, rowstore.ErrNoRow) {
		return nil, password.HashInfo{}, false, nil
	}
	if err != nil {
		return nil, password.HashInfo{}, false, &StorageError{Op: "get", Entity: "TenantUser", Err: err}
	}
	var row domain.UserRow
	if err := json.Unmarshal(rec.Payload, &row); err != nil {
		return nil, password.HashInfo{}, false, &StorageError{Op: "decode", Entity: "TenantUser", Err: err}
	}
	entity, err := userToEntity(&row)
	if err != nil {
		return nil, password.HashInfo{}, false, err
	}
	info := password.HashInfo{
		Hash:       row.PasswordHash,
		Salt:       row.PasswordSalt,
		Iterations: row.PasswordIterations,
	}
	return entity, info, true, nil
}

package dao_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablebook/tablebook/internal/dao"
	"github.com/tablebook/tablebook/internal/domain"
	"github.com/tablebook/tablebook/internal/security/password"
)

func acmeUser(id, pwd string) *domain.TenantUser {
	return &domain.TenantUser{
		TenantID: "acme",
		UserID:   id,
		Roles:    []string{domain.RoleTenantUser},
		Active:   true,
		Password: pwd,
	}
}

func TestUserPasswordMaskedOnRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.users.Save(ctx, f.acme, acmeUser("alice", "s3cret")))

	got, err := f.users.FindExistingByID(ctx, f.acme, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.MaskedPassword, got.Password)
	assert.Equal(t, []string{domain.RoleTenantUser}, got.Roles)
	assert.True(t, got.Active)
}

func TestUserCredentialMaterialVerifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.users.Save(ctx, f.acme, acmeUser("alice", "s3cret")))

	user, info, ok, err := f.users.CredentialMaterial(ctx, "acme", "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.MaskedPassword, user.Password, "even here the entity stays masked")

	match, err := password.Verify("s3cret", info)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = password.Verify("wrong", info)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestUserCredentialMaterialAbsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, _, ok, err := f.users.CredentialMaterial(ctx, "acme", "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSavingMaskedPasswordIsProgrammingError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.users.Save(ctx, f.acme, acmeUser("alice", "s3cret")))

	// read back and try to persist the masked entity again
	got, err := f.users.FindExistingByID(ctx, f.acme, "alice")
	require.NoError(t, err)

	err = f.users.Update(ctx, f.acme, got)
	assert.True(t, errors.Is(err, dao.ErrProgramming))
}

func TestUserMissingPasswordFailsValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.users.Save(ctx, f.acme, acmeUser("alice", ""))
	assert.True(t, dao.IsValidation(err))
}

func TestUserDuplicateConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.users.Save(ctx, f.acme, acmeUser("alice", "s3cret")))
	err := f.users.Save(ctx, f.acme, acmeUser("alice", "other"))
	assert.True(t, dao.IsConflict(err))
}

func TestUserSameIDAcrossTenants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.users.Save(ctx, f.acme, acmeUser("alice", "s3cret")))

	betaAlice := acmeUser("alice", "different")
	betaAlice.TenantID = "beta"
	require.NoError(t, f.users.Save(ctx, f.beta, betaAlice),
		"the same user id may exist independently in two tenants")

	got, ok, err := f.users.FindInTenant(ctx, "beta", "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "beta", got.TenantID)
}

func TestUserRolesStoredSorted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u := acmeUser("alice", "s3cret")
	u.Roles = []string{domain.RoleTenantUser, domain.RoleTenantAdmin}
	require.NoError(t, f.users.Save(ctx, f.acme, u))

	got, err := f.users.FindExistingByID(ctx, f.acme, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoleTenantAdmin, domain.RoleTenantUser}, got.Roles)
}

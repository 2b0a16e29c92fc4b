// Package authn resolves composite identities into tenant security tokens.
// It is the only component that sees credential hash material.
package authn

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tablebook/tablebook/internal/dao"
	"github.com/tablebook/tablebook/internal/metrics"
	"github.com/tablebook/tablebook/internal/observability/logger"
	"github.com/tablebook/tablebook/internal/security"
	"github.com/tablebook/tablebook/internal/security/password"
)

var (
	// ErrUnknownIdentity covers malformed identities, unknown tenants and
	// unknown users alike, so a caller can never learn which part failed.
	ErrUnknownIdentity = errors.New("unknown identity")

	// ErrBadCredentials indicates the secret did not verify. It is only
	// returned after the configured failure delay has elapsed.
	ErrBadCredentials = errors.New("bad credentials")
)

// DefaultFailureDelay is the artificial delay before a BadCredentials result,
// raising the cost of online brute-force guessing.
const DefaultFailureDelay = time.Second

// Resolver authenticates `<user>@<tenant-code>` identities against stored
// credential hash material.
type Resolver struct {
	tenants *dao.Tenants
	users   *dao.Users

	// failureDelay is applied only on the wrong-secret path, never on
	// success and never for unknown identities.
	failureDelay time.Duration

	// sleep is swappable in tests.
	sleep func(time.Duration)
}

// Option tweaks a Resolver.
type Option func(*Resolver)

// WithFailureDelay overrides the bad-credentials delay.
func WithFailureDelay(d time.Duration) Option {
	return func(r *Resolver) { r.failureDelay = d }
}

// WithSleep replaces the sleep function, for tests.
func WithSleep(fn func(time.Duration)) Option {
	return func(r *Resolver) { r.sleep = fn }
}

// NewResolver builds a resolver over the tenant and user repositories.
func NewResolver(tenants *dao.Tenants, users *dao.Users, opts ...Option) *Resolver {
	r := &Resolver{
		tenants:      tenants,
		users:        users,
		failureDelay: DefaultFailureDelay,
		sleep:        time.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Authenticate parses identity as `<user>@<tenant-code>`, loads tenant and
// credential material, verifies the secret and materializes a token. All
// not-found shapes surface as ErrUnknownIdentity; a wrong secret surfaces as
// ErrBadCredentials after the failure delay.
func (r *Resolver) Authenticate(ctx context.Context, identity, secret string) (*security.TenantToken, error) {
	log := logger.From(ctx).Named("authn")

	parts := strings.Split(identity, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		metrics.AuthAttempts.WithLabelValues("unknown_identity").Inc()
		return nil, ErrUnknownIdentity
	}
	userID, tenantID := parts[0], parts[1]

	tenant, ok, err := r.tenants.FindByCode(ctx, tenantID)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	if !ok {
		metrics.AuthAttempts.WithLabelValues("unknown_identity").Inc()
		return nil, ErrUnknownIdentity
	}

	user, material, ok, err := r.users.CredentialMaterial(ctx, tenantID, userID)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	if !ok || !user.Active {
		metrics.AuthAttempts.WithLabelValues("unknown_identity").Inc()
		return nil, ErrUnknownIdentity
	}

	valid, err := password.Verify(secret, material)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	if !valid {
		log.Warn("credential verification failed",
			logger.TenantID(tenantID), logger.UserID(userID))
		metrics.AuthAttempts.WithLabelValues("bad_credentials").Inc()
		r.sleep(r.failureDelay)
		return nil, ErrBadCredentials
	}

	metrics.AuthAttempts.WithLabelValues("ok").Inc()
	return security.NewTenantToken(user.UserID, *tenant, user.Roles), nil
}

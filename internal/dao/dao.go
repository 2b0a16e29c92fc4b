// Package dao implements the generic tenant-aware repository: uniform CRUD
// with existence-based conflict semantics, tenant scoping, deterministic
// listing order and per-entity extension hooks, layered over the rowstore
// boundary.
//
// Type parameters:
//
//	E  — the entity type exposed to callers
//	R  — the persisted row type (usually E; distinct when stored fields
//	     differ from exposed ones, e.g. hashed credentials)
//	ID — the entity identifier type
package dao

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/tablebook/tablebook/internal/domain"
	"github.com/tablebook/tablebook/internal/metrics"
	"github.com/tablebook/tablebook/internal/observability/logger"
	"github.com/tablebook/tablebook/internal/rowstore"
	"github.com/tablebook/tablebook/internal/security"
	"github.com/tablebook/tablebook/internal/validation"
)

// Entity is the contract every persisted entity satisfies: a natural
// identifier and a total order for deterministic listings.
type Entity[E any, ID ~string] interface {
	EntityID() ID
	Less(other E) bool
}

// Converter is the pure entity/row conversion pair. Identity unless the row
// type hides or derives fields.
type Converter[E, R any] struct {
	ToRow    func(entity E) (R, error)
	ToEntity func(row R) (E, error)
}

// Identity returns the converter for entities persisted as-is.
func Identity[E any]() Converter[E, E] {
	return Converter[E, E]{
		ToRow:    func(e E) (E, error) { return e, nil },
		ToEntity: func(r E) (E, error) { return r, nil },
	}
}

// Hooks are the optional pre/post extension points around saves and deletes.
// Nil hooks are skipped.
type Hooks[E any, ID ~string] struct {
	PreSave    func(ctx context.Context, token *security.TenantToken, entity E) error
	PostSave   func(ctx context.Context, token *security.TenantToken, entity E) error
	PreDelete  func(ctx context.Context, token *security.TenantToken, id ID) error
	PostDelete func(ctx context.Context, token *security.TenantToken, id ID) error
}

// Config assembles a repository instance.
type Config[E Entity[E, ID], R any, ID ~string] struct {
	// Table is the rowstore table backing this entity.
	Table string
	// Name is the entity name used in error messages and logs.
	Name string
	// Store is the rowstore connection.
	Store rowstore.Store
	// Convert maps between entity and row representations.
	Convert Converter[E, R]
	// Validate returns the entity's constraint violations, if any.
	Validate func(entity E) []validation.Violation
	// Hooks are the save/delete extension points.
	Hooks Hooks[E, ID]
}

// Repository is a generic tenant-aware repository over one entity type.
// Stateless and safe for concurrent use as long as its Store is.
type Repository[E Entity[E, ID], R any, ID ~string] struct {
	cfg Config[E, R, ID]
	// tenantScoped is detected once from the entity type's capability set.
	tenantScoped bool
	log          *zap.Logger
}

// New builds a repository. Whether the entity is tenant-scoped is decided
// here, by a capability test on the entity type, never per call.
func New[E Entity[E, ID], R any, ID ~string](cfg Config[E, R, ID]) *Repository[E, R, ID] {
	var zero E
	_, scoped := any(zero).(domain.TenantScoped)
	return &Repository[E, R, ID]{
		cfg:          cfg,
		tenantScoped: scoped,
		log:          logger.Named("dao." + cfg.Table),
	}
}

// Name returns the entity name used in messages.
func (r *Repository[E, R, ID]) Name() string { return r.cfg.Name }

// TenantScoped reports whether the entity type carries the tenant capability.
func (r *Repository[E, R, ID]) TenantScoped() bool { return r.tenantScoped }

// EnsureTable idempotently creates the backing table.
func (r *Repository[E, R, ID]) EnsureTable(ctx context.Context) error {
	if err := r.cfg.Store.EnsureTable(ctx, r.cfg.Table); err != nil {
		return &StorageError{Op: "ensure table", Entity: r.cfg.Name, Err: err}
	}
	return nil
}

// key builds the lookup key for an entity under the given tenant. For
// tenant-scoped entities the tenant is the partition key and the id the
// clustering key; otherwise the id alone is the partition key.
func (r *Repository[E, R, ID]) key(tenantID string, id ID) rowstore.Key {
	if r.tenantScoped {
		return rowstore.Key{Partition: tenantID, Clustering: string(id)}
	}
	return rowstore.Key{Partition: string(id)}
}

// owningTenantID is the tenant the entity belongs to: its own tenant field if
// tenant-scoped (a system token may act for another tenant), otherwise the
// token's tenant.
func (r *Repository[E, R, ID]) owningTenantID(token *security.TenantToken, entity E) string {
	if r.tenantScoped {
		return any(entity).(domain.TenantScoped).GetTenantID()
	}
	return token.TenantID()
}

// FindByID looks the entity up under the token's tenant. The boolean reports
// presence; absence is not an error.
func (r *Repository[E, R, ID]) FindByID(ctx context.Context, token *security.TenantToken, id ID) (E, bool, error) {
	return r.findInTenant(ctx, token.TenantID(), id)
}

// FindExistingByID is FindByID that fails with NotFound on absence.
func (r *Repository[E, R, ID]) FindExistingByID(ctx context.Context, token *security.TenantToken, id ID) (E, error) {
	entity, ok, err := r.FindByID(ctx, token, id)
	if err != nil {
		return entity, err
	}
	if !ok {
		return entity, &NotFoundError{Entity: r.cfg.Name, ID: string(id)}
	}
	return entity, nil
}

// findInTenant looks the entity up under an explicit tenant, which may differ
// from the token's when the system tenant acts on behalf of another.
func (r *Repository[E, R, ID]) findInTenant(ctx context.Context, tenantID string, id ID) (E, bool, error) {
	var zero E
	rec, err := r.cfg.Store.Get(ctx, r.cfg.Table, r.key(tenantID, id))
	if errors.Is(err, rowstore.ErrNoRow) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, &StorageError{Op: "get", Entity: r.cfg.Name, Err: err}
	}
	entity, err := r.decode(rec.Payload)
	if err != nil {
		return zero, false, err
	}
	return entity, true, nil
}

// FindAll lists every entity visible to the token: the token's tenant
// partition for tenant-scoped entities, the whole table for the system tenant
// and for unscoped entities. Results are always sorted by the entity's natural
// order, independent of the backend's iteration order.
func (r *Repository[E, R, ID]) FindAll(ctx context.Context, token *security.TenantToken) ([]E, error) {
	defer r.observe("find_all", time.Now())

	partition := ""
	if r.tenantScoped && !token.IsSystemTenant() {
		partition = token.TenantID()
	}
	recs, err := r.cfg.Store.Scan(ctx, r.cfg.Table, partition)
	if err != nil {
		r.count("find_all", "error")
		return nil, &StorageError{Op: "scan", Entity: r.cfg.Name, Err: err}
	}

	entities := make([]E, 0, len(recs))
	for _, rec := range recs {
		entity, err := r.decode(rec.Payload)
		if err != nil {
			r.count("find_all", "error")
			return nil, err
		}
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Less(entities[j]) })
	r.count("find_all", "ok")
	return entities, nil
}

// Save creates the entity. The prior-existence check runs against the
// entity's owning tenant, and the final write is conditional, so a concurrent
// duplicate save still surfaces as Conflict instead of a silent overwrite.
func (r *Repository[E, R, ID]) Save(ctx context.Context, token *security.TenantToken, entity E) error {
	defer r.observe("save", time.Now())

	id := entity.EntityID()
	owner := r.owningTenantID(token, entity)
	_, exists, err := r.findInTenant(ctx, owner, id)
	if err != nil {
		r.count("save", "error")
		return err
	}
	if exists {
		r.count("save", "conflict")
		return &ConflictError{Entity: r.cfg.Name, ID: string(id)}
	}
	if err := r.processSave(ctx, token, entity, true); err != nil {
		r.count("save", outcome(err))
		return err
	}
	r.count("save", "ok")
	return nil
}

// Update rewrites an existing entity; absence is NotFound.
func (r *Repository[E, R, ID]) Update(ctx context.Context, token *security.TenantToken, entity E) error {
	defer r.observe("update", time.Now())

	id := entity.EntityID()
	_, exists, err := r.FindByID(ctx, token, id)
	if err != nil {
		r.count("update", "error")
		return err
	}
	if !exists {
		r.count("update", "not_found")
		return &NotFoundError{Entity: r.cfg.Name, ID: string(id)}
	}
	if err := r.processSave(ctx, token, entity, false); err != nil {
		r.count("update", outcome(err))
		return err
	}
	r.count("update", "ok")
	return nil
}

// SaveOrUpdate writes unconditionally. Used for idempotent bulk replace; it
// never reports Conflict or NotFound.
func (r *Repository[E, R, ID]) SaveOrUpdate(ctx context.Context, token *security.TenantToken, entity E) error {
	defer r.observe("save_or_update", time.Now())

	if err := r.processSave(ctx, token, entity, false); err != nil {
		r.count("save_or_update", outcome(err))
		return err
	}
	r.count("save_or_update", "ok")
	return nil
}

// Delete removes an existing entity; absence is NotFound. Pre/post delete
// hooks run around the physical delete.
func (r *Repository[E, R, ID]) Delete(ctx context.Context, token *security.TenantToken, id ID) error {
	defer r.observe("delete", time.Now())

	_, exists, err := r.FindByID(ctx, token, id)
	if err != nil {
		r.count("delete", "error")
		return err
	}
	if !exists {
		r.count("delete", "not_found")
		return &NotFoundError{Entity: r.cfg.Name, ID: string(id)}
	}

	if h := r.cfg.Hooks.PreDelete; h != nil {
		if err := h(ctx, token, id); err != nil {
			r.count("delete", outcome(err))
			return err
		}
	}

	r.log.Debug("deleting entity",
		logger.TenantID(token.TenantID()), zap.String("entity", r.cfg.Name), zap.String("id", string(id)))

	if err := r.cfg.Store.Delete(ctx, r.cfg.Table, r.key(token.TenantID(), id)); err != nil {
		r.count("delete", "error")
		return &StorageError{Op: "delete", Entity: r.cfg.Name, Err: err}
	}

	if h := r.cfg.Hooks.PostDelete; h != nil {
		if err := h(ctx, token, id); err != nil {
			r.count("delete", outcome(err))
			return err
		}
	}
	r.count("delete", "ok")
	return nil
}

// processSave is the shared save pipeline: pre-save hook, tenant ownership
// authorization, field validation with deterministic first-violation
// selection, entity→row conversion, physical write, post-save hook.
// A conditional write reports Conflict when the key appeared concurrently.
func (r *Repository[E, R, ID]) processSave(ctx context.Context, token *security.TenantToken, entity E, conditional bool) error {
	id := entity.EntityID()

	if h := r.cfg.Hooks.PreSave; h != nil {
		if err := h(ctx, token, entity); err != nil {
			return err
		}
	}

	if r.tenantScoped {
		if err := r.authorizeTenant(token, entity); err != nil {
			return err
		}
	}

	if r.cfg.Validate != nil {
		if violations := r.cfg.Validate(entity); len(violations) > 0 {
			first := firstViolation(violations)
			return &ValidationError{Entity: r.cfg.Name, Field: first.Field, Message: first.Message}
		}
	}

	row, err := r.cfg.Convert.ToRow(entity)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(row)
	if err != nil {
		return &ProgrammingError{Entity: r.cfg.Name, ID: string(id), Reason: "row not serializable: " + err.Error()}
	}

	rec := rowstore.Record{Key: r.key(r.owningTenantID(token, entity), id), Payload: payload}

	r.log.Debug("saving entity",
		logger.TenantID(token.TenantID()), zap.String("entity", r.cfg.Name), zap.String("id", string(id)))

	if conditional {
		written, err := r.cfg.Store.PutIfAbsent(ctx, r.cfg.Table, rec)
		if err != nil {
			return &StorageError{Op: "put", Entity: r.cfg.Name, Err: err}
		}
		if !written {
			return &ConflictError{Entity: r.cfg.Name, ID: string(id)}
		}
	} else {
		if err := r.cfg.Store.Put(ctx, r.cfg.Table, rec); err != nil {
			return &StorageError{Op: "put", Entity: r.cfg.Name, Err: err}
		}
	}

	if h := r.cfg.Hooks.PostSave; h != nil {
		if err := h(ctx, token, entity); err != nil {
			return err
		}
	}
	return nil
}

// authorizeTenant enforces tenant ownership on writes: the system tenant may
// write entities for any tenant, everyone else only for their own. An empty
// tenant field should have been rejected upstream, so it is a programming
// error here.
func (r *Repository[E, R, ID]) authorizeTenant(token *security.TenantToken, entity E) error {
	scoped := any(entity).(domain.TenantScoped)
	entityTenant := scoped.GetTenantID()
	if entityTenant == "" {
		return &ProgrammingError{
			Entity: r.cfg.Name,
			ID:     string(entity.EntityID()),
			Reason: "missing tenantId",
		}
	}
	if !token.IsSystemTenant() && token.TenantID() != entityTenant {
		return &ForbiddenError{
			TokenTenantID: token.TenantID(),
			UserID:        token.UserID(),
			Entity:        r.cfg.Name,
			EntityTenant:  entityTenant,
		}
	}
	return nil
}

func (r *Repository[E, R, ID]) decode(payload []byte) (E, error) {
	var zero E
	var row R
	if err := json.Unmarshal(payload, &row); err != nil {
		return zero, &StorageError{Op: "decode", Entity: r.cfg.Name, Err: err}
	}
	return r.cfg.Convert.ToEntity(row)
}

// firstViolation picks the violation with the lexicographically smallest
// field path, so multi-violation errors are reproducible across runs.
func firstViolation(violations []validation.Violation) validation.Violation {
	first := violations[0]
	for _, v := range violations[1:] {
		if v.Field < first.Field {
			first = v
		}
	}
	return first
}

func (r *Repository[E, R, ID]) count(op, outcome string) {
	metrics.RepositoryOps.WithLabelValues(r.cfg.Name, op, outcome).Inc()
}

func (r *Repository[E, R, ID]) observe(op string, start time.Time) {
	metrics.RepositoryLatency.WithLabelValues(r.cfg.Name, op).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsConflict(err):
		return "conflict"
	case IsNotFound(err):
		return "not_found"
	case IsForbidden(err):
		return "forbidden"
	case IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}

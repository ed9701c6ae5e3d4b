package repositories

import (
	"context"
	"time"

	"saasbase/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Purge(ctx context.Context, id uuid.UUID) error
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Tenant, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
}

type tenantRepo struct {
	db Database
}

func NewTenantRepo(db Database) TenantRepository {
	return &tenantRepo{db: db}
}

const tenantColumns = `id, name, slug, type, billing_email, created_by, active, created_at, updated_at, deleted_at`

// Create inserts a tenant. Slug uniqueness is enforced by the tenants_slug_key
// index; a collision surfaces as ErrUniqueViolation for the caller's retry loop.
func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, slug, type, billing_email, created_by, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, tenant.ID, tenant.Name, tenant.Slug, tenant.Type, tenant.BillingEmail, tenant.CreatedBy)
	return mapError(err)
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE id = $1
	`
	return r.scanRow(r.db.QueryRow(ctx, query, id))
}

func (r *tenantRepo) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE slug = $1
	`
	return r.scanRow(r.db.QueryRow(ctx, query, slug))
}

// Update never touches the slug: links derived at creation time must not break
// when a tenant is renamed.
func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, type = $2, billing_email = $3, active = $4, updated_at = NOW()
		WHERE id = $5
	`
	_, err := r.db.Exec(ctx, query, tenant.Name, tenant.Type, tenant.BillingEmail, tenant.Active, tenant.ID)
	return mapError(err)
}

func (r *tenantRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tenants
		SET active = FALSE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, id)
	return mapError(err)
}

// Purge hard-deletes a tenant. Memberships go with it via ON DELETE CASCADE.
// Reserved for administrative cleanup; normal deletion is SoftDelete.
func (r *tenantRepo) Purge(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tenants WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return mapError(err)
}

// PurgeDeletedBefore hard-deletes tenants soft-deleted before the cutoff.
func (r *tenantRepo) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM tenants WHERE active = FALSE AND deleted_at < $1`
	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

// ListForUser returns active tenants the user holds an accepted membership in.
// Bound-but-unaccepted invitations grant no visibility.
func (r *tenantRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Tenant, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.type, t.billing_email, t.created_by, t.active, t.created_at, t.updated_at, t.deleted_at
		FROM tenants t
		JOIN memberships m ON m.tenant_id = t.id
		WHERE m.user_id = $1 AND m.is_accepted = TRUE AND t.active = TRUE
		ORDER BY t.created_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return r.scanRows(rows)
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return r.scanRows(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *tenantRepo) scanRow(row rowScanner) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	err := row.Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Type, &tenant.BillingEmail,
		&tenant.CreatedBy, &tenant.Active, &tenant.CreatedAt, &tenant.UpdatedAt, &tenant.DeletedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return tenant, nil
}

func (r *tenantRepo) scanRows(rows pgx.Rows) ([]*models.Tenant, error) {
	var tenants []*models.Tenant
	for rows.Next() {
		tenant := &models.Tenant{}
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Type, &tenant.BillingEmail,
			&tenant.CreatedBy, &tenant.Active, &tenant.CreatedAt, &tenant.UpdatedAt, &tenant.DeletedAt); err != nil {
			return nil, mapError(err)
		}
		tenants = append(tenants, tenant)
	}
	return tenants, mapError(rows.Err())
}

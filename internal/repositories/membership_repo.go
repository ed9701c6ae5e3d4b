package repositories

import (
	"context"
	"time"

	"saasbase/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MembershipRepository persists membership and invitation rows.
//
// Two partial unique indexes back the service-level invariants:
//
//	memberships_user_tenant_key    ON (tenant_id, user_id)       WHERE user_id IS NOT NULL
//	memberships_invitee_tenant_key ON (tenant_id, invitee_email) WHERE invitee_email <> ''
//
// They must live in the database, not the application: two concurrent inserts
// can both pass an existence check, and only the index rejects the second.
type MembershipRepository interface {
	Create(ctx context.Context, membership *models.Membership) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Membership, error)
	FindMembership(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error)
	FindInvitation(ctx context.Context, tenantID uuid.UUID, email string) (*models.Membership, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Membership, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Membership, error)
	ListPendingByEmail(ctx context.Context, email string) ([]*models.Membership, error)
	Update(ctx context.Context, membership *models.Membership) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountOwners(ctx context.Context, tenantID uuid.UUID) (int, error)
	DeleteStaleInvitations(ctx context.Context, olderThan time.Time) (int64, error)
}

type membershipRepo struct {
	db Database
}

func NewMembershipRepo(db Database) MembershipRepository {
	return &membershipRepo{db: db}
}

const membershipColumns = `id, tenant_id, user_id, role, invitee_email, is_accepted, accepted_at, created_at, updated_at`

func (r *membershipRepo) Create(ctx context.Context, membership *models.Membership) error {
	query := `
		INSERT INTO memberships (id, tenant_id, user_id, role, invitee_email, is_accepted, accepted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, membership.ID, membership.TenantID, membership.UserID,
		membership.Role, membership.InviteeEmail, membership.IsAccepted, membership.AcceptedAt)
	return mapError(err)
}

func (r *membershipRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE id = $1
	`
	return r.scanRow(r.db.QueryRow(ctx, query, id))
}

func (r *membershipRepo) FindMembership(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE tenant_id = $1 AND user_id = $2
	`
	return r.scanRow(r.db.QueryRow(ctx, query, tenantID, userID))
}

func (r *membershipRepo) FindInvitation(ctx context.Context, tenantID uuid.UUID, email string) (*models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE tenant_id = $1 AND LOWER(invitee_email) = LOWER($2) AND user_id IS NULL
	`
	return r.scanRow(r.db.QueryRow(ctx, query, tenantID, email))
}

func (r *membershipRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE tenant_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return r.scanRows(rows)
}

func (r *membershipRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return r.scanRows(rows)
}

func (r *membershipRepo) ListPendingByEmail(ctx context.Context, email string) ([]*models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE LOWER(invitee_email) = LOWER($1) AND user_id IS NULL
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return r.scanRows(rows)
}

// Update rewrites the mutable fields in place. The row keeps its ID across the
// invited -> bound -> active transitions.
func (r *membershipRepo) Update(ctx context.Context, membership *models.Membership) error {
	query := `
		UPDATE memberships
		SET user_id = $1, role = $2, invitee_email = $3, is_accepted = $4, accepted_at = $5, updated_at = NOW()
		WHERE id = $6
	`
	_, err := r.db.Exec(ctx, query, membership.UserID, membership.Role, membership.InviteeEmail,
		membership.IsAccepted, membership.AcceptedAt, membership.ID)
	return mapError(err)
}

func (r *membershipRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM memberships WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return mapError(err)
}

// CountOwners counts accepted owner rows only; a pending owner invitation does
// not keep a tenant alive.
func (r *membershipRepo) CountOwners(ctx context.Context, tenantID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM memberships
		WHERE tenant_id = $1 AND role = $2 AND user_id IS NOT NULL AND is_accepted = TRUE
	`
	var count int
	if err := r.db.QueryRow(ctx, query, tenantID, models.RoleOwner).Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func (r *membershipRepo) DeleteStaleInvitations(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `DELETE FROM memberships WHERE user_id IS NULL AND created_at < $1`
	tag, err := r.db.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *membershipRepo) scanRow(row rowScanner) (*models.Membership, error) {
	m := &models.Membership{}
	err := row.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.InviteeEmail,
		&m.IsAccepted, &m.AcceptedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (r *membershipRepo) scanRows(rows pgx.Rows) ([]*models.Membership, error) {
	var memberships []*models.Membership
	for rows.Next() {
		m := &models.Membership{}
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.InviteeEmail,
			&m.IsAccepted, &m.AcceptedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, mapError(err)
		}
		memberships = append(memberships, m)
	}
	return memberships, mapError(rows.Err())
}

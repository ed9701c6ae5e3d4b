package services

import (
	"context"
	"errors"
	"log"
	"time"

	"saasbase/internal/models"
	"saasbase/internal/repositories"

	"github.com/google/uuid"
)

// SessionStore is the external session collaborator. SwitchActive validates
// membership and records the choice here; Remove clears a selection that
// pointed at the tenant the user just lost.
type SessionStore interface {
	SetActiveTenant(ctx context.Context, userID, tenantID uuid.UUID) error
	GetActiveTenant(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	ClearActiveTenant(ctx context.Context, userID uuid.UUID) error
}

// TenantCache is a read-through cache for tenant lookups. Every method is
// best-effort: a cache error is treated as a miss, never surfaced.
type TenantCache interface {
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)
	SetTenant(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error
	DeleteTenant(ctx context.Context, tenantID uuid.UUID) error
}

// InviteNotifier is the notification dispatch hook. Delivery is fire-and-forget:
// failures are logged, never propagated to the inviting caller. replyTo is the
// tenant's contact address for invitee questions.
type InviteNotifier interface {
	NotifyInvited(ctx context.Context, email, tenantName, replyTo string) error
}

// MembershipService orchestrates tenant creation, the invitation state machine
// and role checks. All mutating operations run inside a store transaction; the
// database's uniqueness constraints are the concurrency backstop, and this
// service translates their rejections into domain errors.
type MembershipService interface {
	CreateTenant(ctx context.Context, name string, creatorID uuid.UUID) (*models.Tenant, error)
	GetTenant(ctx context.Context, tenantID, actorID uuid.UUID) (*models.Tenant, error)
	UpdateTenant(ctx context.Context, req *UpdateTenantRequest) (*models.Tenant, error)
	DeleteTenant(ctx context.Context, tenantID, actorID uuid.UUID) error
	ListTenants(ctx context.Context, userID uuid.UUID) ([]*models.Tenant, error)

	Invite(ctx context.Context, tenantID, byUserID uuid.UUID, email string, role models.Role) (*models.Membership, error)
	Accept(ctx context.Context, membershipID, byUserID uuid.UUID) (*models.Membership, error)
	Decline(ctx context.Context, membershipID, byUserID uuid.UUID) error
	Remove(ctx context.Context, membershipID, actorID uuid.UUID) error
	TransferOwnership(ctx context.Context, tenantID, actorID, toMembershipID uuid.UUID) error
	ListMemberships(ctx context.Context, tenantID uuid.UUID) ([]*models.Membership, error)
	ListInvitations(ctx context.Context, email string) ([]*models.Membership, error)

	SwitchActive(ctx context.Context, userID, tenantID uuid.UUID) (*models.Tenant, error)
}

const tenantCacheTTL = 5 * time.Minute

type membershipService struct {
	store    repositories.Store
	sessions SessionStore
	cache    TenantCache
	notifier InviteNotifier
}

func NewMembershipService(store repositories.Store, sessions SessionStore, cache TenantCache, notifier InviteNotifier) MembershipService {
	return &membershipService{
		store:    store,
		sessions: sessions,
		cache:    cache,
		notifier: notifier,
	}
}

type UpdateTenantRequest struct {
	TenantID     uuid.UUID
	ActorID      uuid.UUID
	Name         string `json:"name" validate:"required"`
	BillingEmail string `json:"billing_email"`
}

// CreateTenant allocates a unique slug and persists the tenant together with
// its creator's owner membership. Each slug attempt runs in its own
// transaction, so a tenant can never exist without at least its creator.
// Collision resolution leans on the tenants slug index, not read-then-write:
// only a uniqueness violation triggers the next candidate.
func (s *membershipService) CreateTenant(ctx context.Context, name string, creatorID uuid.UUID) (*models.Tenant, error) {
	if name == "" {
		return nil, errors.New("tenant name is required")
	}
	base := Slugify(name)
	if base == "" {
		return nil, errors.New("tenant name must contain at least one alphanumeric character")
	}

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		tenant := &models.Tenant{
			ID:        uuid.New(),
			Name:      name,
			Slug:      slugCandidate(base, attempt),
			Type:      models.TenantTypeOrganization,
			CreatedBy: creatorID,
			Active:    true,
		}
		err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
			if err := tx.Tenants().Create(ctx, tenant); err != nil {
				return err
			}
			owner := models.NewOwnerMembership(tenant.ID, creatorID, time.Now().UTC())
			return tx.Memberships().Create(ctx, owner)
		})
		if err == nil {
			return tenant, nil
		}
		if errors.Is(err, repositories.ErrUniqueViolation) {
			continue
		}
		return nil, err
	}
	return nil, ErrSlugExhausted
}

// GetTenant returns a tenant the actor is a member of. The membership check
// always hits the database; only the tenant record itself is served from the
// cache when present.
func (s *membershipService) GetTenant(ctx context.Context, tenantID, actorID uuid.UUID) (*models.Tenant, error) {
	if _, err := s.store.Memberships().FindMembership(ctx, tenantID, actorID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if cached, err := s.cache.GetTenant(ctx, tenantID); err == nil {
		return cached, nil
	}
	tenant, err := s.store.Tenants().GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.cache.SetTenant(ctx, tenant, tenantCacheTTL); err != nil {
		log.Printf("caching tenant %s failed: %v", tenant.ID, err)
	}
	return tenant, nil
}

// UpdateTenant renames a tenant or changes its billing address. The slug is
// deliberately left alone even when the name changes.
func (s *membershipService) UpdateTenant(ctx context.Context, req *UpdateTenantRequest) (*models.Tenant, error) {
	if req.Name == "" {
		return nil, errors.New("tenant name is required")
	}
	var tenant *models.Tenant
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		if _, err := s.requireRole(ctx, tx, req.TenantID, req.ActorID, models.RoleAdmin); err != nil {
			return err
		}
		var err error
		tenant, err = tx.Tenants().GetByID(ctx, req.TenantID)
		if err != nil {
			return s.mapNotFound(err)
		}
		tenant.Name = req.Name
		tenant.BillingEmail = models.NormalizeEmail(req.BillingEmail)
		return tx.Tenants().Update(ctx, tenant)
	})
	if err != nil {
		return nil, err
	}
	if err := s.cache.DeleteTenant(ctx, req.TenantID); err != nil {
		log.Printf("invalidating tenant cache %s failed: %v", req.TenantID, err)
	}
	return tenant, nil
}

// DeleteTenant soft-deletes. Only an owner can do it; rows stay behind for the
// administrative purge job.
func (s *membershipService) DeleteTenant(ctx context.Context, tenantID, actorID uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		if _, err := s.requireRole(ctx, tx, tenantID, actorID, models.RoleOwner); err != nil {
			return err
		}
		return tx.Tenants().SoftDelete(ctx, tenantID)
	})
	if err != nil {
		return err
	}
	if err := s.cache.DeleteTenant(ctx, tenantID); err != nil {
		log.Printf("invalidating tenant cache %s failed: %v", tenantID, err)
	}
	return nil
}

func (s *membershipService) ListTenants(ctx context.Context, userID uuid.UUID) ([]*models.Tenant, error) {
	return s.store.Tenants().ListForUser(ctx, userID)
}

// Invite creates a pending membership addressed to an email. The actor needs
// admin or above. Pre-checks give friendly errors on the common paths; the
// partial unique index catches the concurrent race and is mapped to the same
// DuplicateInvitation kind.
func (s *membershipService) Invite(ctx context.Context, tenantID, byUserID uuid.UUID, email string, role models.Role) (*models.Membership, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, errors.New("invitee email is required")
	}
	if !role.Valid() {
		return nil, errors.New("invalid role")
	}

	var (
		invitation *models.Membership
		tenantName string
		replyTo    string
	)
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		if _, err := s.requireRole(ctx, tx, tenantID, byUserID, models.RoleAdmin); err != nil {
			return err
		}
		tenant, err := tx.Tenants().GetByID(ctx, tenantID)
		if err != nil {
			return s.mapNotFound(err)
		}
		tenantName = tenant.Name
		replyTo = tenant.BillingEmail
		if replyTo == "" {
			// Fall back to the creator's address as the tenant's contact.
			if creator, err := tx.Users().GetByID(ctx, tenant.CreatedBy); err == nil {
				replyTo = tenant.EffectiveEmail(creator)
			}
		}

		// An existing account for that address may already be a member.
		user, err := tx.Users().GetByEmail(ctx, email)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		if user != nil {
			existing, err := tx.Memberships().FindMembership(ctx, tenantID, user.ID)
			if err != nil && !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
			if existing != nil {
				if existing.IsAccepted {
					return ErrAlreadyMember
				}
				return ErrDuplicateInvitation
			}
		}

		if _, err := tx.Memberships().FindInvitation(ctx, tenantID, email); err == nil {
			return ErrDuplicateInvitation
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}

		invitation = models.NewInvitation(tenantID, email, role)
		if err := tx.Memberships().Create(ctx, invitation); err != nil {
			if errors.Is(err, repositories.ErrUniqueViolation) {
				return ErrDuplicateInvitation
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.NotifyInvited(ctx, email, tenantName, replyTo); err != nil {
		log.Printf("invite notification to %s failed: %v", email, err)
	}
	return invitation, nil
}

// Accept transitions an invitation to an active membership bound to the
// caller. Accepting an already-active membership of one's own is a no-op that
// returns the existing row.
func (s *membershipService) Accept(ctx context.Context, membershipID, byUserID uuid.UUID) (*models.Membership, error) {
	var membership *models.Membership
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		var err error
		membership, err = tx.Memberships().GetByID(ctx, membershipID)
		if err != nil {
			return s.mapNotFound(err)
		}
		if err := s.checkInvitee(ctx, tx, membership, byUserID); err != nil {
			return err
		}
		if membership.IsAccepted {
			// Idempotent: the caller already accepted.
			return nil
		}
		now := time.Now().UTC()
		membership.UserID = &byUserID
		membership.InviteeEmail = ""
		membership.IsAccepted = true
		membership.AcceptedAt = &now
		if err := tx.Memberships().Update(ctx, membership); err != nil {
			if errors.Is(err, repositories.ErrUniqueViolation) {
				return ErrAlreadyMember
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// Decline deletes the invitation row outright, freeing the address for a
// future invite.
func (s *membershipService) Decline(ctx context.Context, membershipID, byUserID uuid.UUID) error {
	return s.store.WithinTx(ctx, func(tx repositories.Store) error {
		membership, err := tx.Memberships().GetByID(ctx, membershipID)
		if err != nil {
			return s.mapNotFound(err)
		}
		if membership.IsAccepted {
			return ErrForbidden
		}
		if err := s.checkInvitee(ctx, tx, membership, byUserID); err != nil {
			return err
		}
		return tx.Memberships().Delete(ctx, membershipID)
	})
}

// Remove deletes a membership. The actor needs admin or above, and a tenant
// must always keep at least one accepted owner; the count is taken inside the
// same transaction as the delete. A removed user whose active-tenant selection
// pointed at this tenant has it cleared.
func (s *membershipService) Remove(ctx context.Context, membershipID, actorID uuid.UUID) error {
	var removed *models.Membership
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		membership, err := tx.Memberships().GetByID(ctx, membershipID)
		if err != nil {
			return s.mapNotFound(err)
		}
		if _, err := s.requireRole(ctx, tx, membership.TenantID, actorID, models.RoleAdmin); err != nil {
			return err
		}
		if membership.Role == models.RoleOwner && membership.IsAccepted {
			owners, err := tx.Memberships().CountOwners(ctx, membership.TenantID)
			if err != nil {
				return err
			}
			if owners <= 1 {
				return ErrLastOwner
			}
		}
		removed = membership
		return tx.Memberships().Delete(ctx, membershipID)
	})
	if err != nil {
		return err
	}
	if removed.UserID != nil {
		if active, err := s.sessions.GetActiveTenant(ctx, *removed.UserID); err == nil && active == removed.TenantID {
			if err := s.sessions.ClearActiveTenant(ctx, *removed.UserID); err != nil {
				log.Printf("clearing active tenant for removed user %s failed: %v", *removed.UserID, err)
			}
		}
	}
	return nil
}

// TransferOwnership promotes an active member to owner and demotes the acting
// owner to admin, atomically.
func (s *membershipService) TransferOwnership(ctx context.Context, tenantID, actorID, toMembershipID uuid.UUID) error {
	return s.store.WithinTx(ctx, func(tx repositories.Store) error {
		actor, err := s.requireRole(ctx, tx, tenantID, actorID, models.RoleOwner)
		if err != nil {
			return err
		}
		target, err := tx.Memberships().GetByID(ctx, toMembershipID)
		if err != nil {
			return s.mapNotFound(err)
		}
		if target.TenantID != tenantID {
			return ErrNotFound
		}
		if target.State() != models.MembershipActive {
			return ErrForbidden
		}
		if target.ID == actor.ID {
			return nil
		}
		target.Role = models.RoleOwner
		if err := tx.Memberships().Update(ctx, target); err != nil {
			return err
		}
		actor.Role = models.RoleAdmin
		return tx.Memberships().Update(ctx, actor)
	})
}

func (s *membershipService) ListMemberships(ctx context.Context, tenantID uuid.UUID) ([]*models.Membership, error) {
	return s.store.Memberships().ListByTenant(ctx, tenantID)
}

// ListInvitations returns pending invitations addressed to an email.
func (s *membershipService) ListInvitations(ctx context.Context, email string) ([]*models.Membership, error) {
	return s.store.Memberships().ListPendingByEmail(ctx, models.NormalizeEmail(email))
}

// SwitchActive records a user's current tenant context. The membership
// existence check is the authority; the session collaborator only persists the
// validated choice.
func (s *membershipService) SwitchActive(ctx context.Context, userID, tenantID uuid.UUID) (*models.Tenant, error) {
	membership, err := s.store.Memberships().FindMembership(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if !membership.IsAccepted {
		return nil, ErrForbidden
	}
	tenant, err := s.store.Tenants().GetByID(ctx, tenantID)
	if err != nil {
		return nil, s.mapNotFound(err)
	}
	if !tenant.Active {
		return nil, ErrNotFound
	}
	if err := s.sessions.SetActiveTenant(ctx, userID, tenantID); err != nil {
		return nil, err
	}
	return tenant, nil
}

// requireRole loads the actor's accepted membership in the tenant and checks
// it against the required role. member < admin < owner.
func (s *membershipService) requireRole(ctx context.Context, tx repositories.Store, tenantID, actorID uuid.UUID, required models.Role) (*models.Membership, error) {
	membership, err := tx.Memberships().FindMembership(ctx, tenantID, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPermissionDenied
		}
		return nil, err
	}
	if !membership.IsAccepted || !membership.Role.AtLeast(required) {
		return nil, ErrPermissionDenied
	}
	return membership, nil
}

// checkInvitee verifies the caller is the addressee of an invitation, whether
// it is still email-addressed or already bound to their account.
func (s *membershipService) checkInvitee(ctx context.Context, tx repositories.Store, membership *models.Membership, byUserID uuid.UUID) error {
	if membership.UserID != nil {
		if *membership.UserID != byUserID {
			return ErrForbidden
		}
		return nil
	}
	user, err := tx.Users().GetByID(ctx, byUserID)
	if err != nil {
		return s.mapNotFound(err)
	}
	if models.NormalizeEmail(user.Email) != models.NormalizeEmail(membership.InviteeEmail) {
		return ErrForbidden
	}
	return nil
}

func (s *membershipService) mapNotFound(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

package services

import (
	"context"
	"log"

	"saasbase/internal/models"
	"saasbase/internal/repositories"

	"github.com/google/uuid"
)

// BindResult reports the outcome of binding one pending invitation.
type BindResult struct {
	MembershipID uuid.UUID `json:"membership_id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Err          error     `json:"-"`
}

// IdentityBinder reconciles a freshly registered account with invitations that
// were addressed to its email before the account existed.
type IdentityBinder interface {
	BindPendingInvitations(ctx context.Context, user *models.User) ([]BindResult, error)
}

type identityBinder struct {
	store repositories.Store
}

func NewIdentityBinder(store repositories.Store) IdentityBinder {
	return &identityBinder{store: store}
}

// BindPendingInvitations attaches the user to every pending invitation whose
// email matches theirs, case-insensitively. Binding is not acceptance:
// is_accepted stays false and the user must still accept each invitation
// explicitly, so registering never silently joins a tenant.
//
// The pass runs in one transaction; each row binds under its own savepoint so
// one failure is collected without poisoning the rest of the batch.
func (b *identityBinder) BindPendingInvitations(ctx context.Context, user *models.User) ([]BindResult, error) {
	email := models.NormalizeEmail(user.Email)
	var results []BindResult

	err := b.store.WithinTx(ctx, func(tx repositories.Store) error {
		pending, err := tx.Memberships().ListPendingByEmail(ctx, email)
		if err != nil {
			return err
		}
		for _, invitation := range pending {
			invitation := invitation
			bindErr := tx.WithinTx(ctx, func(inner repositories.Store) error {
				invitation.UserID = &user.ID
				return inner.Memberships().Update(ctx, invitation)
			})
			if bindErr != nil {
				log.Printf("binding invitation %s for %s failed: %v", invitation.ID, email, bindErr)
			}
			results = append(results, BindResult{
				MembershipID: invitation.ID,
				TenantID:     invitation.TenantID,
				Err:          bindErr,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// MembershipState is derived from which identity fields are populated.
type MembershipState string

const (
	// MembershipInvited is an invitation addressed to an email with no
	// bound account yet.
	MembershipInvited MembershipState = "invited"
	// MembershipBound has a user attached but has not been accepted.
	// Registration binding lands here; the user must still accept.
	MembershipBound MembershipState = "bound"
	// MembershipActive is an accepted membership.
	MembershipActive MembershipState = "active"
)

// Membership links a tenant to either a user (accepted member) or an email
// address (pending invitee). A row transitions in place from invitation to
// active membership; it is never recreated, so its ID and audit trail survive
// the whole lifecycle.
type Membership struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TenantID     uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	UserID       *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	Role         Role       `json:"role" db:"role"`
	InviteeEmail string     `json:"invitee_email,omitempty" db:"invitee_email"`
	IsAccepted   bool       `json:"is_accepted" db:"is_accepted"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

func (m *Membership) State() MembershipState {
	switch {
	case m.UserID == nil:
		return MembershipInvited
	case !m.IsAccepted:
		return MembershipBound
	default:
		return MembershipActive
	}
}

// NewInvitation builds a pending membership addressed to an email.
func NewInvitation(tenantID uuid.UUID, email string, role Role) *Membership {
	return &Membership{
		ID:           uuid.New(),
		TenantID:     tenantID,
		InviteeEmail: email,
		Role:         role,
	}
}

// NewOwnerMembership builds the accepted owner row created alongside a tenant.
func NewOwnerMembership(tenantID, userID uuid.UUID, now time.Time) *Membership {
	return &Membership{
		ID:         uuid.New(),
		TenantID:   tenantID,
		UserID:     &userID,
		Role:       RoleOwner,
		IsAccepted: true,
		AcceptedAt: &now,
	}
}

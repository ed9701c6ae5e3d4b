package models

import (
	"time"

	"github.com/google/uuid"
)

type TenantType string

const (
	TenantTypeDefault      TenantType = "default"
	TenantTypeOrganization TenantType = "organization"
)

type Tenant struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Slug         string     `json:"slug" db:"slug"`
	Type         TenantType `json:"type" db:"type"`
	BillingEmail string     `json:"billing_email" db:"billing_email"`
	CreatedBy    uuid.UUID  `json:"created_by" db:"created_by"`
	Active       bool       `json:"active" db:"active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// EffectiveEmail returns the billing address, falling back to the creator's
// email when none was set.
func (t *Tenant) EffectiveEmail(creator *User) string {
	if t.BillingEmail != "" {
		return t.BillingEmail
	}
	if creator != nil {
		return creator.Email
	}
	return ""
}

package services

import (
	"errors"

	"saasbase/internal/repositories"
)

// Domain error taxonomy. Every operation fails with one of these kinds so the
// HTTP layer can map them without string matching. All are terminal to the
// single operation; only the bounded slug-collision loop retries internally.
var (
	// ErrPermissionDenied means the actor's role is insufficient.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrAlreadyMember means the invitee already holds an active membership.
	ErrAlreadyMember = errors.New("user is already a member of this tenant")
	// ErrDuplicateInvitation means a pending invitation to that address exists.
	ErrDuplicateInvitation = errors.New("a pending invitation for this email already exists")
	// ErrSlugExhausted means the bounded slug-collision retry ran out.
	ErrSlugExhausted = errors.New("could not allocate a unique slug")
	// ErrLastOwner guards removal of a tenant's only remaining owner.
	ErrLastOwner = errors.New("cannot remove the last owner of a tenant")
	// ErrNotFound is returned when a tenant or membership does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller's identity does not match the invitation.
	ErrForbidden = errors.New("forbidden")
	// ErrStorageUnavailable flags transient store failures callers may retry.
	ErrStorageUnavailable = repositories.ErrStorageUnavailable
)

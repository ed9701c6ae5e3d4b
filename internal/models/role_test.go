package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleOwner.AtLeast(RoleAdmin))
	assert.True(t, RoleOwner.AtLeast(RoleMember))
	assert.True(t, RoleAdmin.AtLeast(RoleMember))
	assert.True(t, RoleAdmin.AtLeast(RoleAdmin))

	assert.False(t, RoleMember.AtLeast(RoleAdmin))
	assert.False(t, RoleAdmin.AtLeast(RoleOwner))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleMember.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleOwner.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("admin")
	assert.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestMembershipState(t *testing.T) {
	invitation := NewInvitation(uuid.New(), "someone@example.com", RoleMember)
	assert.Equal(t, MembershipInvited, invitation.State())

	userID := uuid.New()
	invitation.UserID = &userID
	assert.Equal(t, MembershipBound, invitation.State())

	invitation.IsAccepted = true
	assert.Equal(t, MembershipActive, invitation.State())
}

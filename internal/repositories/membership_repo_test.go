package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"saasbase/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type MembershipRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     MembershipRepository
	tenantID uuid.UUID
	userID   uuid.UUID
	context  context.Context
}

func (suite *MembershipRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewMembershipRepo(mock)
	suite.tenantID = uuid.New()
	suite.userID = uuid.New()
	suite.context = context.Background()
}

func (suite *MembershipRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestMembershipRepoTestSuite(t *testing.T) {
	suite.Run(t, new(MembershipRepoTestSuite))
}

func membershipRowColumns() []string {
	return []string{"id", "tenant_id", "user_id", "role", "invitee_email", "is_accepted", "accepted_at", "created_at", "updated_at"}
}

func (suite *MembershipRepoTestSuite) TestCreate_Invitation() {
	invitation := models.NewInvitation(suite.tenantID, "new@example.com", models.RoleMember)

	suite.mock.ExpectExec(`INSERT INTO memberships \(id, tenant_id, user_id, role, invitee_email, is_accepted, accepted_at, created_at, updated_at\)`).
		WithArgs(invitation.ID, invitation.TenantID, invitation.UserID, invitation.Role,
			invitation.InviteeEmail, invitation.IsAccepted, invitation.AcceptedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, invitation)
	assert.NoError(suite.T(), err)
}

func (suite *MembershipRepoTestSuite) TestCreate_DuplicateMapsToUniqueViolation() {
	invitation := models.NewInvitation(suite.tenantID, "new@example.com", models.RoleMember)

	suite.mock.ExpectExec(`INSERT INTO memberships`).
		WithArgs(invitation.ID, invitation.TenantID, invitation.UserID, invitation.Role,
			invitation.InviteeEmail, invitation.IsAccepted, invitation.AcceptedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "memberships_invitee_tenant_key"})

	err := suite.repo.Create(suite.context, invitation)
	assert.ErrorIs(suite.T(), err, ErrUniqueViolation)
	assert.Contains(suite.T(), err.Error(), "memberships_invitee_tenant_key")
}

func (suite *MembershipRepoTestSuite) TestGetByID_Success() {
	id := uuid.New()
	now := time.Now()

	suite.mock.ExpectQuery(`FROM memberships\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(membershipRowColumns()).
			AddRow(id, suite.tenantID, &suite.userID, models.RoleAdmin, "", true, &now, now, now))

	result, err := suite.repo.GetByID(suite.context, id)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), id, result.ID)
	assert.Equal(suite.T(), models.RoleAdmin, result.Role)
	assert.Equal(suite.T(), suite.userID, *result.UserID)
	assert.Equal(suite.T(), models.MembershipActive, result.State())
}

func (suite *MembershipRepoTestSuite) TestGetByID_NotFound() {
	id := uuid.New()

	suite.mock.ExpectQuery(`FROM memberships\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	result, err := suite.repo.GetByID(suite.context, id)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
	assert.Nil(suite.T(), result)
}

func (suite *MembershipRepoTestSuite) TestFindMembership_Success() {
	now := time.Now()

	suite.mock.ExpectQuery(`FROM memberships\s+WHERE tenant_id = \$1 AND user_id = \$2`).
		WithArgs(suite.tenantID, suite.userID).
		WillReturnRows(pgxmock.NewRows(membershipRowColumns()).
			AddRow(uuid.New(), suite.tenantID, &suite.userID, models.RoleOwner, "", true, &now, now, now))

	result, err := suite.repo.FindMembership(suite.context, suite.tenantID, suite.userID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.RoleOwner, result.Role)
}

func (suite *MembershipRepoTestSuite) TestFindInvitation_PendingOnly() {
	now := time.Now()

	suite.mock.ExpectQuery(`WHERE tenant_id = \$1 AND LOWER\(invitee_email\) = LOWER\(\$2\) AND user_id IS NULL`).
		WithArgs(suite.tenantID, "Who@Example.com").
		WillReturnRows(pgxmock.NewRows(membershipRowColumns()).
			AddRow(uuid.New(), suite.tenantID, (*uuid.UUID)(nil), models.RoleMember, "who@example.com", false, (*time.Time)(nil), now, now))

	result, err := suite.repo.FindInvitation(suite.context, suite.tenantID, "Who@Example.com")
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), result.UserID)
	assert.Equal(suite.T(), models.MembershipInvited, result.State())
}

func (suite *MembershipRepoTestSuite) TestFindInvitation_NotFound() {
	suite.mock.ExpectQuery(`WHERE tenant_id = \$1 AND LOWER\(invitee_email\) = LOWER\(\$2\) AND user_id IS NULL`).
		WithArgs(suite.tenantID, "who@example.com").
		WillReturnError(pgx.ErrNoRows)

	result, err := suite.repo.FindInvitation(suite.context, suite.tenantID, "who@example.com")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
	assert.Nil(suite.T(), result)
}

func (suite *MembershipRepoTestSuite) TestListByTenant() {
	now := time.Now()
	rows := pgxmock.NewRows(membershipRowColumns()).
		AddRow(uuid.New(), suite.tenantID, &suite.userID, models.RoleOwner, "", true, &now, now, now).
		AddRow(uuid.New(), suite.tenantID, (*uuid.UUID)(nil), models.RoleMember, "new@example.com", false, (*time.Time)(nil), now, now)

	suite.mock.ExpectQuery(`FROM memberships\s+WHERE tenant_id = \$1\s+ORDER BY created_at`).
		WithArgs(suite.tenantID).
		WillReturnRows(rows)

	result, err := suite.repo.ListByTenant(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 2)
	assert.Equal(suite.T(), models.MembershipActive, result[0].State())
	assert.Equal(suite.T(), models.MembershipInvited, result[1].State())
}

func (suite *MembershipRepoTestSuite) TestListPendingByEmail_Empty() {
	suite.mock.ExpectQuery(`WHERE LOWER\(invitee_email\) = LOWER\(\$1\) AND user_id IS NULL`).
		WithArgs("nobody@example.com").
		WillReturnRows(pgxmock.NewRows(membershipRowColumns()))

	result, err := suite.repo.ListPendingByEmail(suite.context, "nobody@example.com")
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), result)
}

func (suite *MembershipRepoTestSuite) TestUpdate_BindKeepsID() {
	now := time.Now()
	membership := &models.Membership{
		ID:         uuid.New(),
		TenantID:   suite.tenantID,
		UserID:     &suite.userID,
		Role:       models.RoleAdmin,
		IsAccepted: true,
		AcceptedAt: &now,
	}

	suite.mock.ExpectExec(`UPDATE memberships\s+SET user_id = \$1, role = \$2, invitee_email = \$3, is_accepted = \$4, accepted_at = \$5, updated_at = NOW\(\)\s+WHERE id = \$6`).
		WithArgs(membership.UserID, membership.Role, membership.InviteeEmail,
			membership.IsAccepted, membership.AcceptedAt, membership.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.Update(suite.context, membership)
	assert.NoError(suite.T(), err)
}

func (suite *MembershipRepoTestSuite) TestUpdate_RaceMapsToUniqueViolation() {
	membership := &models.Membership{
		ID:       uuid.New(),
		TenantID: suite.tenantID,
		UserID:   &suite.userID,
		Role:     models.RoleMember,
	}

	suite.mock.ExpectExec(`UPDATE memberships`).
		WithArgs(membership.UserID, membership.Role, membership.InviteeEmail,
			membership.IsAccepted, membership.AcceptedAt, membership.ID).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "memberships_user_tenant_key"})

	err := suite.repo.Update(suite.context, membership)
	assert.ErrorIs(suite.T(), err, ErrUniqueViolation)
}

func (suite *MembershipRepoTestSuite) TestDelete() {
	id := uuid.New()

	suite.mock.ExpectExec(`DELETE FROM memberships WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := suite.repo.Delete(suite.context, id)
	assert.NoError(suite.T(), err)
}

func (suite *MembershipRepoTestSuite) TestCountOwners() {
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM memberships\s+WHERE tenant_id = \$1 AND role = \$2 AND user_id IS NOT NULL AND is_accepted = TRUE`).
		WithArgs(suite.tenantID, models.RoleOwner).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	count, err := suite.repo.CountOwners(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, count)
}

func (suite *MembershipRepoTestSuite) TestDeleteStaleInvitations() {
	cutoff := time.Now().Add(-30 * 24 * time.Hour)

	suite.mock.ExpectExec(`DELETE FROM memberships WHERE user_id IS NULL AND created_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	deleted, err := suite.repo.DeleteStaleInvitations(suite.context, cutoff)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3), deleted)
}

func (suite *MembershipRepoTestSuite) TestGetByID_DeadlockMapsToStorageUnavailable() {
	id := uuid.New()

	suite.mock.ExpectQuery(`FROM memberships\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(&pgconn.PgError{Code: "40P01"})

	result, err := suite.repo.GetByID(suite.context, id)
	assert.ErrorIs(suite.T(), err, ErrStorageUnavailable)
	assert.Nil(suite.T(), result)
}

func (suite *MembershipRepoTestSuite) TestCreate_DatabaseError() {
	invitation := models.NewInvitation(suite.tenantID, "new@example.com", models.RoleMember)

	suite.mock.ExpectExec(`INSERT INTO memberships`).
		WithArgs(invitation.ID, invitation.TenantID, invitation.UserID, invitation.Role,
			invitation.InviteeEmail, invitation.IsAccepted, invitation.AcceptedAt).
		WillReturnError(errors.New("database connection failed"))

	err := suite.repo.Create(suite.context, invitation)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "database connection failed")
}

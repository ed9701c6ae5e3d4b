package services

import (
	"context"
	"testing"

	"saasbase/internal/models"
	"saasbase/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type IdentityBinderTestSuite struct {
	suite.Suite
	memberships *MockMembershipRepository
	binder      IdentityBinder
	ctx         context.Context
}

func (suite *IdentityBinderTestSuite) SetupTest() {
	suite.memberships = &MockMembershipRepository{}
	suite.memberships.Test(suite.T())
	suite.ctx = context.Background()

	store := &fakeStore{
		tenants:     &MockTenantRepository{},
		memberships: suite.memberships,
		users:       &MockUserRepository{},
	}
	suite.binder = NewIdentityBinder(store)
}

func (suite *IdentityBinderTestSuite) TearDownTest() {
	suite.memberships.AssertExpectations(suite.T())
}

func TestIdentityBinderTestSuite(t *testing.T) {
	suite.Run(t, new(IdentityBinderTestSuite))
}

func (suite *IdentityBinderTestSuite) TestBindPendingInvitations() {
	user := &models.User{ID: uuid.New(), Email: "New@X.com"}
	first := models.NewInvitation(uuid.New(), "new@x.com", models.RoleMember)
	second := models.NewInvitation(uuid.New(), "new@x.com", models.RoleAdmin)

	suite.memberships.On("ListPendingByEmail", suite.ctx, "new@x.com").
		Return([]*models.Membership{first, second}, nil)
	suite.memberships.On("Update", suite.ctx, mock.AnythingOfType("*models.Membership")).Return(nil).Run(func(args mock.Arguments) {
		m := args.Get(1).(*models.Membership)
		assert.NotNil(suite.T(), m.UserID)
		assert.Equal(suite.T(), user.ID, *m.UserID)
		// Binding does not accept: the user still has to act on each one.
		assert.False(suite.T(), m.IsAccepted)
		assert.Equal(suite.T(), models.MembershipBound, m.State())
	}).Times(2)

	results, err := suite.binder.BindPendingInvitations(suite.ctx, user)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), results, 2)
	for _, r := range results {
		assert.NoError(suite.T(), r.Err)
	}
	assert.Equal(suite.T(), first.ID, results[0].MembershipID)
	assert.Equal(suite.T(), second.ID, results[1].MembershipID)
}

func (suite *IdentityBinderTestSuite) TestBindPendingInvitations_OneFailureDoesNotBlockOthers() {
	user := &models.User{ID: uuid.New(), Email: "new@x.com"}
	failing := models.NewInvitation(uuid.New(), "new@x.com", models.RoleMember)
	passing := models.NewInvitation(uuid.New(), "new@x.com", models.RoleMember)

	suite.memberships.On("ListPendingByEmail", suite.ctx, "new@x.com").
		Return([]*models.Membership{failing, passing}, nil)
	suite.memberships.On("Update", suite.ctx, mock.MatchedBy(func(m *models.Membership) bool {
		return m.ID == failing.ID
	})).Return(repositories.ErrUniqueViolation)
	suite.memberships.On("Update", suite.ctx, mock.MatchedBy(func(m *models.Membership) bool {
		return m.ID == passing.ID
	})).Return(nil)

	results, err := suite.binder.BindPendingInvitations(suite.ctx, user)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), results, 2)
	assert.ErrorIs(suite.T(), results[0].Err, repositories.ErrUniqueViolation)
	assert.NoError(suite.T(), results[1].Err)
}

func (suite *IdentityBinderTestSuite) TestBindPendingInvitations_NoPending() {
	user := &models.User{ID: uuid.New(), Email: "new@x.com"}

	suite.memberships.On("ListPendingByEmail", suite.ctx, "new@x.com").
		Return([]*models.Membership{}, nil)

	results, err := suite.binder.BindPendingInvitations(suite.ctx, user)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), results)
}

package repositories

import (
	"context"
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

type TenantRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     TenantRepository
	tenantID uuid.UUID
	userID   uuid.UUID
	context  context.Context
}

func (suite *TenantRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewTenantRepo(mock)
	suite.tenantID = uuid.New()
	suite.userID = uuid.New()
	suite.context = context.Background()
}

func (suite *TenantRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestTenantRepoTestSuite(t *testing.T) {
	suite.Run(t, new(TenantRepoTestSuite))
}

func tenantRowColumns() []string {
	return []string{"id", "name", "slug", "type", "billing_email", "created_by", "active", "created_at", "updated_at", "deleted_at"}
}

func (suite *TenantRepoTestSuite) TestCreate_Success() {
	tenant := &models.Tenant{
		ID:        suite.tenantID,
		Name:      "Acme Corp",
		Slug:      "acme-corp",
		Type:      models.TenantTypeOrganization,
		CreatedBy: suite.userID,
	}

	suite.mock.ExpectExec(`INSERT INTO tenants \(id, name, slug, type, billing_email, created_by, active, created_at, updated_at\)`).
		WithArgs(tenant.ID, tenant.Name, tenant.Slug, tenant.Type, tenant.BillingEmail, tenant.CreatedBy).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, tenant)
	assert.NoError(suite.T(), err)
}

func (suite *TenantRepoTestSuite) TestCreate_SlugTaken() {
	tenant := &models.Tenant{
		ID:        suite.tenantID,
		Name:      "Acme Corp",
		Slug:      "acme-corp",
		Type:      models.TenantTypeOrganization,
		CreatedBy: suite.userID,
	}

	suite.mock.ExpectExec(`INSERT INTO tenants`).
		WithArgs(tenant.ID, tenant.Name, tenant.Slug, tenant.Type, tenant.BillingEmail, tenant.CreatedBy).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "tenants_slug_key"})

	err := suite.repo.Create(suite.context, tenant)
	assert.ErrorIs(suite.T(), err, ErrUniqueViolation)
}

func (suite *TenantRepoTestSuite) TestGetByID_Success() {
	now := time.Now()

	suite.mock.ExpectQuery(`FROM tenants\s+WHERE id = \$1`).
		WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows(tenantRowColumns()).
			AddRow(suite.tenantID, "Acme Corp", "acme-corp", models.TenantTypeOrganization,
				"billing@acme.com", suite.userID, true, now, now, (*time.Time)(nil)))

	result, err := suite.repo.GetByID(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.tenantID, result.ID)
	assert.Equal(suite.T(), "acme-corp", result.Slug)
	assert.True(suite.T(), result.Active)
	assert.Nil(suite.T(), result.DeletedAt)
}

func (suite *TenantRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`FROM tenants\s+WHERE id = \$1`).
		WithArgs(suite.tenantID).
		WillReturnError(pgx.ErrNoRows)

	result, err := suite.repo.GetByID(suite.context, suite.tenantID)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
	assert.Nil(suite.T(), result)
}

func (suite *TenantRepoTestSuite) TestGetBySlug() {
	now := time.Now()

	suite.mock.ExpectQuery(`FROM tenants\s+WHERE slug = \$1`).
		WithArgs("acme-corp").
		WillReturnRows(pgxmock.NewRows(tenantRowColumns()).
			AddRow(suite.tenantID, "Acme Corp", "acme-corp", models.TenantTypeOrganization,
				"", suite.userID, true, now, now, (*time.Time)(nil)))

	result, err := suite.repo.GetBySlug(suite.context, "acme-corp")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Acme Corp", result.Name)
}

func (suite *TenantRepoTestSuite) TestUpdate_DoesNotTouchSlug() {
	tenant := &models.Tenant{
		ID:           suite.tenantID,
		Name:         "Acme Renamed",
		Slug:         "acme-corp",
		Type:         models.TenantTypeOrganization,
		BillingEmail: "new@acme.com",
		Active:       true,
	}

	suite.mock.ExpectExec(`UPDATE tenants\s+SET name = \$1, type = \$2, billing_email = \$3, active = \$4, updated_at = NOW\(\)\s+WHERE id = \$5`).
		WithArgs(tenant.Name, tenant.Type, tenant.BillingEmail, tenant.Active, tenant.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.Update(suite.context, tenant)
	assert.NoError(suite.T(), err)
}

func (suite *TenantRepoTestSuite) TestSoftDelete() {
	suite.mock.ExpectExec(`UPDATE tenants\s+SET active = FALSE, deleted_at = NOW\(\), updated_at = NOW\(\)\s+WHERE id = \$1`).
		WithArgs(suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.SoftDelete(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
}

func (suite *TenantRepoTestSuite) TestPurgeDeletedBefore() {
	cutoff := time.Now().Add(-90 * 24 * time.Hour)

	suite.mock.ExpectExec(`DELETE FROM tenants WHERE active = FALSE AND deleted_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	purged, err := suite.repo.PurgeDeletedBefore(suite.context, cutoff)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2), purged)
}

func (suite *TenantRepoTestSuite) TestListForUser() {
	now := time.Now()
	rows := pgxmock.NewRows(tenantRowColumns()).
		AddRow(uuid.New(), "Acme Corp", "acme-corp", models.TenantTypeOrganization,
			"", suite.userID, true, now, now, (*time.Time)(nil)).
		AddRow(uuid.New(), "Beta Inc", "beta-inc", models.TenantTypeOrganization,
			"", suite.userID, true, now, now, (*time.Time)(nil))

	suite.mock.ExpectQuery(`JOIN memberships m ON m\.tenant_id = t\.id\s+WHERE m\.user_id = \$1 AND m\.is_accepted = TRUE AND t\.active = TRUE`).
		WithArgs(suite.userID).
		WillReturnRows(rows)

	result, err := suite.repo.ListForUser(suite.context, suite.userID)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 2)
	assert.Equal(suite.T(), "acme-corp", result[0].Slug)
	assert.Equal(suite.T(), "beta-inc", result[1].Slug)
}

func (suite *TenantRepoTestSuite) TestListForUser_Empty() {
	suite.mock.ExpectQuery(`JOIN memberships m ON m\.tenant_id = t\.id\s+WHERE m\.user_id = \$1 AND m\.is_accepted = TRUE AND t\.active = TRUE`).
		WithArgs(suite.userID).
		WillReturnRows(pgxmock.NewRows(tenantRowColumns()))

	result, err := suite.repo.ListForUser(suite.context, suite.userID)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), result)
}

package handlers

import (
	"net/http"

	"saasbase/internal/common"
	"saasbase/internal/models"
	"saasbase/internal/repositories"
	"saasbase/internal/services"

	"github.com/labstack/echo/v4"
)

// MembershipHandlers handles membership and invitation HTTP requests
type MembershipHandlers struct {
	membershipService services.MembershipService
	userRepo          repositories.UserRepository
}

// NewMembershipHandlers creates a new membership handlers instance
func NewMembershipHandlers(membershipService services.MembershipService, userRepo repositories.UserRepository) *MembershipHandlers {
	return &MembershipHandlers{
		membershipService: membershipService,
		userRepo:          userRepo,
	}
}

// ListMembers returns all memberships of a tenant, pending invitations
// included. Member-only.
func (h *MembershipHandlers) ListMembers(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	// Visibility requires membership.
	if _, err := h.membershipService.GetTenant(ctx, tenantID, userID); err != nil {
		return serviceError(err)
	}

	memberships, err := h.membershipService.ListMemberships(ctx, tenantID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"members": memberships,
	})
}

// InviteRequest represents the invitation payload
type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

// Invite issues an invitation to join a tenant.
func (h *MembershipHandlers) Invite(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req InviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Email == "" {
		return common.SendValidationError(c, "email", "email is required")
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return common.SendValidationError(c, "role", err.Error())
	}

	membership, err := h.membershipService.Invite(ctx, tenantID, userID, req.Email, role)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, membership)
}

// ListInvitations returns the caller's pending invitations.
func (h *MembershipHandlers) ListInvitations(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return common.SendNotFoundError(c, "User")
	}

	invitations, err := h.membershipService.ListInvitations(ctx, user.Email)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"invitations": invitations,
	})
}

// Accept accepts an invitation addressed to the caller.
func (h *MembershipHandlers) Accept(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	membershipID, err := common.ValidateUUID(c.Param("id"), "membership id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	membership, err := h.membershipService.Accept(ctx, membershipID, userID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, membership)
}

// Decline declines an invitation addressed to the caller.
func (h *MembershipHandlers) Decline(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	membershipID, err := common.ValidateUUID(c.Param("id"), "membership id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.membershipService.Decline(ctx, membershipID, userID); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Remove removes a member or revokes a pending invitation.
func (h *MembershipHandlers) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	membershipID, err := common.ValidateUUID(c.Param("id"), "membership id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.membershipService.Remove(ctx, membershipID, userID); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// TransferRequest represents the ownership transfer payload
type TransferRequest struct {
	TenantID string `json:"tenant_id" validate:"required"`
}

// Transfer hands tenant ownership to the target membership.
func (h *MembershipHandlers) Transfer(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	membershipID, err := common.ValidateUUID(c.Param("id"), "membership id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req TransferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	tenantID, err := common.ValidateUUID(req.TenantID, "tenant id")
	if err != nil {
		return common.SendValidationError(c, "tenant_id", err.Error())
	}

	if err := h.membershipService.TransferOwnership(ctx, tenantID, userID, membershipID); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

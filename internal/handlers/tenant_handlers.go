package handlers

import (
	"net/http"

	"saasbase/internal/common"
	"saasbase/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantHandlers handles tenant-related HTTP requests
type TenantHandlers struct {
	membershipService services.MembershipService
}

// NewTenantHandlers creates a new tenant handlers instance
func NewTenantHandlers(membershipService services.MembershipService) *TenantHandlers {
	return &TenantHandlers{
		membershipService: membershipService,
	}
}

// CreateTenantRequest represents the tenant creation request payload
type CreateTenantRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateTenant creates a tenant owned by the caller.
func (h *TenantHandlers) CreateTenant(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req CreateTenantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Name == "" {
		return common.SendValidationError(c, "name", "name is required")
	}

	tenant, err := h.membershipService.CreateTenant(ctx, req.Name, userID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, tenant)
}

// ListTenants returns the tenants the caller belongs to.
func (h *TenantHandlers) ListTenants(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	tenants, err := h.membershipService.ListTenants(ctx, userID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenants": tenants,
	})
}

// GetTenant returns a tenant the caller is a member of.
func (h *TenantHandlers) GetTenant(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	tenant, err := h.membershipService.GetTenant(ctx, tenantID, userID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenantRequest represents the tenant update payload
type UpdateTenantRequest struct {
	Name         string `json:"name" validate:"required"`
	BillingEmail string `json:"billing_email"`
}

// UpdateTenant renames a tenant or changes billing details. The slug never
// changes.
func (h *TenantHandlers) UpdateTenant(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req UpdateTenantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Name == "" {
		return common.SendValidationError(c, "name", "name is required")
	}

	tenant, err := h.membershipService.UpdateTenant(ctx, &services.UpdateTenantRequest{
		TenantID:     tenantID,
		ActorID:      userID,
		Name:         req.Name,
		BillingEmail: req.BillingEmail,
	})
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// DeleteTenant soft-deletes a tenant. Owner only.
func (h *TenantHandlers) DeleteTenant(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.membershipService.DeleteTenant(ctx, tenantID, userID); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SwitchTenant makes the tenant the caller's active context.
func (h *TenantHandlers) SwitchTenant(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	tenant, err := h.membershipService.SwitchActive(ctx, userID, tenantID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenant_id": tenant.ID,
		"name":      tenant.Name,
		"slug":      tenant.Slug,
	})
}

package handlers

import (
	"net/http"
	"time"

	"saasbase/internal/common"
	"saasbase/internal/repositories"
	"saasbase/internal/services"

	"github.com/labstack/echo/v4"
)

const (
	maxAvatarSize   = 5 << 20 // 5 MiB
	avatarURLExpiry = 15 * time.Minute
)

// ProfileHandlers handles user-profile HTTP requests
type ProfileHandlers struct {
	avatarSvc services.AvatarService
	userRepo  repositories.UserRepository
}

// NewProfileHandlers creates a new profile handlers instance
func NewProfileHandlers(avatarSvc services.AvatarService, userRepo repositories.UserRepository) *ProfileHandlers {
	return &ProfileHandlers{
		avatarSvc: avatarSvc,
		userRepo:  userRepo,
	}
}

// UploadAvatar stores a new avatar for the caller.
func (h *ProfileHandlers) UploadAvatar(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return common.SendValidationError(c, "avatar", "avatar file is required")
	}
	if file.Size > maxAvatarSize {
		return common.SendValidationError(c, "avatar", "avatar must be 5MB or smaller")
	}

	src, err := file.Open()
	if err != nil {
		return common.SendServerError(c, "Failed to read upload")
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key, err := h.avatarSvc.UploadAvatar(ctx, userID, src, file.Size, contentType)
	if err != nil {
		return common.SendServerError(c, "Failed to store avatar")
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return common.SendNotFoundError(c, "User")
	}
	user.AvatarKey = key
	if err := h.userRepo.Update(ctx, user); err != nil {
		return common.SendServerError(c, "Failed to update profile")
	}

	return c.JSON(http.StatusOK, map[string]string{"avatar_key": key})
}

// GetAvatar returns a presigned URL for the caller's avatar.
func (h *ProfileHandlers) GetAvatar(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return common.SendNotFoundError(c, "User")
	}
	if user.AvatarKey == "" {
		return common.SendNotFoundError(c, "Avatar")
	}

	url, err := h.avatarSvc.AvatarURL(ctx, user.AvatarKey, avatarURLExpiry)
	if err != nil {
		return common.SendServerError(c, "Failed to generate avatar URL")
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

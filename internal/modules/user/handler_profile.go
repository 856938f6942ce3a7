package user

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/platformkit/identity-service/internal/contextx"
	"github.com/platformkit/identity-service/internal/httpx"
	"github.com/platformkit/identity-service/internal/validation"
)

// --- DTOs ---

// ProfileResponse wraps the account payload for profile endpoints.
type ProfileResponse struct {
	Body struct {
		User UserPayload `json:"user"`
	}
}

func toProfileResponse(u *User) *ProfileResponse {
	resp := &ProfileResponse{}
	resp.Body.User = toUserPayload(u)
	return resp
}

// UpdateProfileRequest defines the mutable profile fields. Absent fields are
// left unchanged.
type UpdateProfileRequest struct {
	Body struct {
		Username *string `json:"username,omitempty" validate:"omitempty,min=2,max=64"`
		Phone    *string `json:"phone,omitempty" validate:"omitempty,e164"`
		Country  *string `json:"country,omitempty" validate:"omitempty,max=64"`
		Region   *string `json:"region,omitempty" validate:"omitempty,max=64"`
	}
}

// UpdateAvatarRequest carries the raw image bytes.
type UpdateAvatarRequest struct {
	ContentType string `header:"Content-Type"`
	RawBody     []byte
}

type RemoveAccountResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// ToggleBanRequest targets an account by ID. Restricted to admins.
type ToggleBanRequest struct {
	ID string `path:"id" format:"uuid"`
}

// --- Handlers ---

// GetProfileHandler returns the authenticated user's profile.
func (h *Handler) GetProfileHandler(ctx context.Context, input *struct{}) (*ProfileResponse, error) {
	claims, ok := contextx.ClaimsFrom(ctx)
	if !ok {
		h.logger.Error("claims missing from authenticated context")
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}

	u, err := h.service.GetProfile(ctx, claims.UserID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return toProfileResponse(u), nil
}

// UpdateProfileHandler applies a partial update to the authenticated user's
// profile.
func (h *Handler) UpdateProfileHandler(ctx context.Context, input *UpdateProfileRequest) (*ProfileResponse, error) {
	claims, ok := contextx.ClaimsFrom(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	h.logger.Info("handling update profile request", "user_id", claims.UserID)

	u, err := h.service.UpdateProfile(ctx, claims.UserID, UpdateProfileInput{
		Username: input.Body.Username,
		Phone:    input.Body.Phone,
		Country:  input.Body.Country,
		Region:   input.Body.Region,
	})
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return toProfileResponse(u), nil
}

// UpdateAvatarHandler replaces the authenticated user's avatar image.
func (h *Handler) UpdateAvatarHandler(ctx context.Context, input *UpdateAvatarRequest) (*ProfileResponse, error) {
	claims, ok := contextx.ClaimsFrom(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}
	if len(input.RawBody) == 0 {
		return nil, huma.Error400BadRequest("avatar image body is required")
	}

	u, err := h.service.UpdateAvatar(ctx, claims.UserID, input.RawBody, input.ContentType)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return toProfileResponse(u), nil
}

// RemoveAccountHandler deletes the authenticated user's account.
func (h *Handler) RemoveAccountHandler(ctx context.Context, input *struct{}) (*RemoveAccountResponse, error) {
	claims, ok := contextx.ClaimsFrom(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}

	h.logger.Info("handling account removal", "user_id", claims.UserID)

	if err := h.service.RemoveAccount(ctx, claims.UserID); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &RemoveAccountResponse{}
	resp.Body.Message = "account removed"
	return resp, nil
}

// ToggleBanHandler flips the ban flag on the target account. Only admins may
// call this.
func (h *Handler) ToggleBanHandler(ctx context.Context, input *ToggleBanRequest) (*ProfileResponse, error) {
	claims, ok := contextx.ClaimsFrom(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}
	if claims.Role != string(RoleAdmin) {
		return nil, huma.Error403Forbidden("admin role required")
	}

	h.logger.Info("handling ban toggle", "admin_id", claims.UserID, "target_id", input.ID)

	u, err := h.service.ToggleBan(ctx, input.ID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return toProfileResponse(u), nil
}

package user

import (
	"context"

	"github.com/platformkit/identity-service/internal/httpx"
	"github.com/platformkit/identity-service/internal/validation"
)

// --- DTOs ---

// RequestPasswordResetRequest defines the structure for starting a reset.
type RequestPasswordResetRequest struct {
	Body struct {
		Email string `json:"email" validate:"required,email"`
	}
}

type RequestPasswordResetResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// ConfirmPasswordResetCodeRequest carries the 6-digit code from the email.
type ConfirmPasswordResetCodeRequest struct {
	Body struct {
		Code string `json:"code" validate:"required,len=6,numeric"`
	}
}

// ConfirmPasswordResetCodeResponse returns the single-use reset ticket that
// authorizes the final password change.
type ConfirmPasswordResetCodeResponse struct {
	Body struct {
		ResetTicket string `json:"resetTicket"`
	}
}

// ResetPasswordRequest finalizes the flow with the ticket and new password.
type ResetPasswordRequest struct {
	Body struct {
		ResetTicket     string `json:"resetTicket" validate:"required"`
		Password        string `json:"password" validate:"required,min=8"`
		ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	}
}

type ResetPasswordResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// --- Handlers ---

// RequestPasswordResetHandler starts the reset flow by emailing a code.
// Unknown emails are reported as such; the admin surface this API serves
// does not require enumeration resistance here.
func (h *Handler) RequestPasswordResetHandler(ctx context.Context, input *RequestPasswordResetRequest) (*RequestPasswordResetResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	h.logger.Info("handling password reset request", "email", input.Body.Email)

	if err := h.service.RequestPasswordReset(ctx, input.Body.Email); err != nil {
		h.logger.Warn("password reset request failed", "email", input.Body.Email, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &RequestPasswordResetResponse{}
	resp.Body.Message = "password reset code sent"
	return resp, nil
}

// ConfirmPasswordResetCodeHandler exchanges a valid code for a reset ticket.
func (h *Handler) ConfirmPasswordResetCodeHandler(ctx context.Context, input *ConfirmPasswordResetCodeRequest) (*ConfirmPasswordResetCodeResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	ticket, err := h.service.ConfirmPasswordResetCode(ctx, input.Body.Code)
	if err != nil {
		h.logger.Warn("reset code confirmation failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &ConfirmPasswordResetCodeResponse{}
	resp.Body.ResetTicket = ticket
	return resp, nil
}

// ResetPasswordHandler consumes the ticket and sets the new password.
func (h *Handler) ResetPasswordHandler(ctx context.Context, input *ResetPasswordRequest) (*ResetPasswordResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.ResetPassword(ctx, input.Body.ResetTicket, input.Body.Password); err != nil {
		h.logger.Warn("password reset failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("password reset finalized")
	resp := &ResetPasswordResponse{}
	resp.Body.Message = "password updated"
	return resp, nil
}

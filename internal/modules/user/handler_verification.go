package user

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/platformkit/identity-service/internal/contextx"
	"github.com/platformkit/identity-service/internal/httpx"
	"github.com/platformkit/identity-service/internal/validation"
)

// --- DTOs ---

type RequestEmailVerificationRequest struct{}

type RequestEmailVerificationResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// ConfirmEmailVerificationRequest carries the 6-digit code. The code alone
// identifies the pending verification; no email field is needed.
type ConfirmEmailVerificationRequest struct {
	Body struct {
		Code string `json:"code" validate:"required,len=6,numeric"`
	}
}

type ConfirmEmailVerificationResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// --- Handlers ---

// RequestEmailVerificationHandler issues a fresh verification code for the
// authenticated user. The cooldown is enforced in the service layer.
func (h *Handler) RequestEmailVerificationHandler(ctx context.Context, input *RequestEmailVerificationRequest) (*RequestEmailVerificationResponse, error) {
	claims, ok := contextx.ClaimsFrom(ctx)
	if !ok {
		h.logger.Error("claims missing from authenticated context")
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}

	if err := h.service.RequestEmailVerification(ctx, claims.UserID); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &RequestEmailVerificationResponse{}
	resp.Body.Message = "verification code sent"
	return resp, nil
}

// ConfirmEmailVerificationHandler validates the code and marks the owning
// user's email as verified.
func (h *Handler) ConfirmEmailVerificationHandler(ctx context.Context, input *ConfirmEmailVerificationRequest) (*ConfirmEmailVerificationResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.ConfirmEmailVerification(ctx, input.Body.Code); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &ConfirmEmailVerificationResponse{}
	resp.Body.Message = "email verified"
	return resp, nil
}

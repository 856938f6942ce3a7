package user

import (
	"context"
	"time"

	"github.com/platformkit/identity-service/internal/httpx"
	"github.com/platformkit/identity-service/internal/validation"
)

// --- DTOs ---

// SignupRequest defines the structure for the account creation request body.
type SignupRequest struct {
	Body struct {
		Email    string `json:"email" validate:"required,email"`
		Username string `json:"username" validate:"required,min=2,max=64"`
		Password string `json:"password" validate:"required,min=8"`
		Phone    string `json:"phone,omitempty" validate:"omitempty,e164"`
		Country  string `json:"country,omitempty" validate:"omitempty,max=64"`
		Region   string `json:"region,omitempty" validate:"omitempty,max=64"`
	}
}

// SignupResponse returns the created account alongside a human-readable
// message about the verification email.
type SignupResponse struct {
	Status int
	Body   struct {
		Message string      `json:"message"`
		User    UserPayload `json:"user"`
	}
}

// SigninRequest defines the structure for the signin request body.
type SigninRequest struct {
	Body struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
}

// SigninResponse carries the session token and the signed-in account.
type SigninResponse struct {
	Body struct {
		Token string      `json:"token"`
		User  UserPayload `json:"user"`
	}
}

// UserPayload is the wire shape of an account. The password hash never
// crosses this boundary.
type UserPayload struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	Role          string     `json:"role"`
	Phone         string     `json:"phone,omitempty"`
	Country       string     `json:"country,omitempty"`
	Region        string     `json:"region,omitempty"`
	AvatarRef     string     `json:"avatarRef,omitempty"`
	EmailVerified bool       `json:"emailVerified"`
	IsBanned      bool       `json:"isBanned"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	VerifiedAt    *time.Time `json:"verifiedAt,omitempty"`
}

func toUserPayload(u *User) UserPayload {
	return UserPayload{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		Role:          string(u.Role),
		Phone:         u.Phone,
		Country:       u.Country,
		Region:        u.Region,
		AvatarRef:     u.AvatarRef,
		EmailVerified: u.EmailVerified(),
		IsBanned:      u.IsBanned,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
		VerifiedAt:    u.EmailVerifiedAt,
	}
}

// --- Handlers ---

// SignupHandler handles the account creation endpoint.
func (h *Handler) SignupHandler(ctx context.Context, input *SignupRequest) (*SignupResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	h.logger.Info("handling signup request", "email", input.Body.Email)

	u, message, err := h.service.Signup(ctx, SignupInput{
		Email:    input.Body.Email,
		Username: input.Body.Username,
		Password: input.Body.Password,
		Phone:    input.Body.Phone,
		Country:  input.Body.Country,
		Region:   input.Body.Region,
	})
	if err != nil {
		h.logger.Warn("signup failed", "email", input.Body.Email, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("user signed up", "user_id", u.ID)
	resp := &SignupResponse{Status: 201}
	resp.Body.Message = message
	resp.Body.User = toUserPayload(u)
	return resp, nil
}

// SigninHandler handles the password signin endpoint.
func (h *Handler) SigninHandler(ctx context.Context, input *SigninRequest) (*SigninResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	h.logger.Info("handling signin request", "email", input.Body.Email)

	tokenString, u, err := h.service.Signin(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		h.logger.Warn("signin failed", "email", input.Body.Email, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("user signed in", "user_id", u.ID)
	resp := &SigninResponse{}
	resp.Body.Token = tokenString
	resp.Body.User = toUserPayload(u)
	return resp, nil
}

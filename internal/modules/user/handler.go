package user

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Handler holds the dependencies for the user module's HTTP handlers.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// NewHandler creates a new handler for the user module.
func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterPublicRoutes sets up the endpoints that require no authentication.
func (h *Handler) RegisterPublicRoutes(api huma.API) {
	// --- Authentication ---
	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/users/signup",
		Summary: "Create a new account",
	}, h.SignupHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/users/signin",
		Summary: "Sign in with email and password",
	}, h.SigninHandler)

	// --- Email verification ---
	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/users/verify-email/confirm",
		Summary: "Confirm email ownership with a code",
	}, h.ConfirmEmailVerificationHandler)

	// --- Password reset ---
	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/users/password/forgot",
		Summary: "Request a password reset code",
	}, h.RequestPasswordResetHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/users/password/confirm-code",
		Summary: "Exchange a reset code for a reset ticket",
	}, h.ConfirmPasswordResetCodeHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/users/password/reset",
		Summary: "Set a new password with a reset ticket",
	}, h.ResetPasswordHandler)

	// --- Federation ---
	huma.Register(api, huma.Operation{
		Method:  http.MethodGet,
		Path:    "/users/oauth/{provider}",
		Summary: "Initiate a federated login",
	}, h.OAuthLoginHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodGet,
		Path:    "/users/oauth/{provider}/callback",
		Summary: "Handle the federated login callback",
	}, h.OAuthCallbackHandler)
}

// RegisterProtectedRoutes sets up the endpoints that sit behind the
// authentication guard. The guard runs per-operation so the public routes
// on the same API stay open.
func (h *Handler) RegisterProtectedRoutes(api huma.API, auth func(huma.Context, func(huma.Context))) {
	guarded := huma.Middlewares{auth}

	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/users/verify-email/request",
		Summary:     "Request a new email verification code",
		Middlewares: guarded,
	}, h.RequestEmailVerificationHandler)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/users/profile",
		Summary:     "Get the current user's profile",
		Middlewares: guarded,
	}, h.GetProfileHandler)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPatch,
		Path:        "/users/profile",
		Summary:     "Update the current user's profile",
		Middlewares: guarded,
	}, h.UpdateProfileHandler)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPut,
		Path:        "/users/profile/avatar",
		Summary:     "Replace the current user's avatar",
		Middlewares: guarded,
	}, h.UpdateAvatarHandler)

	huma.Register(api, huma.Operation{
		Method:      http.MethodDelete,
		Path:        "/users/profile",
		Summary:     "Remove the current user's account",
		Middlewares: guarded,
	}, h.RemoveAccountHandler)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPatch,
		Path:        "/users/{id}/ban",
		Summary:     "Toggle the ban flag on an account",
		Middlewares: guarded,
	}, h.ToggleBanHandler)
}

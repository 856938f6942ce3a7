package user

import (
	"context"

	"github.com/platformkit/identity-service/internal/httpx"
)

// --- DTOs ---

// OAuthLoginRequest names the provider from the URL path.
type OAuthLoginRequest struct {
	Provider string `path:"provider"`
}

// OAuthLoginResponse hands the provider's authorization URL back to the
// frontend, which performs the actual redirect.
type OAuthLoginResponse struct {
	Body struct {
		RedirectURL string `json:"redirectUrl"`
	}
}

// OAuthCallbackRequest carries the parameters the provider appended to the
// callback URL.
type OAuthCallbackRequest struct {
	Provider string `path:"provider"`
	Code     string `query:"code"`
	State    string `query:"state"`
}

// OAuthCallbackResponse returns the session token for the resolved account.
type OAuthCallbackResponse struct {
	Body struct {
		Token string `json:"token"`
	}
}

// --- Handlers ---

// OAuthLoginHandler starts a federated login round-trip.
func (h *Handler) OAuthLoginHandler(ctx context.Context, input *OAuthLoginRequest) (*OAuthLoginResponse, error) {
	h.logger.Info("initiating oauth login", "provider", input.Provider)

	redirectURL, err := h.service.InitiateOAuthLogin(ctx, OAuthProvider(input.Provider))
	if err != nil {
		h.logger.Warn("oauth initiation failed", "provider", input.Provider, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &OAuthLoginResponse{}
	resp.Body.RedirectURL = redirectURL
	return resp, nil
}

// OAuthCallbackHandler completes a federated login and returns the session
// token.
func (h *Handler) OAuthCallbackHandler(ctx context.Context, input *OAuthCallbackRequest) (*OAuthCallbackResponse, error) {
	h.logger.Info("handling oauth callback", "provider", input.Provider)

	tokenString, err := h.service.HandleOAuthCallback(ctx, OAuthProvider(input.Provider), input.State, input.Code)
	if err != nil {
		h.logger.Warn("oauth callback failed", "provider", input.Provider, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("oauth login completed", "provider", input.Provider)
	resp := &OAuthCallbackResponse{}
	resp.Body.Token = tokenString
	return resp, nil
}

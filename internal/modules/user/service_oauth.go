package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/platformkit/identity-service/internal/config"
)

// oauthStateTTL bounds how long an authorization round-trip may take.
const oauthStateTTL = 5 * time.Minute

// FederatedProfile is the provider-agnostic identity extracted from a
// provider's userinfo response.
type FederatedProfile struct {
	Subject  string
	Email    string
	Username string
}

// oauthProvider abstracts one federation backend. Adding a provider means
// implementing this interface and registering it in newOAuthProviders.
type oauthProvider interface {
	AuthCodeURL(state, verifier string) string
	FetchProfile(ctx context.Context, code, verifier string) (*FederatedProfile, error)
}

func newOAuthProviders(cfg *config.Config) map[OAuthProvider]oauthProvider {
	providers := make(map[OAuthProvider]oauthProvider)
	if cfg.Google.ClientID != "" {
		providers[OAuthProviderGoogle] = &googleProvider{
			config: &oauth2.Config{
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				RedirectURL:  cfg.Google.RedirectURL,
				Scopes:       []string{"openid", "email", "profile"},
				Endpoint:     google.Endpoint,
			},
		}
	}
	return providers
}

type googleProvider struct {
	config *oauth2.Config
}

func (p *googleProvider) AuthCodeURL(state, verifier string) string {
	return p.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)
}

func (p *googleProvider) FetchProfile(ctx context.Context, code, verifier string) (*FederatedProfile, error) {
	tok, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	client := p.config.Client(ctx, tok)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &FederatedProfile{Subject: info.ID, Email: info.Email, Username: info.Name}, nil
}

// InitiateOAuthLogin creates a one-shot state record and returns the
// provider's authorization URL.
func (s *service) InitiateOAuthLogin(ctx context.Context, provider OAuthProvider) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", ErrUnsupportedOAuthProvider
	}

	state, err := generateSecureToken(32)
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	verifier := oauth2.GenerateVerifier()

	record := &OAuthState{
		State:     state,
		Provider:  provider,
		Verifier:  verifier,
		ExpiresAt: time.Now().Add(oauthStateTTL),
		CreatedAt: time.Now(),
	}
	if err := s.repo.InsertOAuthState(ctx, record); err != nil {
		s.logger.Error("oauth initiate: store state failed", "error", err, "provider", provider)
		return "", ErrInternal.WithCause(err)
	}

	return p.AuthCodeURL(state, verifier), nil
}

// HandleOAuthCallback completes the authorization round-trip: it validates
// and burns the state, exchanges the code, and resolves the federated
// profile to a local account, creating or linking one as needed.
func (s *service) HandleOAuthCallback(ctx context.Context, provider OAuthProvider, state, code string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", ErrUnsupportedOAuthProvider
	}

	record, err := s.repo.GetOAuthStateByState(ctx, state)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrOAuthStateInvalid
		}
		return "", ErrInternal.WithCause(err)
	}
	// The state is single-use whatever the outcome below.
	defer func() {
		if err := s.repo.DeleteOAuthState(ctx, state); err != nil {
			s.logger.Warn("oauth callback: delete state failed", "error", err)
		}
	}()

	if record.Provider != provider {
		return "", ErrOAuthStateInvalid
	}
	if time.Now().After(record.ExpiresAt) {
		return "", ErrOAuthStateExpired
	}

	profile, err := p.FetchProfile(ctx, code, record.Verifier)
	if err != nil {
		s.logger.Warn("oauth callback: exchange failed", "error", err, "provider", provider)
		return "", ErrOAuthExchangeFailed.WithCause(err)
	}
	if profile.Subject == "" || profile.Email == "" {
		return "", ErrInvalidFederatedProfile
	}

	u, err := s.resolveFederatedUser(ctx, provider, profile)
	if err != nil {
		return "", err
	}
	if u.IsBanned {
		return "", ErrAccountSuspended
	}

	tokenString, err := s.tokens.Issue(u.ID, u.Email, string(u.Role))
	if err != nil {
		s.logger.Error("oauth callback: issue token failed", "error", err, "user_id", u.ID)
		return "", ErrInternal.WithCause(err)
	}
	return tokenString, nil
}

// resolveFederatedUser maps a provider identity to a local account: an
// existing federated link wins, then an email match gets linked, and
// otherwise a new pre-verified account is created.
func (s *service) resolveFederatedUser(ctx context.Context, provider OAuthProvider, profile *FederatedProfile) (*User, error) {
	federatedID := fmt.Sprintf("%s:%s", provider, profile.Subject)

	u, err := s.repo.FindByFederatedID(ctx, federatedID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, ErrInternal.WithCause(err)
	}

	email := normalizeEmail(profile.Email)
	u, err = s.repo.FindByEmail(ctx, email)
	if err == nil {
		// Same email, first federated signin: link the identity.
		u.FederatedID = &federatedID
		if err := s.repo.Update(ctx, u); err != nil {
			s.logger.Error("oauth: link federated identity failed", "error", err, "user_id", u.ID)
			return nil, ErrInternal.WithCause(err)
		}
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, ErrInternal.WithCause(err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}
	now := time.Now()
	username := profile.Username
	if username == "" {
		username = email
	}
	// The provider vouches for the address, so the account starts verified.
	// No local password: checkPasswordHash rejects empty hashes, so password
	// signin stays closed until the user sets one through the reset flow.
	newUser := &User{
		ID:              id.String(),
		Email:           email,
		Username:        username,
		Role:            RoleUser,
		EmailVerifiedAt: &now,
		FederatedID:     &federatedID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, newUser); err != nil {
		s.logger.Error("oauth: create federated user failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	s.logger.Info("federated account created", "user_id", newUser.ID, "provider", provider)
	return newUser, nil
}

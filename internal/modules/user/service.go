package user

import (
	"context"
	"log/slog"

	"github.com/platformkit/identity-service/internal/config"
	"github.com/platformkit/identity-service/internal/filestore"
	"github.com/platformkit/identity-service/internal/notification"
	"github.com/platformkit/identity-service/internal/notification/templates"
	"github.com/platformkit/identity-service/internal/otp"
	"github.com/platformkit/identity-service/internal/token"
)

// SignupInput carries the fields accepted at account creation.
type SignupInput struct {
	Email    string
	Username string
	Password string
	Phone    string
	Country  string
	Region   string
}

// Service defines the user module's business logic: the central state
// machine orchestrating the credential store, OTP issuer, notifier, token
// service and federation adapter.
type Service interface {
	// Auth
	Signup(ctx context.Context, input SignupInput) (*User, string, error)
	Signin(ctx context.Context, email, password string) (tokenString string, u *User, err error)

	// Email verification
	RequestEmailVerification(ctx context.Context, userID string) error
	ConfirmEmailVerification(ctx context.Context, code string) error

	// Password reset
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordResetCode(ctx context.Context, code string) (resetTicket string, err error)
	ResetPassword(ctx context.Context, resetTicket, newPassword string) error

	// Profile & administration
	GetProfile(ctx context.Context, userID string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*User, error)
	UpdateAvatar(ctx context.Context, userID string, data []byte, contentType string) (*User, error)
	RemoveAccount(ctx context.Context, userID string) error
	ToggleBan(ctx context.Context, userID string) (*User, error)

	// Federation
	InitiateOAuthLogin(ctx context.Context, provider OAuthProvider) (redirectURL string, err error)
	HandleOAuthCallback(ctx context.Context, provider OAuthProvider, state, code string) (tokenString string, err error)
}

// service implements the Service interface.
type service struct {
	repo      Repository
	codes     *otp.Issuer
	tokens    *token.Service
	tickets   ResetTicketStore
	notifier  notification.Service
	templates *templates.Engine
	files     filestore.Store
	providers map[OAuthProvider]oauthProvider
	logger    *slog.Logger
	config    *config.Config
}

// Config holds the dependencies for the user service.
type Config struct {
	Repo      Repository
	Codes     *otp.Issuer
	Tokens    *token.Service
	Tickets   ResetTicketStore
	Notifier  notification.Service
	Templates *templates.Engine
	Files     filestore.Store
	Logger    *slog.Logger
	Config    *config.Config
}

// NewService creates a new user service with the given dependencies.
func NewService(cfg *Config) Service {
	return &service{
		repo:      cfg.Repo,
		codes:     cfg.Codes,
		tokens:    cfg.Tokens,
		tickets:   cfg.Tickets,
		notifier:  cfg.Notifier,
		templates: cfg.Templates,
		files:     cfg.Files,
		providers: newOAuthProviders(cfg.Config),
		logger:    cfg.Logger,
		config:    cfg.Config,
	}
}

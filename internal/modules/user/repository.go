package user

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/platformkit/identity-service/internal/database"
)

// Repository defines the database operations for the user module. The
// service layer depends on this abstraction, not on pgx.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByFederatedID(ctx context.Context, federatedID string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, userID string, newPasswordHash string) error
	MarkEmailVerified(ctx context.Context, userID string, at time.Time) error
	SetBan(ctx context.Context, userID string, banned bool) (*User, error)
	Remove(ctx context.Context, userID string) error

	// OAuth states (for federation round-trips)
	InsertOAuthState(ctx context.Context, state *OAuthState) error
	GetOAuthStateByState(ctx context.Context, state string) (*OAuthState, error)
	DeleteOAuthState(ctx context.Context, state string) error
	DeleteExpiredOAuthStates(ctx context.Context) error
}

// repository implements the Repository interface using pgx and squirrel.
type repository struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
}

// NewRepository creates a new user repository with the given database connection.
func NewRepository(db database.DBTX) Repository {
	return &repository{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

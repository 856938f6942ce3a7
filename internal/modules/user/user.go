package user

import (
	"time"
)

// Role is the coarse authorization level carried in session claims.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the identity record. It is the core entity for this module, used
// across the repository, service, and handler layers.
//
// PasswordHash is never serialized outward: every response DTO maps from
// this struct explicitly and omits it. FederatedID is set when the account
// originates from, or has been linked to, an external identity provider;
// such accounts may have an empty PasswordHash.
type User struct {
	ID              string     `db:"id"`
	Email           string     `db:"email"`
	Username        string     `db:"username"`
	PasswordHash    string     `db:"password_hash"`
	Role            Role       `db:"role"`
	Phone           string     `db:"phone"`
	Country         string     `db:"country"`
	Region          string     `db:"region"`
	AvatarRef       string     `db:"avatar_ref"`
	EmailVerifiedAt *time.Time `db:"email_verified_at"`
	IsBanned        bool       `db:"is_banned"`
	FederatedID     *string    `db:"federated_id"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// EmailVerified reports whether the email verification flow has completed.
// The timestamp transitions from null to a value exactly once and never back.
func (u *User) EmailVerified() bool { return u.EmailVerifiedAt != nil }

// OAuthProvider names a supported federation provider.
type OAuthProvider string

const (
	OAuthProviderGoogle OAuthProvider = "google"
)

// OAuthState is the CSRF state + PKCE verifier persisted for the duration of
// one federation round-trip.
type OAuthState struct {
	State     string        `db:"state"`
	Provider  OAuthProvider `db:"provider"`
	Verifier  string        `db:"verifier"`
	ExpiresAt time.Time     `db:"expires_at"`
	CreatedAt time.Time     `db:"created_at"`
}

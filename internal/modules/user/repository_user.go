package user

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var userColumns = []string{
	"id", "email", "username", "password_hash", "role", "phone", "country",
	"region", "avatar_ref", "email_verified_at", "is_banned", "federated_id",
	"created_at", "updated_at",
}

// Create inserts a new user record. A duplicate email surfaces as
// ErrEmailExists whether it is caught by the pre-insert lookup in the service
// or by the unique index here, so concurrent signups race cleanly.
func (r *repository) Create(ctx context.Context, user *User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query, args, err := r.psql.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Email, user.Username, user.PasswordHash, string(user.Role),
			user.Phone, user.Country, user.Region, user.AvatarRef, user.EmailVerifiedAt,
			user.IsBanned, user.FederatedID, user.CreatedAt, user.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailExists.WithCause(err)
		}
		return err
	}
	return nil
}

// FindByID retrieves a user by their unique ID.
func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

// FindByEmail retrieves a user by their (case-normalized) email address.
func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, squirrel.Eq{"email": email})
}

// FindByFederatedID retrieves a user by their external-provider identifier.
func (r *repository) FindByFederatedID(ctx context.Context, federatedID string) (*User, error) {
	return r.findOne(ctx, squirrel.Eq{"federated_id": federatedID})
}

func (r *repository) findOne(ctx context.Context, condition squirrel.Sqlizer) (*User, error) {
	query, args, err := r.psql.Select(userColumns...).
		From("users").
		Where(condition).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user User
	if err := pgxscan.Get(ctx, r.db, &user, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &user, nil
}

// Update modifies an existing user's mutable fields in a single statement.
func (r *repository) Update(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now()

	query, args, err := r.psql.Update("users").
		Set("username", user.Username).
		Set("phone", user.Phone).
		Set("country", user.Country).
		Set("region", user.Region).
		Set("avatar_ref", user.AvatarRef).
		Set("federated_id", user.FederatedID).
		Set("updated_at", user.UpdatedAt).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword sets a new password hash for a user.
func (r *repository) UpdatePassword(ctx context.Context, userID string, newPasswordHash string) error {
	query, args, err := r.psql.Update("users").
		Set("password_hash", newPasswordHash).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkEmailVerified transitions email_verified_at from null to a timestamp.
// The null guard makes the transition one-way and idempotent under races.
func (r *repository) MarkEmailVerified(ctx context.Context, userID string, at time.Time) error {
	query, args, err := r.psql.Update("users").
		Set("email_verified_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": userID}).
		Where("email_verified_at IS NULL").
		ToSql()
	if err != nil {
		return err
	}

	// Zero rows means the user is gone or already verified; the service
	// distinguishes these by loading the user first.
	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// SetBan writes the target ban state rather than blindly flipping, so two
// concurrent toggles cannot leave the flag ambiguous. It returns the updated
// user.
func (r *repository) SetBan(ctx context.Context, userID string, banned bool) (*User, error) {
	query, args, err := r.psql.Update("users").
		Set("is_banned", banned).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user User
	if err := pgxscan.Get(ctx, r.db, &user, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &user, nil
}

// Remove deletes the user row. Account removal is unconditional.
func (r *repository) Remove(ctx context.Context, userID string) error {
	query, args, err := r.psql.Delete("users").
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func joinColumns(cols []string) string {
	out := cols[0]
	for _, c := range cols[1:] {
		out += ", " + c
	}
	return out
}

package otp

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/platformkit/identity-service/internal/database"
)

// postgresStore implements Store using pgx and squirrel.
type postgresStore struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
}

// NewPostgresStore creates a Postgres-backed code store.
func NewPostgresStore(db database.DBTX) Store {
	return &postgresStore{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (s *postgresStore) Insert(ctx context.Context, c *Code) error {
	if c.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		c.ID = id.String()
	}
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now()
	}

	sql, args, err := s.psql.Insert("one_time_codes").
		Columns("id", "user_id", "purpose", "code_hash", "issued_at", "expires_at", "consumed_at").
		Values(c.ID, c.UserID, string(c.Purpose), c.CodeHash, c.IssuedAt, c.ExpiresAt, c.ConsumedAt).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, sql, args...)
	return err
}

func (s *postgresStore) FindActiveByUser(ctx context.Context, userID string, purpose Purpose) (*Code, error) {
	sql, args, err := s.psql.Select(
		"id", "user_id", "purpose", "code_hash", "issued_at", "expires_at", "consumed_at",
	).From("one_time_codes").
		Where(squirrel.Eq{"user_id": userID, "purpose": string(purpose)}).
		Where("consumed_at IS NULL").
		OrderBy("issued_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var c Code
	if err := pgxscan.Get(ctx, s.db, &c, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *postgresStore) FindActiveByHash(ctx context.Context, purpose Purpose, codeHash string) (*Code, error) {
	sql, args, err := s.psql.Select(
		"id", "user_id", "purpose", "code_hash", "issued_at", "expires_at", "consumed_at",
	).From("one_time_codes").
		Where(squirrel.Eq{"purpose": string(purpose), "code_hash": codeHash}).
		Where("consumed_at IS NULL").
		OrderBy("issued_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var c Code
	if err := pgxscan.Get(ctx, s.db, &c, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *postgresStore) SupersedeOutstanding(ctx context.Context, userID string, purpose Purpose) error {
	sql, args, err := s.psql.Update("one_time_codes").
		Set("consumed_at", time.Now()).
		Where(squirrel.Eq{"user_id": userID, "purpose": string(purpose)}).
		Where("consumed_at IS NULL").
		ToSql()
	if err != nil {
		return err
	}
	// Zero rows is fine: there was nothing outstanding to supersede.
	_, err = s.db.Exec(ctx, sql, args...)
	return err
}

func (s *postgresStore) Consume(ctx context.Context, id string) error {
	sql, args, err := s.psql.Update("one_time_codes").
		Set("consumed_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		Where("consumed_at IS NULL").
		ToSql()
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyConsumed
	}
	return nil
}

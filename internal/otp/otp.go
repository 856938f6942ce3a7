package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"math/big"
	"time"
)

// Purpose defines the reason a one-time code is issued.
type Purpose string

const (
	PurposeEmailVerify   Purpose = "email_verify"
	PurposePasswordReset Purpose = "password_reset"
)

var (
	// ErrNotFound means no outstanding code matched.
	ErrNotFound = errors.New("one-time code not found")

	// ErrAlreadyConsumed means a concurrent request consumed the code first.
	ErrAlreadyConsumed = errors.New("one-time code already consumed")

	// ErrCooldown means a code for this (user, purpose) was sent too recently.
	ErrCooldown = errors.New("a code was recently sent, wait before requesting another")
)

// Code is a short-lived secret bound to a user and a purpose. Only the
// SHA-256 hash of the code is persisted; the plaintext exists in the issue
// return value and the outbound notification, nowhere else.
type Code struct {
	ID         string     `db:"id"`
	UserID     string     `db:"user_id"`
	Purpose    Purpose    `db:"purpose"`
	CodeHash   string     `db:"code_hash"`
	IssuedAt   time.Time  `db:"issued_at"`
	ExpiresAt  time.Time  `db:"expires_at"`
	ConsumedAt *time.Time `db:"consumed_at"`
}

// Store is the persistence contract for one-time codes.
type Store interface {
	Insert(ctx context.Context, c *Code) error
	FindActiveByUser(ctx context.Context, userID string, purpose Purpose) (*Code, error)
	FindActiveByHash(ctx context.Context, purpose Purpose, codeHash string) (*Code, error)

	// SupersedeOutstanding marks every unconsumed code for (userID, purpose)
	// consumed, so only a subsequently inserted code can validate.
	SupersedeOutstanding(ctx context.Context, userID string, purpose Purpose) error

	// Consume sets consumed_at if and only if it is still null. It returns
	// ErrAlreadyConsumed when another request won the race.
	Consume(ctx context.Context, id string) error
}

// CooldownLimiter throttles repeated issuance for the same key.
type CooldownLimiter interface {
	// Allow reports whether issuance is permitted for key and, when it is,
	// starts a new cooldown window.
	Allow(ctx context.Context, key string, window time.Duration) (bool, error)
}

// Config controls code issuance.
type Config struct {
	TTL            time.Duration
	CodeLength     int
	ResendCooldown time.Duration
}

// Issuer generates, persists and validates one-time codes.
type Issuer struct {
	store    Store
	cooldown CooldownLimiter
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewIssuer creates an issuer. cooldown may be nil to disable throttling.
func NewIssuer(store Store, cooldown CooldownLimiter, cfg Config, logger *slog.Logger) *Issuer {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 6
	}
	return &Issuer{
		store:    store,
		cooldown: cooldown,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Issue generates a fresh random code for (userID, purpose), supersedes any
// outstanding code for the same pair, persists the new code's hash and
// returns the plaintext for delivery.
func (i *Issuer) Issue(ctx context.Context, userID string, purpose Purpose) (string, error) {
	if i.cooldown != nil && i.cfg.ResendCooldown > 0 {
		ok, err := i.cooldown.Allow(ctx, cooldownKey(userID, purpose), i.cfg.ResendCooldown)
		if err != nil {
			i.logger.Error("otp cooldown check failed", "error", err, "user_id", userID)
			return "", err
		}
		if !ok {
			return "", ErrCooldown
		}
	}

	code, err := generateNumericCode(i.cfg.CodeLength)
	if err != nil {
		return "", err
	}

	if err := i.store.SupersedeOutstanding(ctx, userID, purpose); err != nil {
		return "", err
	}

	now := i.now()
	c := &Code{
		UserID:    userID,
		Purpose:   purpose,
		CodeHash:  HashCode(code),
		IssuedAt:  now,
		ExpiresAt: now.Add(i.cfg.TTL),
	}
	if err := i.store.Insert(ctx, c); err != nil {
		return "", err
	}

	return code, nil
}

// Validate checks a candidate code for (userID, purpose) and consumes it on
// match. It returns true exactly once per issued code: any mismatch, expiry,
// superseded or already-consumed code returns false.
func (i *Issuer) Validate(ctx context.Context, userID string, purpose Purpose, candidate string) (bool, error) {
	active, err := i.store.FindActiveByUser(ctx, userID, purpose)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return i.consumeIfValid(ctx, active, candidate)
}

// Redeem resolves a candidate code by its hash across all users for the
// given purpose and consumes it, returning the owning user ID. This is the
// code-keyed confirmation path: no ambient "pending" state is involved.
func (i *Issuer) Redeem(ctx context.Context, purpose Purpose, candidate string) (string, error) {
	active, err := i.store.FindActiveByHash(ctx, purpose, HashCode(candidate))
	if err != nil {
		return "", err
	}
	ok, err := i.consumeIfValid(ctx, active, candidate)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotFound
	}
	return active.UserID, nil
}

func (i *Issuer) consumeIfValid(ctx context.Context, active *Code, candidate string) (bool, error) {
	if i.now().After(active.ExpiresAt) {
		return false, nil
	}
	hashed := HashCode(candidate)
	if subtle.ConstantTimeCompare([]byte(hashed), []byte(active.CodeHash)) != 1 {
		return false, nil
	}
	// The CAS on consumed_at is the single-use guarantee: of two concurrent
	// validations exactly one observes the unconsumed row.
	if err := i.store.Consume(ctx, active.ID); err != nil {
		if errors.Is(err, ErrAlreadyConsumed) || errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// HashCode returns the base64url-encoded SHA-256 of a plaintext code.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return base64.URLEncoding.EncodeToString(sum[:])
}

// generateNumericCode returns a uniformly random numeric string of n digits.
func generateNumericCode(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits), nil
}

func cooldownKey(userID string, purpose Purpose) string {
	return userID + ":" + string(purpose)
}

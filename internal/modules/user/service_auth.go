package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Signup handles the business logic for creating a new account. The user is
// created first; the verification code dispatch happens after and its
// failure never rolls back the account.
func (s *service) Signup(ctx context.Context, input SignupInput) (*User, string, error) {
	email := normalizeEmail(input.Email)

	// Check if a user with the given email already exists. A concurrent
	// duplicate that slips past this lookup is caught by the unique index
	// in repo.Create and surfaces as the same ErrEmailExists.
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil, "", ErrEmailExists
	}
	if !errors.Is(err, ErrNotFound) {
		s.logger.Error("signup: find user by email failed", "error", err)
		return nil, "", ErrInternal.WithCause(err)
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		s.logger.Error("signup: failed to hash password", "error", err)
		return nil, "", ErrInternal.WithCause(err)
	}

	newUserID, err := uuid.NewV7()
	if err != nil {
		return nil, "", ErrInternal.WithCause(err)
	}
	newUser := &User{
		ID:           newUserID.String(),
		Email:        email,
		Username:     input.Username,
		PasswordHash: hashedPassword,
		Role:         RoleUser,
		Phone:        input.Phone,
		Country:      input.Country,
		Region:       input.Region,
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, "", ErrEmailExists
		}
		s.logger.Error("signup: failed to create user", "error", err)
		return nil, "", ErrInternal.WithCause(err)
	}

	s.logger.Info("user registered successfully", "user_id", newUser.ID)

	// Dispatch the verification code asynchronously: the account is already
	// committed and the code can be resent, so delivery failure only logs.
	s.sendVerificationCode(ctx, newUser)

	return newUser, "account created, check your email for a verification code", nil
}

// Signin authenticates a user and issues a session token.
//
// A missing account and a wrong password collapse into the same
// ErrInvalidCredentials so callers cannot enumerate registered emails. The
// ban check runs as soon as the lookup succeeds: a banned user with a
// correct password is still rejected.
func (s *service) Signin(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		s.logger.Error("signin: find user by email failed", "error", err)
		return "", nil, ErrInternal.WithCause(err)
	}

	if u.IsBanned {
		return "", nil, ErrAccountSuspended
	}

	if !checkPasswordHash(password, u.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	tokenString, err := s.tokens.Issue(u.ID, u.Email, string(u.Role))
	if err != nil {
		s.logger.Error("signin: failed to issue session token", "error", err)
		return "", nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("user signed in successfully", "user_id", u.ID)
	return tokenString, u, nil
}

package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/platformkit/identity-service/internal/filestore"
)

// UpdateProfileInput carries the mutable profile fields. Nil pointers leave
// the current value untouched.
type UpdateProfileInput struct {
	Username *string
	Phone    *string
	Country  *string
	Region   *string
}

func (s *service) GetProfile(ctx context.Context, userID string) (*User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("get profile failed", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}
	return u, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal.WithCause(err)
	}

	if input.Username != nil {
		u.Username = *input.Username
	}
	if input.Phone != nil {
		u.Phone = *input.Phone
	}
	if input.Country != nil {
		u.Country = *input.Country
	}
	if input.Region != nil {
		u.Region = *input.Region
	}

	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("update profile failed", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}
	return u, nil
}

// UpdateAvatar stores the new image first and only then updates the profile
// reference, so a storage failure leaves the old avatar intact. The previous
// image is removed best-effort once it is unreferenced.
func (s *service) UpdateAvatar(ctx context.Context, userID string, data []byte, contentType string) (*User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal.WithCause(err)
	}

	ref, err := s.files.Store(ctx, u.ID, data, contentType)
	if err != nil {
		s.logger.Error("avatar upload failed", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(fmt.Errorf("store avatar: %w", err))
	}

	oldRef := u.AvatarRef
	u.AvatarRef = ref
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("avatar ref update failed", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}

	if oldRef != "" && oldRef != ref {
		if err := s.files.Delete(ctx, oldRef); err != nil && !errors.Is(err, filestore.ErrNotFound) {
			s.logger.Warn("failed to delete previous avatar", "error", err, "user_id", userID)
		}
	}
	return u, nil
}

func (s *service) RemoveAccount(ctx context.Context, userID string) error {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrInternal.WithCause(err)
	}

	if err := s.repo.Remove(ctx, u.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		s.logger.Error("remove account failed", "error", err, "user_id", userID)
		return ErrInternal.WithCause(err)
	}

	if u.AvatarRef != "" {
		if err := s.files.Delete(ctx, u.AvatarRef); err != nil && !errors.Is(err, filestore.ErrNotFound) {
			s.logger.Warn("failed to delete avatar for removed account", "error", err, "user_id", userID)
		}
	}

	s.logger.Info("account removed", "user_id", userID)
	return nil
}

// ToggleBan flips the ban flag and returns the updated record. Tokens issued
// before a ban stay valid until they expire; only new signins are refused.
func (s *service) ToggleBan(ctx context.Context, userID string) (*User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal.WithCause(err)
	}

	updated, err := s.repo.SetBan(ctx, u.ID, !u.IsBanned)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("toggle ban failed", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("ban toggled", "user_id", updated.ID, "is_banned", updated.IsBanned)
	return updated, nil
}

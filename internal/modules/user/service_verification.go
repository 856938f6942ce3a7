package user

import (
	"context"
	"errors"
	"time"

	"github.com/platformkit/identity-service/internal/notification"
	"github.com/platformkit/identity-service/internal/notification/templates"
	"github.com/platformkit/identity-service/internal/otp"
)

// RequestEmailVerification issues a fresh EMAIL_VERIFY code for the user and
// dispatches it. Issuing supersedes any outstanding verification code.
func (s *service) RequestEmailVerification(ctx context.Context, userID string) error {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		s.logger.Error("request verify: find user failed", "error", err)
		return ErrInternal.WithCause(err)
	}
	if u.EmailVerified() {
		return ErrAlreadyVerified
	}

	code, err := s.codes.Issue(ctx, u.ID, otp.PurposeEmailVerify)
	if err != nil {
		if errors.Is(err, otp.ErrCooldown) {
			return ErrResendTooSoon
		}
		s.logger.Error("request verify: issue code failed", "error", err, "user_id", u.ID)
		return ErrInternal.WithCause(err)
	}

	// The account state did not change here, but the code remains in
	// storage and can be re-requested, so delivery failure only logs.
	s.dispatchAsync(ctx, u, func(ctx context.Context) error {
		return notification.SendTemplate(ctx, s.notifier, s.templates, templates.VerifyEmail, u.Email, templates.VerifyEmailData{
			Username:     u.Username,
			Code:         code,
			TTLMinutes:   s.config.OTP.TTLMinutes,
			SupportEmail: s.config.SMTP.From,
		})
	})
	return nil
}

// ConfirmEmailVerification validates a submitted code and marks the owning
// user's email verified. The code itself identifies the pending flow; there
// is no shared "email under verification" state anywhere.
func (s *service) ConfirmEmailVerification(ctx context.Context, code string) error {
	userID, err := s.codes.Redeem(ctx, otp.PurposeEmailVerify, code)
	if err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			return ErrInvalidOrExpiredCode
		}
		s.logger.Error("confirm verify: redeem code failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	// The null guard in MarkEmailVerified keeps the transition one-way.
	if err := s.repo.MarkEmailVerified(ctx, userID, time.Now()); err != nil {
		s.logger.Error("confirm verify: mark verified failed", "error", err, "user_id", userID)
		return ErrInternal.WithCause(err)
	}

	s.logger.Info("email verified", "user_id", userID)
	return nil
}

// sendVerificationCode issues an EMAIL_VERIFY code for a freshly created
// account and dispatches it, logging any failure.
func (s *service) sendVerificationCode(ctx context.Context, u *User) {
	code, err := s.codes.Issue(ctx, u.ID, otp.PurposeEmailVerify)
	if err != nil {
		s.logger.Error("signup: issue verification code failed", "error", err, "user_id", u.ID)
		return
	}
	s.dispatchAsync(ctx, u, func(ctx context.Context) error {
		return notification.SendTemplate(ctx, s.notifier, s.templates, templates.VerifyEmail, u.Email, templates.VerifyEmailData{
			Username:     u.Username,
			Code:         code,
			TTLMinutes:   s.config.OTP.TTLMinutes,
			SupportEmail: s.config.SMTP.From,
		})
	})
}

// dispatchAsync runs a notification send in the background, detached from
// the request's cancellation, and logs failures.
func (s *service) dispatchAsync(ctx context.Context, u *User, send func(context.Context) error) {
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := send(bg); err != nil {
			s.logger.Error("failed to send notification email", "error", err, "user_id", u.ID)
		}
	}()
}

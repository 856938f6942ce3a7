package user

import (
	"context"
	"errors"
	"time"

	"github.com/platformkit/identity-service/internal/notification"
	"github.com/platformkit/identity-service/internal/notification/templates"
	"github.com/platformkit/identity-service/internal/otp"
)

// resetTicketTTL bounds how long a confirmed reset code stays redeemable.
const resetTicketTTL = 15 * time.Minute

// RequestPasswordReset issues a PASSWORD_RESET code for the account with the
// given email and delivers it synchronously. Delivery failure is fatal here:
// without the email the user has no way to continue the flow.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		s.logger.Error("request reset: find user failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	code, err := s.codes.Issue(ctx, u.ID, otp.PurposePasswordReset)
	if err != nil {
		if errors.Is(err, otp.ErrCooldown) {
			return ErrResendTooSoon
		}
		s.logger.Error("request reset: issue code failed", "error", err, "user_id", u.ID)
		return ErrInternal.WithCause(err)
	}

	err = notification.SendTemplate(ctx, s.notifier, s.templates, templates.PasswordResetCode, u.Email, templates.PasswordResetCodeData{
		Username:     u.Username,
		Code:         code,
		TTLMinutes:   s.config.OTP.TTLMinutes,
		SupportEmail: s.config.SMTP.From,
	})
	if err != nil {
		s.logger.Error("request reset: delivery failed", "error", err, "user_id", u.ID)
		return ErrDeliveryFailed.WithCause(err)
	}

	s.logger.Info("password reset code sent", "user_id", u.ID)
	return nil
}

// ConfirmPasswordResetCode redeems a reset code and mints a short-lived
// single-use ticket that authorizes exactly one password change. The ticket
// is scoped to the code's owner, so concurrent resets for different accounts
// never interfere.
func (s *service) ConfirmPasswordResetCode(ctx context.Context, code string) (string, error) {
	userID, err := s.codes.Redeem(ctx, otp.PurposePasswordReset, code)
	if err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			return "", ErrInvalidOrExpiredCode
		}
		s.logger.Error("confirm reset: redeem code failed", "error", err)
		return "", ErrInternal.WithCause(err)
	}

	ticket, err := generateSecureToken(32)
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	if err := s.tickets.Create(ctx, ticket, userID, resetTicketTTL); err != nil {
		s.logger.Error("confirm reset: store ticket failed", "error", err, "user_id", userID)
		return "", ErrInternal.WithCause(err)
	}
	return ticket, nil
}

// ResetPassword consumes a reset ticket and replaces the owning user's
// password hash. The ticket is burned on first use regardless of whether the
// update below succeeds; a failed update means restarting the flow.
func (s *service) ResetPassword(ctx context.Context, resetTicket, newPassword string) error {
	userID, err := s.tickets.Consume(ctx, resetTicket)
	if err != nil {
		if errors.Is(err, errTicketNotFound) {
			return ErrNoPendingReset
		}
		s.logger.Error("reset password: consume ticket failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return ErrInternal.WithCause(err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		s.logger.Error("reset password: update failed", "error", err, "user_id", userID)
		return ErrInternal.WithCause(err)
	}

	s.logger.Info("password reset completed", "user_id", userID)
	return nil
}

package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/identity-service/internal/otp"
)

func TestRequestPasswordReset_SendsCode(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("u1", "alice@example.com", "password123")

	require.NoError(t, env.svc.RequestPasswordReset(context.Background(), "alice@example.com"))

	msg, ok := env.sent.wait(2 * time.Second)
	require.True(t, ok, "expected a reset code email")
	assert.Equal(t, u.Email, msg.Recipient)

	_, err := env.codes.FindActiveByUser(context.Background(), u.ID, otp.PurposePasswordReset)
	assert.NoError(t, err, "a reset code must be outstanding")
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	env := newTestEnv()

	err := env.svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestPasswordReset_DeliveryFailureIsFatal(t *testing.T) {
	env := newTestEnv()
	env.seedUser("u1", "alice@example.com", "password123")
	env.sent.failWith = errBoom

	err := env.svc.RequestPasswordReset(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}

func TestPasswordResetFlow_EndToEnd(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("u1", "alice@example.com", "old-password-1")

	code, err := env.svc.codes.Issue(context.Background(), u.ID, otp.PurposePasswordReset)
	require.NoError(t, err)

	ticket, err := env.svc.ConfirmPasswordResetCode(context.Background(), code)
	require.NoError(t, err)
	require.NotEmpty(t, ticket)

	require.NoError(t, env.svc.ResetPassword(context.Background(), ticket, "new-password-1"))

	// Only the new password signs in.
	_, _, err = env.svc.Signin(context.Background(), "alice@example.com", "old-password-1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = env.svc.Signin(context.Background(), "alice@example.com", "new-password-1")
	assert.NoError(t, err)
}

func TestConfirmPasswordResetCode_InvalidCode(t *testing.T) {
	env := newTestEnv()
	env.seedUser("u1", "alice@example.com", "password123")

	_, err := env.svc.ConfirmPasswordResetCode(context.Background(), "000000")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestConfirmPasswordResetCode_CodeIsSingleUse(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("u1", "alice@example.com", "password123")

	code, err := env.svc.codes.Issue(context.Background(), u.ID, otp.PurposePasswordReset)
	require.NoError(t, err)

	_, err = env.svc.ConfirmPasswordResetCode(context.Background(), code)
	require.NoError(t, err)

	// The same code cannot mint a second ticket.
	_, err = env.svc.ConfirmPasswordResetCode(context.Background(), code)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestResetPassword_TicketIsSingleUse(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("u1", "alice@example.com", "old-password-1")

	code, err := env.svc.codes.Issue(context.Background(), u.ID, otp.PurposePasswordReset)
	require.NoError(t, err)
	ticket, err := env.svc.ConfirmPasswordResetCode(context.Background(), code)
	require.NoError(t, err)

	require.NoError(t, env.svc.ResetPassword(context.Background(), ticket, "new-password-1"))

	err = env.svc.ResetPassword(context.Background(), ticket, "another-password")
	assert.ErrorIs(t, err, ErrNoPendingReset)
}

func TestResetPassword_UnknownTicket(t *testing.T) {
	env := newTestEnv()

	err := env.svc.ResetPassword(context.Background(), "bogus-ticket", "new-password-1")
	assert.ErrorIs(t, err, ErrNoPendingReset)
}

func TestPasswordResetFlow_ConcurrentUsersDoNotInterfere(t *testing.T) {
	env := newTestEnv()
	alice := env.seedUser("u1", "alice@example.com", "alice-pass-1")
	bob := env.seedUser("u2", "bob@example.com", "bob-pass-1")

	aliceCode, err := env.svc.codes.Issue(context.Background(), alice.ID, otp.PurposePasswordReset)
	require.NoError(t, err)
	bobCode, err := env.svc.codes.Issue(context.Background(), bob.ID, otp.PurposePasswordReset)
	require.NoError(t, err)

	// Bob confirming does not disturb Alice's outstanding code or ticket.
	bobTicket, err := env.svc.ConfirmPasswordResetCode(context.Background(), bobCode)
	require.NoError(t, err)
	aliceTicket, err := env.svc.ConfirmPasswordResetCode(context.Background(), aliceCode)
	require.NoError(t, err)

	require.NoError(t, env.svc.ResetPassword(context.Background(), bobTicket, "bob-pass-2"))
	require.NoError(t, env.svc.ResetPassword(context.Background(), aliceTicket, "alice-pass-2"))

	_, _, err = env.svc.Signin(context.Background(), "alice@example.com", "alice-pass-2")
	assert.NoError(t, err)
	_, _, err = env.svc.Signin(context.Background(), "bob@example.com", "bob-pass-2")
	assert.NoError(t, err)
}

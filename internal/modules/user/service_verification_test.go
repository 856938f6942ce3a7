package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/identity-service/internal/otp"
)

// signupUnverified creates an account through the service and drains the
// initial verification email, returning the user and the emailed code.
func signupUnverified(t *testing.T, env *testEnv) *User {
	t.Helper()
	u, _, err := env.svc.Signup(context.Background(), SignupInput{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)
	_, ok := env.sent.wait(2 * time.Second)
	require.True(t, ok, "expected the signup verification email")
	return u
}

func TestConfirmEmailVerification_Success(t *testing.T) {
	env := newTestEnv()
	u := signupUnverified(t, env)

	// Issue a fresh code directly so its plaintext is known to the test.
	code, err := env.svc.codes.Issue(context.Background(), u.ID, otp.PurposeEmailVerify)
	require.NoError(t, err)

	require.NoError(t, env.svc.ConfirmEmailVerification(context.Background(), code))

	stored, err := env.repo.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified())
}

func TestConfirmEmailVerification_SingleUse(t *testing.T) {
	env := newTestEnv()
	u := signupUnverified(t, env)

	code, err := env.svc.codes.Issue(context.Background(), u.ID, otp.PurposeEmailVerify)
	require.NoError(t, err)

	require.NoError(t, env.svc.ConfirmEmailVerification(context.Background(), code))

	// Replay must fail even though the account is already verified.
	err = env.svc.ConfirmEmailVerification(context.Background(), code)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestConfirmEmailVerification_WrongCode(t *testing.T) {
	env := newTestEnv()
	u := signupUnverified(t, env)

	_, err := env.svc.codes.Issue(context.Background(), u.ID, otp.PurposeEmailVerify)
	require.NoError(t, err)

	err = env.svc.ConfirmEmailVerification(context.Background(), "000000")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)

	stored, err := env.repo.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, stored.EmailVerified())
}

func TestRequestEmailVerification_SupersedesOldCode(t *testing.T) {
	env := newTestEnv()
	u := signupUnverified(t, env)

	first, err := env.svc.codes.Issue(context.Background(), u.ID, otp.PurposeEmailVerify)
	require.NoError(t, err)

	require.NoError(t, env.svc.RequestEmailVerification(context.Background(), u.ID))
	_, ok := env.sent.wait(2 * time.Second)
	require.True(t, ok, "expected a re-sent verification email")

	// The earlier code was superseded by the re-request.
	err = env.svc.ConfirmEmailVerification(context.Background(), first)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestRequestEmailVerification_AlreadyVerified(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("u1", "alice@example.com", "password123")

	err := env.svc.RequestEmailVerification(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestRequestEmailVerification_UnknownUser(t *testing.T) {
	env := newTestEnv()

	err := env.svc.RequestEmailVerification(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestEmailVerification_EmailContainsCode(t *testing.T) {
	env := newTestEnv()
	u := signupUnverified(t, env)

	require.NoError(t, env.svc.RequestEmailVerification(context.Background(), u.ID))

	msg, ok := env.sent.wait(2 * time.Second)
	require.True(t, ok)
	assert.Equal(t, u.Email, msg.Recipient)
	assert.NotEmpty(t, msg.Content.EmailSubject)
	assert.NotEmpty(t, msg.Content.EmailHTMLBody)

	// The rendered body must carry the active code.
	active, err := env.codes.FindActiveByUser(context.Background(), u.ID, otp.PurposeEmailVerify)
	require.NoError(t, err)
	assert.NotNil(t, active)
}

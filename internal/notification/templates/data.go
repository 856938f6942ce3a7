package templates

// VerifyEmailData holds variables for the user.verify_email scenario.
type VerifyEmailData struct {
	Username     string
	Code         string
	TTLMinutes   int
	SupportEmail string
}

// VerifyEmail is the typed handle for the user.verify_email template.
var VerifyEmail = Expect[VerifyEmailData]("user.verify_email")

// PasswordResetCodeData holds variables for sending a password reset code.
type PasswordResetCodeData struct {
	Username     string
	Code         string
	TTLMinutes   int
	SupportEmail string
}

// PasswordResetCode is the typed handle for the user.password_reset_code template.
var PasswordResetCode = Expect[PasswordResetCodeData]("user.password_reset_code")

package types

// ------------------------------
// Request Types
// ------------------------------

// LoginRequest holds credentials for /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest holds parameters for a new account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// RefreshRequest carries the refresh token for /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ResetPasswordRequest asks the server to start a password reset.
type ResetPasswordRequest struct {
	Email string `json:"email"`
}

// ResendConfirmationRequest asks the server to resend the signup email.
type ResendConfirmationRequest struct {
	Email string `json:"email"`
}

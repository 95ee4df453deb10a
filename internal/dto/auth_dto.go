package dto

// SendCodeRequest asks for a verification code to be delivered to a phone.
type SendCodeRequest struct {
	Phone string `json:"phone" validate:"required,len=11,numeric"`
}

// VerifyCodeRequest checks a previously delivered code.
type VerifyCodeRequest struct {
	Phone string `json:"phone" validate:"required,len=11,numeric"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// LoginRequest signs a user in with phone + code, registering on first login.
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required,len=11,numeric"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
	Nickname string `json:"nickname" validate:"omitempty,max=64"`
}

// RegisterRequest creates a new account explicitly.
type RegisterRequest struct {
	Phone    string `json:"phone" validate:"required,len=11,numeric"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
	Nickname string `json:"nickname" validate:"required,max=64"`
}

// TokenResponse carries an issued access token and the authenticated user.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

// Package types holds the request and response messages shared by the HTTP
// and gRPC transports.
package types

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) GetEmail() string {
	if r == nil {
		return ""
	}
	return r.Email
}

func (r *RegisterRequest) GetPassword() string {
	if r == nil {
		return ""
	}
	return r.Password
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) GetEmail() string {
	if r == nil {
		return ""
	}
	return r.Email
}

func (r *LoginRequest) GetPassword() string {
	if r == nil {
		return ""
	}
	return r.Password
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r *ForgotPasswordRequest) GetEmail() string {
	if r == nil {
		return ""
	}
	return r.Email
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (r *ResetPasswordRequest) GetToken() string {
	if r == nil {
		return ""
	}
	return r.Token
}

func (r *ResetPasswordRequest) GetNewPassword() string {
	if r == nil {
		return ""
	}
	return r.NewPassword
}

type VerifyEmailRequest struct {
	Token string `json:"token" query:"token"`
}

func (r *VerifyEmailRequest) GetToken() string {
	if r == nil {
		return ""
	}
	return r.Token
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (r *MessageResponse) GetMessage() string {
	if r == nil {
		return ""
	}
	return r.Message
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (r *LoginResponse) GetAccessToken() string {
	if r == nil {
		return ""
	}
	return r.AccessToken
}

type AccountResponse struct {
	ID         uint64 `json:"id"`
	Email      string `json:"email"`
	IsVerified bool   `json:"is_verified"`
}

// CurrentAccountRequest carries the session token for transports that have
// no Authorization header.
type CurrentAccountRequest struct {
	AccessToken string `json:"access_token"`
}

func (r *CurrentAccountRequest) GetAccessToken() string {
	if r == nil {
		return ""
	}
	return r.AccessToken
}

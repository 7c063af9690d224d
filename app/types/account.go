package types

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
)

// maxEmailLength is the longest address SMTP forward paths allow.
const maxEmailLength = 254

var (
	errInvalidEmail = errors.New("email is not a valid address")
	errEmailTooLong = errors.New("email must be at most 254 characters long")
)

func NewRegisterRequestFromContext(ctx echo.Context) (*RegisterRequest, error) {
	var body RegisterRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.GetEmail()) == "" || strings.TrimSpace(r.GetPassword()) == "" {
		return errors.New("email and password are required")
	}

	return validateEmail(r.GetEmail())
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.GetEmail()) == "" || strings.TrimSpace(r.GetPassword()) == "" {
		return errors.New("email and password are required")
	}

	return nil
}

func NewForgotPasswordRequestFromContext(ctx echo.Context) (*ForgotPasswordRequest, error) {
	var body ForgotPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ForgotPasswordRequest) Validate() error {
	if strings.TrimSpace(r.GetEmail()) == "" {
		return errors.New("email is required")
	}

	return validateEmail(r.GetEmail())
}

func NewResetPasswordRequestFromContext(ctx echo.Context) (*ResetPasswordRequest, error) {
	var body ResetPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ResetPasswordRequest) Validate() error {
	if strings.TrimSpace(r.GetToken()) == "" || strings.TrimSpace(r.GetNewPassword()) == "" {
		return errors.New("token and new_password are required")
	}

	return nil
}

// NewVerifyEmailRequestFromContext reads the token from the query string.
func NewVerifyEmailRequestFromContext(ctx echo.Context) (*VerifyEmailRequest, error) {
	var body VerifyEmailRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *VerifyEmailRequest) Validate() error {
	if strings.TrimSpace(r.GetToken()) == "" {
		return errors.New("token is required")
	}

	return nil
}

// validateEmail accepts a bare address only. Display names and surrounding
// whitespace are rejected so the stored email is exactly what was sent.
func validateEmail(email string) error {
	if len(email) > maxEmailLength {
		return errEmailTooLong
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errInvalidEmail
	}

	return nil
}

package controller

import (
	"errors"
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-accounts/app/dto/http"
	"github.com/vibast-solutions/ms-go-accounts/app/middleware"
	"github.com/vibast-solutions/ms-go-accounts/app/service"
	"github.com/vibast-solutions/ms-go-accounts/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AccountAuthController struct {
	accountAuthService service.AccountAuthService
}

func NewAccountAuthController(accountAuthService service.AccountAuthService) *AccountAuthController {
	return &AccountAuthController{accountAuthService: accountAuthService}
}

func (c *AccountAuthController) Register(ctx echo.Context) error {
	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.GetEmail()).Debug("Register validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.GetEmail()).Info("Register request received")
	result, err := c.accountAuthService.Register(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEmail) {
			logrus.WithField("email", req.GetEmail()).Warn("Register failed: email already registered")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "email already registered"})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", req.GetEmail()).Warn("Register failed: weak password")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).WithField("email", req.GetEmail()).Error("Register failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("email", req.GetEmail()).Info("Account registered")
	return ctx.JSON(http.StatusOK, result)
}

func (c *AccountAuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.GetEmail()).Debug("Login validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.GetEmail()).Info("Login request received")
	result, err := c.accountAuthService.Login(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.GetEmail()).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid credentials"})
		}
		if errors.Is(err, service.ErrNotVerified) {
			logrus.WithField("email", req.GetEmail()).Warn("Login failed: email not verified")
			return ctx.JSON(http.StatusForbidden, httpdto.ErrorResponse{Error: "email not verified"})
		}
		logrus.WithError(err).WithField("email", req.GetEmail()).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("email", req.GetEmail()).Info("Login successful")
	return ctx.JSON(http.StatusOK, result)
}

func (c *AccountAuthController) ForgotPassword(ctx echo.Context) error {
	req, err := types.NewForgotPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind forgot password request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.GetEmail()).Debug("Forgot password validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.GetEmail()).Info("Forgot password request received")
	result, err := c.accountAuthService.ForgotPassword(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logrus.WithField("email", req.GetEmail()).Warn("Forgot password failed: account not found")
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "account not found"})
		}
		logrus.WithError(err).WithField("email", req.GetEmail()).Error("Forgot password failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("email", req.GetEmail()).Info("Password reset token issued")
	return ctx.JSON(http.StatusOK, result)
}

func (c *AccountAuthController) ResetPassword(ctx echo.Context) error {
	req, err := types.NewResetPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Reset password validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.Info("Reset password request received")
	result, err := c.accountAuthService.ResetPassword(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrExpiredToken) {
			logrus.WithError(err).Warn("Reset password failed: invalid or expired token")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid or expired token"})
		}
		if errors.Is(err, service.ErrNotFound) {
			logrus.Warn("Reset password failed: no account holds this token")
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "account not found"})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.Warn("Reset password failed: weak password")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).Error("Reset password failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.Info("Password reset successful")
	return ctx.JSON(http.StatusOK, result)
}

func (c *AccountAuthController) VerifyEmail(ctx echo.Context) error {
	req, err := types.NewVerifyEmailRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind verify email request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request"})
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Verify email validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.Info("Verify email request received")
	result, err := c.accountAuthService.VerifyEmail(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrExpiredToken) {
			logrus.WithError(err).Warn("Verify email failed: invalid or expired token")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid or expired token"})
		}
		if errors.Is(err, service.ErrNotFound) {
			logrus.Warn("Verify email failed: no account holds this token")
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "account not found"})
		}
		logrus.WithError(err).Error("Verify email failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.Info("Email verified")
	return ctx.JSON(http.StatusOK, result)
}

// Me returns the account behind the session token. It must run behind
// middleware.AuthMiddleware.RequireAuth.
func (c *AccountAuthController) Me(ctx echo.Context) error {
	email, ok := ctx.Get(middleware.ContextKeyEmail).(string)
	if !ok || email == "" {
		logrus.Warn("Me failed: missing email in context")
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	result, err := c.accountAuthService.CurrentAccount(ctx.Request().Context(), email)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logrus.WithField("email", email).Warn("Me failed: account not found")
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "account not found"})
		}
		logrus.WithError(err).WithField("email", email).Error("Me failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	tokenID, _ := ctx.Get(middleware.ContextKeyTokenID).(string)
	logrus.WithFields(logrus.Fields{
		"email":    email,
		"token_id": tokenID,
	}).Info("Account profile served")
	return ctx.JSON(http.StatusOK, result)
}
